package models

// Keypoint names follow the 17-point MoveNet / COCO vocabulary.
const (
	KeypointNose          = "nose"
	KeypointLeftEye       = "left_eye"
	KeypointRightEye      = "right_eye"
	KeypointLeftEar       = "left_ear"
	KeypointRightEar      = "right_ear"
	KeypointLeftShoulder  = "left_shoulder"
	KeypointRightShoulder = "right_shoulder"
	KeypointLeftElbow     = "left_elbow"
	KeypointRightElbow    = "right_elbow"
	KeypointLeftWrist     = "left_wrist"
	KeypointRightWrist    = "right_wrist"
	KeypointLeftHip       = "left_hip"
	KeypointRightHip      = "right_hip"
	KeypointLeftKnee      = "left_knee"
	KeypointRightKnee     = "right_knee"
	KeypointLeftAnkle     = "left_ankle"
	KeypointRightAnkle    = "right_ankle"
)

// KeypointNames lists the vocabulary in MoveNet index order.
var KeypointNames = []string{
	KeypointNose,
	KeypointLeftEye, KeypointRightEye,
	KeypointLeftEar, KeypointRightEar,
	KeypointLeftShoulder, KeypointRightShoulder,
	KeypointLeftElbow, KeypointRightElbow,
	KeypointLeftWrist, KeypointRightWrist,
	KeypointLeftHip, KeypointRightHip,
	KeypointLeftKnee, KeypointRightKnee,
	KeypointLeftAnkle, KeypointRightAnkle,
}

// Keypoint is one body landmark in image coordinates (y grows downward).
type Keypoint struct {
	Name  string  `json:"name" msgpack:"name"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Score float64 `json:"score" msgpack:"score"`
}

// Pose is the set of landmarks estimated for one person in one frame.
type Pose struct {
	Score     float64    `json:"score" msgpack:"score"`
	Keypoints []Keypoint `json:"keypoints" msgpack:"keypoints"`
}

// Keypoint returns the named landmark, or nil when the estimator did not report it.
func (p Pose) Keypoint(name string) *Keypoint {
	for i := range p.Keypoints {
		if p.Keypoints[i].Name == name {
			return &p.Keypoints[i]
		}
	}
	return nil
}

// PoseFeedback is the per-frame form verdict.
type PoseFeedback struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}
