package pose

import (
	"strings"

	"yoga-guide/internal/models"
)

const (
	// StandingLegMinAngle is the smallest hip-knee-ankle angle accepted as a straight leg.
	StandingLegMinAngle = 160.0

	MessageGreatForm      = "Great form! Hold steady."
	MessageStraightenLeg  = "Straighten your standing leg."
	MessageRaiseArms      = "Raise your arms higher above your head."
	MessageFullBodyNeeded = "Go to Full Body View"
)

// ClassifyPose checks a standing balance pose (Vrikshasana).
//
// The right leg is the standing leg. Only the left arm is inspected for the
// raised-arms check.
func ClassifyPose(p models.Pose) models.PoseFeedback {
	hip := p.Keypoint(models.KeypointRightHip)
	knee := p.Keypoint(models.KeypointRightKnee)
	ankle := p.Keypoint(models.KeypointRightAnkle)
	wrist := p.Keypoint(models.KeypointLeftWrist)
	shoulder := p.Keypoint(models.KeypointLeftShoulder)

	if hip == nil || knee == nil || ankle == nil || wrist == nil || shoulder == nil {
		return models.PoseFeedback{Correct: false, Message: MessageFullBodyNeeded}
	}

	var issues []string

	if AngleBetween(hip, knee, ankle) < StandingLegMinAngle {
		issues = append(issues, MessageStraightenLeg)
	}

	// image y grows downward
	if wrist.Y > shoulder.Y {
		issues = append(issues, MessageRaiseArms)
	}

	if len(issues) == 0 {
		return models.PoseFeedback{Correct: true, Message: MessageGreatForm}
	}
	return models.PoseFeedback{Correct: false, Message: strings.Join(issues, " ")}
}
