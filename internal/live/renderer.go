package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/models"
)

// OverlayMinScore is the keypoint confidence below which landmarks are not drawn.
const OverlayMinScore = 0.3

// Overlay is the render state of one loop step.
type Overlay struct {
	SessionID string            `json:"session_id"`
	State     State             `json:"state"`
	Correct   bool              `json:"correct"`
	Message   string            `json:"message"`
	Seq       uint64            `json:"seq,omitempty"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	Keypoints []models.Keypoint `json:"keypoints,omitempty"`
}

func visibleKeypoints(p models.Pose) []models.Keypoint {
	out := make([]models.Keypoint, 0, len(p.Keypoints))
	for _, kp := range p.Keypoints {
		if kp.Score > OverlayMinScore {
			out = append(out, kp)
		}
	}
	return out
}

// Renderer draws or forwards an Overlay.
type Renderer interface {
	Render(ctx context.Context, o Overlay) error
}

// LogRenderer logs the overlay message whenever it changes.
type LogRenderer struct {
	logger logger.Logger

	mu   sync.Mutex
	last string
}

func NewLogRenderer(log logger.Logger) *LogRenderer {
	return &LogRenderer{logger: log}
}

func (r *LogRenderer) Render(_ context.Context, o Overlay) error {
	key := string(o.State) + "|" + o.Message

	r.mu.Lock()
	changed := key != r.last
	r.last = key
	r.mu.Unlock()

	if changed {
		r.logger.Info(o.Message, map[string]interface{}{
			"state":     string(o.State),
			"correct":   o.Correct,
			"seq":       o.Seq,
			"keypoints": len(o.Keypoints),
		})
	}
	return nil
}

// Publisher sends a payload to a message topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTTRenderer publishes every overlay as JSON for an external display.
type MQTTRenderer struct {
	pub   Publisher
	topic string
}

func NewMQTTRenderer(pub Publisher, topic string) *MQTTRenderer {
	return &MQTTRenderer{pub: pub, topic: topic}
}

func (r *MQTTRenderer) Render(_ context.Context, o Overlay) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return r.pub.Publish(r.topic, payload)
}

// MultiRenderer fans an overlay out to every renderer, collecting errors.
type MultiRenderer []Renderer

func (m MultiRenderer) Render(ctx context.Context, o Overlay) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
