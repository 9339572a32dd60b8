package live

import (
	"context"
	"errors"
	"sync"

	"yoga-guide/internal/models"
)

// manualScheduler queues callbacks until the test runs them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*task
}

type task struct {
	fn        func()
	cancelled bool
}

func (s *manualScheduler) Schedule(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &task{fn: fn}
	s.tasks = append(s.tasks, t)
	return func() {
		s.mu.Lock()
		t.cancelled = true
		s.mu.Unlock()
	}
}

// RunNext runs the oldest live callback and reports whether one ran.
func (s *manualScheduler) RunNext() bool {
	s.mu.Lock()
	for len(s.tasks) > 0 {
		t := s.tasks[0]
		s.tasks = s.tasks[1:]
		if !t.cancelled {
			s.mu.Unlock()
			t.fn()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type fakeSource struct {
	mu      sync.Mutex
	openErr error
	ready   bool
	frame   models.Frame
	opens   int
	closes  int
}

func (s *fakeSource) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	return s.openErr
}

func (s *fakeSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *fakeSource) Current() (models.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.ready
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSource) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type fakeEstimator struct {
	mu       sync.Mutex
	poses    []models.Pose
	err      error
	gate     chan struct{} // when set, Estimate waits on it
	calls    int
	disposes int
}

func (e *fakeEstimator) Estimate(ctx context.Context, _ models.Frame) ([]models.Pose, error) {
	e.mu.Lock()
	e.calls++
	gate := e.gate
	e.mu.Unlock()

	if gate != nil {
		<-gate
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.poses, e.err
}

func (e *fakeEstimator) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposes++
	return nil
}

func (e *fakeEstimator) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *fakeEstimator) Disposes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposes
}

func factoryFor(e *fakeEstimator) EstimatorFactory {
	return func(context.Context) (Estimator, error) { return e, nil }
}

func failingFactory(err error) EstimatorFactory {
	return func(context.Context) (Estimator, error) { return nil, err }
}

type recordingRenderer struct {
	mu       sync.Mutex
	overlays []Overlay
	err      error
}

func (r *recordingRenderer) Render(_ context.Context, o Overlay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays = append(r.overlays, o)
	return r.err
}

func (r *recordingRenderer) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.overlays))
	for i, o := range r.overlays {
		out[i] = o.Message
	}
	return out
}

func (r *recordingRenderer) Last() Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlays[len(r.overlays)-1]
}

var errBoom = errors.New("boom")

// goodTreePose is a straight standing leg with the left wrist above the shoulder.
func goodTreePose() models.Pose {
	return models.Pose{Score: 0.8, Keypoints: []models.Keypoint{
		{Name: models.KeypointRightHip, X: 100, Y: 200, Score: 0.9},
		{Name: models.KeypointRightKnee, X: 100, Y: 300, Score: 0.9},
		{Name: models.KeypointRightAnkle, X: 100, Y: 400, Score: 0.9},
		{Name: models.KeypointLeftShoulder, X: 80, Y: 150, Score: 0.9},
		{Name: models.KeypointLeftWrist, X: 80, Y: 50, Score: 0.9},
		{Name: models.KeypointNose, X: 90, Y: 100, Score: 0.1},
	}}
}
