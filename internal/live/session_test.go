package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/models"
	"yoga-guide/internal/pose"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	sched    *manualScheduler
	source   *fakeSource
	est      *fakeEstimator
	renderer *recordingRenderer
	session  *Session
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		sched:    &manualScheduler{},
		source:   &fakeSource{ready: true, frame: models.Frame{Seq: 1, Width: 640, Height: 480}},
		est:      &fakeEstimator{poses: []models.Pose{goodTreePose()}},
		renderer: &recordingRenderer{},
	}
	h.session = NewSession(h.source, factoryFor(h.est), h.sched, h.renderer, logger.NewTestLogger(t), WithSessionID("test-session"))
	return h
}

func TestSession_StartRunsAndClassifies(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.session.Start(context.Background()))
	assert.Equal(t, StateRunning, h.session.State())
	assert.Equal(t, []string{MessageInitializing, pose.MessageFullBodyNeeded}, h.renderer.Messages())
	assert.Equal(t, 1, h.sched.Pending())

	require.True(t, h.sched.RunNext())

	assert.Equal(t, models.PoseFeedback{Correct: true, Message: pose.MessageGreatForm}, h.session.Feedback())
	assert.Equal(t, 1, h.sched.Pending(), "next iteration scheduled")

	last := h.renderer.Last()
	assert.Equal(t, "test-session", last.SessionID)
	assert.True(t, last.Correct)
	assert.Equal(t, uint64(1), last.Seq)
	assert.Len(t, last.Keypoints, 5, "low-confidence nose is not drawn")
}

func TestSession_SkipsUnreadyFrames(t *testing.T) {
	h := newHarness(t)
	h.source.ready = false

	require.NoError(t, h.session.Start(context.Background()))
	require.True(t, h.sched.RunNext())

	assert.Equal(t, 0, h.est.Calls())
	assert.Equal(t, models.PoseFeedback{}, h.session.Feedback())
	assert.Equal(t, 1, h.sched.Pending())
	assert.Equal(t, StateRunning, h.session.State())
}

func TestSession_SwallowsEstimationErrors(t *testing.T) {
	h := newHarness(t)
	h.est.err = errBoom

	require.NoError(t, h.session.Start(context.Background()))
	for i := 0; i < 3; i++ {
		require.True(t, h.sched.RunNext())
	}

	assert.Equal(t, 3, h.est.Calls())
	assert.Equal(t, StateRunning, h.session.State())
	assert.Equal(t, models.PoseFeedback{}, h.session.Feedback())
	assert.Equal(t, 1, h.sched.Pending())
}

func TestSession_NoPosesLeavesFeedback(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))
	require.True(t, h.sched.RunNext())
	before := h.session.Feedback()

	h.est.mu.Lock()
	h.est.poses = nil
	h.est.mu.Unlock()
	require.True(t, h.sched.RunNext())

	assert.Equal(t, before, h.session.Feedback())
	assert.Equal(t, uint64(1), h.session.Frames())
}

func TestSession_AcquisitionFailures(t *testing.T) {
	tests := []struct {
		name         string
		openErr      error
		factory      EstimatorFactory
		wantResource string
		wantCloses   int
	}{
		{"camera denied", errors.New("permission denied"), factoryFor(&fakeEstimator{}), "camera", 0},
		{"estimator load failed", nil, failingFactory(errBoom), "estimator", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &manualScheduler{}
			src := &fakeSource{openErr: tt.openErr}
			r := &recordingRenderer{}
			s := NewSession(src, tt.factory, sched, r, logger.NewTestLogger(t))

			err := s.Start(context.Background())

			var aerr *AcquisitionError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.wantResource, aerr.Resource)
			assert.Equal(t, "ACQUISITION_FAILED", string(aerr.Standard().Code))
			assert.Equal(t, StateError, s.State())
			assert.Equal(t, MessageLoadFailed, r.Last().Message)
			assert.Equal(t, 0, sched.Pending())
			assert.Equal(t, tt.wantCloses, src.Closes())

			assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted, "no retry")
			require.NoError(t, s.Dispose())
			assert.Equal(t, tt.wantCloses, src.Closes())
		})
	}
}

func TestSession_DisposeCancelsAndReleases(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))
	require.Equal(t, 1, h.sched.Pending())

	require.NoError(t, h.session.Dispose())
	require.NoError(t, h.session.Dispose())

	assert.Equal(t, StateDisposed, h.session.State())
	assert.Equal(t, 0, h.sched.Pending())
	assert.False(t, h.sched.RunNext())
	assert.Equal(t, 1, h.est.Disposes())
	assert.Equal(t, 1, h.source.Closes())
	assert.ErrorIs(t, h.session.Start(context.Background()), ErrDisposed)
}

func TestSession_DiscardsResultAfterDispose(t *testing.T) {
	h := newHarness(t)
	h.est.gate = make(chan struct{})
	require.NoError(t, h.session.Start(context.Background()))
	rendered := len(h.renderer.Messages())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.sched.RunNext()
	}()

	require.Eventually(t, func() bool { return h.est.Calls() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, h.session.Dispose())
	close(h.est.gate)
	<-done

	assert.Equal(t, models.PoseFeedback{}, h.session.Feedback())
	assert.Len(t, h.renderer.Messages(), rendered)
	assert.Equal(t, 0, h.sched.Pending(), "no iteration scheduled after dispose")
	assert.Equal(t, StateDisposed, h.session.State())
}

// gatedRenderer blocks frame overlays until released.
type gatedRenderer struct {
	recordingRenderer
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRenderer) Render(ctx context.Context, o Overlay) error {
	if o.Seq > 0 {
		close(r.entered)
		<-r.release
	}
	return r.recordingRenderer.Render(ctx, o)
}

func TestSession_DisposeWaitsForInFlightRender(t *testing.T) {
	sched := &manualScheduler{}
	src := &fakeSource{ready: true, frame: models.Frame{Seq: 1}}
	r := &gatedRenderer{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(src, factoryFor(&fakeEstimator{poses: []models.Pose{goodTreePose()}}), sched, r, logger.NewTestLogger(t))
	require.NoError(t, s.Start(context.Background()))

	go sched.RunNext()
	<-r.entered

	disposed := make(chan struct{})
	go func() {
		defer close(disposed)
		_ = s.Dispose()
	}()

	assert.Never(t, func() bool {
		select {
		case <-disposed:
			return true
		default:
			return false
		}
	}, 30*time.Millisecond, time.Millisecond, "Dispose returned while a render was in flight")

	close(r.release)
	<-disposed
	rendered := len(r.Messages())

	s.render(Overlay{State: StateRunning, Message: "late"})
	assert.Len(t, r.Messages(), rendered, "no overlay after Dispose")
	assert.NotContains(t, r.Messages(), "late")
}

func TestSession_DisposeDuringAcquisition(t *testing.T) {
	est := &fakeEstimator{}
	release := make(chan struct{})
	entered := make(chan struct{})
	factory := func(context.Context) (Estimator, error) {
		close(entered)
		<-release
		return est, nil
	}

	src := &fakeSource{ready: true}
	sched := &manualScheduler{}
	s := NewSession(src, factory, sched, nil, logger.NewTestLogger(t))

	errc := make(chan error, 1)
	go func() { errc <- s.Start(context.Background()) }()

	<-entered
	require.NoError(t, s.Dispose())
	close(release)

	assert.ErrorIs(t, <-errc, ErrDisposed)
	assert.Equal(t, 1, est.Disposes(), "late estimator released")
	assert.Equal(t, 1, src.Closes())
	assert.Equal(t, StateDisposed, s.State())
	assert.Equal(t, 0, sched.Pending())
}

// slowEstimator tracks how many Estimate calls run at once.
type slowEstimator struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (e *slowEstimator) Estimate(context.Context, models.Frame) ([]models.Pose, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		m := e.maxSeen.Load()
		if n <= m || e.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	e.calls.Add(1)
	time.Sleep(3 * time.Millisecond)
	return []models.Pose{goodTreePose()}, nil
}

func (e *slowEstimator) Dispose() error { return nil }

func TestSession_NeverOverlapsWithRealScheduler(t *testing.T) {
	est := &slowEstimator{}
	src := &fakeSource{ready: true, frame: models.Frame{Seq: 1}}
	factory := func(context.Context) (Estimator, error) { return est, nil }

	s := NewSession(src, factory, TickerScheduler{Interval: time.Millisecond}, nil, logger.NewNoOpLogger())
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return est.calls.Load() >= 5 }, 2*time.Second, time.Millisecond)
	require.NoError(t, s.Dispose())

	assert.Equal(t, int32(1), est.maxSeen.Load())
}

func TestSession_ConcurrentDisposeIsSafe(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.session.Dispose()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.est.Disposes())
	assert.Equal(t, 1, h.source.Closes())
}
