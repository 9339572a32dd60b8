// Package live runs the capture, infer, evaluate and render cycle of a live
// pose-feedback session.
package live

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"yoga-guide/internal/capture"
	commonerrors "yoga-guide/internal/common/errors"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/common/metrics"
	"yoga-guide/internal/models"
	"yoga-guide/internal/pose"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateUninitialized State = "Uninitialized"
	StateAcquiring     State = "Acquiring"
	StateRunning       State = "Running"
	StateError         State = "Error"
	StateDisposed      State = "Disposed"
)

var allStates = []State{StateUninitialized, StateAcquiring, StateRunning, StateError, StateDisposed}

const (
	MessageInitializing = "Initializing AI..."
	MessageLoadFailed   = "Error loading AI. Refresh page."
)

var (
	ErrDisposed       = errors.New("live: session disposed")
	ErrAlreadyStarted = errors.New("live: session already started")
)

// Estimator finds body poses in a frame. It is owned by exactly one Session.
type Estimator interface {
	Estimate(ctx context.Context, frame models.Frame) ([]models.Pose, error)
	Dispose() error
}

// EstimatorFactory acquires an estimator, for example by loading a model.
type EstimatorFactory func(ctx context.Context) (Estimator, error)

// AcquisitionError is terminal: the session stays in StateError.
type AcquisitionError struct {
	Resource string
	Err      error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("live: acquire %s: %v", e.Resource, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Standard converts the error for logging and workflow reporting.
func (e *AcquisitionError) Standard() *commonerrors.StandardError {
	return commonerrors.NewAcquisitionFailedError(e.Resource, e.Err)
}

type Option func(*Session)

// WithEstimateTimeout bounds each estimation call. Expiry counts as a
// failed frame.
func WithEstimateTimeout(d time.Duration) Option {
	return func(s *Session) { s.estimateTimeout = d }
}

func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session owns one camera source and one estimator for its lifetime.
// Iterations form a chain of scheduler callbacks; each one schedules the
// next only after it has finished, so estimations never overlap.
type Session struct {
	id              string
	source          capture.Source
	newEstimator    EstimatorFactory
	scheduler       Scheduler
	renderer        Renderer
	logger          logger.Logger
	estimateTimeout time.Duration

	// ctx outlives Dispose so an in-flight estimation can finish.
	ctx context.Context

	mu         sync.Mutex
	state      State
	disposed   bool
	sourceOpen bool
	estimator  Estimator
	cancelNext func()
	feedback   models.PoseFeedback
	frames     uint64

	// renderMu serializes renders with Dispose so no overlay is drawn
	// after Dispose returns.
	renderMu sync.Mutex

	disposeOnce sync.Once
	disposeErr  error
}

func NewSession(source capture.Source, factory EstimatorFactory, scheduler Scheduler, renderer Renderer, log logger.Logger, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		source:       source,
		newEstimator: factory,
		scheduler:    scheduler,
		renderer:     renderer,
		state:        StateUninitialized,
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.With(map[string]interface{}{"sessionId": s.id})
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Feedback returns the verdict of the most recent analyzed frame.
func (s *Session) Feedback() models.PoseFeedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

// Frames returns how many frames produced feedback.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Start acquires the camera and the estimator, then schedules the first
// iteration. Acquisition is never retried.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.ctx = context.WithoutCancel(ctx)
	s.setStateLocked(StateAcquiring)
	s.mu.Unlock()

	s.render(Overlay{State: StateAcquiring, Message: MessageInitializing})

	if err := s.source.Open(ctx); err != nil {
		return s.fail("camera", err)
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		s.closeSource()
		return ErrDisposed
	}
	s.sourceOpen = true
	s.mu.Unlock()

	est, err := s.newEstimator(ctx)
	if err != nil {
		return s.fail("estimator", err)
	}

	s.mu.Lock()
	if s.disposed {
		// Dispose ran while the estimator loaded; release it here.
		s.mu.Unlock()
		if derr := est.Dispose(); derr != nil {
			s.logger.Warn("late estimator release failed", map[string]interface{}{"error": derr.Error()})
		}
		return ErrDisposed
	}
	s.estimator = est
	s.setStateLocked(StateRunning)
	s.mu.Unlock()

	s.logger.Info("live session running", nil)
	s.render(Overlay{State: StateRunning, Message: pose.MessageFullBodyNeeded})
	s.scheduleNext()
	return nil
}

func (s *Session) fail(resource string, cause error) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.setStateLocked(StateError)
	opened := s.sourceOpen
	s.sourceOpen = false
	s.mu.Unlock()

	if opened {
		s.closeSource()
	}

	aerr := &AcquisitionError{Resource: resource, Err: cause}
	std := aerr.Standard()
	s.logger.Error("live session acquisition failed", map[string]interface{}{
		"errorCode": string(std.Code),
		"resource":  resource,
		"error":     cause.Error(),
	})
	s.render(Overlay{State: StateError, Message: MessageLoadFailed})
	return aerr
}

func (s *Session) scheduleNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.state != StateRunning {
		return
	}
	s.cancelNext = s.scheduler.Schedule(s.iterate)
}

func (s *Session) iterate() {
	s.mu.Lock()
	if s.disposed || s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	est := s.estimator
	s.mu.Unlock()

	defer s.scheduleNext()

	if !s.source.Ready() {
		return
	}
	frame, ok := s.source.Current()
	if !ok {
		return
	}

	ctx := s.ctx
	if s.estimateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.estimateTimeout)
		defer cancel()
	}

	start := time.Now()
	poses, err := est.Estimate(ctx, frame)
	metrics.PoseEstimationDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		return
	}

	if err != nil {
		metrics.PoseEstimationFailures.Inc()
		std := commonerrors.NewFrameEstimationFailedError(frame.Seq, err)
		s.logger.Debug("frame estimation failed", map[string]interface{}{
			"errorCode": string(std.Code),
			"seq":       frame.Seq,
			"error":     err.Error(),
		})
		return
	}
	if len(poses) == 0 {
		return
	}

	fb := pose.ClassifyPose(poses[0])

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.feedback = fb
	s.frames++
	s.mu.Unlock()

	metrics.PoseFramesAnalyzed.WithLabelValues(strconv.FormatBool(fb.Correct)).Inc()

	s.render(Overlay{
		State:     StateRunning,
		Correct:   fb.Correct,
		Message:   fb.Message,
		Seq:       frame.Seq,
		Width:     frame.Width,
		Height:    frame.Height,
		Keypoints: visibleKeypoints(poses[0]),
	})
}

// Dispose cancels the pending iteration and releases the estimator and the
// camera. Only the first call does any work.
func (s *Session) Dispose() error {
	s.disposeOnce.Do(func() {
		s.mu.Lock()
		s.disposed = true
		s.setStateLocked(StateDisposed)
		cancel := s.cancelNext
		s.cancelNext = nil
		est := s.estimator
		s.estimator = nil
		opened := s.sourceOpen
		s.sourceOpen = false
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}

		// wait out a render that passed its disposed check
		s.renderMu.Lock()
		s.renderMu.Unlock()

		var errs []error
		if est != nil {
			if err := est.Dispose(); err != nil {
				errs = append(errs, fmt.Errorf("dispose estimator: %w", err))
			}
		}
		if opened {
			if err := s.source.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close source: %w", err))
			}
		}
		s.disposeErr = errors.Join(errs...)

		s.logger.Info("live session disposed", map[string]interface{}{"frames": s.Frames()})
	})
	return s.disposeErr
}

func (s *Session) closeSource() {
	if err := s.source.Close(); err != nil {
		s.logger.Warn("close source failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	for _, candidate := range allStates {
		v := 0.0
		if candidate == st {
			v = 1
		}
		metrics.LiveSessionState.WithLabelValues(string(candidate)).Set(v)
	}
}

func (s *Session) render(o Overlay) {
	if s.renderer == nil {
		return
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		return
	}

	o.SessionID = s.id
	if err := s.renderer.Render(s.ctx, o); err != nil {
		s.logger.Warn("overlay render failed", map[string]interface{}{"error": err.Error()})
	}
}
