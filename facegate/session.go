// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package facegate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNoCamera       = errors.New("no camera device")
	ErrCaptureAborted = errors.New("face lost during capture")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNoDetector     = errors.New("no face detector")
	ErrLoopRunning    = errors.New("previous frame loop still running")
)

// DeviceError means the camera could not be acquired. The session never
// reaches Searching and the user has to act before retrying.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("camera unavailable: %v", e.Err) }

func (e *DeviceError) Unwrap() error { return e.Err }

// Detector wraps the face detection and recognition model.
// Both methods return (nil, nil) when no face is found.
type Detector interface {
	// Detect finds a face and its landmarks.
	Detect(ctx context.Context, frame image.Image, opts DetectorOptions) (*Detection, error)
	// Describe is Detect plus descriptor extraction.
	Describe(ctx context.Context, frame image.Image, opts DetectorOptions) (*Detection, error)
}

// Camera acquires a video stream.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera feed bound to a video sink.
type Stream interface {
	// Frame returns the current frame, or nil before the first one arrives.
	Frame() image.Image
	Tracks() []Track
	// Detach releases the video sink.
	Detach()
}

// Track is one media track of a Stream.
type Track interface {
	Stop()
	// Ended is closed once the track has stopped.
	Ended() <-chan struct{}
}

// Callbacks receive session output. Either may be nil.
// They run on the session's frame goroutine and may call Stop, which then
// returns without waiting for the loop.
type Callbacks struct {
	OnStatus   func(Status)
	OnCaptured func(Descriptor)
}

// Session drives one camera through the alignment gate and emits a single
// averaged descriptor. A Session may be restarted after Stop.
type Session struct {
	cam  Camera
	det  Detector
	opts Options
	cb   Callbacks
	log  *slog.Logger

	mu        sync.Mutex
	stream    Stream
	cancel    context.CancelFunc
	done      chan struct{} // closed when the frame loop returns
	state     State
	capturing bool
	status    Status

	notifying atomic.Int32
}

// NewSession builds a session. Zero option fields take DefaultOptions values.
func NewSession(cam Camera, det Detector, opts Options, cb Callbacks) *Session {
	return &Session{
		cam:  cam,
		det:  det,
		opts: opts.withDefaults(),
		cb:   cb,
		log:  slog.Default().With("component", "facegate"),
	}
}

// SetLogger replaces the session logger.
func (s *Session) SetLogger(l *slog.Logger) {
	s.log = l
}

// Start acquires the camera and begins the frame loop, which runs until a
// descriptor is emitted, Stop is called or ctx is done.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil || s.stream != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.done != nil && !isClosed(s.done) {
		s.mu.Unlock()
		return ErrLoopRunning
	}
	s.state = State{}
	s.capturing = false
	s.mu.Unlock()

	if s.det == nil {
		return ErrNoDetector
	}
	s.setStatus(StatusInitializing)

	if s.cam == nil {
		s.setStatus(StatusCameraUnavailable)
		return &DeviceError{Err: ErrNoCamera}
	}
	stream, err := s.cam.Open(ctx)
	if err != nil {
		s.log.Warn("camera open failed", "error", err)
		s.setStatus(StatusCameraUnavailable)
		return &DeviceError{Err: err}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.stream = stream
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.setStatus(StatusReady)
	go func() {
		defer close(done)
		s.loop(loopCtx, stream)
	}()
	return nil
}

// Stop halts the frame loop and waits up to StopTimeout for it to return,
// then stops every track, waits up to StopTimeout for them to end and
// detaches the sink. Safe to call repeatedly or before Start.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, stream, done := s.cancel, s.stream, s.done
	s.cancel = nil
	s.stream = nil
	s.capturing = false
	s.state.Stable = 0
	if cancel != nil {
		cancel()
	}
	s.mu.Unlock()

	if stream == nil {
		return
	}

	// From inside a callback the loop is parked in that callback and
	// returns as soon as it resumes.
	if done != nil && s.notifying.Load() == 0 {
		if !waitClosed(done, s.opts.StopTimeout) {
			s.log.Warn("frame loop did not exit before timeout", "timeout", s.opts.StopTimeout)
		}
	}

	tracks := stream.Tracks()
	for _, t := range tracks {
		t.Stop()
	}
	if !waitEnded(tracks, s.opts.StopTimeout) {
		s.log.Warn("camera tracks did not end before timeout", "timeout", s.opts.StopTimeout)
	}
	stream.Detach()
}

// State returns a snapshot of the gate state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the last reported status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) loop(ctx context.Context, stream Stream) {
	ticker := time.NewTicker(time.Second / time.Duration(s.opts.TargetFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if s.tick(ctx, stream) {
			return
		}
	}
}

// tick processes one frame. It reports true when the loop should end.
func (s *Session) tick(ctx context.Context, stream Stream) bool {
	if ctx.Err() != nil {
		return true
	}
	s.mu.Lock()
	done := s.state.Phase == Done
	busy := s.capturing
	s.mu.Unlock()
	if done || busy {
		return done
	}

	frame := stream.Frame()
	if frame == nil {
		return false
	}

	det, err := s.det.Detect(ctx, frame, s.opts.Detector)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		s.log.Debug("detect failed", "error", err)
		det = nil
	}

	s.mu.Lock()
	next, status := s.state.Next(det, sizeOf(frame), s.opts)
	s.state = next
	if next.Phase == Capturing {
		s.capturing = true
	}
	s.mu.Unlock()
	s.setStatus(status)

	if next.Phase != Capturing {
		return false
	}

	desc, err := s.capture(ctx, stream)

	s.mu.Lock()
	if ctx.Err() != nil {
		s.capturing = false
		s.mu.Unlock()
		return true
	}
	if err != nil {
		s.state, status = s.state.CaptureFailed()
		s.capturing = false
		s.mu.Unlock()
		s.log.Debug("capture aborted", "error", err)
		s.setStatus(status)
		return false
	}
	s.state, status = s.state.Captured()
	s.capturing = false
	s.mu.Unlock()

	if s.cb.OnCaptured != nil {
		s.notify(func() { s.cb.OnCaptured(desc) })
	}
	s.setStatus(status)
	s.log.Info("face captured", "dims", len(desc))
	return true
}

// capture extracts CaptureAttempts descriptors with CaptureDelay between
// them and averages them. Cancellation is honored between attempts.
func (s *Session) capture(ctx context.Context, stream Stream) (Descriptor, error) {
	frames := make([]Descriptor, 0, s.opts.CaptureAttempts)
	for i := 0; i < s.opts.CaptureAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 && s.opts.CaptureDelay > 0 {
			t := time.NewTimer(s.opts.CaptureDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		frame := stream.Frame()
		if frame == nil {
			return nil, ErrCaptureAborted
		}
		det, err := s.det.Describe(ctx, frame, s.opts.Detector)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCaptureAborted, err)
		}
		if det == nil || det.Score < s.opts.Detector.ScoreThreshold || len(det.Descriptor) == 0 {
			return nil, ErrCaptureAborted
		}
		frames = append(frames, det.Descriptor)
	}
	return Average(frames)
}

func (s *Session) setStatus(st Status) {
	if st == "" {
		return
	}
	s.mu.Lock()
	changed := s.status != st
	s.status = st
	s.mu.Unlock()

	if changed && s.cb.OnStatus != nil {
		s.notify(func() { s.cb.OnStatus(st) })
	}
}

func (s *Session) notify(f func()) {
	s.notifying.Add(1)
	defer s.notifying.Add(-1)
	f()
}

func sizeOf(frame image.Image) FrameSize {
	b := frame.Bounds()
	return FrameSize{Width: float64(b.Dx()), Height: float64(b.Dy())}.orDefault()
}

// waitEnded reports whether every track ended within timeout.
func waitEnded(tracks []Track, timeout time.Duration) bool {
	all := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for _, t := range tracks {
			select {
			case <-t.Ended():
			case <-quit:
				return
			}
		}
		close(all)
	}()
	return waitClosed(all, timeout)
}

func waitClosed(ch <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
