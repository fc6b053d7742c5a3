package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
)

// Phase is the capture wizard's current screen.
type Phase int

const (
	PhaseIntro Phase = iota
	PhaseCapture
	PhaseProcessing
	PhaseSuccess
)

func (p Phase) String() string {
	switch p {
	case PhaseIntro:
		return "intro"
	case PhaseCapture:
		return "capture"
	case PhaseProcessing:
		return "processing"
	case PhaseSuccess:
		return "success"
	}
	return "unknown"
}

var (
	ErrCaptureActive = errors.New("a capture attempt is already in progress")
	ErrNotProcessing = errors.New("capture is not in the processing phase")
)

// Hooks surface controller activity to the UI layer. All funcs are optional.
type Hooks struct {
	Phase  func(Phase)
	Status func(string)
	// Flash signals a brief visual acknowledgment of an accepted frame.
	Flash func()
}

// Controller drives the timed auto-capture loop: acquires the camera, gates
// loop start on guidance acknowledgment, attempts one capture per tick with
// in-flight mutual exclusion, and hands the full frame set to the enrollment
// pipeline once every pose quota is met.
type Controller struct {
	conf       core.CaptureConfig
	log        core.Logger
	source     Source
	validator  *Validator
	hooks      Hooks
	onComplete func(frames []Frame)

	mu            sync.Mutex
	phase         Phase
	tracker       *Tracker
	frames        []Frame
	guidanceAcked bool
	inFlight      bool
	cancel        context.CancelFunc
	ackCh         chan struct{}
}

func NewController(conf *core.Config, log core.Logger, source Source, validator *Validator, steps []Step, onComplete func([]Frame), hooks Hooks) *Controller {
	return &Controller{
		conf:       conf.Capture,
		log:        log,
		source:     source,
		validator:  validator,
		hooks:      hooks,
		onComplete: onComplete,
		tracker:    NewTracker(steps),
	}
}

// Begin transitions intro -> capture: resets all capture state, then acquires
// the camera. Acquisition failure reverts to intro with a surfaced error; no
// retry loop.
func (c *Controller) Begin(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == PhaseCapture || c.phase == PhaseProcessing {
		c.mu.Unlock()
		return ErrCaptureActive
	}
	c.tracker.Reset()
	c.frames = nil
	c.guidanceAcked = false
	c.inFlight = false
	c.ackCh = make(chan struct{}, 1)
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	frameCh, err := c.source.Start(runCtx)
	if err != nil {
		cancel()
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		c.status("camera unavailable, check permissions")
		return errors.Wrap(err, "acquiring camera")
	}

	c.setPhase(PhaseCapture)
	c.status("position your face in the frame")
	go c.run(runCtx, frameCh)
	return nil
}

// AcknowledgeGuidance releases the auto-capture loop. Capture does not start
// until both the guidance modal is acknowledged and the camera has delivered
// its first frame.
func (c *Controller) AcknowledgeGuidance() {
	c.mu.Lock()
	c.guidanceAcked = true
	ackCh := c.ackCh
	c.mu.Unlock()
	if ackCh != nil {
		select {
		case ackCh <- struct{}{}:
		default:
		}
	}
}

// Exit tears down the camera and timer and discards all captured frames.
// Valid from any phase; resets to intro.
func (c *Controller) Exit() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.frames = nil
	c.tracker.Reset()
	c.guidanceAcked = false
	c.inFlight = false
	c.phase = PhaseIntro
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := c.source.Stop(); err != nil {
		c.log.Warn("stopping camera on exit", err)
	}
	if c.hooks.Phase != nil {
		c.hooks.Phase(PhaseIntro)
	}
}

// RestartCapture is the "try capture again" recovery action: full reset back
// to the capture phase.
func (c *Controller) RestartCapture(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseProcessing {
		c.mu.Unlock()
		return ErrNotProcessing
	}
	c.phase = PhaseIntro
	c.frames = nil
	c.mu.Unlock()
	return c.Begin(ctx)
}

// ProcessingSucceeded transitions processing -> success and clears the frame
// buffer. Called by the owner once the upload pipeline completes.
func (c *Controller) ProcessingSucceeded() {
	c.mu.Lock()
	if c.phase != PhaseProcessing {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseSuccess
	c.frames = nil
	c.mu.Unlock()
	if c.hooks.Phase != nil {
		c.hooks.Phase(PhaseSuccess)
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Frames returns a snapshot of the accepted frame sequence.
func (c *Controller) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]Frame, len(c.frames))
	copy(cp, c.frames)
	return cp
}

func (c *Controller) Steps() []Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.Steps()
}

func (c *Controller) Progress() (captured, required int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.TotalCaptured(), c.tracker.TotalRequired()
}

// run consumes camera frames and fires capture attempts. The loop holds the
// latest frame only; the camera drops frames we are too slow to take.
func (c *Controller) run(ctx context.Context, frameCh <-chan RawFrame) {
	var (
		latest    RawFrame
		haveFrame bool
		ready     bool
		ticker    *time.Ticker
		tick      <-chan time.Time
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	start := func() {
		ready = true
		ticker = time.NewTicker(c.conf.TickInterval)
		tick = ticker.C
		c.attempt(ctx, latest) // one immediate attempt at start
	}

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frameCh:
			if !ok {
				return
			}
			latest = f
			haveFrame = true
			if !ready && c.acked() {
				start()
			}
		case <-c.ackChan():
			if !ready && haveFrame {
				start()
			}
		case <-tick:
			c.attempt(ctx, latest)
		}
	}
}

func (c *Controller) acked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guidanceAcked
}

func (c *Controller) ackChan() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ackCh
}

// attempt fires one capture unless a prior attempt is still in flight or the
// quota is already met. The tick period can be shorter than a slow validation
// round-trip, so the in-flight flag is load-bearing.
func (c *Controller) attempt(ctx context.Context, raw RawFrame) {
	c.mu.Lock()
	if c.phase != PhaseCapture || c.inFlight || c.tracker.Complete() {
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	go c.capture(ctx, raw)
}

func (c *Controller) capture(ctx context.Context, raw RawFrame) {
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	if raw.Image == nil {
		return
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, raw.Image, &jpeg.Options{Quality: c.conf.JPEGQuality}); err != nil {
		c.log.Warn("encoding frame", err)
		return
	}

	res := c.validator.Validate(ctx, buf.Bytes())

	c.mu.Lock()
	if c.phase != PhaseCapture { // torn down while validating
		c.mu.Unlock()
		return
	}
	if !res.OK {
		c.mu.Unlock()
		c.status(res.Reason)
		return
	}
	step, ok := c.tracker.Record()
	if !ok {
		c.mu.Unlock()
		return
	}
	c.frames = append(c.frames, Frame{
		Data:       buf.Bytes(),
		Width:      raw.Width,
		Height:     raw.Height,
		StepID:     step.ID,
		Box:        res.Box,
		Analysis:   res.Analysis,
		CapturedAt: time.Now().UTC(),
	})
	captured, required := c.tracker.TotalCaptured(), c.tracker.TotalRequired()
	complete := c.tracker.Complete()
	c.mu.Unlock()

	if c.hooks.Flash != nil {
		c.hooks.Flash()
	}
	c.status(fmt.Sprintf("%s captured (%d/%d)", step.Title, captured, required))

	if complete {
		c.finishCapture()
	}
}

// finishCapture transitions capture -> processing the instant the quota is
// met: camera and timer are torn down, then the frame set is handed off.
func (c *Controller) finishCapture() {
	c.mu.Lock()
	if c.phase != PhaseCapture {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.cancel = nil
	c.phase = PhaseProcessing
	frames := make([]Frame, len(c.frames))
	copy(frames, c.frames)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := c.source.Stop(); err != nil {
		c.log.Warn("stopping camera after capture", err)
	}
	if c.hooks.Phase != nil {
		c.hooks.Phase(PhaseProcessing)
	}
	if c.onComplete != nil {
		c.onComplete(frames)
	}
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	if c.hooks.Phase != nil {
		c.hooks.Phase(p)
	}
}

func (c *Controller) status(msg string) {
	if c.hooks.Status != nil {
		c.hooks.Status(msg)
	}
}
