package capture

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
)

// testSource pumps gray frames continuously until stopped.
type testSource struct {
	startErr error

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

func (s *testSource) Start(ctx context.Context) (<-chan RawFrame, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	ch := make(chan RawFrame, 1)
	go func() {
		defer close(ch)
		var seq uint64
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		for {
			select {
			case <-runCtx.Done():
				return
			case ch <- RawFrame{Seq: seq, Timestamp: time.Now(), Image: img, Width: 8, Height: 8}:
				seq++
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}()
	return ch, nil
}

func (s *testSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *testSource) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func fastConfig() *core.Config {
	conf := core.NewConfig()
	conf.Capture.TickInterval = 2 * time.Millisecond
	return conf
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestController_capturesUntilQuotaMet(t *testing.T) {
	steps := []Step{
		{ID: "front", Title: "Look straight", Required: 2},
		{ID: "left", Title: "Turn left", Required: 1},
	}
	src := &testSource{}
	validator := NewValidator(&scriptedAnalyzer{res: goodResult()}, fastConfig(), nopLogger{})

	var (
		mu        sync.Mutex
		completed []Frame
	)
	c := NewController(fastConfig(), nopLogger{}, src, validator, steps, func(frames []Frame) {
		mu.Lock()
		completed = frames
		mu.Unlock()
	}, Hooks{})

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	if got := c.Phase(); got != PhaseCapture {
		t.Fatalf("Phase() = %v, want %v", got, PhaseCapture)
	}
	c.AcknowledgeGuidance()

	waitFor(t, func() bool { return c.Phase() == PhaseProcessing }, "never reached the processing phase")

	mu.Lock()
	frames := completed
	mu.Unlock()
	if len(frames) != 3 {
		t.Fatalf("completed with %d frames, want 3", len(frames))
	}
	wantSteps := []string{"front", "front", "left"}
	for i, f := range frames {
		if f.StepID != wantSteps[i] {
			t.Errorf("frame %d StepID = %q, want %q", i, f.StepID, wantSteps[i])
		}
		if len(f.Data) == 0 {
			t.Errorf("frame %d has no JPEG data", i)
		}
	}
	if !src.wasStopped() {
		t.Error("camera must be stopped once the quota is met")
	}
}

func TestController_noCaptureBeforeAcknowledgment(t *testing.T) {
	src := &testSource{}
	validator := NewValidator(&scriptedAnalyzer{res: goodResult()}, fastConfig(), nopLogger{})
	c := NewController(fastConfig(), nopLogger{}, src, validator, []Step{{ID: "front", Required: 1}}, nil, Hooks{})

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer c.Exit()

	time.Sleep(20 * time.Millisecond)
	if captured, _ := c.Progress(); captured != 0 {
		t.Errorf("captured %d frames before guidance acknowledgment, want 0", captured)
	}
}

func TestController_beginFailsWhenCameraUnavailable(t *testing.T) {
	src := &testSource{startErr: errors.New("device busy")}
	validator := NewValidator(&scriptedAnalyzer{res: goodResult()}, fastConfig(), nopLogger{})

	var lastStatus string
	c := NewController(fastConfig(), nopLogger{}, src, validator, DefaultSteps(), nil, Hooks{
		Status: func(msg string) { lastStatus = msg },
	})

	if err := c.Begin(context.Background()); err == nil {
		t.Fatal("Begin() must fail when the camera cannot start")
	}
	if got := c.Phase(); got != PhaseIntro {
		t.Errorf("Phase() = %v after camera failure, want %v", got, PhaseIntro)
	}
	if lastStatus != "camera unavailable, check permissions" {
		t.Errorf("status = %q", lastStatus)
	}
}

func TestController_beginWhileActive(t *testing.T) {
	src := &testSource{}
	validator := NewValidator(&scriptedAnalyzer{res: goodResult()}, fastConfig(), nopLogger{})
	c := NewController(fastConfig(), nopLogger{}, src, validator, DefaultSteps(), nil, Hooks{})

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer c.Exit()

	if err := c.Begin(context.Background()); err != ErrCaptureActive {
		t.Errorf("Begin() error = %v, want %v", err, ErrCaptureActive)
	}
}

func TestController_exitDiscardsFrames(t *testing.T) {
	src := &testSource{}
	validator := NewValidator(&scriptedAnalyzer{res: goodResult()}, fastConfig(), nopLogger{})
	c := NewController(fastConfig(), nopLogger{}, src, validator, DefaultSteps(), nil, Hooks{})

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	c.AcknowledgeGuidance()
	waitFor(t, func() bool { captured, _ := c.Progress(); return captured > 0 }, "no frame was ever captured")

	c.Exit()
	if got := c.Phase(); got != PhaseIntro {
		t.Errorf("Phase() = %v after exit, want %v", got, PhaseIntro)
	}
	if frames := c.Frames(); len(frames) != 0 {
		t.Errorf("Frames() kept %d frames after exit, want 0", len(frames))
	}
	if captured, _ := c.Progress(); captured != 0 {
		t.Errorf("Progress() captured = %d after exit, want 0", captured)
	}
	if !src.wasStopped() {
		t.Error("camera must be stopped on exit")
	}
}

func TestController_processingSucceeded(t *testing.T) {
	src := &testSource{}
	validator := NewValidator(&scriptedAnalyzer{res: goodResult()}, fastConfig(), nopLogger{})
	c := NewController(fastConfig(), nopLogger{}, src, validator, []Step{{ID: "front", Required: 1}}, nil, Hooks{})

	// not in processing yet: no-op
	c.ProcessingSucceeded()
	if got := c.Phase(); got != PhaseIntro {
		t.Fatalf("Phase() = %v, want %v", got, PhaseIntro)
	}

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	c.AcknowledgeGuidance()
	waitFor(t, func() bool { return c.Phase() == PhaseProcessing }, "never reached the processing phase")

	c.ProcessingSucceeded()
	if got := c.Phase(); got != PhaseSuccess {
		t.Errorf("Phase() = %v, want %v", got, PhaseSuccess)
	}
}

func TestController_restartCapture(t *testing.T) {
	src := &testSource{}
	validator := NewValidator(&scriptedAnalyzer{res: goodResult()}, fastConfig(), nopLogger{})
	c := NewController(fastConfig(), nopLogger{}, src, validator, []Step{{ID: "front", Required: 1}}, nil, Hooks{})

	if err := c.RestartCapture(context.Background()); err != ErrNotProcessing {
		t.Fatalf("RestartCapture() error = %v, want %v", err, ErrNotProcessing)
	}

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	c.AcknowledgeGuidance()
	waitFor(t, func() bool { return c.Phase() == PhaseProcessing }, "never reached the processing phase")

	if err := c.RestartCapture(context.Background()); err != nil {
		t.Fatalf("RestartCapture() failed: %v", err)
	}
	defer c.Exit()
	if got := c.Phase(); got != PhaseCapture {
		t.Errorf("Phase() = %v after restart, want %v", got, PhaseCapture)
	}
	if captured, _ := c.Progress(); captured != 0 {
		t.Errorf("Progress() captured = %d after restart, want 0", captured)
	}
}
