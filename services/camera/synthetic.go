// Package camera provides capture.Source implementations for kiosks that
// have no real device driver attached: a deterministic synthetic stream and
// a JPEG-directory replay stream.
package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/capture"
)

var ErrAlreadyStarted = errors.New("camera already started")

// Synthetic generates gradient frames at a fixed rate. Frames the consumer is
// too slow to take are dropped, never queued.
type Synthetic struct {
	width  int
	height int
	fps    float64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSynthetic(width, height int, fps float64) *Synthetic {
	if fps <= 0 {
		fps = 5
	}
	return &Synthetic{width: width, height: height, fps: fps}
}

var _ capture.Source = (*Synthetic)(nil)

func (s *Synthetic) Start(ctx context.Context) (<-chan capture.RawFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	ch := make(chan capture.RawFrame, 1)
	go s.generate(runCtx, ch)
	return ch, nil
}

// Stop is idempotent.
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.running = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}

func (s *Synthetic) generate(ctx context.Context, ch chan<- capture.RawFrame) {
	defer close(ch)
	defer func() {
		s.mu.Lock()
		if s.done != nil {
			close(s.done)
			s.done = nil
		}
		s.mu.Unlock()
	}()

	interval := time.Duration(float64(time.Second) / s.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			frame := capture.RawFrame{
				Seq:       seq,
				Timestamp: time.Now().UTC(),
				Image:     gradient(s.width, s.height, seq),
				Width:     s.width,
				Height:    s.height,
				TraceID:   uuid.New().String(),
			}
			select {
			case ch <- frame:
			default: // consumer lagging, drop
			}
		}
	}
}

func gradient(w, h int, seq uint64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	shift := uint8(seq % 256)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x*255/w) + shift,
				G: uint8(y*255/h) + shift,
				B: shift,
				A: 255,
			})
		}
	}
	return img
}
