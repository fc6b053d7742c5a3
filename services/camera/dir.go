package camera

import (
	"context"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/capture"
)

var ErrNoImages = errors.New("no images found in directory")

// Dir replays a directory of JPEG/PNG files, in name order, looping forever.
// It lets the enrollment kiosk run against pre-captured shots.
type Dir struct {
	path string
	fps  float64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewDir(path string, fps float64) *Dir {
	if fps <= 0 {
		fps = 2
	}
	return &Dir{path: path, fps: fps}
}

var _ capture.Source = (*Dir)(nil)

func (d *Dir) Start(ctx context.Context) (<-chan capture.RawFrame, error) {
	images, err := d.load()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil, ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.running = true
	d.cancel = cancel
	d.done = make(chan struct{})

	ch := make(chan capture.RawFrame, 1)
	go d.replay(runCtx, ch, images)
	return ch, nil
}

// Stop is idempotent.
func (d *Dir) Stop() error {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.running = false
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}

func (d *Dir) load() ([]image.Image, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", d.path)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var images []image.Image
	for _, name := range names {
		f, err := os.Open(filepath.Join(d.path, name))
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", name)
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", name)
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

func (d *Dir) replay(ctx context.Context, ch chan<- capture.RawFrame, images []image.Image) {
	defer close(ch)
	defer func() {
		d.mu.Lock()
		if d.done != nil {
			close(d.done)
			d.done = nil
		}
		d.mu.Unlock()
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / d.fps))
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			img := images[seq%uint64(len(images))]
			bounds := img.Bounds()
			seq++
			frame := capture.RawFrame{
				Seq:       seq,
				Timestamp: time.Now().UTC(),
				Image:     img,
				Width:     bounds.Dx(),
				Height:    bounds.Dy(),
				TraceID:   uuid.New().String(),
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}
