package camera

import (
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSynthetic_streamsFrames(t *testing.T) {
	src := NewSynthetic(32, 24, 100)
	ch, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer src.Stop()

	select {
	case f := <-ch:
		if f.Image == nil {
			t.Fatal("frame has no image")
		}
		if f.Width != 32 || f.Height != 24 {
			t.Errorf("frame dimensions = %dx%d, want 32x24", f.Width, f.Height)
		}
		if f.TraceID == "" {
			t.Error("frame has no trace id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame arrived")
	}
}

func TestSynthetic_startWhileRunning(t *testing.T) {
	src := NewSynthetic(8, 8, 100)
	if _, err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer src.Stop()

	if _, err := src.Start(context.Background()); err != ErrAlreadyStarted {
		t.Errorf("second Start() error = %v, want %v", err, ErrAlreadyStarted)
	}
}

func TestSynthetic_stopIsIdempotent(t *testing.T) {
	src := NewSynthetic(8, 8, 100)
	ch, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop() failed: %v", err)
	}

	// channel closes once the generator winds down
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frame channel never closed after Stop")
		}
	}
}

func TestSynthetic_restartAfterStop(t *testing.T) {
	src := NewSynthetic(8, 8, 100)
	if _, err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	ch, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	defer src.Stop()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame after restart")
	}
}

func writeTestImages(t *testing.T, dir string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))

	jf, err := os.Create(filepath.Join(dir, "a.jpg"))
	if err != nil {
		t.Fatalf("creating image: %v", err)
	}
	defer jf.Close()
	if err := jpeg.Encode(jf, img, nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}

	pf, err := os.Create(filepath.Join(dir, "b.png"))
	if err != nil {
		t.Fatalf("creating image: %v", err)
	}
	defer pf.Close()
	if err := png.Encode(pf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
}

func TestDir_replaysImages(t *testing.T) {
	dir := t.TempDir()
	writeTestImages(t, dir)

	src := NewDir(dir, 100)
	ch, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer src.Stop()

	// more frames than files proves the loop wraps around
	for i := 0; i < 4; i++ {
		select {
		case f := <-ch:
			if f.Width != 16 || f.Height != 12 {
				t.Errorf("frame %d dimensions = %dx%d, want 16x12", i, f.Width, f.Height)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never arrived", i)
		}
	}
}

func TestDir_emptyDirectory(t *testing.T) {
	src := NewDir(t.TempDir(), 0)
	if _, err := src.Start(context.Background()); err != ErrNoImages {
		t.Errorf("Start() error = %v, want %v", err, ErrNoImages)
	}
}

func TestDir_missingDirectory(t *testing.T) {
	src := NewDir(filepath.Join(t.TempDir(), "nope"), 0)
	if _, err := src.Start(context.Background()); err == nil {
		t.Error("Start() must fail for a missing directory")
	}
}
