package capture

import (
	"context"
	"image"
	"time"
)

// Step is one required pose in the guided capture sequence.
type Step struct {
	ID          string
	Title       string
	Instruction string
	Angle       string
	Required    int
	Captured    int
}

// DefaultSteps returns the reference capture policy: 6 poses, 12 frames total.
func DefaultSteps() []Step {
	return []Step{
		{ID: "front", Title: "Look straight", Instruction: "Face the camera directly", Angle: "front", Required: 3},
		{ID: "left", Title: "Turn left", Instruction: "Turn your head slightly to the left", Angle: "left", Required: 2},
		{ID: "right", Title: "Turn right", Instruction: "Turn your head slightly to the right", Angle: "right", Required: 2},
		{ID: "up", Title: "Look up", Instruction: "Tilt your head up a little", Angle: "up", Required: 2},
		{ID: "down", Title: "Look down", Instruction: "Tilt your head down a little", Angle: "down", Required: 1},
		{ID: "validation", Title: "Hold still", Instruction: "Face the camera for final validation shots", Angle: "front", Required: 2},
	}
}

// Analysis holds the per-frame quality measurements the analysis service returned.
type Analysis struct {
	Brightness float64
	Sharpness  float64
}

// BoundingBox is the detected face region in frame pixel coordinates.
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Frame is one accepted capture. Immutable once created; discarded on reset,
// exit or successful upload.
type Frame struct {
	Data       []byte // JPEG-encoded
	Width      int
	Height     int
	StepID     string
	Box        BoundingBox
	Analysis   Analysis
	CapturedAt time.Time
}

// RawFrame is one frame delivered by a Source, not yet encoded or validated.
type RawFrame struct {
	Seq       uint64
	Timestamp time.Time
	Image     image.Image
	Width     int
	Height    int
	TraceID   string
}

// Source is a live camera stream.
//
// Implementations must guarantee:
//   - Start returns immediately; frames arrive asynchronously
//   - the returned channel stays open until Stop
//   - sends never block (frames are dropped when the consumer lags)
//   - Stop is idempotent
type Source interface {
	Start(ctx context.Context) (<-chan RawFrame, error)
	Stop() error
}

// RawBox is a bounding box as reported by the analysis service, before
// normalization into pixel coordinates.
type RawBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// AnalyzeResult is the analysis service's verdict on one frame.
type AnalyzeResult struct {
	Valid      bool
	FaceCount  int
	Message    string
	Brightness float64
	Sharpness  float64
	Boxes      []RawBox
}

// Analyzer submits a JPEG-encoded frame for remote analysis.
type Analyzer interface {
	AnalyzeFrame(ctx context.Context, image []byte) (AnalyzeResult, error)
}
