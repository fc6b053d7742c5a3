package capture

import (
	"context"
	"math"
	"strings"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
)

const retryReason = "could not analyze the frame, hold still and try again"

// Result is the validator's verdict on a single frame.
type Result struct {
	OK       bool
	Reason   string
	Box      BoundingBox
	Analysis Analysis
}

// Validator applies the local accept/reject policy over the remote frame
// analysis. Transport failures are absorbed into a retry reason so the
// capture loop keeps running.
type Validator struct {
	analyzer Analyzer
	conf     core.CaptureConfig
	log      core.Logger
}

func NewValidator(analyzer Analyzer, conf *core.Config, log core.Logger) *Validator {
	return &Validator{analyzer: analyzer, conf: conf.Capture, log: log}
}

// Validate submits one JPEG-encoded frame for analysis and gates it. Failure
// reasons are concatenated in a stable order: face count, brightness,
// sharpness, bounding-box presence.
func (v *Validator) Validate(ctx context.Context, image []byte) Result {
	res, err := v.analyzer.AnalyzeFrame(ctx, image)
	if err != nil {
		if core.IsUnauthorized(err) {
			// the global handler already saw this; still keep the loop alive
			v.log.Warn("frame analysis unauthorized", err)
		} else {
			v.log.Warn("frame analysis failed", err)
		}
		return Result{Reason: retryReason}
	}

	var reasons []string

	switch {
	case res.FaceCount == 0:
		reasons = append(reasons, faceCountReason(res.Message, "no face detected"))
	case res.FaceCount > 1:
		reasons = append(reasons, faceCountReason(res.Message, "more than one face detected"))
	}

	if res.Brightness < v.conf.MinBrightness {
		reasons = append(reasons, "too dim")
	} else if res.Brightness > v.conf.MaxBrightness {
		reasons = append(reasons, "too bright")
	}

	if res.Sharpness < v.conf.MinSharpness {
		reasons = append(reasons, "blurry")
	}

	box, haveBox := primaryBox(res.Boxes)
	if !haveBox {
		reasons = append(reasons, "unable to isolate the face")
	}

	if len(reasons) > 0 {
		return Result{Reason: strings.Join(reasons, ", ")}
	}

	return Result{
		OK:  true,
		Box: box,
		Analysis: Analysis{
			Brightness: core.Clamp01(res.Brightness),
			Sharpness:  res.Sharpness, // service-defined unit, passed through
		},
	}
}

// faceCountReason prefers the service-supplied message when present.
func faceCountReason(serviceMsg, fallback string) string {
	if msg := strings.TrimSpace(serviceMsg); msg != "" {
		return msg
	}
	return fallback
}

// primaryBox extracts the first reported bounding box, coordinates floored at
// zero and rounded to pixels.
func primaryBox(boxes []RawBox) (BoundingBox, bool) {
	if len(boxes) == 0 {
		return BoundingBox{}, false
	}
	b := boxes[0]
	return BoundingBox{
		X:      int(math.Round(math.Max(0, b.X))),
		Y:      int(math.Round(math.Max(0, b.Y))),
		Width:  int(math.Round(math.Max(0, b.Width))),
		Height: int(math.Round(math.Max(0, b.Height))),
	}, true
}
