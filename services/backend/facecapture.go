package backend

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/capture"
)

var _ capture.Analyzer = (*Client)(nil)

type analyzeJSON struct {
	Valid         bool    `json:"valid"`
	FaceCount     int     `json:"faceCount"`
	Message       string  `json:"message"`
	Sharpness     float64 `json:"sharpness"`
	Brightness    float64 `json:"brightness"`
	BoundingBoxes []struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"boundingBoxes"`
}

// AnalyzeFrame submits one JPEG-encoded frame, base64-encoded as a data URL
// for transport, to the remote analysis endpoint.
func (c *Client) AnalyzeFrame(ctx context.Context, image []byte) (capture.AnalyzeResult, error) {
	body := map[string]string{
		"imageData": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
	}
	var out analyzeJSON
	if err := c.doJSON(ctx, http.MethodPost, "/face-capture/analyze", body, &out); err != nil {
		return capture.AnalyzeResult{}, err
	}

	res := capture.AnalyzeResult{
		Valid:      out.Valid,
		FaceCount:  out.FaceCount,
		Message:    out.Message,
		Sharpness:  out.Sharpness,
		Brightness: out.Brightness,
	}
	for _, b := range out.BoundingBoxes {
		res.Boxes = append(res.Boxes, capture.RawBox{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height})
	}
	return res, nil
}
