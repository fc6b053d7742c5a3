package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/enroll"
)

var _ enroll.Records = (*Client)(nil)

// CreateFaceImageRecord creates one face-data metadata record for an uploaded
// image.
func (c *Client) CreateFaceImageRecord(ctx context.Context, studentID string, rec enroll.ImageRecord) error {
	body := map[string]interface{}{
		"image_url":         rec.ImageURL,
		"quality_score":     rec.QualityScore,
		"confidence_score":  rec.ConfidenceScore,
		"is_primary":        rec.IsPrimary,
		"processing_status": rec.ProcessingStatus,
		"metadata":          rec.Metadata,
	}
	return c.doJSON(ctx, http.MethodPost, "/face-data/"+url.PathEscape(studentID)+"/images", body, nil)
}

// GetFaceDataStatus fetches the server-derived enrollment status.
func (c *Client) GetFaceDataStatus(ctx context.Context, studentID string) (enroll.Status, error) {
	var out faceStatusJSON
	if err := c.doJSON(ctx, http.MethodGet, "/face-data/"+url.PathEscape(studentID)+"/status", nil, &out); err != nil {
		return enroll.Status{}, err
	}
	return out.canonical(), nil
}

// DeleteFaceData removes face-data records; with no ids, everything for the
// student goes.
func (c *Client) DeleteFaceData(ctx context.Context, studentID string, ids ...string) error {
	path := "/face-data"
	if studentID != "" {
		path += "?studentId=" + url.QueryEscape(studentID)
	}
	var body interface{}
	if len(ids) > 0 {
		body = map[string]interface{}{"ids": ids}
	}
	return c.doJSON(ctx, http.MethodDelete, path, body, nil)
}
