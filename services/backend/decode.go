package backend

import (
	"time"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/enroll"
)

// The backend emits snake_case or camelCase depending on the service that
// answered. Every dual-cased response is normalized here, once, at the edge.

type uploadedJSON struct {
	StoragePath      string `json:"storage_path"`
	StoragePathCamel string `json:"storagePath"`
	FileName         string `json:"file_name"`
	FileNameCamel    string `json:"fileName"`
	DownloadURL      string `json:"download_url"`
	DownloadURLCamel string `json:"downloadUrl"`
	PublicURL        string `json:"public_url"`
	PublicURLCamel   string `json:"publicUrl"`
}

func (w uploadedJSON) canonical() enroll.Uploaded {
	return enroll.Uploaded{
		StoragePath: pick(w.StoragePath, w.StoragePathCamel),
		FileName:    pick(w.FileName, w.FileNameCamel),
		DownloadURL: pick(w.DownloadURL, w.DownloadURLCamel),
		PublicURL:   pick(w.PublicURL, w.PublicURLCamel),
	}
}

type faceStatusJSON struct {
	HasFaceData       *bool  `json:"has_face_data"`
	HasFaceDataCamel  *bool  `json:"hasFaceData"`
	ImageCount        *int   `json:"image_count"`
	ImageCountCamel   *int   `json:"imageCount"`
	LatestStatus      string `json:"latest_status"`
	LatestStatusCamel string `json:"latestStatus"`
	UpdatedAt         string `json:"updated_at"`
	UpdatedAtCamel    string `json:"updatedAt"`
}

func (w faceStatusJSON) canonical() enroll.Status {
	return enroll.Status{
		HasFaceData:  pickBool(w.HasFaceData, w.HasFaceDataCamel),
		ImageCount:   pickInt(w.ImageCount, w.ImageCountCamel),
		LatestStatus: pick(w.LatestStatus, w.LatestStatusCamel),
		UpdatedAt:    parseTimestamp(pick(w.UpdatedAt, w.UpdatedAtCamel)),
	}
}

func pick(snake, camel string) string {
	if snake != "" {
		return snake
	}
	return camel
}

func pickBool(snake, camel *bool) bool {
	if snake != nil {
		return *snake
	}
	if camel != nil {
		return *camel
	}
	return false
}

func pickInt(snake, camel *int) int {
	if snake != nil {
		return *snake
	}
	if camel != nil {
		return *camel
	}
	return 0
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func parseTimestampPtr(s string) *time.Time {
	t := parseTimestamp(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
