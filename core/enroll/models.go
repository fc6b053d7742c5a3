package enroll

import (
	"context"
	"time"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/capture"
)

// Stage is one step of the upload pipeline, strictly ordered.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageUpload  Stage = "upload"
	StageRecord  Stage = "record"
)

// StageStatus is the lifecycle of a single stage.
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusInProgress StageStatus = "in_progress"
	StatusSuccess    StageStatus = "success"
	StatusError      StageStatus = "error"
)

// Progress is a snapshot of all three stage statuses plus the user-facing
// error message, if any.
type Progress struct {
	Prepare StageStatus
	Upload  StageStatus
	Record  StageStatus
	Err     string
}

// UploadInput is one frame handed to remote storage.
type UploadInput struct {
	FileName string
	Data     []byte
	Width    int
	Height   int
	Box      capture.BoundingBox
}

// Uploaded is the storage service's canonical response for one file.
type Uploaded struct {
	StoragePath string
	FileName    string
	DownloadURL string
	PublicURL   string
}

// URL returns the preferred image URL: download, then public, then the raw
// storage path.
func (u Uploaded) URL() string {
	if u.DownloadURL != "" {
		return u.DownloadURL
	}
	if u.PublicURL != "" {
		return u.PublicURL
	}
	return u.StoragePath
}

// ImageRecord is the per-image metadata record created after upload.
type ImageRecord struct {
	ImageURL         string
	QualityScore     float64
	ConfidenceScore  float64
	IsPrimary        bool
	ProcessingStatus string
	Metadata         map[string]interface{}
}

// Status is the server-derived face enrollment status. It is a cache of
// server truth: never locally mutated outside a fetch.
type Status struct {
	HasFaceData  bool
	ImageCount   int
	LatestStatus string
	UpdatedAt    time.Time
}

// Storage uploads and deletes face images in remote storage.
type Storage interface {
	UploadFaceImage(ctx context.Context, studentID string, in UploadInput) (Uploaded, error)
	DeleteFaceImage(ctx context.Context, studentID, fileName string) error
}

// Records manages face-data metadata records and the enrollment status.
type Records interface {
	CreateFaceImageRecord(ctx context.Context, studentID string, rec ImageRecord) error
	GetFaceDataStatus(ctx context.Context, studentID string) (Status, error)
}
