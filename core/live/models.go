package live

import (
	"context"
	"time"
)

// SessionStatus is the lifecycle of a class session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// AttendanceStatus is the per-student mark within a session.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusPending AttendanceStatus = "pending"
)

// MarkingMethod records how an attendance mark was produced.
type MarkingMethod string

const (
	MethodFaceRecognition MarkingMethod = "face_recognition"
	MethodManual          MarkingMethod = "manual"
)

// Session is one live class session's metadata. Status transitions come from
// both explicit lifecycle actions and inbound session-action events; the most
// recent event is authoritative.
type Session struct {
	ID                   string        `json:"id"`
	SectionID            string        `json:"section_id"`
	SessionDate          string        `json:"session_date"`
	StartTime            *time.Time    `json:"start_time,omitempty"`
	EndTime              *time.Time    `json:"end_time,omitempty"`
	Status               SessionStatus `json:"status"`
	Location             string        `json:"location,omitempty"`
	Notes                string        `json:"notes,omitempty"`
	LateThresholdMinutes int           `json:"late_threshold_minutes"`
}

type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Record is one student's attendance state, keyed by student id. Updates are
// always merges once the baseline is loaded, never full replacement.
type Record struct {
	StudentID  string           `json:"student_id"`
	Student    Student          `json:"student"`
	Status     AttendanceStatus `json:"status"`
	Confidence *float64         `json:"confidence,omitempty"`
	MarkedAt   *time.Time       `json:"marked_at,omitempty"`
	LastSeen   *time.Time       `json:"last_seen,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// Mark is an attendance upsert sent to the backend.
type Mark struct {
	SessionID  string
	StudentID  string
	Status     AttendanceStatus
	Confidence *float64
	Method     MarkingMethod
	Notes      string
}

// Confirmation is a pending manual-confirmation affordance for an ambiguous
// recognition.
type Confirmation struct {
	ID                 string    `json:"id"`
	SuggestedStudentID string    `json:"suggested_student_id"`
	Confidence         float64   `json:"confidence"`
	At                 time.Time `json:"at"`
}

// Backend is what the monitor needs from the remote service.
type Backend interface {
	GetSession(ctx context.Context, sessionID string) (Session, error)
	GetSessionStudents(ctx context.Context, sessionID string) ([]Student, error)
	GetSessionAttendance(ctx context.Context, sessionID string) ([]Record, error)
	SessionAction(ctx context.Context, sessionID, action string) error
	UpsertAttendance(ctx context.Context, mark Mark) (Record, error)
	// StreamSessionEvents pumps decoded (event, data) pairs into handler until
	// the stream ends. Cancelling ctx is a clean termination and must not
	// reach onError.
	StreamSessionEvents(ctx context.Context, sessionID string, handler func(event, data string), onError func(error)) error
}
