package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/live"
)

var _ live.Backend = (*Client)(nil)

type sessionJSON struct {
	ID                   string `json:"id"`
	SectionID            string `json:"section_id"`
	SessionDate          string `json:"session_date"`
	StartTime            string `json:"start_time"`
	EndTime              string `json:"end_time"`
	Status               string `json:"status"`
	Location             string `json:"location"`
	Notes                string `json:"notes"`
	LateThresholdMinutes int    `json:"late_threshold_minutes"`
}

func (w sessionJSON) canonical() live.Session {
	return live.Session{
		ID:                   w.ID,
		SectionID:            w.SectionID,
		SessionDate:          w.SessionDate,
		StartTime:            parseTimestampPtr(w.StartTime),
		EndTime:              parseTimestampPtr(w.EndTime),
		Status:               live.SessionStatus(w.Status),
		Location:             w.Location,
		Notes:                w.Notes,
		LateThresholdMinutes: w.LateThresholdMinutes,
	}
}

type studentJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (w studentJSON) canonical() live.Student {
	return live.Student{ID: w.ID, Name: w.Name, Email: w.Email}
}

type attendanceJSON struct {
	StudentID       string       `json:"student_id"`
	Student         *studentJSON `json:"student"`
	Status          string       `json:"status"`
	ConfidenceScore *float64     `json:"confidence_score"`
	MarkedAt        string       `json:"marked_at"`
	LastSeen        string       `json:"last_seen"`
	Notes           string       `json:"notes"`
}

func (w attendanceJSON) canonical() live.Record {
	rec := live.Record{
		StudentID:  w.StudentID,
		Status:     live.AttendanceStatus(w.Status),
		Confidence: w.ConfidenceScore,
		MarkedAt:   parseTimestampPtr(w.MarkedAt),
		LastSeen:   parseTimestampPtr(w.LastSeen),
		Notes:      w.Notes,
	}
	if w.Student != nil {
		rec.Student = w.Student.canonical()
	}
	return rec
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (live.Session, error) {
	var out sessionJSON
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return live.Session{}, err
	}
	return out.canonical(), nil
}

func (c *Client) GetSessionStudents(ctx context.Context, sessionID string) ([]live.Student, error) {
	var out []studentJSON
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/students", nil, &out); err != nil {
		return nil, err
	}
	students := make([]live.Student, len(out))
	for i, w := range out {
		students[i] = w.canonical()
	}
	return students, nil
}

func (c *Client) GetSessionAttendance(ctx context.Context, sessionID string) ([]live.Record, error) {
	var out []attendanceJSON
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/attendance", nil, &out); err != nil {
		return nil, err
	}
	records := make([]live.Record, len(out))
	for i, w := range out {
		records[i] = w.canonical()
	}
	return records, nil
}

// SessionAction runs a lifecycle action: start, pause, resume or stop.
func (c *Client) SessionAction(ctx context.Context, sessionID, action string) error {
	return c.doJSON(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/"+url.PathEscape(action), nil, nil)
}

// UpsertAttendance creates or updates one attendance record.
func (c *Client) UpsertAttendance(ctx context.Context, mark live.Mark) (live.Record, error) {
	body := map[string]interface{}{
		"sessionId":     mark.SessionID,
		"studentId":     mark.StudentID,
		"status":        mark.Status,
		"markingMethod": mark.Method,
	}
	if mark.Confidence != nil {
		body["confidenceScore"] = *mark.Confidence
	}
	if mark.Notes != "" {
		body["notes"] = mark.Notes
	}
	var out attendanceJSON
	if err := c.doJSON(ctx, http.MethodPost, "/attendance", body, &out); err != nil {
		return live.Record{}, err
	}
	rec := out.canonical()
	if rec.StudentID == "" {
		rec.StudentID = mark.StudentID
	}
	return rec, nil
}
