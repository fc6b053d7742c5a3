package live

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Recognized stream event names. Anything else (including malformed payloads
// for known names) goes through the unknown-event path without disturbing the
// stream.
const (
	eventInit          = "init"
	eventRecognition   = "recognition"
	eventAttendance    = "attendance"
	eventSessionAction = "session-action"
)

type (
	recognitionEvent struct {
		StudentID                  *string `json:"student_id"`
		Confidence                 float64 `json:"confidence"`
		Success                    bool    `json:"success"`
		RequiresManualConfirmation bool    `json:"requires_manual_confirmation"`
		Timestamp                  string  `json:"timestamp"`
	}

	attendanceEvent struct {
		StudentID  *string  `json:"student_id"`
		Status     string   `json:"status"`
		Confidence *float64 `json:"confidence"`
		Timestamp  string   `json:"timestamp"`
	}

	sessionActionEvent struct {
		Status string `json:"status"`
	}
)

// HandleEvent merges one decoded stream event into the monitor's state.
// Events are processed strictly in arrival order (single reader); every
// handler is idempotent with respect to redundant or stale data.
func (m *Monitor) HandleEvent(event, data string) {
	switch event {
	case eventInit:
		m.mu.Lock()
		m.connected = true
		m.streamErr = ""
		m.mu.Unlock()
	case eventRecognition:
		var ev recognitionEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			m.unknownEvent(event, data)
			return
		}
		m.handleRecognition(ev)
	case eventAttendance:
		var ev attendanceEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			m.unknownEvent(event, data)
			return
		}
		m.handleAttendance(ev)
	case eventSessionAction:
		var ev sessionActionEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			m.unknownEvent(event, data)
			return
		}
		m.handleSessionAction(ev)
	default:
		m.unknownEvent(event, data)
	}
}

func (m *Monitor) unknownEvent(event, data string) {
	m.log.Warn("unhandled session event", map[string]interface{}{"event": event, "data": data})
}

func (m *Monitor) handleRecognition(ev recognitionEvent) {
	entry := LogEntry{
		ID:         uuid.New().String(),
		Timestamp:  parseEventTime(ev.Timestamp),
		Confidence: ev.Confidence,
		Action:     ActionIgnored,
	}

	if !ev.Success || ev.StudentID == nil {
		entry.StudentName = m.studentName(ev.StudentID)
		m.rlog.Add(entry)
		return
	}
	entry.StudentName = m.studentName(ev.StudentID)

	switch {
	case ev.Confidence >= m.conf.HighConfidence && !ev.RequiresManualConfirmation:
		// unambiguous: auto-mark present, no user interaction
		conf := ev.Confidence
		err := m.mark(m.streamContext(), Mark{
			SessionID:  m.sessionID,
			StudentID:  *ev.StudentID,
			Status:     StatusPresent,
			Confidence: &conf,
			Method:     MethodFaceRecognition,
		})
		if err != nil {
			m.log.Warn("auto-marking attendance", err)
			m.setLastErr("could not record automatic attendance")
		} else {
			entry.Action = ActionAutoMarked
		}
	case ev.Confidence >= m.conf.LowConfidence:
		// ambiguous: open a confirmation affordance instead of marking
		m.addConfirmation(Confirmation{
			ID:                 uuid.New().String(),
			SuggestedStudentID: *ev.StudentID,
			Confidence:         ev.Confidence,
			At:                 entry.Timestamp,
		})
		entry.Action = ActionManualConfirm
	default:
		// below the low threshold the event is logged only
	}

	m.rlog.Add(entry)
}

func (m *Monitor) handleAttendance(ev attendanceEvent) {
	if ev.StudentID == nil || *ev.StudentID == "" {
		return // dropped silently
	}
	at := parseEventTime(ev.Timestamp)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[*ev.StudentID]
	if !ok {
		// first event referencing an unknown id: synthesize a placeholder
		rec = &Record{
			StudentID: *ev.StudentID,
			Student:   Student{ID: *ev.StudentID, Name: unknownStudentName},
			Status:    StatusPending,
		}
		m.records[*ev.StudentID] = rec
	}
	if s := AttendanceStatus(ev.Status); s != "" {
		rec.Status = s
	}
	if ev.Confidence != nil {
		rec.Confidence = ev.Confidence
	}
	rec.MarkedAt = &at
	rec.LastSeen = &at
}

// handleSessionAction applies the pushed status, then reconciles by re-pull:
// the event is a weak signal of a richer state change.
func (m *Monitor) handleSessionAction(ev sessionActionEvent) {
	if ev.Status != "" {
		m.mu.Lock()
		m.session.Status = SessionStatus(ev.Status)
		m.mu.Unlock()
	}
	m.refetch(m.streamContext())
}

func parseEventTime(s string) time.Time {
	if s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
