package live

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
)

const unknownStudentName = "Unknown Student"

var (
	ErrUnknownConfirmation = errors.New("confirmation not found")
	ErrInvalidAction       = errors.New("invalid session action")
	ErrNotStarted          = errors.New("monitor not started")
)

var sessionActions = map[string]bool{
	"start": true, "pause": true, "resume": true, "stop": true,
}

// Snapshot is the dashboard's displayed state.
type Snapshot struct {
	Session   Session        `json:"session"`
	Records   []Record       `json:"records"`
	Log       []LogEntry     `json:"log"`
	Pending   []Confirmation `json:"pending"`
	Connected bool           `json:"connected"`
	StreamErr string         `json:"stream_error,omitempty"`
	LastErr   string         `json:"last_error,omitempty"`
}

// Monitor composes the REST-fetched baseline (session, roster, attendance)
// with the live event stream into one consistent view of a session.
type Monitor struct {
	conf      core.LiveConfig
	log       core.Logger
	backend   Backend
	sessionID string

	mu        sync.Mutex
	session   Session
	records   map[string]*Record
	pending   []Confirmation
	connected bool
	streamErr string
	lastErr   string
	started   bool
	streamCtx context.Context
	cancel    context.CancelFunc
	done      chan struct{}

	rlog *Log
}

func NewMonitor(conf *core.Config, log core.Logger, backend Backend, sessionID string) *Monitor {
	return &Monitor{
		conf:      conf.Live,
		log:       log,
		backend:   backend,
		sessionID: sessionID,
		records:   make(map[string]*Record),
		rlog:      NewLog(conf.Live.LogCapacity),
	}
}

// Start bootstraps baseline state then subscribes to the event stream.
// Bootstrap order is significant: session, roster, attendance with roster
// context, subscribe.
func (m *Monitor) Start(ctx context.Context) error {
	session, err := m.backend.GetSession(ctx, m.sessionID)
	if err != nil {
		return errors.Wrap(err, "fetching session")
	}
	students, err := m.backend.GetSessionStudents(ctx, m.sessionID)
	if err != nil {
		return errors.Wrap(err, "fetching roster")
	}
	attendance, err := m.backend.GetSessionAttendance(ctx, m.sessionID)
	if err != nil {
		return errors.Wrap(err, "fetching attendance")
	}

	// Callers usually start monitors from request-scoped contexts, and the
	// stream has to outlive the request. Keep ctx values, detach its
	// cancellation; Stop owns termination from here.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	m.mu.Lock()
	m.session = session
	m.seed(students, attendance)
	m.started = true
	m.streamCtx = streamCtx
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		_ = m.backend.StreamSessionEvents(streamCtx, m.sessionID, m.HandleEvent, m.streamFailed)
		m.mu.Lock()
		m.connected = false
		m.mu.Unlock()
	}()
	return nil
}

// Stop aborts the stream subscription. Abort is a clean, intentional
// termination: it never surfaces as a stream error.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.started = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// seed ensures every roster member has exactly one record, defaulting to
// pending; server-returned records take precedence. Callers hold m.mu.
func (m *Monitor) seed(students []Student, attendance []Record) {
	m.records = make(map[string]*Record, len(students))
	for _, s := range students {
		m.records[s.ID] = &Record{StudentID: s.ID, Student: s, Status: StatusPending}
	}
	m.applyServerRecords(attendance)
}

// applyServerRecords merges server records over the seeded defaults. Callers
// hold m.mu.
func (m *Monitor) applyServerRecords(attendance []Record) {
	for _, rec := range attendance {
		if rec.StudentID == "" {
			continue
		}
		existing, ok := m.records[rec.StudentID]
		if !ok {
			cp := rec
			if cp.Student.Name == "" {
				cp.Student = Student{ID: rec.StudentID, Name: unknownStudentName}
			}
			m.records[rec.StudentID] = &cp
			continue
		}
		if rec.Status != "" {
			existing.Status = rec.Status
		}
		if rec.Confidence != nil {
			existing.Confidence = rec.Confidence
		}
		if rec.MarkedAt != nil {
			existing.MarkedAt = rec.MarkedAt
		}
		if rec.LastSeen != nil {
			existing.LastSeen = rec.LastSeen
		}
		if rec.Notes != "" {
			existing.Notes = rec.Notes
		}
	}
}

// refetch re-pulls session metadata and attendance after a session-action
// event. Failures are logged; the last consistent state stays on screen.
func (m *Monitor) refetch(ctx context.Context) {
	session, err := m.backend.GetSession(ctx, m.sessionID)
	if err != nil {
		m.log.Warn("refetching session", err)
		return
	}
	attendance, err := m.backend.GetSessionAttendance(ctx, m.sessionID)
	if err != nil {
		m.log.Warn("refetching attendance", err)
		return
	}
	m.mu.Lock()
	m.session = session
	m.applyServerRecords(attendance)
	m.mu.Unlock()
}

// Action runs an explicit lifecycle action (start/pause/resume/stop) against
// the backend, then re-pulls session state so both sources agree.
func (m *Monitor) Action(ctx context.Context, action string) error {
	if !sessionActions[action] {
		return ErrInvalidAction
	}
	if err := m.backend.SessionAction(ctx, m.sessionID, action); err != nil {
		return errors.Wrapf(err, "session action %q", action)
	}
	m.refetch(ctx)
	return nil
}

// Mark manually upserts one student's attendance. The local update only
// happens after server success, so there is no rollback path.
func (m *Monitor) Mark(ctx context.Context, studentID string, status AttendanceStatus, notes string) error {
	return m.mark(ctx, Mark{
		SessionID: m.sessionID,
		StudentID: studentID,
		Status:    status,
		Method:    MethodManual,
		Notes:     notes,
	})
}

// Confirm resolves a pending confirmation, marking the chosen student — who
// may differ from the suggested one.
func (m *Monitor) Confirm(ctx context.Context, confirmationID, studentID string) error {
	m.mu.Lock()
	var found *Confirmation
	for i := range m.pending {
		if m.pending[i].ID == confirmationID {
			found = &m.pending[i]
			break
		}
	}
	if found == nil {
		m.mu.Unlock()
		return ErrUnknownConfirmation
	}
	confirmed := *found
	m.mu.Unlock()

	if studentID == "" {
		studentID = confirmed.SuggestedStudentID
	}
	conf := confirmed.Confidence
	if err := m.mark(ctx, Mark{
		SessionID:  m.sessionID,
		StudentID:  studentID,
		Status:     StatusPresent,
		Confidence: &conf,
		Method:     MethodManual,
	}); err != nil {
		return err
	}

	m.mu.Lock()
	for i := range m.pending {
		if m.pending[i].ID == confirmationID {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	return nil
}

// mark is the single mutation path: server round-trip first, optimistic local
// merge only after success.
func (m *Monitor) mark(ctx context.Context, mark Mark) error {
	rec, err := m.backend.UpsertAttendance(ctx, mark)
	if err != nil {
		return errors.Wrap(err, "upserting attendance")
	}
	if rec.StudentID == "" {
		rec.StudentID = mark.StudentID
	}
	m.mu.Lock()
	m.applyServerRecords([]Record{rec})
	m.lastErr = ""
	m.mu.Unlock()
	return nil
}

// addConfirmation registers a pending affordance; a repeat recognition for
// the same student refreshes it instead of stacking duplicates.
func (m *Monitor) addConfirmation(c Confirmation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pending {
		if m.pending[i].SuggestedStudentID == c.SuggestedStudentID {
			m.pending[i].Confidence = c.Confidence
			m.pending[i].At = c.At
			return
		}
	}
	m.pending = append(m.pending, c)
}

func (m *Monitor) studentName(studentID *string) string {
	if studentID == nil {
		return unknownStudentName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[*studentID]; ok && rec.Student.Name != "" {
		return rec.Student.Name
	}
	return unknownStudentName
}

func (m *Monitor) streamContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streamCtx != nil {
		return m.streamCtx
	}
	return context.Background()
}

func (m *Monitor) streamFailed(err error) {
	m.log.Warn("session event stream failed", err)
	m.mu.Lock()
	m.connected = false
	m.streamErr = "live feed disconnected"
	m.mu.Unlock()
}

func (m *Monitor) setLastErr(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
}

// Snapshot returns the full displayed state, records sorted by student name
// then id for stable rendering.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Student.Name != records[j].Student.Name {
			return records[i].Student.Name < records[j].Student.Name
		}
		return records[i].StudentID < records[j].StudentID
	})

	pending := make([]Confirmation, len(m.pending))
	copy(pending, m.pending)

	return Snapshot{
		Session:   m.session,
		Records:   records,
		Log:       m.rlog.Entries(),
		Pending:   pending,
		Connected: m.connected,
		StreamErr: m.streamErr,
		LastErr:   m.lastErr,
	}
}
