package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/capture"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/enroll"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/live"
)

// NewConfig returns a config with the capture loop sped up for tests.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Capture.TickInterval = 5 * time.Millisecond
	return conf
}

// Logger discards everything.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func (Logger) Enable(bool)                  {}
func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}

// Analyzer replays a scripted sequence of results. Once the script is
// exhausted it keeps returning the last entry.
type Analyzer struct {
	mu     sync.Mutex
	Script []AnalyzerStep
	Calls  int
}

type AnalyzerStep struct {
	Result capture.AnalyzeResult
	Err    error
}

var _ capture.Analyzer = (*Analyzer)(nil)

// AcceptAll returns an analyzer whose every frame passes validation.
func AcceptAll() *Analyzer {
	return &Analyzer{Script: []AnalyzerStep{{Result: GoodAnalysis()}}}
}

func GoodAnalysis() capture.AnalyzeResult {
	return capture.AnalyzeResult{
		Valid:      true,
		FaceCount:  1,
		Brightness: 0.5,
		Sharpness:  40,
		Boxes:      []capture.RawBox{{X: 10, Y: 10, Width: 100, Height: 120}},
	}
}

func (a *Analyzer) AnalyzeFrame(_ context.Context, _ []byte) (capture.AnalyzeResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.Calls
	if i >= len(a.Script) {
		i = len(a.Script) - 1
	}
	a.Calls++
	step := a.Script[i]
	return step.Result, step.Err
}

// Storage records uploads and deletes, failing a scripted upload index.
type Storage struct {
	mu        sync.Mutex
	Uploads   []enroll.UploadInput
	Deleted   []string // file names
	WipedAll  []string // student ids
	FailAt    int      // 0-based upload index to fail at; -1 disables
	UploadErr error
}

var _ enroll.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{FailAt: -1}
}

func (s *Storage) UploadFaceImage(_ context.Context, _ string, in enroll.UploadInput) (enroll.Uploaded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAt >= 0 && len(s.Uploads) == s.FailAt {
		err := s.UploadErr
		if err == nil {
			err = fmt.Errorf("upload rejected")
		}
		return enroll.Uploaded{}, err
	}
	s.Uploads = append(s.Uploads, in)
	return enroll.Uploaded{
		StoragePath: "faces/" + in.FileName,
		FileName:    in.FileName,
		DownloadURL: "https://files.test/" + in.FileName,
	}, nil
}

func (s *Storage) DeleteFaceImage(_ context.Context, _, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, fileName)
	return nil
}

func (s *Storage) DeleteAllFaceImages(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WipedAll = append(s.WipedAll, studentID)
	return nil
}

func (s *Storage) DeletedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Deleted))
	copy(out, s.Deleted)
	return out
}

// Records captures metadata record creations, failing scripted indexes.
type Records struct {
	mu      sync.Mutex
	Created []enroll.ImageRecord
	Wiped   [][]string
	ErrAt   map[int]error // 0-based creation attempt index
	Status  enroll.Status
	failed  int
}

var _ enroll.Records = (*Records)(nil)

func NewRecords() *Records {
	return &Records{ErrAt: make(map[int]error)}
}

func (r *Records) CreateFaceImageRecord(_ context.Context, _ string, rec enroll.ImageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt := len(r.Created) + r.failed
	if err, ok := r.ErrAt[attempt]; ok {
		r.failed++
		return err
	}
	r.Created = append(r.Created, rec)
	return nil
}

func (r *Records) GetFaceDataStatus(_ context.Context, _ string) (enroll.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status == (enroll.Status{}) {
		return enroll.Status{HasFaceData: len(r.Created) > 0, ImageCount: len(r.Created)}, nil
	}
	return r.Status, nil
}

func (r *Records) DeleteFaceData(_ context.Context, studentID string, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Wiped = append(r.Wiped, append([]string{studentID}, ids...))
	return nil
}

// WireEvent is one scripted server-sent event.
type WireEvent struct {
	Name string
	Data string
}

// Backend is a scriptable live.Backend. Stream events are pushed through
// PushEvent; FailStream terminates the stream with an error.
type Backend struct {
	mu         sync.Mutex
	Session    live.Session
	Students   []live.Student
	Attendance []live.Record
	SessionErr error

	Actions []string
	Marks   []live.Mark
	MarkErr error

	events  chan WireEvent
	streamN int
}

var _ live.Backend = (*Backend)(nil)

func NewBackend(session live.Session, students []live.Student, attendance []live.Record) *Backend {
	return &Backend{
		Session:    session,
		Students:   students,
		Attendance: attendance,
		events:     make(chan WireEvent, 16),
	}
}

func (b *Backend) GetSession(_ context.Context, _ string) (live.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Session, b.SessionErr
}

func (b *Backend) GetSessionStudents(_ context.Context, _ string) ([]live.Student, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]live.Student, len(b.Students))
	copy(out, b.Students)
	return out, nil
}

func (b *Backend) GetSessionAttendance(_ context.Context, _ string) ([]live.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]live.Record, len(b.Attendance))
	copy(out, b.Attendance)
	return out, nil
}

func (b *Backend) SessionAction(_ context.Context, _, action string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Actions = append(b.Actions, action)
	switch action {
	case "start", "resume":
		b.Session.Status = live.SessionActive
	case "stop":
		b.Session.Status = live.SessionCompleted
	}
	return nil
}

func (b *Backend) UpsertAttendance(_ context.Context, mark live.Mark) (live.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.MarkErr != nil {
		return live.Record{}, b.MarkErr
	}
	b.Marks = append(b.Marks, mark)

	now := time.Now().UTC()
	rec := live.Record{
		StudentID:  mark.StudentID,
		Status:     mark.Status,
		Confidence: mark.Confidence,
		MarkedAt:   &now,
		Notes:      mark.Notes,
	}
	for i := range b.Attendance {
		if b.Attendance[i].StudentID == mark.StudentID {
			rec.Student = b.Attendance[i].Student
			b.Attendance[i] = rec
			return rec, nil
		}
	}
	b.Attendance = append(b.Attendance, rec)
	return rec, nil
}

func (b *Backend) StreamSessionEvents(ctx context.Context, _ string, handler func(event, data string), onError func(error)) error {
	b.mu.Lock()
	b.streamN++
	events := b.events
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Name == "__fail__" {
				onError(fmt.Errorf("%s", ev.Data))
				return nil
			}
			handler(ev.Name, ev.Data)
		}
	}
}

// PushEvent delivers one event to the active stream.
func (b *Backend) PushEvent(name, data string) {
	b.events <- WireEvent{Name: name, Data: data}
}

// FailStream makes the active stream report a fault and terminate.
func (b *Backend) FailStream(msg string) {
	b.events <- WireEvent{Name: "__fail__", Data: msg}
}

// MarkCalls returns a copy of all upserts seen so far.
func (b *Backend) MarkCalls() []live.Mark {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]live.Mark, len(b.Marks))
	copy(out, b.Marks)
	return out
}

// AttendanceSnapshot returns the backend's current records.
func (b *Backend) AttendanceSnapshot() []live.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]live.Record, len(b.Attendance))
	copy(out, b.Attendance)
	return out
}
