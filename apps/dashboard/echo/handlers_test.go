package dashapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/live"
	testutil "github.com/doe69john/SmartAttendanceSMU-sub001/tests"
)

func setup(t *testing.T) (Server, *testutil.Backend) {
	t.Helper()

	conf := 0.9
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b := testutil.NewBackend(
		live.Session{ID: "s1", SectionID: "sec1", Status: live.SessionScheduled},
		[]live.Student{
			{ID: "std1", Name: "Alice"},
			{ID: "std2", Name: "Bob"},
		},
		[]live.Record{
			{StudentID: "std2", Status: live.StatusPresent, Confidence: &conf, MarkedAt: &now},
		},
	)

	appConf := core.NewConfig()
	monitors := live.NewRegistry(appConf, testutil.Logger{}, b)
	t.Cleanup(monitors.Stop)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	srv := NewServer(ServerDeps{
		Conf:           appConf,
		Logger:         testutil.Logger{},
		Monitors:       monitors,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return srv, b
}

func doJSON(srv http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) live.Snapshot {
	t.Helper()
	var snap live.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v\n%s", err, rec.Body.String())
	}
	return snap
}

func Test_sessionApi_state(t *testing.T) {
	srv, _ := setup(t)

	rec := doJSON(srv, http.MethodGet, "/v1/sessions/s1/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	snap := decodeSnapshot(t, rec)
	if snap.Session.ID != "s1" {
		t.Errorf("session id = %q, want s1", snap.Session.ID)
	}
	if len(snap.Records) != 2 {
		t.Errorf("got %d records, want 2", len(snap.Records))
	}
}

func Test_sessionApi_action(t *testing.T) {
	srv, b := setup(t)

	rec := doJSON(srv, http.MethodPost, "/v1/sessions/s1/actions/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}
	if snap := decodeSnapshot(t, rec); snap.Session.Status != live.SessionActive {
		t.Errorf("session status = %q, want active", snap.Session.Status)
	}
	if len(b.Actions) != 1 || b.Actions[0] != "start" {
		t.Errorf("backend actions = %v", b.Actions)
	}

	rec = doJSON(srv, http.MethodPost, "/v1/sessions/s1/actions/bounce", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid action code = %d, want 400", rec.Code)
	}
}

func Test_sessionApi_mark(t *testing.T) {
	srv, b := setup(t)

	rec := doJSON(srv, http.MethodPost, "/v1/sessions/s1/mark", []byte(`{"student_id":"std1","status":"late","notes":"overslept"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}

	marks := b.MarkCalls()
	if len(marks) != 1 {
		t.Fatalf("got %d upserts, want 1", len(marks))
	}
	if marks[0].StudentID != "std1" || marks[0].Status != live.StatusLate || marks[0].Method != live.MethodManual {
		t.Errorf("mark = %+v", marks[0])
	}

	tests := []struct {
		name string
		body string
	}{
		{name: "missing student", body: `{"status":"late"}`},
		{name: "missing status", body: `{"student_id":"std1"}`},
		{name: "bad status", body: `{"student_id":"std1","status":"vanished"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(srv, http.MethodPost, "/v1/sessions/s1/mark", []byte(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func Test_sessionApi_confirm(t *testing.T) {
	srv, b := setup(t)

	// no pending confirmation with this id
	rec := doJSON(srv, http.MethodPost, "/v1/sessions/s1/confirmations/nope", []byte(`{"student_id":"std1"}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404: %s", rec.Code, rec.Body.String())
	}

	// open an affordance through an ambiguous recognition, then resolve it
	b.PushEvent("recognition", `{"student_id":"std1","confidence":0.7,"success":true}`)
	deadline := time.Now().Add(2 * time.Second)
	var confirmationID string
	for time.Now().Before(deadline) {
		snap := decodeSnapshot(t, doJSON(srv, http.MethodGet, "/v1/sessions/s1/state", nil))
		if len(snap.Pending) > 0 {
			confirmationID = snap.Pending[0].ID
			break
		}
		time.Sleep(time.Millisecond)
	}
	if confirmationID == "" {
		t.Fatal("no pending confirmation ever appeared")
	}

	rec = doJSON(srv, http.MethodPost, "/v1/sessions/s1/confirmations/"+confirmationID, []byte(`{"student_id":"std1"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}
	snap := decodeSnapshot(t, rec)
	if len(snap.Pending) != 0 {
		t.Errorf("pending = %+v after resolution, want none", snap.Pending)
	}
}

// Runs over a real listener so every handler's request context is cancelled
// when it returns, the way a deployed server behaves.
func Test_sessionApi_liveUpdatesAfterFirstRequest(t *testing.T) {
	srv, b := setup(t)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	fetchState := func() live.Snapshot {
		t.Helper()
		resp, err := http.Get(ts.URL + "/v1/sessions/s1/state")
		if err != nil {
			t.Fatalf("GET /state failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("code = %d, want 200", resp.StatusCode)
		}
		var snap live.Snapshot
		if err = json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			t.Fatalf("decoding snapshot: %v", err)
		}
		return snap
	}

	// first request creates the monitor; its context dies with the request
	if snap := fetchState(); snap.Session.ID != "s1" {
		t.Fatalf("session id = %q, want s1", snap.Session.ID)
	}

	b.PushEvent("attendance", `{"student_id":"std1","status":"present","timestamp":"2026-03-10T09:05:00Z"}`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, rec := range fetchState().Records {
			if rec.StudentID == "std1" && rec.Status == live.StatusPresent {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("event pushed after the first request was never applied")
}
