package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/flashcarder/internal/api"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/review"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
)

type stubBackend struct {
	addErr    error
	lastPairs []models.Pair
}

func (b *stubBackend) Decks(context.Context) ([]string, error) {
	return []string{"Default", "Geo"}, nil
}

func (b *stubBackend) Extract(_ context.Context, sub models.PendingSubmission) (*models.ProcessResult, error) {
	pairs := []models.Pair{{Front: "Capital of France?", Back: "Paris"}, {Front: "Capital of Spain?", Back: "Madrid"}}
	raw, _ := json.Marshal(map[string]any{"pairs": pairs})
	return &models.ProcessResult{Pairs: pairs, Raw: raw}, nil
}

func (b *stubBackend) AddCards(_ context.Context, _ string, pairs []models.Pair) (*models.AddCardsResult, error) {
	b.lastPairs = pairs
	if b.addErr != nil {
		return nil, b.addErr
	}
	cards := make([]models.CardResult, 0, len(pairs))
	for _, p := range pairs {
		cards = append(cards, models.CardResult{Front: p.Front, Back: p.Back, Status: models.StatusOK})
	}
	raw, _ := json.Marshal(map[string]any{"cards": cards})
	return &models.AddCardsResult{Cards: cards, Raw: raw}, nil
}

func (b *stubBackend) RedCards(context.Context, string) ([]models.RedCard, json.RawMessage, error) {
	return []models.RedCard{{NoteID: 3, Front: "f", Back: "b", New: []models.Pair{{Front: "n", Back: "b"}}}}, json.RawMessage(`[]`), nil
}

func (b *stubBackend) UpdateRedCards(context.Context, string, []models.RedCardDecision) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T, backend Backend) *testServer {
	t.Helper()
	h := New(backend, Defaults{Deck: "Geo"})
	srv := httptest.NewServer(h.Router([]string{"http://localhost:2342"}))
	t.Cleanup(func() {
		srv.Close()
		h.Close()
	})
	return &testServer{t: t, srv: srv}
}

func (s *testServer) do(method, path string, body any) (int, []byte) {
	s.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, s.srv.URL+path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func (s *testServer) snapshot(method, path string, body any, wantCode int) session.Snapshot {
	s.t.Helper()
	code, data := s.do(method, path, body)
	if code != wantCode {
		s.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, wantCode, code, data)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.t.Fatalf("%s %s: expected snapshot JSON, got %v: %s", method, path, err, data)
	}
	return snap
}

func TestManualFlowRoundTrip(t *testing.T) {
	backend := &stubBackend{}
	ts := newTestServer(t, backend)

	snap := ts.snapshot("POST", "/api/sessions", map[string]string{"mode": "manual"}, http.StatusCreated)
	if snap.Deck != "Geo" || snap.State != session.Idle {
		t.Fatalf("Expected idle session on default deck, got %+v", snap)
	}
	base := "/api/sessions/" + snap.ID

	ts.snapshot("PUT", base+"/text", map[string]any{"text": "capitals"}, http.StatusOK)
	snap = ts.snapshot("POST", base+"/submit", nil, http.StatusOK)
	if snap.State != session.ReviewPending || len(snap.Review) != 2 {
		t.Fatalf("Expected two pairs under review, got %+v", snap)
	}

	ts.snapshot("POST", base+"/review/1/toggle", nil, http.StatusOK)
	snap = ts.snapshot("PUT", base+"/review/0", map[string]string{"field": "back", "value": "Paris, France"}, http.StatusOK)
	if snap.Review[0].Back != "Paris, France" || snap.Review[1].Included {
		t.Fatalf("Expected edit and toggle applied, got %+v", snap.Review)
	}

	snap = ts.snapshot("POST", base+"/confirm", nil, http.StatusOK)
	if snap.State != session.Idle || snap.Text != "" || snap.ReviewActive {
		t.Errorf("Expected session reset, got %+v", snap)
	}
	if len(backend.lastPairs) != 1 || backend.lastPairs[0].Back != "Paris, France" {
		t.Errorf("Expected only edited pair sent, got %+v", backend.lastPairs)
	}
	if len(snap.Log) != 2 || !snap.Log[0].Structured() {
		t.Errorf("Expected two structured log views, got %+v", snap.Log)
	}

	code, data := ts.do("GET", base+"/transcript", nil)
	if code != http.StatusOK || !strings.Contains(string(data), "Added Cards") {
		t.Errorf("Expected YAML transcript, got %d %s", code, data)
	}
}

func TestErrorMapping(t *testing.T) {
	backend := &stubBackend{addErr: &api.StatusError{Code: 500, Body: "down"}}
	ts := newTestServer(t, backend)
	snap := ts.snapshot("POST", "/api/sessions", nil, http.StatusCreated)
	base := "/api/sessions/" + snap.ID

	if code, _ := ts.do("POST", base+"/submit", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty submission, got %d", code)
	}
	if code, _ := ts.do("POST", base+"/confirm", nil); code != http.StatusConflict {
		t.Errorf("Expected 409 with no review, got %d", code)
	}

	ts.snapshot("PUT", base+"/text", map[string]any{"text": "x"}, http.StatusOK)
	ts.snapshot("POST", base+"/submit", nil, http.StatusOK)

	if code, _ := ts.do("POST", base+"/review/9/toggle", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing row, got %d", code)
	}
	if code, _ := ts.do("POST", base+"/review/abc/toggle", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad index, got %d", code)
	}
	if code, _ := ts.do("PUT", base+"/review/0", map[string]string{"field": "middle"}); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid field, got %d", code)
	}
	if code, _ := ts.do("POST", base+"/confirm", nil); code != http.StatusBadGateway {
		t.Errorf("Expected 502 for backend failure, got %d", code)
	}
	if code, _ := ts.do("GET", "/api/sessions/missing", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrEmptySubmission, http.StatusBadRequest},
		{session.ErrNoReview, http.StatusConflict},
		{session.ErrSuperseded, http.StatusConflict},
		{review.ErrIndex, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{api.ErrMalformedResponse, http.StatusBadGateway},
		{errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestPasteReachesOnlyItsSession(t *testing.T) {
	ts := newTestServer(t, &stubBackend{})
	a := ts.snapshot("POST", "/api/sessions", nil, http.StatusCreated)
	b := ts.snapshot("POST", "/api/sessions", nil, http.StatusCreated)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("text", "pasted line")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="shot.png"`)
	h.Set("Content-Type", "image/png")
	part, _ := w.CreatePart(h)
	_, _ = part.Write([]byte("fake png"))
	_ = w.Close()

	req, _ := http.NewRequest("POST", ts.srv.URL+"/api/sessions/"+a.ID+"/paste", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("paste failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	got := ts.snapshot("GET", "/api/sessions/"+a.ID, nil, http.StatusOK)
	if got.Text != "pasted line" || len(got.Files) != 1 || got.Files[0].Name != "shot.png" {
		t.Errorf("Expected paste applied to session a, got %+v", got)
	}
	other := ts.snapshot("GET", "/api/sessions/"+b.ID, nil, http.StatusOK)
	if other.Text != "" || len(other.Files) != 0 {
		t.Errorf("Expected session b untouched, got %+v", other)
	}
}

func TestDecksAndHealthcheck(t *testing.T) {
	ts := newTestServer(t, &stubBackend{})

	code, data := ts.do("GET", "/healthcheck", nil)
	if code != http.StatusOK || string(data) != "OK" {
		t.Errorf("Expected OK healthcheck, got %d %q", code, data)
	}

	code, data = ts.do("GET", "/api/decks", nil)
	var resp struct {
		Decks   []string `json:"decks"`
		Default string   `json:"default"`
	}
	if code != http.StatusOK || json.Unmarshal(data, &resp) != nil || len(resp.Decks) != 2 || resp.Default != "Geo" {
		t.Errorf("Expected deck list with default, got %d %s", code, data)
	}

	code, data = ts.do("GET", "/", nil)
	if code != http.StatusOK || !strings.Contains(string(data), "Flashcarder") {
		t.Errorf("Expected index page, got %d", code)
	}
}

func TestRedCardsRoutes(t *testing.T) {
	ts := newTestServer(t, &stubBackend{})
	snap := ts.snapshot("POST", "/api/sessions", nil, http.StatusCreated)
	base := "/api/sessions/" + snap.ID

	if code, _ := ts.do("POST", base+"/redcards/0/0/toggle", nil); code != http.StatusConflict {
		t.Errorf("Expected 409 before fetch, got %d", code)
	}
	code, data := ts.do("GET", base+"/redcards", nil)
	if code != http.StatusOK || !strings.Contains(string(data), `"note_id":3`) {
		t.Errorf("Expected red cards, got %d %s", code, data)
	}
	if code, _ := ts.do("POST", base+"/redcards/0/0/toggle", nil); code != http.StatusOK {
		t.Errorf("Expected toggle ok, got %d", code)
	}
	snap = ts.snapshot("POST", base+"/redcards/submit", nil, http.StatusOK)
	if len(snap.RedCards) != 0 {
		t.Errorf("Expected red cards cleared, got %+v", snap.RedCards)
	}

	if code, _ := ts.do("DELETE", base, nil); code != http.StatusNoContent {
		t.Errorf("Expected 204 on delete, got %d", code)
	}
}

func TestPasteIntoTextBoxKeepsText(t *testing.T) {
	ts := newTestServer(t, &stubBackend{})
	snap := ts.snapshot("POST", "/api/sessions", nil, http.StatusCreated)
	base := "/api/sessions/" + snap.ID

	// the page lets the browser insert the text, then sends the whole box
	ts.snapshot("PUT", base+"/text", map[string]string{"text": "Capital of France?"}, http.StatusOK)

	// images from the same paste follow without a text field
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="shot.png"`)
	h.Set("Content-Type", "image/png")
	part, _ := w.CreatePart(h)
	_, _ = part.Write([]byte("fake png"))
	_ = w.Close()
	req, _ := http.NewRequest("POST", ts.srv.URL+base+"/paste", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("paste failed: %v", err)
	}
	resp.Body.Close()

	got := ts.snapshot("POST", base+"/submit", nil, http.StatusOK)
	if got.Text != "Capital of France?" || len(got.Files) != 1 {
		t.Errorf("Expected pasted text and image kept, got text=%q files=%d", got.Text, len(got.Files))
	}
	if got.State != session.ReviewPending {
		t.Errorf("Expected review_pending after submit, got %s", got.State)
	}

	page := string(indexHTML)
	branch := strings.Index(page, `if (e.target === $("text"))`)
	prevent := strings.Index(page, "e.preventDefault()")
	if branch < 0 || prevent < branch {
		t.Error("Expected pastes into the text box to be left to the browser")
	}
}

func TestCreateSessionWritesJSONOnce(t *testing.T) {
	ts := newTestServer(t, &stubBackend{})
	resp, err := http.Post(ts.srv.URL+"/api/sessions", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected 201, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	rec := httptest.NewRecorder()
	(&Handler{}).writeJSONStatus(rec, http.StatusCreated, map[string]any{"bad": make(chan int)})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for unencodable body, got %d", rec.Code)
	}
}
