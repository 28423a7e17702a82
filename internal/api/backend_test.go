package api

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

func TestParseContract(t *testing.T) {
	tests := []struct {
		in      string
		want    Contract
		wantErr bool
	}{
		{in: "", want: ContractUnified},
		{in: "unified", want: ContractUnified},
		{in: "SPLIT", want: ContractSplit},
		{in: "grpc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseContract(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseContract(%q): expected error=%v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseContract(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSplitContractMergesManual(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/extract_text":
			_, _ = io.WriteString(w, `{"pairs":[{"Front":"t","Back":"1"}]}`)
		case "/extract_images":
			_, _ = io.WriteString(w, `{"pairs":[{"Front":"i","Back":"2","Image":"a.png"}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	b := NewBackend(client, ContractSplit)

	res, err := b.Extract(t.Context(), models.PendingSubmission{
		Text:  "notes",
		Files: []models.File{{Name: "a.png", ContentType: "image/png", Data: []byte("x")}},
		Mode:  models.ModeManual,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("Expected 2 backend calls, got %v", paths)
	}
	if len(res.Pairs) != 2 || res.Pairs[0].Front != "t" || res.Pairs[1].Image != "a.png" {
		t.Errorf("Expected text pair then image pair, got %+v", res.Pairs)
	}
	if len(res.Raw) == 0 {
		t.Error("Expected merged raw body")
	}
}

func TestSplitContractAutoTextOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process_text" {
			t.Errorf("Expected /process_text, got %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"status":[{"Front":"a","Back":"b","Status":true}]}`)
	})
	b := NewBackend(client, ContractSplit)

	res, err := b.Extract(t.Context(), models.PendingSubmission{Text: "notes", Mode: models.ModeAuto, Deck: "Geo"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !models.AllOK(res.Cards) || len(res.Cards) != 1 {
		t.Errorf("Expected one OK card, got %+v", res.Cards)
	}
}

func TestSplitContractFailsWhole(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/extract_images" {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"pairs":[{"Front":"t","Back":"1"}]}`)
	})
	b := NewBackend(client, ContractSplit)

	res, err := b.Extract(t.Context(), models.PendingSubmission{
		Text:  "notes",
		Files: []models.File{{Name: "a.png", Data: []byte("x")}},
	})
	if err == nil {
		t.Fatalf("Expected error, got %+v", res)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 StatusError, got %v", err)
	}
}

func TestExtractRejectsEmptySubmission(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	b := NewBackend(client, ContractUnified)

	_, err := b.Extract(t.Context(), models.PendingSubmission{Text: "   "})
	if !errors.Is(err, models.ErrEmptySubmission) {
		t.Errorf("Expected ErrEmptySubmission, got %v", err)
	}
	if called {
		t.Error("Expected no backend call")
	}
}
