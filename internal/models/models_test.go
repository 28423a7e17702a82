package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{input: "", expected: ModeManual},
		{input: "manual", expected: ModeManual},
		{input: "AUTO", expected: ModeAuto},
		{input: " auto ", expected: ModeAuto},
		{input: "batch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestPendingSubmissionValidate(t *testing.T) {
	if err := (PendingSubmission{Text: "  \n"}).Validate(); !errors.Is(err, ErrEmptySubmission) {
		t.Errorf("Expected ErrEmptySubmission for blank text, got %v", err)
	}
	if err := (PendingSubmission{Text: "Capital of France?"}).Validate(); err != nil {
		t.Errorf("Expected text-only submission to be valid, got %v", err)
	}
	if err := (PendingSubmission{Files: []File{{Name: "a.png", Size: 3}}}).Validate(); err != nil {
		t.Errorf("Expected file-only submission to be valid, got %v", err)
	}
}

func TestCardResultDecodesLegacyStatus(t *testing.T) {
	body := `[
		{"Front":"a","Back":"b","Status":"OK"},
		{"Front":"c","Back":"d","Status":true},
		{"Front":"e","Back":"f","Status":false,"Error":"duplicate"},
		{"Front":"g","Back":"h","Status":false}
	]`

	var cards []CardResult
	if err := json.Unmarshal([]byte(body), &cards); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for i := range cards {
		cards[i].Normalize()
	}

	expected := []Status{StatusOK, StatusOK, Status("duplicate"), StatusFailed}
	for i, want := range expected {
		if cards[i].Status != want {
			t.Errorf("card %d: expected status %q, got %q", i, want, cards[i].Status)
		}
	}
}

func TestStatusRejectsOtherTypes(t *testing.T) {
	var s Status
	if err := json.Unmarshal([]byte(`42`), &s); err == nil {
		t.Error("Expected error for numeric status, got nil")
	}
}

func TestOutcomeHelpers(t *testing.T) {
	ok := []CardResult{{Status: StatusOK}, {Status: StatusOK}}
	partial := []CardResult{{Status: StatusOK}, {Status: "duplicate"}}
	down := []CardResult{{Status: StatusOK}, {Status: StatusAnkiUnavailable}}

	if !AllOK(ok) || AllOK(partial) || AllOK(down) {
		t.Error("AllOK returned an unexpected result")
	}
	if IntegrationUnavailable(ok) || IntegrationUnavailable(partial) || !IntegrationUnavailable(down) {
		t.Error("IntegrationUnavailable returned an unexpected result")
	}
}
