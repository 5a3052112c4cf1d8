package lifecycle

import (
	"testing"
	"time"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		state   Docstatus
		check   func(Docstatus) error
		wantErr error
	}{
		{Draft, Docstatus.CheckSubmit, nil},
		{Submitted, Docstatus.CheckSubmit, ErrNotDraft},
		{Cancelled, Docstatus.CheckSubmit, ErrNotDraft},
		{Draft, Docstatus.CheckSave, nil},
		{Submitted, Docstatus.CheckSave, ErrNotDraft},
		{Submitted, Docstatus.CheckCancel, nil},
		{Draft, Docstatus.CheckCancel, ErrNotSubmitted},
		{Cancelled, Docstatus.CheckCancel, ErrNotSubmitted},
		{Cancelled, Docstatus.CheckAmend, nil},
		{Draft, Docstatus.CheckAmend, ErrNotCancelled},
		{Submitted, Docstatus.CheckAmend, ErrNotCancelled},
	}
	for _, tt := range tests {
		if err := tt.check(tt.state); err != tt.wantErr {
			t.Errorf("%v transition check = %v, want %v", tt.state, err, tt.wantErr)
		}
	}
}

func TestEditable(t *testing.T) {
	if !Draft.Editable() {
		t.Error("draft must be editable")
	}
	if Submitted.Editable() || Cancelled.Editable() {
		t.Error("submitted and cancelled must be read-only")
	}
}

func TestAction(t *testing.T) {
	if got := Submitted.Action(); got != "cancel" {
		t.Errorf("Submitted action = %q, want cancel", got)
	}
	if got := Cancelled.Action(); got != "amend" {
		t.Errorf("Cancelled action = %q, want amend", got)
	}
	if got := Draft.Action(); got != "" {
		t.Errorf("Draft action = %q, want none", got)
	}
}

func TestPickCurrentPriority(t *testing.T) {
	now := time.Now()
	docs := []Document{
		{Name: "TS-2", Docstatus: Cancelled, Modified: now},
		{Name: "TS-3", Docstatus: Submitted, Modified: now.Add(-time.Hour)},
		{Name: "TS-4", Docstatus: Draft, Modified: now.Add(-2 * time.Hour)},
	}

	got, ok := PickCurrent(docs)
	if !ok || got.Name != "TS-4" {
		t.Errorf("PickCurrent = %v (%v), want draft TS-4", got.Name, ok)
	}
}

func TestPickCurrentFallsBackToLatestModified(t *testing.T) {
	now := time.Now()
	docs := []Document{
		{Name: "TS-1", Docstatus: Cancelled, Modified: now.Add(-time.Hour)},
		{Name: "TS-1-1", Docstatus: Cancelled, Modified: now},
	}

	got, ok := PickCurrent(docs)
	if !ok || got.Name != "TS-1-1" {
		t.Errorf("PickCurrent = %v, want most recently modified TS-1-1", got.Name)
	}
}

func TestPickCurrentEmpty(t *testing.T) {
	if _, ok := PickCurrent(nil); ok {
		t.Error("PickCurrent(nil) must report no document")
	}
}
