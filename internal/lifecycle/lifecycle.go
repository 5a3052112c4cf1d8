// Package lifecycle models the timesheet document state machine. A
// document moves Draft -> Submitted -> Cancelled; amending a cancelled
// document creates a fresh Draft under a new identity while the original
// stays Cancelled forever.
package lifecycle

import (
	"errors"
	"time"
)

// Docstatus is the three-valued lifecycle state of a persisted timesheet.
type Docstatus int

const (
	Draft     Docstatus = 0
	Submitted Docstatus = 1
	Cancelled Docstatus = 2
)

func (d Docstatus) String() string {
	switch d {
	case Draft:
		return "Draft"
	case Submitted:
		return "Submitted"
	case Cancelled:
		return "Cancelled"
	}
	return "Unknown"
}

var (
	ErrNotDraft     = errors.New("timesheet is not a draft")
	ErrNotSubmitted = errors.New("only a submitted timesheet can be cancelled")
	ErrNotCancelled = errors.New("only a cancelled timesheet can be amended")
)

// Document is the client-side view of a persisted timesheet.
type Document struct {
	Name      string
	Status    string
	Docstatus Docstatus
	Modified  time.Time
}

// Editable reports whether the grid backed by this state accepts edits.
// Submitted and Cancelled documents are read-only.
func (d Docstatus) Editable() bool {
	return d == Draft
}

// CheckSubmit validates the submit transition. Saving must already have
// produced a document; the caller enforces that separately.
func (d Docstatus) CheckSubmit() error {
	if d != Draft {
		return ErrNotDraft
	}
	return nil
}

// CheckSave validates re-saving. Only drafts may be saved in place.
func (d Docstatus) CheckSave() error {
	if d != Draft {
		return ErrNotDraft
	}
	return nil
}

// CheckCancel validates the cancel transition.
func (d Docstatus) CheckCancel() error {
	if d != Submitted {
		return ErrNotSubmitted
	}
	return nil
}

// CheckAmend validates the amend transition.
func (d Docstatus) CheckAmend() error {
	if d != Cancelled {
		return ErrNotCancelled
	}
	return nil
}

// Action is the single state-appropriate action exposed for a read-only
// document: Cancel for Submitted, Amend for Cancelled, none for Draft
// (drafts expose the full save/submit surface instead).
func (d Docstatus) Action() string {
	switch d {
	case Submitted:
		return "cancel"
	case Cancelled:
		return "amend"
	}
	return ""
}

// PickCurrent selects the document the session should track when several
// exist for one week, e.g. a cancelled timesheet plus its amendment.
// Priority is Draft > Submitted > Cancelled; ties break on the most
// recently modified document.
func PickCurrent(docs []Document) (Document, bool) {
	if len(docs) == 0 {
		return Document{}, false
	}

	best := docs[0]
	for _, d := range docs[1:] {
		if rank(d.Docstatus) < rank(best.Docstatus) {
			best = d
			continue
		}
		if rank(d.Docstatus) == rank(best.Docstatus) && d.Modified.After(best.Modified) {
			best = d
		}
	}
	return best, true
}

func rank(d Docstatus) int {
	switch d {
	case Draft:
		return 0
	case Submitted:
		return 1
	case Cancelled:
		return 2
	}
	return 3
}
