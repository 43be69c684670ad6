package routing

import (
	"slices"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

// Draft is a document being profiled. The caller owns it for the length of
// one editing session: build it up, Validate, pass it to Create, then Reset or
// drop it.
type Draft struct {
	DocumentType string
	ActionType   string
	OriginType   OriginType
	Subject      string
	Remarks      string
	AllowCopy    bool
	Mode         Mode
	Urgency      *library.Urgency
	DueDate      *time.Time
	Recipients   []RecipientInput
	Signatories  []Signatory
	Attachments  []Attachment
}

func NewDraft() *Draft {
	d := &Draft{}
	d.Reset()

	return d
}

// Reset returns the draft to its empty state.
func (d *Draft) Reset() {
	*d = Draft{
		OriginType: OriginInternal,
		Mode:       ModeSingle,
	}
}

// AddRecipient registers an office, replacing an earlier entry for it.
func (d *Draft) AddRecipient(in RecipientInput) {
	d.RemoveRecipient(in.OfficeID)
	d.Recipients = append(d.Recipients, in)
}

func (d *Draft) RemoveRecipient(officeID string) {
	d.Recipients = slices.DeleteFunc(d.Recipients, func(r RecipientInput) bool {
		return r.OfficeID == officeID
	})
}

func (d *Draft) AddSignatory(s Signatory) {
	d.Signatories = append(d.Signatories, s)
}

func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Subject) == "" {
		return invalid("subject is required")
	}

	if strings.TrimSpace(d.DocumentType) == "" {
		return invalid("document type is required")
	}

	if strings.TrimSpace(d.ActionType) == "" {
		return invalid("action type is required")
	}

	if !d.OriginType.Valid() {
		return invalid("unknown origin type %q", d.OriginType)
	}

	if d.Urgency != nil && !d.Urgency.Valid() {
		return invalid("unknown urgency level %q", *d.Urgency)
	}

	return validateRecipients(d.Mode, d.Recipients)
}

// validateRecipients checks a recipient set against a routing mode.
func validateRecipients(mode Mode, rs []RecipientInput) error {
	if !mode.Valid() {
		return invalid("unknown routing %q", mode)
	}

	seen := make(map[string]bool, len(rs))
	sequences := make(map[int]bool)

	var defaults int

	for _, r := range rs {
		if r.OfficeID == "" {
			return invalid("recipient office is required")
		}

		if seen[r.OfficeID] {
			return invalid("office %s is listed more than once", r.OfficeID)
		}

		seen[r.OfficeID] = true

		if !r.Type.Valid() {
			return invalid("unknown recipient type %q", r.Type)
		}

		if r.Type != RecipientDefault {
			continue
		}

		defaults++

		if mode != ModeSequential {
			continue
		}

		if r.Sequence == nil || *r.Sequence < 1 {
			return invalid("sequential recipient %s needs a positive sequence", r.OfficeID)
		}

		if sequences[*r.Sequence] {
			return invalid("sequence %d is used more than once", *r.Sequence)
		}

		sequences[*r.Sequence] = true
	}

	switch {
	case defaults == 0:
		return invalid("at least one action recipient is required")
	case mode == ModeSingle && defaults > 1:
		return invalid("single routing takes exactly one action recipient")
	}

	return nil
}
