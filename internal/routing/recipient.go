package routing

import (
	"cmp"
	"slices"
	"time"
)

type Recipient struct {
	ID            int64
	TransactionNo string
	OfficeID      string
	OfficeName    string
	Type          RecipientType
	// Sequence orders default recipients of a Sequential transaction.
	Sequence  *int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Recipient) IsDefault() bool {
	return r.Type == RecipientDefault
}

// RecipientInput is a recipient as supplied by a caller, before registration.
type RecipientInput struct {
	OfficeID   string        `json:"office_id"`
	OfficeName string        `json:"office_name"`
	Type       RecipientType `json:"recipient_type"`
	Sequence   *int          `json:"sequence,omitempty"`
}

// Recipient returns the registry row for an office, active or not.
func (t *Transaction) Recipient(officeID string) *Recipient {
	for _, r := range t.Recipients {
		if r.OfficeID == officeID {
			return r
		}
	}

	return nil
}

// activeRecipient returns the office's row only while it is active.
func (t *Transaction) activeRecipient(officeID string) *Recipient {
	if r := t.Recipient(officeID); r != nil && r.IsActive {
		return r
	}

	return nil
}

// ActiveRecipients returns every active recipient regardless of type.
func (t *Transaction) ActiveRecipients() []*Recipient {
	return activeRecipients(t.Recipients)
}

func activeRecipients(rs []*Recipient) []*Recipient {
	var out []*Recipient

	for _, r := range rs {
		if r.IsActive {
			out = append(out, r)
		}
	}

	return out
}

// activeDefaults returns the active default recipients in sequence order.
// Recipients without a sequence sort last, in registration order.
func activeDefaults(rs []*Recipient) []*Recipient {
	var out []*Recipient

	for _, r := range rs {
		if r.IsActive && r.IsDefault() {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, compareSequence)

	return out
}

func compareSequence(a, b *Recipient) int {
	switch {
	case a.Sequence == nil && b.Sequence == nil:
		return cmp.Compare(a.ID, b.ID)
	case a.Sequence == nil:
		return 1
	case b.Sequence == nil:
		return -1
	}

	if c := cmp.Compare(*a.Sequence, *b.Sequence); c != 0 {
		return c
	}

	return cmp.Compare(a.ID, b.ID)
}

// CurrentTurn returns the only default recipient allowed to receive next in a
// Sequential transaction, or nil when every active default has received.
func (t *Transaction) CurrentTurn() *Recipient {
	if t.Mode != ModeSequential {
		return nil
	}

	for _, r := range activeDefaults(t.Recipients) {
		if !hasLogBy(t.Logs, r.OfficeID, LogReceived) {
			return r
		}
	}

	return nil
}
