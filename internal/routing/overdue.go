package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

// OverdueStatus is the deadline of one recipient office on one transaction.
type OverdueStatus struct {
	OfficeID     string
	OfficeName   string
	ReceivedAt   time.Time
	DueDate      time.Time
	DaysUntilDue int
	IsOverdue    bool
}

// ResolveUrgency picks the urgency that drives deadlines: the transaction's
// own, then the document type default, then High.
func ResolveUrgency(tx *Transaction, docType *library.DocumentType) library.Urgency {
	if tx.Urgency != nil {
		return *tx.Urgency
	}

	if docType != nil && docType.DefaultUrgency != nil {
		return *docType.DefaultUrgency
	}

	return library.DefaultUrgency
}

// DueDate returns the deadline for an office that received at receivedAt.
// An explicit due date wins and runs to the end of that day.
func DueDate(tx *Transaction, docType *library.DocumentType, receivedAt time.Time) time.Time {
	if tx.DueDate != nil {
		d := *tx.DueDate
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
	}

	return receivedAt.AddDate(0, 0, ResolveUrgency(tx, docType).Days())
}

// EvaluateOverdue computes deadlines for every active action recipient that
// has received but not yet disposed of the document. FI actions have none.
func EvaluateOverdue(tx *Transaction, class library.ClassificationType, docType *library.DocumentType, now time.Time) map[string]OverdueStatus {
	out := make(map[string]OverdueStatus)

	if class != library.TypeFA || tx.Status != StatusProcessing {
		return out
	}

	for _, r := range activeDefaults(tx.Recipients) {
		received := lastLogBy(tx.Logs, r.OfficeID, LogReceived)
		if received == nil {
			continue
		}

		if Fulfilled(class, r.OfficeID, tx.Logs) {
			continue
		}

		due := DueDate(tx, docType, received.CreatedAt)

		out[r.OfficeID] = OverdueStatus{
			OfficeID:     r.OfficeID,
			OfficeName:   r.OfficeName,
			ReceivedAt:   received.CreatedAt,
			DueDate:      due,
			DaysUntilDue: int(due.Sub(now) / (24 * time.Hour)),
			IsOverdue:    now.After(due),
		}
	}

	return out
}

// Overdue returns the per-office deadlines of one transaction.
func (s *Service) Overdue(ctx context.Context, no string) (map[string]OverdueStatus, error) {
	tx, err := s.repo.GetTransaction(ctx, no)
	if err != nil {
		return nil, err
	}

	return s.overdueFor(ctx, tx)
}

func (s *Service) overdueFor(ctx context.Context, tx *Transaction) (map[string]OverdueStatus, error) {
	action, err := s.library.Action(ctx, tx.Document.ActionType)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", tx.Document.ActionType, err)
	}

	docType, err := s.library.DocumentType(ctx, tx.Document.DocumentType)
	if err != nil {
		if !errors.Is(err, library.ErrNotFound) {
			return nil, fmt.Errorf("document type %s: %w", tx.Document.DocumentType, err)
		}

		docType = nil
	}

	return EvaluateOverdue(tx, action.Type, docType, s.now()), nil
}

// OverdueItem is one overdue recipient found by a sweep.
type OverdueItem struct {
	Transaction *Transaction
	Status      OverdueStatus
}

// ListOverdue scans every processing transaction for overdue recipients.
// An empty officeID means all offices.
func (s *Service) ListOverdue(ctx context.Context, officeID string) ([]OverdueItem, error) {
	txs, err := s.repo.ListProcessing(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processing: %w", err)
	}

	var items []OverdueItem

	for _, tx := range txs {
		statuses, err := s.overdueFor(ctx, tx)
		if err != nil {
			return nil, err
		}

		for _, r := range activeDefaults(tx.Recipients) {
			st, ok := statuses[r.OfficeID]
			if !ok || !st.IsOverdue {
				continue
			}

			if officeID != "" && officeID != r.OfficeID {
				continue
			}

			items = append(items, OverdueItem{Transaction: tx, Status: st})
		}
	}

	return items, nil
}

// OverdueCount is the number of transactions on which an office is overdue.
func (s *Service) OverdueCount(ctx context.Context, officeID string) (int, error) {
	items, err := s.ListOverdue(ctx, officeID)
	if err != nil {
		return 0, err
	}

	return len(items), nil
}

// SweepOverdue notifies every overdue recipient and the originating office.
func (s *Service) SweepOverdue(ctx context.Context) ([]OverdueItem, error) {
	items, err := s.ListOverdue(ctx, "")
	if err != nil {
		return nil, err
	}

	var out []Notification

	for _, it := range items {
		r := it.Transaction.Recipient(it.Status.OfficeID)
		out = append(out, overdueNotifications(it.Transaction, r, it.Status, s.now())...)
	}

	s.dispatch(ctx, out)

	return items, nil
}
