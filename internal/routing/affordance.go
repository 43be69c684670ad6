package routing

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

// Affordances lists the actions an office may take on a transaction right now.
// They come from the same guards the actions run, so a true flag means the
// action will pass its structural checks.
type Affordances struct {
	IsOriginator         bool
	CanRelease           bool
	CanReceive           bool
	CanMarkDone          bool
	CanForward           bool
	CanReturn            bool
	CanReply             bool
	CanSubsequentRelease bool
	CanManageRecipients  bool
	CanClose             bool
	CanReRelease         bool
	CanCopy              bool
	// IsMyTurn is only meaningful for Sequential routing.
	IsMyTurn bool
}

func ComputeAffordances(tx *Transaction, actor Actor, action *library.Action) Affordances {
	ok := func(err error) bool { return err == nil }
	okR := func(_ *Recipient, err error) bool { return err == nil }

	a := Affordances{
		IsOriginator:         isOrigin(tx, actor),
		CanRelease:           ok(guardRelease(tx, actor)),
		CanReceive:           okR(guardReceive(tx, actor)),
		CanMarkDone:          okR(guardDone(tx, actor, action)),
		CanForward:           okR(guardForward(tx, actor)),
		CanReturn:            okR(guardReturn(tx, actor)),
		CanReply:             okR(guardReply(tx, actor)),
		CanSubsequentRelease: okR(guardSubsequentRelease(tx, actor)),
		CanManageRecipients:  ok(guardManageRecipients(tx, actor)),
	}

	if turn := tx.CurrentTurn(); turn != nil {
		a.IsMyTurn = turn.OfficeID == actor.Office.ID
	}

	if doc := tx.Document; doc != nil {
		a.CanClose = ok(guardClose(doc, actor))
		a.CanReRelease = ok(guardReRelease(doc, actor))
		a.CanCopy = ok(guardCopy(doc, actor))
	}

	return a
}

// View is a transaction together with what the viewing office may do with it.
type View struct {
	Transaction *Transaction
	Affordances Affordances
}

// Show loads a transaction and the caller's affordances on it.
func (s *Service) Show(ctx context.Context, actor Actor, no string) (*View, error) {
	tx, err := s.repo.GetTransaction(ctx, no)
	if err != nil {
		return nil, err
	}

	action, err := s.library.Action(ctx, tx.Document.ActionType)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", tx.Document.ActionType, err)
	}

	return &View{Transaction: tx, Affordances: ComputeAffordances(tx, actor, action)}, nil
}
