package routing

import (
	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

// Guards check the structural preconditions of each action against the
// state read under lock. Payload validation happens before they run.

const turnViolation = "It is not your office's turn. Sequential order must be followed."

func isOrigin(tx *Transaction, actor Actor) bool {
	return tx.Document != nil && tx.Document.OfficeID == actor.Office.ID
}

func requireProcessing(tx *Transaction) error {
	switch tx.Status {
	case StatusProcessing:
		return nil
	case StatusDraft:
		return violation("This document has not been released yet.")
	case StatusReturned:
		return violation("This document has been returned to sender.")
	default:
		return violation("This transaction is already completed.")
	}
}

// requireReceivedDefault is shared by the actions that only an active default
// recipient who already received may take.
func requireReceivedDefault(tx *Transaction, actor Actor) (*Recipient, error) {
	if err := requireProcessing(tx); err != nil {
		return nil, err
	}

	r := tx.activeRecipient(actor.Office.ID)
	if r == nil {
		return nil, violation("Your office is not an active recipient of this document.")
	}

	if !r.IsDefault() {
		return nil, violation("Only action recipients can take this action; CC and BCC offices are informed only.")
	}

	if !tx.HasReceived(actor.Office.ID) {
		return nil, violation("Your office must receive the document first.")
	}

	return r, nil
}

func guardRelease(tx *Transaction, actor Actor) error {
	if !isOrigin(tx, actor) {
		return violation("Only the originating office can release this document.")
	}

	if tx.HasReleased() {
		return violation("This transaction has already been released.")
	}

	if len(activeDefaults(tx.Recipients)) == 0 {
		return violation("At least one action recipient is required before release.")
	}

	return nil
}

func guardReceive(tx *Transaction, actor Actor) (*Recipient, error) {
	if !tx.HasReleased() {
		return nil, violation("This document has not been released yet.")
	}

	if err := requireProcessing(tx); err != nil {
		return nil, err
	}

	r := tx.activeRecipient(actor.Office.ID)
	if r == nil {
		return nil, violation("Your office is not a recipient of this document.")
	}

	if tx.HasReceived(actor.Office.ID) {
		return nil, violation("Your office has already received this document.")
	}

	if tx.Mode == ModeSequential && r.IsDefault() {
		if turn := tx.CurrentTurn(); turn == nil || turn.OfficeID != r.OfficeID {
			return nil, violation(turnViolation)
		}
	}

	return r, nil
}

func guardDone(tx *Transaction, actor Actor, action *library.Action) (*Recipient, error) {
	if err := requireProcessing(tx); err != nil {
		return nil, err
	}

	if action.Type != library.TypeFA {
		return nil, violation("This document is for information only and cannot be marked as done.")
	}

	r, err := requireReceivedDefault(tx, actor)
	if err != nil {
		return nil, err
	}

	if hasLogBy(tx.Logs, actor.Office.ID, LogDone) {
		return nil, violation("Your office has already marked this document as done.")
	}

	return r, nil
}

func guardForward(tx *Transaction, actor Actor) (*Recipient, error) {
	r, err := requireReceivedDefault(tx, actor)
	if err != nil {
		return nil, err
	}

	if hasLogBy(tx.Logs, actor.Office.ID, LogForwarded) {
		return nil, violation("Your office has already forwarded this document.")
	}

	return r, nil
}

func guardReturn(tx *Transaction, actor Actor) (*Recipient, error) {
	r, err := requireReceivedDefault(tx, actor)
	if err != nil {
		return nil, err
	}

	if hasLogBy(tx.Logs, actor.Office.ID, LogReturnedToSender) {
		return nil, violation("Your office has already returned this document.")
	}

	return r, nil
}

func guardSubsequentRelease(tx *Transaction, actor Actor) (*Recipient, error) {
	return requireReceivedDefault(tx, actor)
}

func guardReply(tx *Transaction, actor Actor) (*Recipient, error) {
	if err := requireProcessing(tx); err != nil {
		return nil, err
	}

	r := tx.activeRecipient(actor.Office.ID)
	if r == nil {
		return nil, violation("Your office is not an active recipient of this document.")
	}

	if !tx.HasReceived(actor.Office.ID) {
		return nil, violation("Your office must receive the document first.")
	}

	return r, nil
}

func guardManageRecipients(tx *Transaction, actor Actor) error {
	if !isOrigin(tx, actor) {
		return violation("Only the originating office can manage recipients.")
	}

	return requireProcessing(tx)
}

func guardClose(doc *Document, actor Actor) error {
	if doc.OfficeID != actor.Office.ID {
		return violation("Only the originating office can close this document.")
	}

	switch doc.Status {
	case DocumentDraft:
		return violation("A draft document cannot be closed.")
	case DocumentClosed:
		return violation("This document is already closed.")
	}

	return nil
}

func guardCloseCompleted(doc *Document, actor Actor) error {
	if doc.OfficeID != actor.Office.ID {
		return violation("Only the originating office can close " + doc.No + ".")
	}

	if doc.Status != DocumentCompleted {
		return violation("Document " + doc.No + " is not completed.")
	}

	return nil
}

func guardReRelease(doc *Document, actor Actor) error {
	if doc.OfficeID != actor.Office.ID {
		return violation("Only the originating office can re-release this document.")
	}

	if doc.Status != DocumentReturned {
		return violation("Only a returned document can be re-released.")
	}

	return nil
}

func guardCopy(doc *Document, actor Actor) error {
	if doc.OfficeID != actor.Office.ID {
		return violation("Only the originating office can copy this document.")
	}

	if !doc.AllowCopy {
		return violation("This document does not allow copies.")
	}

	return nil
}

// guardNote lets the origin and any office currently holding the document
// write official notes.
func guardNote(doc *Document, txs []*Transaction, actor Actor) error {
	if doc.Status == DocumentClosed {
		return violation("Notes cannot be added to a closed document.")
	}

	if doc.OfficeID == actor.Office.ID {
		return nil
	}

	for _, tx := range txs {
		if tx.activeRecipient(actor.Office.ID) != nil {
			return nil
		}
	}

	return violation("Only the originating office or an active recipient can add notes.")
}
