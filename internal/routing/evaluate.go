package routing

import (
	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

// Compute derives a transaction's status from its registry and activity log.
//
// Returned is owned by the return action and is never recomputed. Without a
// Released or Forwarded entry the transaction is still a Draft. Otherwise the
// active default recipients decide, according to the routing mode, whether
// every obligation has been met.
func Compute(current Status, mode Mode, class library.ClassificationType, recipients []*Recipient, logs []*LogEntry) Status {
	if current == StatusReturned {
		return StatusReturned
	}

	if !hasLog(logs, LogReleased, LogForwarded) {
		return StatusDraft
	}

	if hasLog(logs, LogClosed) {
		return StatusCompleted
	}

	if mode == ModeSequential && hasLog(logs, LogReturnedToSender) {
		return StatusProcessing
	}

	pending := activeDefaults(recipients)

	// Nobody is left to act: only an explicit terminal action that stepped
	// the last office out completes the transaction.
	if len(pending) == 0 {
		if lastStepOutWasTerminal(logs) {
			return StatusCompleted
		}

		return StatusProcessing
	}

	var complete bool

	switch mode {
	case ModeSingle:
		complete = Fulfilled(class, pending[0].OfficeID, logs)
	case ModeMultiple, ModeSequential:
		complete = true

		for _, r := range pending {
			if !Fulfilled(class, r.OfficeID, logs) {
				complete = false
				break
			}
		}
	}

	if complete {
		return StatusCompleted
	}

	return StatusProcessing
}

// Fulfilled reports whether an office has discharged its obligation: receipt
// for FI actions, a terminal disposition for FA actions.
func Fulfilled(class library.ClassificationType, officeID string, logs []*LogEntry) bool {
	if class == library.TypeFI {
		return hasLogBy(logs, officeID, LogReceived)
	}

	return hasLogBy(logs, officeID, terminalDispositions...)
}

var terminalDispositions = []LogStatus{LogDone, LogForwarded, LogReturnedToSender}

// lastStepOutWasTerminal looks only at the latest entry that changed the
// registry. An older Done by some other office says nothing about who
// stepped out last.
func lastStepOutWasTerminal(logs []*LogEntry) bool {
	for i := len(logs) - 1; i >= 0; i-- {
		switch logs[i].Status {
		case LogDone, LogForwarded, LogReplied:
			return true
		case LogReleased, LogRecipientRemoved, LogRecipientAdded, LogRoutingHalted, LogReturnedToSender:
			return false
		}
	}

	return false
}

// RollUp derives a document's status from its transactions. Closed absorbs;
// superseded transactions are ignored. A document with work still in flight
// keeps its current status.
func RollUp(current DocumentStatus, txs []*Transaction) DocumentStatus {
	if current == DocumentClosed {
		return current
	}

	var (
		live      int
		completed int
		returned  bool
	)

	for _, tx := range txs {
		if !tx.IsActive {
			continue
		}

		live++

		switch tx.Status {
		case StatusCompleted:
			completed++
		case StatusReturned:
			returned = true
		}
	}

	switch {
	case live > 0 && completed == live:
		return DocumentCompleted
	case returned:
		return DocumentReturned
	}

	return current
}
