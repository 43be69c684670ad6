package library

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("library entry not found")
	// ErrInvalidImport wraps every parse failure of an imported CSV.
	ErrInvalidImport = errors.New("invalid import")
)

// ClassificationType says what a recipient must do to discharge an action.
type ClassificationType string

const (
	// TypeFA (For Action) needs a terminal disposition such as Done or Forwarded.
	TypeFA ClassificationType = "FA"
	// TypeFI (For Information) is satisfied by receipt alone.
	TypeFI ClassificationType = "FI"
)

func (t ClassificationType) Valid() bool {
	return t == TypeFA || t == TypeFI
}

type Urgency string

const (
	UrgencyUrgent  Urgency = "Urgent"
	UrgencyHigh    Urgency = "High"
	UrgencyNormal  Urgency = "Normal"
	UrgencyRoutine Urgency = "Routine"
)

// DefaultUrgency applies when neither the transaction nor its document type sets one.
const DefaultUrgency = UrgencyHigh

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyUrgent, UrgencyHigh, UrgencyNormal, UrgencyRoutine:
		return true
	}

	return false
}

// Days returns the number of days a recipient has to act after receipt.
func (u Urgency) Days() int {
	switch u {
	case UrgencyUrgent:
		return 1
	case UrgencyNormal:
		return 5
	case UrgencyRoutine:
		return 7
	default:
		return 3
	}
}

// Action is a named action type and the behaviour it imposes on recipients.
type Action struct {
	Name             string
	Type             ClassificationType
	ReplyIsTerminal  bool
	RequiresProof    bool
	ProofDescription string
	// DefaultUrgency, when set, is locked onto every transaction created with this action.
	DefaultUrgency *Urgency
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReceiptIsTerminal reports whether a recipient's receipt alone discharges the action.
func (a *Action) ReceiptIsTerminal() bool {
	return a.Type == TypeFI
}

type DocumentType struct {
	Name           string
	DefaultUrgency *Urgency
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
