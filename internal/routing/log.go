package routing

import (
	"slices"
	"time"
)

// LogStatus tags an activity log entry.
type LogStatus string

const (
	LogProfiled           LogStatus = "Profiled"
	LogReleased           LogStatus = "Released"
	LogReceived           LogStatus = "Received"
	LogForwarded          LogStatus = "Forwarded"
	LogReturnedToSender   LogStatus = "Returned To Sender"
	LogDone               LogStatus = "Done"
	LogClosed             LogStatus = "Closed"
	LogRoutingHalted      LogStatus = "Routing Halted"
	LogDocumentRevised    LogStatus = "Document Revised"
	LogRecipientAdded     LogStatus = "Recipient Added"
	LogRecipientRemoved   LogStatus = "Recipient Removed"
	LogRecipientReordered LogStatus = "Recipient Reordered"
	LogReplied            LogStatus = "Replied"
)

// LogEntry is one immutable row of a transaction's activity log.
type LogEntry struct {
	ID                int64
	TransactionNo     string
	DocumentNo        string
	Status            LogStatus
	OfficeID          string
	OfficeName        string
	RoutedOfficeID    string
	RoutedOfficeName  string
	ActionTaken       string
	Activity          string
	Remarks           string
	Reason            string
	AssignedPersonnel string
	UserID            string
	UserName          string
	CreatedAt         time.Time
}

func hasLog(logs []*LogEntry, statuses ...LogStatus) bool {
	return slices.ContainsFunc(logs, func(l *LogEntry) bool {
		return slices.Contains(statuses, l.Status)
	})
}

func hasLogBy(logs []*LogEntry, officeID string, statuses ...LogStatus) bool {
	return slices.ContainsFunc(logs, func(l *LogEntry) bool {
		return l.OfficeID == officeID && slices.Contains(statuses, l.Status)
	})
}

// lastLogBy returns the most recent entry by an office with one of the statuses.
func lastLogBy(logs []*LogEntry, officeID string, statuses ...LogStatus) *LogEntry {
	for i := len(logs) - 1; i >= 0; i-- {
		l := logs[i]
		if l.OfficeID == officeID && slices.Contains(statuses, l.Status) {
			return l
		}
	}

	return nil
}

// HasReleased reports whether the transaction has ever been sent out.
func (t *Transaction) HasReleased() bool {
	return hasLog(t.Logs, LogReleased)
}

func (t *Transaction) HasReceived(officeID string) bool {
	return hasLogBy(t.Logs, officeID, LogReceived)
}
