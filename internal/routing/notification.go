package routing

import (
	"fmt"
	"time"
	"unicode/utf8"
)

type Event string

const (
	EventInitialRelease          Event = "initial_release"
	EventSubsequentRelease       Event = "subsequent_release"
	EventReceived                Event = "document_received"
	EventSequentialStepActivated Event = "sequential_step_activated"
	EventMarkedDone              Event = "marked_as_done"
	EventForwarded               Event = "document_forwarded"
	EventReturnedToSender        Event = "returned_to_sender"
	EventRoutingHalted           Event = "routing_halted"
	EventReplied                 Event = "document_replied"
	EventNoteAdded               Event = "official_note_added"
	EventOverdueRecipient        Event = "overdue_recipient"
	EventOverdueOrigin           Event = "overdue_origin"
	EventForceClosed             Event = "document_force_closed"
)

// Notification is one message addressed to one office.
type Notification struct {
	OfficeID      string
	Event         Event
	DocumentNo    string
	TransactionNo string
	Subject       string
	Message       string
	ActorOffice   string
	CreatedAt     time.Time
}

// batch accumulates notifications for one action, dropping repeats of the
// same event to the same office.
type batch struct {
	items []Notification
	seen  map[string]bool
}

func (b *batch) add(n Notification) {
	if n.OfficeID == "" {
		return
	}

	key := string(n.Event) + "|" + n.OfficeID
	if b.seen == nil {
		b.seen = make(map[string]bool)
	}

	if b.seen[key] {
		return
	}

	b.seen[key] = true
	b.items = append(b.items, n)
}

func notice(tx *Transaction, actor Actor, office string, event Event, msg string, at time.Time) Notification {
	n := Notification{
		OfficeID:      office,
		Event:         event,
		DocumentNo:    tx.DocumentNo,
		TransactionNo: tx.No,
		Message:       msg,
		ActorOffice:   actor.Office.Name,
		CreatedAt:     at,
	}

	if tx.Document != nil {
		n.Subject = tx.Document.Subject
	}

	return n
}

func releaseNotifications(tx *Transaction, actor Actor, at time.Time) []Notification {
	var b batch

	for _, r := range tx.ActiveRecipients() {
		b.add(notice(tx, actor, r.OfficeID, EventInitialRelease,
			fmt.Sprintf("%s released a document to your office.", actor.Office.Name), at))
	}

	return b.items
}

func subsequentReleaseNotifications(tx *Transaction, actor Actor, target *Recipient, at time.Time) []Notification {
	return []Notification{notice(tx, actor, target.OfficeID, EventSubsequentRelease,
		fmt.Sprintf("%s released the document to your office.", actor.Office.Name), at)}
}

// receiveNotifications tells the origin about receipt by an action recipient
// and, for Sequential routing, tells the next office it is now its turn.
func receiveNotifications(tx *Transaction, actor Actor, r *Recipient, before *Recipient, at time.Time) []Notification {
	var b batch

	if r.IsDefault() {
		b.add(notice(tx, actor, tx.Document.OfficeID, EventReceived,
			fmt.Sprintf("%s received the document.", actor.Office.Name), at))
	}

	b.items = append(b.items, stepNotifications(tx, actor, before, at)...)

	return b.items
}

func stepNotifications(tx *Transaction, actor Actor, before *Recipient, at time.Time) []Notification {
	after := tx.CurrentTurn()
	if after == nil || (before != nil && before.OfficeID == after.OfficeID) {
		return nil
	}

	return []Notification{notice(tx, actor, after.OfficeID, EventSequentialStepActivated,
		"It is now your office's turn to act on this document.", at)}
}

func doneNotifications(tx *Transaction, actor Actor, at time.Time) []Notification {
	return []Notification{notice(tx, actor, tx.Document.OfficeID, EventMarkedDone,
		fmt.Sprintf("%s marked the document as done.", actor.Office.Name), at)}
}

func forwardNotifications(tx *Transaction, actor Actor, target Office, at time.Time) []Notification {
	return []Notification{notice(tx, actor, target.ID, EventForwarded,
		fmt.Sprintf("%s forwarded a document to your office.", actor.Office.Name), at)}
}

func returnNotifications(tx *Transaction, actor Actor, reason string, halted []*Recipient, at time.Time) []Notification {
	var b batch

	origin := tx.Document.OfficeID

	b.add(notice(tx, actor, origin, EventReturnedToSender,
		fmt.Sprintf("%s returned the document: %s", actor.Office.Name, reason), at))

	for _, r := range halted {
		if r.OfficeID == origin {
			continue
		}

		b.add(notice(tx, actor, r.OfficeID, EventRoutingHalted,
			fmt.Sprintf("Routing was halted because %s returned the document.", actor.Office.Name), at))
	}

	return b.items
}

func replyNotifications(original *Transaction, reply *Transaction, actor Actor, at time.Time) []Notification {
	var b batch

	origin := original.Document.OfficeID

	b.add(notice(original, actor, origin, EventReplied,
		fmt.Sprintf("%s replied to the document (%s).", actor.Office.Name, reply.No), at))

	for _, r := range reply.ActiveRecipients() {
		if r.OfficeID == origin {
			continue
		}

		b.add(notice(reply, actor, r.OfficeID, EventInitialRelease,
			fmt.Sprintf("%s released a document to your office.", actor.Office.Name), at))
	}

	return b.items
}

const noteExcerptLen = 100

// noteNotifications goes to the origin and every active action recipient,
// except the office that wrote the note.
func noteNotifications(doc *Document, txs []*Transaction, actor Actor, body string, at time.Time) []Notification {
	var b batch

	msg := fmt.Sprintf("%s added an official note: %s", actor.Office.Name, excerpt(body, noteExcerptLen))

	add := func(tx *Transaction, office string) {
		if office == actor.Office.ID {
			return
		}

		n := Notification{
			OfficeID:    office,
			Event:       EventNoteAdded,
			DocumentNo:  doc.No,
			Subject:     doc.Subject,
			Message:     msg,
			ActorOffice: actor.Office.Name,
			CreatedAt:   at,
		}
		if tx != nil {
			n.TransactionNo = tx.No
		}

		b.add(n)
	}

	add(nil, doc.OfficeID)

	for _, tx := range txs {
		if !tx.IsActive {
			continue
		}

		for _, r := range activeDefaults(tx.Recipients) {
			add(tx, r.OfficeID)
		}
	}

	return b.items
}

func overdueNotifications(tx *Transaction, r *Recipient, st OverdueStatus, at time.Time) []Notification {
	var b batch

	system := Actor{Office: Office{Name: "System"}}
	due := st.DueDate.Format("2 Jan, 2006")

	b.add(notice(tx, system, r.OfficeID, EventOverdueRecipient,
		fmt.Sprintf("Action on this document was due on %s.", due), at))

	if origin := tx.Document.OfficeID; origin != r.OfficeID {
		b.add(notice(tx, system, origin, EventOverdueOrigin,
			fmt.Sprintf("%s has not acted on this document, due on %s.", r.OfficeName, due), at))
	}

	return b.items
}

func forceCloseNotifications(tx *Transaction, actor Actor, pending []*Recipient, at time.Time) []Notification {
	var b batch

	for _, r := range pending {
		b.add(notice(tx, actor, r.OfficeID, EventForceClosed,
			fmt.Sprintf("%s closed the document before your office completed it.", actor.Office.Name), at))
	}

	return b.items
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)

	return string(runes[:n]) + "..."
}
