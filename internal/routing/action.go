package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

type ReleaseParams struct {
	Remarks string
}

type SubsequentReleaseParams struct {
	TargetOfficeID string
	Remarks        string
}

type ReceiveParams struct {
	Remarks string
}

type DoneParams struct {
	Remarks string
	Proof   []Attachment
}

type ForwardParams struct {
	Target            Office
	ActionTaken       string
	AssignedPersonnel string
	Remarks           string
}

type ReturnParams struct {
	Reason  string
	Remarks string
}

type ReplyParams struct {
	Subject     string
	Remarks     string
	ActionType  string
	Recipients  []RecipientInput
	Attachments []Attachment
}

// RecipientChanges is one batch of registry edits. Removals apply first, then
// additions, then sequence changes.
type RecipientChanges struct {
	Add     []RecipientInput
	Remove  []string
	Reorder []SequenceChange
}

type SequenceChange struct {
	OfficeID string
	Sequence int
}

// transition is the shared shape of every transaction-level action: lock,
// guard, mutate, evaluate, commit, then notify and return fresh state.
func (s *Service) transition(ctx context.Context, no string, fn func(uow UnitOfWork, tx *Transaction, action *library.Action) ([]Notification, error)) (*Transaction, error) {
	var out []Notification

	err := s.inTx(ctx, func(uow UnitOfWork) error {
		tx, err := uow.LockTransaction(ctx, no)
		if err != nil {
			return err
		}

		action, err := s.library.Action(ctx, tx.Document.ActionType)
		if err != nil {
			return fmt.Errorf("classify %s: %w", tx.Document.ActionType, err)
		}

		out, err = fn(uow, tx, action)

		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, out)

	return s.repo.GetTransaction(ctx, no)
}

// Create profiles a new document with its first transaction in Draft.
func (s *Service) Create(ctx context.Context, actor Actor, d *Draft) (*Transaction, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	action, err := s.library.Action(ctx, d.ActionType)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return nil, invalid("unknown action type %q", d.ActionType)
		}

		return nil, fmt.Errorf("classify %s: %w", d.ActionType, err)
	}

	urgency := d.Urgency
	if action.DefaultUrgency != nil {
		urgency = action.DefaultUrgency
	}

	now := s.now()

	doc := &Document{
		No:            newDocumentNo(),
		DocumentType:  d.DocumentType,
		ActionType:    d.ActionType,
		OriginType:    d.OriginType,
		Subject:       strings.TrimSpace(d.Subject),
		Remarks:       d.Remarks,
		Status:        DocumentDraft,
		OfficeID:      actor.Office.ID,
		OfficeName:    actor.Office.Name,
		CreatedBy:     actor.UserID,
		CreatedByName: actor.UserName,
		AllowCopy:     d.AllowCopy,
		IsActive:      true,
		Signatories:   d.Signatories,
		Attachments:   d.Attachments,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx := &Transaction{
		No:         newTransactionNo(),
		DocumentNo: doc.No,
		Type:       TypeDefault,
		Mode:       d.Mode,
		Status:     StatusDraft,
		Urgency:    urgency,
		DueDate:    d.DueDate,
		OfficeID:   actor.Office.ID,
		OfficeName: actor.Office.Name,
		IsActive:   true,
		CreatedBy:  actor.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Document:   doc,
	}

	err = s.inTx(ctx, func(uow UnitOfWork) error {
		if err := uow.CreateDocument(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		if err := s.createTransaction(ctx, uow, tx, d.Recipients); err != nil {
			return err
		}

		return uow.AppendLog(ctx, s.newLog(tx, actor, LogProfiled, "Document profiled"))
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetTransaction(ctx, tx.No)
}

func (s *Service) createTransaction(ctx context.Context, uow UnitOfWork, tx *Transaction, recipients []RecipientInput) error {
	if err := uow.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	tx.Recipients = tx.Recipients[:0]

	for _, in := range recipients {
		r := &Recipient{
			TransactionNo: tx.No,
			OfficeID:      in.OfficeID,
			OfficeName:    in.OfficeName,
			Type:          in.Type,
			Sequence:      in.Sequence,
			IsActive:      true,
		}

		if err := uow.UpsertRecipient(ctx, r); err != nil {
			return fmt.Errorf("add recipient %s: %w", in.OfficeID, err)
		}

		tx.Recipients = append(tx.Recipients, r)
	}

	return nil
}

// Release sends a drafted transaction to its recipients.
func (s *Service) Release(ctx context.Context, actor Actor, no string, p ReleaseParams) (*Transaction, error) {
	return s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, _ *library.Action) ([]Notification, error) {
		if err := guardRelease(tx, actor); err != nil {
			return nil, err
		}

		entry := s.newLog(tx, actor, LogReleased, "Released to "+officeNames(tx.ActiveRecipients()))
		entry.Remarks = p.Remarks

		if err := uow.AppendLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("append log: %w", err)
		}

		if err := uow.SetTransactionStatus(ctx, tx.No, StatusProcessing); err != nil {
			return nil, fmt.Errorf("set transaction status: %w", err)
		}

		if err := uow.SetDocumentStatus(ctx, tx.DocumentNo, DocumentActive); err != nil {
			return nil, fmt.Errorf("set document status: %w", err)
		}

		tx.Status = StatusProcessing

		return releaseNotifications(tx, actor, s.now()), nil
	})
}

// SubsequentRelease hands the document from the acting recipient to another
// office already registered on the transaction.
func (s *Service) SubsequentRelease(ctx context.Context, actor Actor, no string, p SubsequentReleaseParams) (*Transaction, error) {
	if p.TargetOfficeID == "" {
		return nil, invalid("target office is required")
	}

	return s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, _ *library.Action) ([]Notification, error) {
		if _, err := guardSubsequentRelease(tx, actor); err != nil {
			return nil, err
		}

		target := tx.Recipient(p.TargetOfficeID)
		if target == nil {
			return nil, violation("The selected office is not a recipient of this document.")
		}

		if target.OfficeID == actor.Office.ID {
			return nil, violation("Cannot release the document to your own office.")
		}

		entry := s.newLog(tx, actor, LogReleased, "Released to "+target.OfficeName)
		entry.RoutedOfficeID = target.OfficeID
		entry.RoutedOfficeName = target.OfficeName
		entry.Remarks = p.Remarks

		if err := uow.AppendLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("append log: %w", err)
		}

		if err := uow.SetRecipientActive(ctx, tx.No, actor.Office.ID, false); err != nil {
			return nil, fmt.Errorf("deactivate recipient: %w", err)
		}

		if err := uow.SetRecipientActive(ctx, tx.No, target.OfficeID, true); err != nil {
			return nil, fmt.Errorf("activate recipient: %w", err)
		}

		if _, err := s.evaluate(ctx, uow, tx.No); err != nil {
			return nil, err
		}

		return subsequentReleaseNotifications(tx, actor, target, s.now()), nil
	})
}

// Receive records that the acting office has the document in hand.
func (s *Service) Receive(ctx context.Context, actor Actor, no string, p ReceiveParams) (*Transaction, error) {
	return s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, _ *library.Action) ([]Notification, error) {
		r, err := guardReceive(tx, actor)
		if err != nil {
			return nil, err
		}

		before := tx.CurrentTurn()

		entry := s.newLog(tx, actor, LogReceived, "Document received")
		entry.Remarks = p.Remarks

		if err := uow.AppendLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("append log: %w", err)
		}

		tx.Logs = append(tx.Logs, entry)

		if _, err := s.evaluate(ctx, uow, tx.No); err != nil {
			return nil, err
		}

		return receiveNotifications(tx, actor, r, before, s.now()), nil
	})
}

// MarkDone records the acting office's terminal disposition on an FA action.
func (s *Service) MarkDone(ctx context.Context, actor Actor, no string, p DoneParams) (*Transaction, error) {
	return s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, action *library.Action) ([]Notification, error) {
		if _, err := guardDone(tx, actor, action); err != nil {
			return nil, err
		}

		if action.RequiresProof && len(p.Proof) == 0 {
			return nil, violation("Proof of completion is required for this action.")
		}

		for i := range p.Proof {
			proof := p.Proof[i]
			proof.Kind = AttachmentProof
			proof.TransactionNo = tx.No
			proof.OfficeID = actor.Office.ID

			if err := uow.AddAttachment(ctx, tx.DocumentNo, &proof); err != nil {
				return nil, fmt.Errorf("add proof: %w", err)
			}
		}

		entry := s.newLog(tx, actor, LogDone, "Marked as done")
		entry.Remarks = p.Remarks

		if err := uow.AppendLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("append log: %w", err)
		}

		if err := uow.SetRecipientActive(ctx, tx.No, actor.Office.ID, false); err != nil {
			return nil, fmt.Errorf("deactivate recipient: %w", err)
		}

		if _, err := s.evaluate(ctx, uow, tx.No); err != nil {
			return nil, err
		}

		return doneNotifications(tx, actor, s.now()), nil
	})
}

// Forward passes the acting office's obligation to another office.
func (s *Service) Forward(ctx context.Context, actor Actor, no string, p ForwardParams) (*Transaction, error) {
	if p.Target.ID == "" || p.Target.Name == "" {
		return nil, invalid("target office is required")
	}

	if p.Target.ID == actor.Office.ID {
		return nil, invalid("cannot forward to your own office")
	}

	return s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, _ *library.Action) ([]Notification, error) {
		if _, err := guardForward(tx, actor); err != nil {
			return nil, err
		}

		entry := s.newLog(tx, actor, LogForwarded, "Forwarded to "+p.Target.Name)
		entry.RoutedOfficeID = p.Target.ID
		entry.RoutedOfficeName = p.Target.Name
		entry.ActionTaken = p.ActionTaken
		entry.AssignedPersonnel = p.AssignedPersonnel
		entry.Remarks = p.Remarks

		if err := uow.AppendLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("append log: %w", err)
		}

		if err := uow.SetRecipientActive(ctx, tx.No, actor.Office.ID, false); err != nil {
			return nil, fmt.Errorf("deactivate recipient: %w", err)
		}

		// An office already on the registry keeps its type; a new one joins
		// as an action recipient.
		target := tx.Recipient(p.Target.ID)
		if target == nil {
			target = &Recipient{
				TransactionNo: tx.No,
				OfficeID:      p.Target.ID,
				OfficeName:    p.Target.Name,
				Type:          RecipientDefault,
			}
		}

		target.IsActive = true

		if err := uow.UpsertRecipient(ctx, target); err != nil {
			return nil, fmt.Errorf("upsert recipient: %w", err)
		}

		if _, err := s.evaluate(ctx, uow, tx.No); err != nil {
			return nil, err
		}

		return forwardNotifications(tx, actor, p.Target, s.now()), nil
	})
}

// ReturnToSender sends the document back to its origin and halts everyone
// else still holding it.
func (s *Service) ReturnToSender(ctx context.Context, actor Actor, no string, p ReturnParams) (*Transaction, error) {
	if strings.TrimSpace(p.Reason) == "" {
		return nil, invalid("a reason is required to return a document")
	}

	return s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, _ *library.Action) ([]Notification, error) {
		if _, err := guardReturn(tx, actor); err != nil {
			return nil, err
		}

		entry := s.newLog(tx, actor, LogReturnedToSender, "Returned to "+tx.Document.OfficeName)
		entry.RoutedOfficeID = tx.Document.OfficeID
		entry.RoutedOfficeName = tx.Document.OfficeName
		entry.Reason = p.Reason
		entry.Remarks = p.Remarks

		if err := uow.AppendLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("append log: %w", err)
		}

		var halted []*Recipient

		for _, r := range activeDefaults(tx.Recipients) {
			if r.OfficeID == actor.Office.ID {
				continue
			}

			if err := uow.SetRecipientActive(ctx, tx.No, r.OfficeID, false); err != nil {
				return nil, fmt.Errorf("halt recipient %s: %w", r.OfficeID, err)
			}

			halt := s.newLog(tx, Actor{UserID: actor.UserID, UserName: actor.UserName, Office: Office{ID: r.OfficeID, Name: r.OfficeName}},
				LogRoutingHalted, "Routing halted: returned to sender by "+actor.Office.Name)
			halt.Reason = p.Reason

			if err := uow.AppendLog(ctx, halt); err != nil {
				return nil, fmt.Errorf("append log: %w", err)
			}

			halted = append(halted, r)
		}

		if err := uow.SetRecipientActive(ctx, tx.No, actor.Office.ID, false); err != nil {
			return nil, fmt.Errorf("deactivate recipient: %w", err)
		}

		if err := uow.SetTransactionStatus(ctx, tx.No, StatusReturned); err != nil {
			return nil, fmt.Errorf("set transaction status: %w", err)
		}

		if err := s.evaluateDocument(ctx, uow, tx.DocumentNo); err != nil {
			return nil, err
		}

		return returnNotifications(tx, actor, p.Reason, halted, s.now()), nil
	})
}

// Reply answers a transaction with a new Reply document addressed by default
// to the origin. A terminal reply also discharges the actor on the original.
// It returns the refreshed original transaction and the reply.
func (s *Service) Reply(ctx context.Context, actor Actor, no string, p ReplyParams) (*Transaction, *Transaction, error) {
	var reply *Transaction

	original, err := s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, action *library.Action) ([]Notification, error) {
		r, err := guardReply(tx, actor)
		if err != nil {
			return nil, err
		}

		reply, err = s.createReply(ctx, uow, actor, tx, p)
		if err != nil {
			return nil, err
		}

		if action.ReplyIsTerminal && r.IsDefault() {
			entry := s.newLog(tx, actor, LogReplied, "Replied with "+reply.DocumentNo)
			entry.RoutedOfficeID = tx.Document.OfficeID
			entry.RoutedOfficeName = tx.Document.OfficeName
			entry.Remarks = p.Remarks

			if err := uow.AppendLog(ctx, entry); err != nil {
				return nil, fmt.Errorf("append log: %w", err)
			}

			if err := uow.SetRecipientActive(ctx, tx.No, actor.Office.ID, false); err != nil {
				return nil, fmt.Errorf("deactivate recipient: %w", err)
			}

			if _, err := s.evaluate(ctx, uow, tx.No); err != nil {
				return nil, err
			}
		}

		return replyNotifications(tx, reply, actor, s.now()), nil
	})
	if err != nil {
		return nil, nil, err
	}

	replyTx, err := s.repo.GetTransaction(ctx, reply.No)
	if err != nil {
		return nil, nil, err
	}

	return original, replyTx, nil
}

func (s *Service) createReply(ctx context.Context, uow UnitOfWork, actor Actor, tx *Transaction, p ReplyParams) (*Transaction, error) {
	recipients := p.Recipients
	if len(recipients) == 0 {
		recipients = []RecipientInput{{
			OfficeID:   tx.Document.OfficeID,
			OfficeName: tx.Document.OfficeName,
			Type:       RecipientDefault,
		}}
	}

	mode := ModeSingle
	if countDefaults(recipients) > 1 {
		mode = ModeMultiple
	}

	if err := validateRecipients(mode, recipients); err != nil {
		return nil, err
	}

	actionType := p.ActionType
	if actionType == "" {
		actionType = tx.Document.ActionType
	}

	if _, err := s.library.Action(ctx, actionType); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return nil, invalid("unknown action type %q", actionType)
		}

		return nil, fmt.Errorf("classify %s: %w", actionType, err)
	}

	subject := strings.TrimSpace(p.Subject)
	if subject == "" {
		subject = "RE: " + tx.Document.Subject
	}

	now := s.now()

	doc := &Document{
		No:            newDocumentNo(),
		DocumentType:  tx.Document.DocumentType,
		ActionType:    actionType,
		OriginType:    OriginInternal,
		Subject:       subject,
		Remarks:       p.Remarks,
		Status:        DocumentActive,
		OfficeID:      actor.Office.ID,
		OfficeName:    actor.Office.Name,
		CreatedBy:     actor.UserID,
		CreatedByName: actor.UserName,
		IsActive:      true,
		Attachments:   p.Attachments,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	parent := tx.No

	reply := &Transaction{
		No:         newTransactionNo(),
		DocumentNo: doc.No,
		Type:       TypeReply,
		Mode:       mode,
		Status:     StatusProcessing,
		OfficeID:   actor.Office.ID,
		OfficeName: actor.Office.Name,
		ParentNo:   &parent,
		IsActive:   true,
		CreatedBy:  actor.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Document:   doc,
	}

	if err := uow.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create reply document: %w", err)
	}

	if err := s.createTransaction(ctx, uow, reply, recipients); err != nil {
		return nil, err
	}

	if err := uow.AppendLog(ctx, s.newLog(reply, actor, LogProfiled, "Reply to "+tx.DocumentNo)); err != nil {
		return nil, fmt.Errorf("append log: %w", err)
	}

	if err := uow.AppendLog(ctx, s.newLog(reply, actor, LogReleased, "Released to "+officeNames(reply.Recipients))); err != nil {
		return nil, fmt.Errorf("append log: %w", err)
	}

	return reply, nil
}

func countDefaults(rs []RecipientInput) int {
	var n int

	for _, r := range rs {
		if r.Type == RecipientDefault {
			n++
		}
	}

	return n
}

// ManageRecipients edits the registry of a transaction in flight.
func (s *Service) ManageRecipients(ctx context.Context, actor Actor, no string, c RecipientChanges) (*Transaction, error) {
	if len(c.Add) == 0 && len(c.Remove) == 0 && len(c.Reorder) == 0 {
		return nil, invalid("no recipient changes given")
	}

	for _, in := range c.Add {
		if in.OfficeID == "" || !in.Type.Valid() {
			return nil, invalid("recipient %q needs an office and a valid type", in.OfficeID)
		}
	}

	return s.transition(ctx, no, func(uow UnitOfWork, tx *Transaction, _ *library.Action) ([]Notification, error) {
		if err := guardManageRecipients(tx, actor); err != nil {
			return nil, err
		}

		for _, officeID := range c.Remove {
			r := tx.activeRecipient(officeID)
			if r == nil {
				return nil, violation("Office " + officeID + " is not an active recipient.")
			}

			if tx.HasReceived(officeID) {
				return nil, violation(r.OfficeName + " has already received this document and cannot be removed.")
			}

			if err := uow.SetRecipientActive(ctx, tx.No, officeID, false); err != nil {
				return nil, fmt.Errorf("remove recipient: %w", err)
			}

			// Additions below check against this snapshot.
			r.IsActive = false

			if err := s.appendRegistryLog(ctx, uow, tx, actor, LogRecipientRemoved, r.OfficeID, r.OfficeName); err != nil {
				return nil, err
			}
		}

		for _, in := range c.Add {
			if r := tx.activeRecipient(in.OfficeID); r != nil {
				return nil, violation(r.OfficeName + " is already a recipient.")
			}

			r := &Recipient{
				TransactionNo: tx.No,
				OfficeID:      in.OfficeID,
				OfficeName:    in.OfficeName,
				Type:          in.Type,
				Sequence:      in.Sequence,
				IsActive:      true,
			}

			if err := uow.UpsertRecipient(ctx, r); err != nil {
				return nil, fmt.Errorf("add recipient: %w", err)
			}

			if err := s.appendRegistryLog(ctx, uow, tx, actor, LogRecipientAdded, r.OfficeID, r.OfficeName); err != nil {
				return nil, err
			}
		}

		for _, ch := range c.Reorder {
			r := tx.Recipient(ch.OfficeID)
			if r == nil || !r.IsDefault() {
				return nil, violation("Office " + ch.OfficeID + " is not an action recipient.")
			}

			if ch.Sequence < 1 {
				return nil, invalid("sequence for %s must be positive", ch.OfficeID)
			}

			if err := uow.SetRecipientSequence(ctx, tx.No, ch.OfficeID, &ch.Sequence); err != nil {
				return nil, fmt.Errorf("reorder recipient: %w", err)
			}

			if err := s.appendRegistryLog(ctx, uow, tx, actor, LogRecipientReordered, r.OfficeID, r.OfficeName); err != nil {
				return nil, err
			}
		}

		if _, err := s.evaluate(ctx, uow, tx.No); err != nil {
			return nil, err
		}

		return nil, nil
	})
}

func (s *Service) appendRegistryLog(ctx context.Context, uow UnitOfWork, tx *Transaction, actor Actor, status LogStatus, officeID, officeName string) error {
	entry := s.newLog(tx, actor, status, string(status)+": "+officeName)
	entry.RoutedOfficeID = officeID
	entry.RoutedOfficeName = officeName

	if err := uow.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append log: %w", err)
	}

	return nil
}
