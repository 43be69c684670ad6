package routing

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
)

type CloseParams struct {
	Remarks string
}

type ReReleaseParams struct {
	Subject string
	Remarks string
	// Recipients routes the new transaction. The previous registry is not
	// reused since forwards and edits may have reshaped it.
	Recipients []RecipientInput
	Mode       Mode
}

type CopyParams struct {
	Recipients []RecipientInput
}

// lockDocument takes the row locks of every transaction of a document in
// transaction number order, then the document row. Every multi-row action
// uses this order.
func (s *Service) lockDocument(ctx context.Context, uow UnitOfWork, documentNo string) (*Document, []*Transaction, error) {
	listed, err := uow.DocumentTransactions(ctx, documentNo)
	if err != nil {
		return nil, nil, fmt.Errorf("list document transactions: %w", err)
	}

	slices.SortFunc(listed, func(a, b *Transaction) int { return cmp.Compare(a.No, b.No) })

	txs := make([]*Transaction, 0, len(listed))

	for _, t := range listed {
		tx, err := uow.LockTransaction(ctx, t.No)
		if err != nil {
			return nil, nil, fmt.Errorf("lock transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	doc, err := uow.LockDocument(ctx, documentNo)
	if err != nil {
		return nil, nil, fmt.Errorf("lock document: %w", err)
	}

	return doc, txs, nil
}

// Close ends a document's life. Offices still holding it are released from
// their obligation and told so.
func (s *Service) Close(ctx context.Context, actor Actor, documentNo string, p CloseParams) (*Document, error) {
	var out []Notification

	err := s.inTx(ctx, func(uow UnitOfWork) error {
		out = nil

		doc, txs, err := s.lockDocument(ctx, uow, documentNo)
		if err != nil {
			return err
		}

		if err := guardClose(doc, actor); err != nil {
			return err
		}

		for _, tx := range txs {
			if !tx.IsActive || tx.Status != StatusProcessing {
				continue
			}

			pending := tx.ActiveRecipients()

			for _, r := range pending {
				if err := uow.SetRecipientActive(ctx, tx.No, r.OfficeID, false); err != nil {
					return fmt.Errorf("deactivate recipient: %w", err)
				}
			}

			entry := s.newLog(tx, actor, LogClosed, "Document closed")
			entry.Remarks = p.Remarks

			if err := uow.AppendLog(ctx, entry); err != nil {
				return fmt.Errorf("append log: %w", err)
			}

			if err := uow.SetTransactionStatus(ctx, tx.No, StatusCompleted); err != nil {
				return fmt.Errorf("set transaction status: %w", err)
			}

			out = append(out, forceCloseNotifications(tx, actor, pending, s.now())...)
		}

		if err := uow.SetDocumentStatus(ctx, documentNo, DocumentClosed); err != nil {
			return fmt.Errorf("set document status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, out)

	return s.repo.GetDocument(ctx, documentNo)
}

// CloseBulk closes several completed documents at once. Either all of them
// close or none do.
func (s *Service) CloseBulk(ctx context.Context, actor Actor, documentNos []string, p CloseParams) ([]*Document, error) {
	if len(documentNos) == 0 {
		return nil, invalid("no documents given")
	}

	nos := slices.Clone(documentNos)
	slices.Sort(nos)
	nos = slices.Compact(nos)

	err := s.inTx(ctx, func(uow UnitOfWork) error {
		for _, no := range nos {
			doc, txs, err := s.lockDocument(ctx, uow, no)
			if err != nil {
				return err
			}

			if err := guardCloseCompleted(doc, actor); err != nil {
				return err
			}

			for _, tx := range txs {
				if !tx.IsActive {
					continue
				}

				entry := s.newLog(tx, actor, LogClosed, "Document closed")
				entry.Remarks = p.Remarks

				if err := uow.AppendLog(ctx, entry); err != nil {
					return fmt.Errorf("append log: %w", err)
				}
			}

			if err := uow.SetDocumentStatus(ctx, no, DocumentClosed); err != nil {
				return fmt.Errorf("set document status: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(nos))

	for _, no := range nos {
		doc, err := s.repo.GetDocument(ctx, no)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// ReRelease revises a returned document and sends it out again on a fresh
// transaction. The returned transaction stays in history, superseded.
func (s *Service) ReRelease(ctx context.Context, actor Actor, documentNo string, p ReReleaseParams) (*Transaction, error) {
	var (
		out  []Notification
		next *Transaction
	)

	err := s.inTx(ctx, func(uow UnitOfWork) error {
		doc, txs, err := s.lockDocument(ctx, uow, documentNo)
		if err != nil {
			return err
		}

		if err := guardReRelease(doc, actor); err != nil {
			return err
		}

		prev := latestReturned(txs)
		if prev == nil {
			return violation("This document has no returned transaction to re-release.")
		}

		recipients := p.Recipients
		if len(recipients) == 0 {
			return invalid("re-release needs at least one recipient")
		}

		mode := prev.Mode
		if p.Mode != "" {
			mode = p.Mode
		}

		if err := validateRecipients(mode, recipients); err != nil {
			return err
		}

		subject := doc.Subject
		if v := strings.TrimSpace(p.Subject); v != "" {
			subject = v
		}

		remarks := doc.Remarks
		if p.Remarks != "" {
			remarks = p.Remarks
		}

		version := &Version{
			DocumentNo: doc.No,
			Subject:    doc.Subject,
			Remarks:    doc.Remarks,
			Recipients: recipientInputs(prev.Recipients),
			CreatedBy:  actor.UserID,
			CreatedAt:  s.now(),
		}

		if err := uow.CreateVersion(ctx, version); err != nil {
			return fmt.Errorf("create version: %w", err)
		}

		if err := uow.UpdateDocumentContent(ctx, doc.No, subject, remarks); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		for _, tx := range txs {
			if tx.IsActive && tx.Status == StatusReturned {
				if err := uow.SupersedeTransaction(ctx, tx.No); err != nil {
					return fmt.Errorf("supersede transaction: %w", err)
				}
			}
		}

		doc.Subject = subject
		doc.Remarks = remarks

		parent := prev.No
		now := s.now()

		next = &Transaction{
			No:         newTransactionNo(),
			DocumentNo: doc.No,
			Type:       prev.Type,
			Mode:       mode,
			Status:     StatusProcessing,
			Urgency:    prev.Urgency,
			DueDate:    prev.DueDate,
			OfficeID:   actor.Office.ID,
			OfficeName: actor.Office.Name,
			ParentNo:   &parent,
			IsActive:   true,
			CreatedBy:  actor.UserID,
			CreatedAt:  now,
			UpdatedAt:  now,
			Document:   doc,
		}

		if err := s.createTransaction(ctx, uow, next, recipients); err != nil {
			return err
		}

		revised := s.newLog(next, actor, LogDocumentRevised, fmt.Sprintf("Document revised (version %d)", version.Number))
		revised.Remarks = remarks

		if err := uow.AppendLog(ctx, revised); err != nil {
			return fmt.Errorf("append log: %w", err)
		}

		if err := uow.AppendLog(ctx, s.newLog(next, actor, LogReleased, "Released to "+officeNames(next.Recipients))); err != nil {
			return fmt.Errorf("append log: %w", err)
		}

		if err := uow.SetDocumentStatus(ctx, doc.No, DocumentActive); err != nil {
			return fmt.Errorf("set document status: %w", err)
		}

		out = releaseNotifications(next, actor, now)

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, out)

	return s.repo.GetTransaction(ctx, next.No)
}

func latestReturned(txs []*Transaction) *Transaction {
	var latest *Transaction

	for _, tx := range txs {
		if !tx.IsActive || tx.Status != StatusReturned {
			continue
		}

		if latest == nil || tx.CreatedAt.After(latest.CreatedAt) {
			latest = tx
		}
	}

	return latest
}

func recipientInputs(rs []*Recipient) []RecipientInput {
	out := make([]RecipientInput, 0, len(rs))
	for _, r := range rs {
		out = append(out, RecipientInput{
			OfficeID:   r.OfficeID,
			OfficeName: r.OfficeName,
			Type:       r.Type,
			Sequence:   r.Sequence,
		})
	}

	return out
}

// Copy profiles a new draft from an existing document.
func (s *Service) Copy(ctx context.Context, actor Actor, documentNo string, p CopyParams) (*Transaction, error) {
	var next *Transaction

	err := s.inTx(ctx, func(uow UnitOfWork) error {
		doc, txs, err := s.lockDocument(ctx, uow, documentNo)
		if err != nil {
			return err
		}

		if err := guardCopy(doc, actor); err != nil {
			return err
		}

		source := latestTransaction(txs)
		if source == nil {
			return violation("This document has no transaction to copy.")
		}

		recipients := p.Recipients
		if len(recipients) == 0 {
			recipients = recipientInputs(source.Recipients)
		}

		if err := validateRecipients(source.Mode, recipients); err != nil {
			return err
		}

		now := s.now()

		copied := &Document{
			No:            newDocumentNo(),
			DocumentType:  doc.DocumentType,
			ActionType:    doc.ActionType,
			OriginType:    doc.OriginType,
			Subject:       doc.Subject,
			Remarks:       doc.Remarks,
			Status:        DocumentDraft,
			OfficeID:      actor.Office.ID,
			OfficeName:    actor.Office.Name,
			CreatedBy:     actor.UserID,
			CreatedByName: actor.UserName,
			AllowCopy:     doc.AllowCopy,
			IsActive:      true,
			Signatories:   slices.Clone(doc.Signatories),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		parent := source.No

		next = &Transaction{
			No:         newTransactionNo(),
			DocumentNo: copied.No,
			Type:       TypeDefault,
			Mode:       source.Mode,
			Status:     StatusDraft,
			Urgency:    source.Urgency,
			OfficeID:   actor.Office.ID,
			OfficeName: actor.Office.Name,
			ParentNo:   &parent,
			IsActive:   true,
			CreatedBy:  actor.UserID,
			CreatedAt:  now,
			UpdatedAt:  now,
			Document:   copied,
		}

		if err := uow.CreateDocument(ctx, copied); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		if err := s.createTransaction(ctx, uow, next, recipients); err != nil {
			return err
		}

		return uow.AppendLog(ctx, s.newLog(next, actor, LogProfiled, "Copied from "+doc.No))
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetTransaction(ctx, next.No)
}

func latestTransaction(txs []*Transaction) *Transaction {
	var latest *Transaction

	for _, tx := range txs {
		if latest == nil || tx.CreatedAt.After(latest.CreatedAt) {
			latest = tx
		}
	}

	return latest
}

// AddNote attaches an official note to a document.
func (s *Service) AddNote(ctx context.Context, actor Actor, documentNo, body string) (*Note, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("note is required")
	}

	var (
		note *Note
		out  []Notification
	)

	err := s.inTx(ctx, func(uow UnitOfWork) error {
		doc, err := uow.LockDocument(ctx, documentNo)
		if err != nil {
			return fmt.Errorf("lock document: %w", err)
		}

		txs, err := uow.DocumentTransactions(ctx, documentNo)
		if err != nil {
			return fmt.Errorf("list document transactions: %w", err)
		}

		if err := guardNote(doc, txs, actor); err != nil {
			return err
		}

		note = &Note{
			DocumentNo: documentNo,
			OfficeID:   actor.Office.ID,
			OfficeName: actor.Office.Name,
			UserID:     actor.UserID,
			UserName:   actor.UserName,
			Body:       body,
			CreatedAt:  s.now(),
		}

		if err := uow.CreateNote(ctx, note); err != nil {
			return fmt.Errorf("create note: %w", err)
		}

		out = noteNotifications(doc, txs, actor, body, note.CreatedAt)

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, out)

	return note, nil
}

func (s *Service) Notes(ctx context.Context, documentNo string) ([]*Note, error) {
	if _, err := s.repo.GetDocument(ctx, documentNo); err != nil {
		return nil, err
	}

	return s.repo.ListNotes(ctx, documentNo)
}
