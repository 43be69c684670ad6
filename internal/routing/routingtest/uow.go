package routingtest

import (
	"context"
	"fmt"
	"slices"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type unitOfWork struct {
	m    *Memory
	st   *state
	done bool
}

func (u *unitOfWork) check(method string) error {
	if u.done {
		return fmt.Errorf("%s: unit of work already finished", method)
	}

	return u.m.fail(method)
}

func (u *unitOfWork) id() int64 {
	u.st.nextID++
	return u.st.nextID
}

func (u *unitOfWork) LockTransaction(ctx context.Context, no string) (*routing.Transaction, error) {
	if err := u.check("LockTransaction"); err != nil {
		return nil, err
	}

	return u.st.aggregate(no)
}

func (u *unitOfWork) LockDocument(ctx context.Context, no string) (*routing.Document, error) {
	if err := u.check("LockDocument"); err != nil {
		return nil, err
	}

	doc, ok := u.st.documents[no]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", no, routing.ErrNotFound)
	}

	return cloneDocument(doc), nil
}

func (u *unitOfWork) DocumentTransactions(ctx context.Context, documentNo string) ([]*routing.Transaction, error) {
	if err := u.check("DocumentTransactions"); err != nil {
		return nil, err
	}

	return u.st.documentTransactions(documentNo)
}

func (u *unitOfWork) CreateDocument(ctx context.Context, doc *routing.Document) error {
	if err := u.check("CreateDocument"); err != nil {
		return err
	}

	if _, ok := u.st.documents[doc.No]; ok {
		return fmt.Errorf("document %s already exists", doc.No)
	}

	for i := range doc.Attachments {
		doc.Attachments[i].ID = u.id()
	}

	u.st.documents[doc.No] = cloneDocument(doc)

	return nil
}

func (u *unitOfWork) UpdateDocumentContent(ctx context.Context, no, subject, remarks string) error {
	if err := u.check("UpdateDocumentContent"); err != nil {
		return err
	}

	doc, ok := u.st.documents[no]
	if !ok {
		return fmt.Errorf("document %s: %w", no, routing.ErrNotFound)
	}

	doc.Subject = subject
	doc.Remarks = remarks

	return nil
}

func (u *unitOfWork) SetDocumentStatus(ctx context.Context, no string, status routing.DocumentStatus) error {
	if err := u.check("SetDocumentStatus"); err != nil {
		return err
	}

	doc, ok := u.st.documents[no]
	if !ok {
		return fmt.Errorf("document %s: %w", no, routing.ErrNotFound)
	}

	doc.Status = status

	return nil
}

func (u *unitOfWork) CreateTransaction(ctx context.Context, tx *routing.Transaction) error {
	if err := u.check("CreateTransaction"); err != nil {
		return err
	}

	if _, ok := u.st.transactions[tx.No]; ok {
		return fmt.Errorf("transaction %s already exists", tx.No)
	}

	u.st.transactions[tx.No] = cloneTransaction(tx)

	return nil
}

func (u *unitOfWork) SetTransactionStatus(ctx context.Context, no string, status routing.Status) error {
	if err := u.check("SetTransactionStatus"); err != nil {
		return err
	}

	tx, ok := u.st.transactions[no]
	if !ok {
		return fmt.Errorf("transaction %s: %w", no, routing.ErrNotFound)
	}

	tx.Status = status

	return nil
}

func (u *unitOfWork) SupersedeTransaction(ctx context.Context, no string) error {
	if err := u.check("SupersedeTransaction"); err != nil {
		return err
	}

	tx, ok := u.st.transactions[no]
	if !ok {
		return fmt.Errorf("transaction %s: %w", no, routing.ErrNotFound)
	}

	tx.IsActive = false

	return nil
}

func (u *unitOfWork) UpsertRecipient(ctx context.Context, r *routing.Recipient) error {
	if err := u.check("UpsertRecipient"); err != nil {
		return err
	}

	rs := u.st.recipients[r.TransactionNo]

	if i := slices.IndexFunc(rs, func(e *routing.Recipient) bool { return e.OfficeID == r.OfficeID }); i >= 0 {
		rs[i].OfficeName = r.OfficeName
		rs[i].Type = r.Type
		rs[i].Sequence = r.Sequence
		rs[i].IsActive = r.IsActive
		r.ID = rs[i].ID

		return nil
	}

	r.ID = u.id()
	c := *r
	u.st.recipients[r.TransactionNo] = append(rs, &c)

	return nil
}

func (u *unitOfWork) recipient(transactionNo, officeID string) (*routing.Recipient, error) {
	for _, r := range u.st.recipients[transactionNo] {
		if r.OfficeID == officeID {
			return r, nil
		}
	}

	return nil, fmt.Errorf("recipient %s on %s: %w", officeID, transactionNo, routing.ErrNotFound)
}

func (u *unitOfWork) SetRecipientActive(ctx context.Context, transactionNo, officeID string, active bool) error {
	if err := u.check("SetRecipientActive"); err != nil {
		return err
	}

	r, err := u.recipient(transactionNo, officeID)
	if err != nil {
		return err
	}

	r.IsActive = active

	return nil
}

func (u *unitOfWork) SetRecipientSequence(ctx context.Context, transactionNo, officeID string, sequence *int) error {
	if err := u.check("SetRecipientSequence"); err != nil {
		return err
	}

	r, err := u.recipient(transactionNo, officeID)
	if err != nil {
		return err
	}

	if sequence != nil {
		seq := *sequence
		r.Sequence = &seq
	} else {
		r.Sequence = nil
	}

	return nil
}

func (u *unitOfWork) AppendLog(ctx context.Context, entry *routing.LogEntry) error {
	if err := u.check("AppendLog"); err != nil {
		return err
	}

	entry.ID = u.id()
	c := *entry
	u.st.logs = append(u.st.logs, &c)

	return nil
}

func (u *unitOfWork) AddAttachment(ctx context.Context, documentNo string, a *routing.Attachment) error {
	if err := u.check("AddAttachment"); err != nil {
		return err
	}

	doc, ok := u.st.documents[documentNo]
	if !ok {
		return fmt.Errorf("document %s: %w", documentNo, routing.ErrNotFound)
	}

	a.ID = u.id()
	doc.Attachments = append(doc.Attachments, *a)

	return nil
}

func (u *unitOfWork) CreateVersion(ctx context.Context, v *routing.Version) error {
	if err := u.check("CreateVersion"); err != nil {
		return err
	}

	v.Number = 1

	for _, e := range u.st.versions {
		if e.DocumentNo == v.DocumentNo && e.Number >= v.Number {
			v.Number = e.Number + 1
		}
	}

	c := *v
	c.Recipients = slices.Clone(v.Recipients)
	u.st.versions = append(u.st.versions, &c)

	return nil
}

func (u *unitOfWork) CreateNote(ctx context.Context, n *routing.Note) error {
	if err := u.check("CreateNote"); err != nil {
		return err
	}

	n.ID = u.id()
	c := *n
	u.st.notes = append(u.st.notes, &c)

	return nil
}

func (u *unitOfWork) Commit() error {
	if err := u.check("Commit"); err != nil {
		return err
	}

	u.m.state = u.st
	u.done = true
	u.m.mu.Unlock()

	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}

	u.done = true
	u.m.mu.Unlock()

	return nil
}
