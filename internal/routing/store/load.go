package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type scanner interface {
	Scan(dest ...any) error
}

const selectDocumentColumns = `
	d.document_no, d.document_type, d.action_type, d.origin_type, d.subject, d.remarks, d.status,
	d.office_id, d.office_name, d.created_by, d.created_by_name, d.allow_copy, d.is_active,
	d.created_at, d.updated_at
`

func scanDocument(s scanner) (*routing.Document, error) {
	var doc routing.Document

	var origin, status string

	if err := s.Scan(
		&doc.No, &doc.DocumentType, &doc.ActionType, &origin, &doc.Subject, &doc.Remarks, &status,
		&doc.OfficeID, &doc.OfficeName, &doc.CreatedBy, &doc.CreatedByName, &doc.AllowCopy, &doc.IsActive,
		&doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	doc.OriginType = routing.OriginType(origin)
	doc.Status = routing.DocumentStatus(status)

	return &doc, nil
}

const selectTransactionColumns = `
	t.transaction_no, t.document_no, t.transaction_type, t.routing, t.status, t.urgency_level,
	t.due_date, t.office_id, t.office_name, t.parent_transaction_no, t.is_active, t.created_by,
	t.created_at, t.updated_at
`

func scanTransaction(s scanner) (*routing.Transaction, error) {
	var tx routing.Transaction

	var typ, mode, status string

	var urgency, parent sql.NullString

	var due sql.NullTime

	if err := s.Scan(
		&tx.No, &tx.DocumentNo, &typ, &mode, &status, &urgency,
		&due, &tx.OfficeID, &tx.OfficeName, &parent, &tx.IsActive, &tx.CreatedBy,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = routing.TransactionType(typ)
	tx.Mode = routing.Mode(mode)
	tx.Status = routing.Status(status)

	if urgency.Valid {
		tx.Urgency = new(library.Urgency(urgency.String))
	}

	if due.Valid {
		tx.DueDate = new(due.Time)
	}

	if parent.Valid {
		tx.ParentNo = new(parent.String)
	}

	return &tx, nil
}

func forUpdate(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}

	return ""
}

// loadDocument reads a document with its signatories and attachments. With
// lock set the document row stays locked until the surrounding transaction ends.
func loadDocument(ctx context.Context, q querier, no string, lock bool) (*routing.Document, error) {
	query := `SELECT ` + selectDocumentColumns + ` FROM documents d WHERE d.document_no = $1` + forUpdate(lock)

	doc, err := scanDocument(q.QueryRowContext(ctx, query, no))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", no, mapErr(err))
	}

	if doc.Signatories, err = loadSignatories(ctx, q, no); err != nil {
		return nil, err
	}

	if doc.Attachments, err = loadAttachments(ctx, q, no); err != nil {
		return nil, err
	}

	return doc, nil
}

func loadSignatories(ctx context.Context, q querier, documentNo string) ([]routing.Signatory, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT role, employee_name, office_name FROM document_signatories WHERE document_no = $1 ORDER BY id`,
		documentNo)
	if err != nil {
		return nil, fmt.Errorf("listing signatories: %w", mapErr(err))
	}
	defer rows.Close()

	var out []routing.Signatory

	for rows.Next() {
		var s routing.Signatory
		if err := rows.Scan(&s.Role, &s.EmployeeName, &s.OfficeName); err != nil {
			return nil, fmt.Errorf("scanning signatory: %w", err)
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

func loadAttachments(ctx context.Context, q querier, documentNo string) ([]routing.Attachment, error) {
	query := `
		SELECT id, COALESCE(transaction_no, ''), kind, file_name, file_path, office_id, created_at
		FROM document_attachments
		WHERE document_no = $1
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, documentNo)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", mapErr(err))
	}
	defer rows.Close()

	var out []routing.Attachment

	for rows.Next() {
		var (
			a    routing.Attachment
			kind string
		)

		if err := rows.Scan(&a.ID, &a.TransactionNo, &kind, &a.FileName, &a.FilePath, &a.OfficeID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}

		a.Kind = routing.AttachmentKind(kind)
		out = append(out, a)
	}

	return out, rows.Err()
}

// loadTransaction reads the full aggregate: the transaction, its document,
// recipients and activity log. With lock set only the transaction row is
// locked; the document row is locked separately when its status is rolled up.
func loadTransaction(ctx context.Context, q querier, no string, lock bool) (*routing.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions t WHERE t.transaction_no = $1` + forUpdate(lock)

	tx, err := scanTransaction(q.QueryRowContext(ctx, query, no))
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", no, mapErr(err))
	}

	if tx.Document, err = loadDocument(ctx, q, tx.DocumentNo, false); err != nil {
		return nil, err
	}

	if tx.Recipients, err = loadRecipients(ctx, q, no); err != nil {
		return nil, err
	}

	if tx.Logs, err = loadLogs(ctx, q, no); err != nil {
		return nil, err
	}

	return tx, nil
}

func loadRecipients(ctx context.Context, q querier, transactionNo string) ([]*routing.Recipient, error) {
	query := `
		SELECT id, transaction_no, office_id, office_name, recipient_type, sequence, is_active, created_at, updated_at
		FROM transaction_recipients
		WHERE transaction_no = $1
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, transactionNo)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", mapErr(err))
	}
	defer rows.Close()

	var out []*routing.Recipient

	for rows.Next() {
		var (
			r   routing.Recipient
			typ string
			seq sql.NullInt64
		)

		if err := rows.Scan(&r.ID, &r.TransactionNo, &r.OfficeID, &r.OfficeName, &typ, &seq, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning recipient: %w", err)
		}

		r.Type = routing.RecipientType(typ)

		if seq.Valid {
			r.Sequence = new(int(seq.Int64))
		}

		out = append(out, &r)
	}

	return out, rows.Err()
}

// loadLogs returns the activity log in append order.
func loadLogs(ctx context.Context, q querier, transactionNo string) ([]*routing.LogEntry, error) {
	query := `
		SELECT id, transaction_no, document_no, status, office_id, office_name,
			COALESCE(routed_office_id, ''), COALESCE(routed_office_name, ''), COALESCE(action_taken, ''),
			activity, COALESCE(remarks, ''), COALESCE(reason, ''), COALESCE(assigned_personnel, ''),
			user_id, user_name, created_at
		FROM transaction_logs
		WHERE transaction_no = $1
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, transactionNo)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", mapErr(err))
	}
	defer rows.Close()

	var out []*routing.LogEntry

	for rows.Next() {
		var (
			l      routing.LogEntry
			status string
		)

		if err := rows.Scan(
			&l.ID, &l.TransactionNo, &l.DocumentNo, &status, &l.OfficeID, &l.OfficeName,
			&l.RoutedOfficeID, &l.RoutedOfficeName, &l.ActionTaken,
			&l.Activity, &l.Remarks, &l.Reason, &l.AssignedPersonnel,
			&l.UserID, &l.UserName, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}

		l.Status = routing.LogStatus(status)
		out = append(out, &l)
	}

	return out, rows.Err()
}

func transactionNumbers(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", mapErr(err))
	}
	defer rows.Close()

	var nos []string

	for rows.Next() {
		var no string
		if err := rows.Scan(&no); err != nil {
			return nil, fmt.Errorf("scanning transaction number: %w", err)
		}

		nos = append(nos, no)
	}

	return nos, rows.Err()
}

func documentTransactions(ctx context.Context, q querier, documentNo string) ([]*routing.Transaction, error) {
	nos, err := transactionNumbers(ctx, q,
		`SELECT transaction_no FROM transactions WHERE document_no = $1 ORDER BY created_at, transaction_no`,
		documentNo)
	if err != nil {
		return nil, err
	}

	txs := make([]*routing.Transaction, 0, len(nos))

	for _, no := range nos {
		tx, err := loadTransaction(ctx, q, no, false)
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, nil
}
