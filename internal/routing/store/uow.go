package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) LockTransaction(ctx context.Context, no string) (*routing.Transaction, error) {
	return loadTransaction(ctx, u.tx, no, true)
}

func (u *unitOfWork) LockDocument(ctx context.Context, no string) (*routing.Document, error) {
	return loadDocument(ctx, u.tx, no, true)
}

func (u *unitOfWork) DocumentTransactions(ctx context.Context, documentNo string) ([]*routing.Transaction, error) {
	return documentTransactions(ctx, u.tx, documentNo)
}

func (u *unitOfWork) CreateDocument(ctx context.Context, doc *routing.Document) error {
	query := `
		INSERT INTO documents (
			document_no, document_type, action_type, origin_type, subject, remarks, status,
			office_id, office_name, created_by, created_by_name, allow_copy, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
	`

	_, err := u.tx.ExecContext(ctx, query,
		doc.No, doc.DocumentType, doc.ActionType, string(doc.OriginType), doc.Subject, doc.Remarks, string(doc.Status),
		doc.OfficeID, doc.OfficeName, doc.CreatedBy, doc.CreatedByName, doc.AllowCopy, doc.IsActive,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", mapErr(err))
	}

	for _, s := range doc.Signatories {
		_, err := u.tx.ExecContext(ctx,
			`INSERT INTO document_signatories (document_no, role, employee_name, office_name) VALUES ($1, $2, $3, $4)`,
			doc.No, s.Role, s.EmployeeName, s.OfficeName)
		if err != nil {
			return fmt.Errorf("inserting signatory: %w", mapErr(err))
		}
	}

	for i := range doc.Attachments {
		if err := u.AddAttachment(ctx, doc.No, &doc.Attachments[i]); err != nil {
			return err
		}
	}

	return nil
}

func (u *unitOfWork) UpdateDocumentContent(ctx context.Context, no, subject, remarks string) error {
	return u.exec(ctx, "updating document content",
		`UPDATE documents SET subject = $2, remarks = $3, updated_at = NOW() WHERE document_no = $1`,
		no, subject, remarks)
}

func (u *unitOfWork) SetDocumentStatus(ctx context.Context, no string, status routing.DocumentStatus) error {
	return u.exec(ctx, "updating document status",
		`UPDATE documents SET status = $2, updated_at = NOW() WHERE document_no = $1`,
		no, string(status))
}

func (u *unitOfWork) CreateTransaction(ctx context.Context, tx *routing.Transaction) error {
	query := `
		INSERT INTO transactions (
			transaction_no, document_no, transaction_type, routing, status, urgency_level,
			due_date, office_id, office_name, parent_transaction_no, is_active, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`

	var urgency sql.NullString
	if tx.Urgency != nil {
		urgency = sql.NullString{String: string(*tx.Urgency), Valid: true}
	}

	var due sql.NullTime
	if tx.DueDate != nil {
		due = sql.NullTime{Time: *tx.DueDate, Valid: true}
	}

	var parent sql.NullString
	if tx.ParentNo != nil {
		parent = sql.NullString{String: *tx.ParentNo, Valid: true}
	}

	_, err := u.tx.ExecContext(ctx, query,
		tx.No, tx.DocumentNo, string(tx.Type), string(tx.Mode), string(tx.Status), urgency,
		due, tx.OfficeID, tx.OfficeName, parent, tx.IsActive, tx.CreatedBy,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", mapErr(err))
	}

	return nil
}

func (u *unitOfWork) SetTransactionStatus(ctx context.Context, no string, status routing.Status) error {
	return u.exec(ctx, "updating transaction status",
		`UPDATE transactions SET status = $2, updated_at = NOW() WHERE transaction_no = $1`,
		no, string(status))
}

func (u *unitOfWork) SupersedeTransaction(ctx context.Context, no string) error {
	return u.exec(ctx, "superseding transaction",
		`UPDATE transactions SET is_active = FALSE, updated_at = NOW() WHERE transaction_no = $1`,
		no)
}

// UpsertRecipient registers an office on a transaction, or overwrites its row
// when the office is already registered.
func (u *unitOfWork) UpsertRecipient(ctx context.Context, r *routing.Recipient) error {
	query := `
		INSERT INTO transaction_recipients (transaction_no, office_id, office_name, recipient_type, sequence, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (transaction_no, office_id) DO UPDATE SET
			office_name = EXCLUDED.office_name,
			recipient_type = EXCLUDED.recipient_type,
			sequence = EXCLUDED.sequence,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id
	`

	err := u.tx.QueryRowContext(ctx, query,
		r.TransactionNo, r.OfficeID, r.OfficeName, string(r.Type), nullInt(r.Sequence), r.IsActive,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("upserting recipient: %w", mapErr(err))
	}

	return nil
}

func (u *unitOfWork) SetRecipientActive(ctx context.Context, transactionNo, officeID string, active bool) error {
	return u.exec(ctx, "updating recipient",
		`UPDATE transaction_recipients SET is_active = $3, updated_at = NOW() WHERE transaction_no = $1 AND office_id = $2`,
		transactionNo, officeID, active)
}

func (u *unitOfWork) SetRecipientSequence(ctx context.Context, transactionNo, officeID string, sequence *int) error {
	return u.exec(ctx, "updating recipient sequence",
		`UPDATE transaction_recipients SET sequence = $3, updated_at = NOW() WHERE transaction_no = $1 AND office_id = $2`,
		transactionNo, officeID, nullInt(sequence))
}

func (u *unitOfWork) AppendLog(ctx context.Context, entry *routing.LogEntry) error {
	query := `
		INSERT INTO transaction_logs (
			transaction_no, document_no, status, office_id, office_name,
			routed_office_id, routed_office_name, action_taken, activity, remarks, reason,
			assigned_personnel, user_id, user_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	err := u.tx.QueryRowContext(ctx, query,
		entry.TransactionNo, entry.DocumentNo, string(entry.Status), entry.OfficeID, entry.OfficeName,
		nullString(entry.RoutedOfficeID), nullString(entry.RoutedOfficeName), nullString(entry.ActionTaken),
		entry.Activity, nullString(entry.Remarks), nullString(entry.Reason),
		nullString(entry.AssignedPersonnel), entry.UserID, entry.UserName, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("appending log: %w", mapErr(err))
	}

	return nil
}

func (u *unitOfWork) AddAttachment(ctx context.Context, documentNo string, a *routing.Attachment) error {
	query := `
		INSERT INTO document_attachments (document_no, transaction_no, kind, file_name, file_path, office_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
		RETURNING id, created_at
	`

	var created sql.NullTime
	if !a.CreatedAt.IsZero() {
		created = sql.NullTime{Time: a.CreatedAt, Valid: true}
	}

	err := u.tx.QueryRowContext(ctx, query,
		documentNo, nullString(a.TransactionNo), string(a.Kind), a.FileName, a.FilePath, a.OfficeID, created,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting attachment: %w", mapErr(err))
	}

	return nil
}

// CreateVersion numbers the snapshot after the latest one for the document.
// The document row is locked by the caller, so numbering cannot race.
func (u *unitOfWork) CreateVersion(ctx context.Context, v *routing.Version) error {
	snapshot, err := json.Marshal(v.Recipients)
	if err != nil {
		return fmt.Errorf("encoding recipients snapshot: %w", err)
	}

	query := `
		INSERT INTO document_versions (document_no, version_number, subject, remarks, recipients_snapshot, created_by, created_at)
		SELECT $1, COALESCE(MAX(version_number), 0) + 1, $2, $3, $4, $5, $6
		FROM document_versions
		WHERE document_no = $1
		RETURNING version_number
	`

	err = u.tx.QueryRowContext(ctx, query,
		v.DocumentNo, v.Subject, v.Remarks, snapshot, v.CreatedBy, v.CreatedAt,
	).Scan(&v.Number)
	if err != nil {
		return fmt.Errorf("inserting version: %w", mapErr(err))
	}

	return nil
}

func (u *unitOfWork) CreateNote(ctx context.Context, n *routing.Note) error {
	query := `
		INSERT INTO document_notes (document_no, office_id, office_name, user_id, user_name, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := u.tx.QueryRowContext(ctx, query,
		n.DocumentNo, n.OfficeID, n.OfficeName, n.UserID, n.UserName, n.Body, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("inserting note: %w", mapErr(err))
	}

	return nil
}

func (u *unitOfWork) Commit() error {
	return mapErr(u.tx.Commit())
}

// Rollback is safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if err := u.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}

	return nil
}

// exec runs an update that must touch a row; zero rows means the target is gone.
func (u *unitOfWork) exec(ctx context.Context, what, query string, args ...any) error {
	res, err := u.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, mapErr(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", what, routing.ErrNotFound)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
