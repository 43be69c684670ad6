package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

// Postgres error codes that mean another unit of work holds the rows we need.
const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func New(db *sql.DB, lockTimeout time.Duration) *Store {
	return &Store{db: db, lockTimeout: lockTimeout}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// mapErr turns lock contention into routing.ErrConflict and missing rows into
// routing.ErrNotFound. Anything else is returned as is.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return routing.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %s", routing.ErrConflict, pgErr.Message)
		}
	}

	return err
}

func (s *Store) Begin(ctx context.Context) (routing.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &unitOfWork{tx: tx}, nil
}

func (s *Store) GetTransaction(ctx context.Context, no string) (*routing.Transaction, error) {
	return loadTransaction(ctx, s.db, no, false)
}

func (s *Store) GetDocument(ctx context.Context, no string) (*routing.Document, error) {
	return loadDocument(ctx, s.db, no, false)
}

func (s *Store) ListDocumentTransactions(ctx context.Context, documentNo string) ([]*routing.Transaction, error) {
	return documentTransactions(ctx, s.db, documentNo)
}

func (s *Store) ListDocuments(ctx context.Context, filter routing.DocumentFilter) ([]*routing.Document, error) {
	conds, args := documentFilter(filter)

	if filter.OfficeID != "" {
		args = append(args, filter.OfficeID)
		conds = append(conds, fmt.Sprintf("d.office_id = $%d", len(args)))
	}

	query := `SELECT ` + selectDocumentColumns + ` FROM documents d` + where(conds) + ` ORDER BY d.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*routing.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// documentFilter builds the conditions on documents d shared by the listings.
func documentFilter(filter routing.DocumentFilter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("d.status = $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(d.subject ILIKE $%[1]d OR d.document_no ILIKE $%[1]d)", len(args)))
	}

	return conds, args
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}

	return " WHERE " + strings.Join(conds, " AND ")
}

// ListReceived lists live transactions on which the filter office is a
// recipient.
func (s *Store) ListReceived(ctx context.Context, filter routing.DocumentFilter) ([]*routing.Transaction, error) {
	conds, args := documentFilter(filter)
	conds = append(conds, "t.is_active", "t.status <> 'Draft'")

	if filter.OfficeID != "" {
		args = append(args, filter.OfficeID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM transaction_recipients r WHERE r.transaction_no = t.transaction_no AND r.office_id = $%d)",
			len(args)))
	}

	query := `SELECT t.transaction_no FROM transactions t
		JOIN documents d ON d.document_no = t.document_no` + where(conds) + `
		ORDER BY t.created_at DESC`

	return s.loadMany(ctx, query, args...)
}

func (s *Store) ListProcessing(ctx context.Context) ([]*routing.Transaction, error) {
	query := `SELECT transaction_no FROM transactions
		WHERE is_active AND status = 'Processing'
		ORDER BY transaction_no`

	return s.loadMany(ctx, query)
}

// loadMany runs a query returning transaction numbers and loads each aggregate.
func (s *Store) loadMany(ctx context.Context, query string, args ...any) ([]*routing.Transaction, error) {
	nos, err := transactionNumbers(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}

	txs := make([]*routing.Transaction, 0, len(nos))

	for _, no := range nos {
		tx, err := loadTransaction(ctx, s.db, no, false)
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

func (s *Store) ListNotes(ctx context.Context, documentNo string) ([]*routing.Note, error) {
	query := `
		SELECT id, document_no, office_id, office_name, user_id, user_name, note, created_at
		FROM document_notes
		WHERE document_no = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, documentNo)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []*routing.Note

	for rows.Next() {
		var n routing.Note
		if err := rows.Scan(&n.ID, &n.DocumentNo, &n.OfficeID, &n.OfficeName, &n.UserID, &n.UserName, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}

		notes = append(notes, &n)
	}

	return notes, rows.Err()
}
