package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

// Repository reads committed state and opens units of work for mutations.
type Repository interface {
	Begin(ctx context.Context) (UnitOfWork, error)

	GetTransaction(ctx context.Context, no string) (*Transaction, error)
	GetDocument(ctx context.Context, no string) (*Document, error)
	ListDocumentTransactions(ctx context.Context, documentNo string) ([]*Transaction, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)
	ListReceived(ctx context.Context, filter DocumentFilter) ([]*Transaction, error)
	ListProcessing(ctx context.Context) ([]*Transaction, error)
	ListNotes(ctx context.Context, documentNo string) ([]*Note, error)
}

// UnitOfWork is a single database transaction. Lock methods take row locks
// that are held until Commit or Rollback.
type UnitOfWork interface {
	LockTransaction(ctx context.Context, no string) (*Transaction, error)
	LockDocument(ctx context.Context, no string) (*Document, error)
	DocumentTransactions(ctx context.Context, documentNo string) ([]*Transaction, error)

	CreateDocument(ctx context.Context, doc *Document) error
	UpdateDocumentContent(ctx context.Context, no, subject, remarks string) error
	SetDocumentStatus(ctx context.Context, no string, status DocumentStatus) error

	CreateTransaction(ctx context.Context, tx *Transaction) error
	SetTransactionStatus(ctx context.Context, no string, status Status) error
	SupersedeTransaction(ctx context.Context, no string) error

	UpsertRecipient(ctx context.Context, r *Recipient) error
	SetRecipientActive(ctx context.Context, transactionNo, officeID string, active bool) error
	SetRecipientSequence(ctx context.Context, transactionNo, officeID string, sequence *int) error

	AppendLog(ctx context.Context, entry *LogEntry) error
	AddAttachment(ctx context.Context, documentNo string, a *Attachment) error
	CreateVersion(ctx context.Context, v *Version) error
	CreateNote(ctx context.Context, n *Note) error

	Commit() error
	Rollback() error
}

// Library resolves reference data the engine depends on.
type Library interface {
	Action(ctx context.Context, name string) (*library.Action, error)
	DocumentType(ctx context.Context, name string) (*library.DocumentType, error)
}

// Notifier delivers notifications. It must not block the caller for long and
// reports failures through its own logging.
type Notifier interface {
	Notify(ctx context.Context, notifications []Notification)
}

type DocumentFilter struct {
	OfficeID string
	Status   *DocumentStatus
	Search   string
}

type Service struct {
	repo        Repository
	library     Library
	notifier    Notifier
	now         func() time.Time
	maxAttempts int
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxAttempts bounds how often an action is retried after ErrConflict.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewService(repo Repository, lib Library, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		library:     lib,
		notifier:    notifier,
		now:         time.Now,
		maxAttempts: 3,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// inTx runs fn inside a unit of work and commits it. A lock conflict retries
// the whole function, so fn must not keep state between attempts.
func (s *Service) inTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}

		slog.Warn("retrying action after lock conflict", "attempt", attempt, "error", err)
	}

	return err
}

func (s *Service) runOnce(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// dispatch hands notifications to the notifier after commit. Nothing it does
// can fail the action that produced them.
func (s *Service) dispatch(ctx context.Context, notifications []Notification) {
	if s.notifier == nil || len(notifications) == 0 {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification dispatch panicked", "panic", r)
		}
	}()

	s.notifier.Notify(context.WithoutCancel(ctx), notifications)
}

// evaluate recomputes a transaction's status under its row lock and persists
// it when it changed. Completion rolls up into the parent document.
func (s *Service) evaluate(ctx context.Context, uow UnitOfWork, no string) (Status, error) {
	tx, err := uow.LockTransaction(ctx, no)
	if err != nil {
		return "", fmt.Errorf("lock transaction: %w", err)
	}

	action, err := s.library.Action(ctx, tx.Document.ActionType)
	if err != nil {
		return "", fmt.Errorf("classify %s: %w", tx.Document.ActionType, err)
	}

	next := Compute(tx.Status, tx.Mode, action.Type, tx.Recipients, tx.Logs)
	if next == tx.Status {
		return next, nil
	}

	if err := uow.SetTransactionStatus(ctx, no, next); err != nil {
		return "", fmt.Errorf("set transaction status: %w", err)
	}

	if next == StatusCompleted {
		if err := s.evaluateDocument(ctx, uow, tx.DocumentNo); err != nil {
			return "", err
		}
	}

	return next, nil
}

// evaluateDocument rolls a document's transactions up under the document row lock.
func (s *Service) evaluateDocument(ctx context.Context, uow UnitOfWork, documentNo string) error {
	doc, err := uow.LockDocument(ctx, documentNo)
	if err != nil {
		return fmt.Errorf("lock document: %w", err)
	}

	if doc.Status == DocumentClosed {
		return nil
	}

	txs, err := uow.DocumentTransactions(ctx, documentNo)
	if err != nil {
		return fmt.Errorf("list document transactions: %w", err)
	}

	next := RollUp(doc.Status, txs)
	if next == doc.Status {
		return nil
	}

	if err := uow.SetDocumentStatus(ctx, documentNo, next); err != nil {
		return fmt.Errorf("set document status: %w", err)
	}

	return nil
}

// Evaluate recomputes a transaction's status on demand.
func (s *Service) Evaluate(ctx context.Context, no string) (Status, error) {
	var status Status

	err := s.inTx(ctx, func(uow UnitOfWork) error {
		var err error

		status, err = s.evaluate(ctx, uow, no)

		return err
	})

	return status, err
}

// EvaluateDocument recomputes a document's status on demand.
func (s *Service) EvaluateDocument(ctx context.Context, documentNo string) error {
	return s.inTx(ctx, func(uow UnitOfWork) error {
		return s.evaluateDocument(ctx, uow, documentNo)
	})
}

func (s *Service) Get(ctx context.Context, no string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, no)
}

func (s *Service) GetDocument(ctx context.Context, no string) (*Document, error) {
	return s.repo.GetDocument(ctx, no)
}

// DocumentTransactions returns every transaction of a document, superseded
// ones included, with recipients and logs loaded.
func (s *Service) DocumentTransactions(ctx context.Context, documentNo string) ([]*Transaction, error) {
	return s.repo.ListDocumentTransactions(ctx, documentNo)
}

func (s *Service) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error) {
	return s.repo.ListDocuments(ctx, filter)
}

func (s *Service) ListReceived(ctx context.Context, filter DocumentFilter) ([]*Transaction, error) {
	return s.repo.ListReceived(ctx, filter)
}

func (s *Service) newLog(tx *Transaction, actor Actor, status LogStatus, activity string) *LogEntry {
	return &LogEntry{
		TransactionNo: tx.No,
		DocumentNo:    tx.DocumentNo,
		Status:        status,
		OfficeID:      actor.Office.ID,
		OfficeName:    actor.Office.Name,
		Activity:      activity,
		UserID:        actor.UserID,
		UserName:      actor.UserName,
		CreatedAt:     s.now(),
	}
}

func newDocumentNo() string {
	return "DOC-" + strings.ToUpper(uuid.NewString())
}

func newTransactionNo() string {
	return "TRX-" + strings.ToUpper(uuid.NewString())
}

func officeNames(rs []*Recipient) string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.OfficeName)
	}

	return strings.Join(names, ", ")
}
