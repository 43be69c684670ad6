// Package routingtest provides in-memory collaborators for exercising the
// routing service without a database.
package routingtest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

// Memory is a routing.Repository held in memory. A unit of work takes an
// exclusive lock on the whole store and works on a copy that replaces the
// committed state on Commit.
type Memory struct {
	mu    sync.Mutex
	state *state

	failMu sync.Mutex
	failOn map[string]*failure
	calls  map[string]int
}

// failure is an injected error. remaining counts down to removal; a negative
// value never runs out.
type failure struct {
	err       error
	remaining int
}

type state struct {
	documents    map[string]*routing.Document
	transactions map[string]*routing.Transaction
	recipients   map[string][]*routing.Recipient
	logs         []*routing.LogEntry
	versions     []*routing.Version
	notes        []*routing.Note
	nextID       int64
}

func NewMemory() *Memory {
	return &Memory{
		state: &state{
			documents:    make(map[string]*routing.Document),
			transactions: make(map[string]*routing.Transaction),
			recipients:   make(map[string][]*routing.Recipient),
		},
		failOn: make(map[string]*failure),
		calls:  make(map[string]int),
	}
}

// FailOn makes every later call of the named unit of work method return err.
// A nil err clears it.
func (m *Memory) FailOn(method string, err error) {
	m.setFailure(method, err, -1)
}

// FailNext makes only the next call of the named method return err.
func (m *Memory) FailNext(method string, err error) {
	m.setFailure(method, err, 1)
}

func (m *Memory) setFailure(method string, err error, times int) {
	m.failMu.Lock()
	defer m.failMu.Unlock()

	if err == nil {
		delete(m.failOn, method)
		return
	}

	m.failOn[method] = &failure{err: err, remaining: times}
}

// Calls reports how often a unit of work method has been invoked, including
// calls in units of work that later rolled back.
func (m *Memory) Calls(method string) int {
	m.failMu.Lock()
	defer m.failMu.Unlock()

	return m.calls[method]
}

func (m *Memory) fail(method string) error {
	m.failMu.Lock()
	defer m.failMu.Unlock()

	m.calls[method]++

	f, ok := m.failOn[method]
	if !ok {
		return nil
	}

	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(m.failOn, method)
		}
	}

	return f.err
}

func (m *Memory) Begin(ctx context.Context) (routing.UnitOfWork, error) {
	if err := m.fail("Begin"); err != nil {
		return nil, err
	}

	m.mu.Lock()

	return &unitOfWork{m: m, st: m.state.clone()}, nil
}

func (m *Memory) GetTransaction(ctx context.Context, no string) (*routing.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.aggregate(no)
}

func (m *Memory) GetDocument(ctx context.Context, no string) (*routing.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.state.documents[no]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", no, routing.ErrNotFound)
	}

	return cloneDocument(doc), nil
}

func (m *Memory) ListDocumentTransactions(ctx context.Context, documentNo string) ([]*routing.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.documentTransactions(documentNo)
}

func (m *Memory) ListDocuments(ctx context.Context, filter routing.DocumentFilter) ([]*routing.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*routing.Document

	for _, doc := range m.state.documents {
		if filter.OfficeID != "" && doc.OfficeID != filter.OfficeID {
			continue
		}

		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}

		if !matches(doc, filter.Search) {
			continue
		}

		out = append(out, cloneDocument(doc))
	}

	slices.SortFunc(out, func(a, b *routing.Document) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return out, nil
}

func (m *Memory) ListReceived(ctx context.Context, filter routing.DocumentFilter) ([]*routing.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*routing.Transaction

	for no, tx := range m.state.transactions {
		if !tx.IsActive || tx.Status == routing.StatusDraft {
			continue
		}

		if filter.OfficeID != "" && !slices.ContainsFunc(m.state.recipients[no], func(r *routing.Recipient) bool {
			return r.OfficeID == filter.OfficeID
		}) {
			continue
		}

		doc := m.state.documents[tx.DocumentNo]
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}

		if !matches(doc, filter.Search) {
			continue
		}

		agg, err := m.state.aggregate(no)
		if err != nil {
			return nil, err
		}

		out = append(out, agg)
	}

	slices.SortFunc(out, func(a, b *routing.Transaction) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return out, nil
}

func (m *Memory) ListProcessing(ctx context.Context) ([]*routing.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*routing.Transaction

	for no, tx := range m.state.transactions {
		if !tx.IsActive || tx.Status != routing.StatusProcessing {
			continue
		}

		agg, err := m.state.aggregate(no)
		if err != nil {
			return nil, err
		}

		out = append(out, agg)
	}

	slices.SortFunc(out, func(a, b *routing.Transaction) int { return cmp.Compare(a.No, b.No) })

	return out, nil
}

func (m *Memory) ListNotes(ctx context.Context, documentNo string) ([]*routing.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*routing.Note

	for _, n := range m.state.notes {
		if n.DocumentNo == documentNo {
			c := *n
			out = append(out, &c)
		}
	}

	return out, nil
}

// Versions returns the stored snapshots of a document, oldest first.
func (m *Memory) Versions(documentNo string) []*routing.Version {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*routing.Version

	for _, v := range m.state.versions {
		if v.DocumentNo == documentNo {
			c := *v
			out = append(out, &c)
		}
	}

	return out
}

func matches(doc *routing.Document, search string) bool {
	if search == "" {
		return true
	}

	search = strings.ToLower(search)

	return strings.Contains(strings.ToLower(doc.Subject), search) ||
		strings.Contains(strings.ToLower(doc.No), search)
}

func (s *state) aggregate(no string) (*routing.Transaction, error) {
	tx, ok := s.transactions[no]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", no, routing.ErrNotFound)
	}

	out := cloneTransaction(tx)
	out.Document = cloneDocument(s.documents[tx.DocumentNo])

	for _, r := range s.recipients[no] {
		c := *r
		out.Recipients = append(out.Recipients, &c)
	}

	for _, l := range s.logs {
		if l.TransactionNo == no {
			c := *l
			out.Logs = append(out.Logs, &c)
		}
	}

	return out, nil
}

func (s *state) documentTransactions(documentNo string) ([]*routing.Transaction, error) {
	var out []*routing.Transaction

	for no, tx := range s.transactions {
		if tx.DocumentNo != documentNo {
			continue
		}

		agg, err := s.aggregate(no)
		if err != nil {
			return nil, err
		}

		out = append(out, agg)
	}

	slices.SortFunc(out, func(a, b *routing.Transaction) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.No, b.No)
	})

	return out, nil
}

func (s *state) clone() *state {
	c := &state{
		documents:    make(map[string]*routing.Document, len(s.documents)),
		transactions: make(map[string]*routing.Transaction, len(s.transactions)),
		recipients:   make(map[string][]*routing.Recipient, len(s.recipients)),
		nextID:       s.nextID,
	}

	for k, v := range s.documents {
		c.documents[k] = cloneDocument(v)
	}

	for k, v := range s.transactions {
		c.transactions[k] = cloneTransaction(v)
	}

	for k, rs := range s.recipients {
		for _, r := range rs {
			rc := *r
			c.recipients[k] = append(c.recipients[k], &rc)
		}
	}

	// Log entries, versions and notes are never mutated once stored.
	c.logs = slices.Clone(s.logs)
	c.versions = slices.Clone(s.versions)
	c.notes = slices.Clone(s.notes)

	return c
}

func cloneDocument(d *routing.Document) *routing.Document {
	c := *d
	c.Signatories = slices.Clone(d.Signatories)
	c.Attachments = slices.Clone(d.Attachments)

	return &c
}

func cloneTransaction(t *routing.Transaction) *routing.Transaction {
	c := *t
	c.Document = nil
	c.Recipients = nil
	c.Logs = nil

	return &c
}
