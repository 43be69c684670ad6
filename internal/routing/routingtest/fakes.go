package routingtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

// Action names seeded into Library, one per behaviour the engine branches on.
const (
	ActionAppropriate   = "Appropriate Action"
	ActionUrgent        = "Urgent Action"
	ActionDissemination = "Dissemination of Information"
	ActionComment       = "Comment/Reaction/Response"
	ActionFollowUp      = "Follow Up"
	ActionInformation   = "Your Information"
	ActionDraftReply    = "Draft of Reply"
	ActionApproval      = "Approval"
)

// Library is a fixed in-memory action and document type library.
type Library struct {
	mu            sync.RWMutex
	actions       map[string]*library.Action
	documentTypes map[string]*library.DocumentType
}

func NewLibrary() *Library {
	urgent := library.UrgencyUrgent
	routine := library.UrgencyRoutine

	l := &Library{
		actions:       make(map[string]*library.Action),
		documentTypes: make(map[string]*library.DocumentType),
	}

	for _, a := range []*library.Action{
		{Name: ActionAppropriate, Type: library.TypeFA, RequiresProof: true},
		{Name: ActionUrgent, Type: library.TypeFA, RequiresProof: true, DefaultUrgency: &urgent},
		{Name: ActionDissemination, Type: library.TypeFI},
		{Name: ActionComment, Type: library.TypeFA, ReplyIsTerminal: true},
		{Name: "Compliance/Implementation", Type: library.TypeFA, RequiresProof: true},
		{Name: "Endorsement/Recommendation", Type: library.TypeFA, RequiresProof: true},
		{Name: "Coding/Deposit/Preparation", Type: library.TypeFA, RequiresProof: true},
		{Name: ActionFollowUp, Type: library.TypeFA},
		{Name: "Investigation/Verification", Type: library.TypeFA, RequiresProof: true},
		{Name: ActionInformation, Type: library.TypeFI},
		{Name: ActionDraftReply, Type: library.TypeFA, ReplyIsTerminal: true},
		{Name: ActionApproval, Type: library.TypeFA, RequiresProof: true},
	} {
		a.IsActive = true
		l.actions[a.Name] = a
	}

	l.documentTypes["Memorandum"] = &library.DocumentType{Name: "Memorandum", IsActive: true}
	l.documentTypes["Letter"] = &library.DocumentType{Name: "Letter", DefaultUrgency: &routine, IsActive: true}

	return l
}

func (l *Library) Action(ctx context.Context, name string) (*library.Action, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.actions[name]
	if !ok {
		return nil, fmt.Errorf("action %q: %w", name, library.ErrNotFound)
	}

	c := *a

	return &c, nil
}

func (l *Library) DocumentType(ctx context.Context, name string) (*library.DocumentType, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	dt, ok := l.documentTypes[name]
	if !ok {
		return nil, fmt.Errorf("document type %q: %w", name, library.ErrNotFound)
	}

	c := *dt

	return &c, nil
}

func (l *Library) PutAction(a library.Action) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.actions[a.Name] = &a
}

func (l *Library) PutDocumentType(dt library.DocumentType) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.documentTypes[dt.Name] = &dt
}

// Recorder keeps every notification it is handed.
type Recorder struct {
	mu    sync.Mutex
	items []routing.Notification
}

func (r *Recorder) Notify(ctx context.Context, notifications []routing.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, notifications...)
}

func (r *Recorder) All() []routing.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]routing.Notification, len(r.items))
	copy(out, r.items)

	return out
}

// For returns the recorded notifications of one event.
func (r *Recorder) For(event routing.Event) []routing.Notification {
	var out []routing.Notification

	for _, n := range r.All() {
		if n.Event == event {
			out = append(out, n)
		}
	}

	return out
}

// Offices lists the target offices of one event, in dispatch order.
func (r *Recorder) Offices(event routing.Event) []string {
	var out []string

	for _, n := range r.For(event) {
		out = append(out, n.OfficeID)
	}

	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
}

// Panicking is a notifier that always panics.
type Panicking struct{}

func (Panicking) Notify(context.Context, []routing.Notification) {
	panic("notifier exploded")
}
