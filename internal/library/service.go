package library

import (
	"context"
	"fmt"
	"io"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=library
type Repository interface {
	GetAction(ctx context.Context, name string) (*Action, error)
	ListActions(ctx context.Context) ([]*Action, error)
	UpsertActions(ctx context.Context, actions []*Action) error

	GetDocumentType(ctx context.Context, name string) (*DocumentType, error)
	ListDocumentTypes(ctx context.Context) ([]*DocumentType, error)
	UpsertDocumentTypes(ctx context.Context, types []*DocumentType) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Action looks up an active action type by name.
func (s *Service) Action(ctx context.Context, name string) (*Action, error) {
	a, err := s.repo.GetAction(ctx, name)
	if err != nil {
		return nil, err
	}

	if !a.IsActive {
		return nil, fmt.Errorf("action %q: %w", name, ErrNotFound)
	}

	return a, nil
}

func (s *Service) Actions(ctx context.Context) ([]*Action, error) {
	return s.repo.ListActions(ctx)
}

// DocumentType looks up a document type. Unknown types are not an error for
// callers that only need the default urgency, so they get ErrNotFound to test for.
func (s *Service) DocumentType(ctx context.Context, name string) (*DocumentType, error) {
	return s.repo.GetDocumentType(ctx, name)
}

func (s *Service) DocumentTypes(ctx context.Context) ([]*DocumentType, error) {
	return s.repo.ListDocumentTypes(ctx)
}

// ImportActions parses a CSV export of action types and upserts every row.
func (s *Service) ImportActions(ctx context.Context, r io.Reader) (int, error) {
	actions, err := ParseActions(r)
	if err != nil {
		return 0, fmt.Errorf("parse actions: %w: %w", ErrInvalidImport, err)
	}

	if len(actions) == 0 {
		return 0, nil
	}

	if err := s.repo.UpsertActions(ctx, actions); err != nil {
		return 0, fmt.Errorf("upsert actions: %w", err)
	}

	return len(actions), nil
}

// ImportDocumentTypes parses a CSV export of document types and upserts every row.
func (s *Service) ImportDocumentTypes(ctx context.Context, r io.Reader) (int, error) {
	types, err := ParseDocumentTypes(r)
	if err != nil {
		return 0, fmt.Errorf("parse document types: %w: %w", ErrInvalidImport, err)
	}

	if len(types) == 0 {
		return 0, nil
	}

	if err := s.repo.UpsertDocumentTypes(ctx, types); err != nil {
		return 0, fmt.Errorf("upsert document types: %w", err)
	}

	return len(types), nil
}
