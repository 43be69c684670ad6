package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/doctrack/internal/library"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectActionColumns = `
	name, type, reply_is_terminal, requires_proof, proof_description,
	default_urgency_level, is_active, created_at, updated_at
`

func scanAction(s scanner) (*library.Action, error) {
	var a library.Action

	var typ string

	var proof, urgency sql.NullString

	if err := s.Scan(
		&a.Name, &typ, &a.ReplyIsTerminal, &a.RequiresProof, &proof,
		&urgency, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Type = library.ClassificationType(typ)
	a.ProofDescription = proof.String

	if urgency.Valid {
		a.DefaultUrgency = new(library.Urgency(urgency.String))
	}

	return &a, nil
}

func (s *Store) GetAction(ctx context.Context, name string) (*library.Action, error) {
	query := `SELECT ` + selectActionColumns + ` FROM action_library WHERE name = $1`

	a, err := scanAction(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("action %q: %w", name, library.ErrNotFound)
		}

		return nil, fmt.Errorf("getting action: %w", err)
	}

	return a, nil
}

func (s *Store) ListActions(ctx context.Context) ([]*library.Action, error) {
	query := `SELECT ` + selectActionColumns + ` FROM action_library WHERE is_active ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	defer rows.Close()

	var actions []*library.Action

	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}

		actions = append(actions, a)
	}

	return actions, rows.Err()
}

func (s *Store) UpsertActions(ctx context.Context, actions []*library.Action) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO action_library (name, type, reply_is_terminal, requires_proof, proof_description, default_urgency_level, is_active)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			type = EXCLUDED.type,
			reply_is_terminal = EXCLUDED.reply_is_terminal,
			requires_proof = EXCLUDED.requires_proof,
			proof_description = EXCLUDED.proof_description,
			default_urgency_level = EXCLUDED.default_urgency_level,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	for _, a := range actions {
		if _, err := tx.ExecContext(ctx, query,
			a.Name, a.Type, a.ReplyIsTerminal, a.RequiresProof, a.ProofDescription, a.DefaultUrgency, a.IsActive,
		); err != nil {
			return fmt.Errorf("upserting action %q: %w", a.Name, err)
		}
	}

	return tx.Commit()
}

func scanDocumentType(s scanner) (*library.DocumentType, error) {
	var dt library.DocumentType

	var urgency sql.NullString

	if err := s.Scan(&dt.Name, &urgency, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt); err != nil {
		return nil, err
	}

	if urgency.Valid {
		dt.DefaultUrgency = new(library.Urgency(urgency.String))
	}

	return &dt, nil
}

func (s *Store) GetDocumentType(ctx context.Context, name string) (*library.DocumentType, error) {
	query := `SELECT name, default_urgency_level, is_active, created_at, updated_at
		FROM document_type_library WHERE name = $1`

	dt, err := scanDocumentType(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document type %q: %w", name, library.ErrNotFound)
		}

		return nil, fmt.Errorf("getting document type: %w", err)
	}

	return dt, nil
}

func (s *Store) ListDocumentTypes(ctx context.Context) ([]*library.DocumentType, error) {
	query := `SELECT name, default_urgency_level, is_active, created_at, updated_at
		FROM document_type_library WHERE is_active ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing document types: %w", err)
	}
	defer rows.Close()

	var types []*library.DocumentType

	for rows.Next() {
		dt, err := scanDocumentType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document type: %w", err)
		}

		types = append(types, dt)
	}

	return types, rows.Err()
}

func (s *Store) UpsertDocumentTypes(ctx context.Context, types []*library.DocumentType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO document_type_library (name, default_urgency_level, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			default_urgency_level = EXCLUDED.default_urgency_level,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	for _, dt := range types {
		if _, err := tx.ExecContext(ctx, query, dt.Name, dt.DefaultUrgency, dt.IsActive); err != nil {
			return fmt.Errorf("upserting document type %q: %w", dt.Name, err)
		}
	}

	return tx.Commit()
}
