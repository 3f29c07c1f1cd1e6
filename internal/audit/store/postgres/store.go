package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"homeward/internal/audit"
	"homeward/pkg/domain"
	txcontext "homeward/pkg/platform/tx"
)

// Store persists audit entries in PostgreSQL. Appends join the caller's
// transaction when one is carried in the context, so a status mutation and
// its audit entry commit atomically.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	query := `
		INSERT INTO audit_entries (
			entity_type, entity_id, previous_status, new_status,
			actor_id, actor_role, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		string(entry.EntityType),
		entry.EntityID,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.ActorID,
		string(entry.ActorRole),
		entry.Notes,
		entry.Timestamp,
	).Scan(&entry.Seq)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("insert audit entry: %w", err)
	}
	return entry, nil
}

func (s *Store) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]audit.Entry, error) {
	query := `
		SELECT seq, entity_type, entity_id, previous_status, new_status,
			   actor_id, actor_role, notes, created_at
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry      audit.Entry
			entityType string
			actorRole  string
		)
		err := rows.Scan(
			&entry.Seq,
			&entityType,
			&entry.EntityID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.ActorID,
			&actorRole,
			&entry.Notes,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.EntityType = audit.EntityType(entityType)
		entry.ActorRole = domain.Role(actorRole)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
