package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"homeward/internal/adopter/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
	txcontext "homeward/pkg/platform/tx"
)

// Postgres persists adopter accounts. Execute and Delete run their callbacks
// inside a transaction with the row locked, carrying the transaction through
// the callback context so audit appends commit in the same unit.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, adopter *models.Adopter) error {
	query := `
		INSERT INTO adopters (id, name, email, status, status_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(adopter.ID),
		adopter.Name,
		adopter.Email,
		string(adopter.Status),
		adopter.StatusNotes,
		adopter.CreatedAt,
		adopter.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert adopter: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.AdopterID) (*models.Adopter, error) {
	query := `
		SELECT id, name, email, status, status_notes, created_at, updated_at
		FROM adopters
		WHERE id = $1
	`
	return scanAdopter(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *Postgres) Execute(ctx context.Context, id domain.AdopterID, fn func(txCtx context.Context, a *models.Adopter) error) (*models.Adopter, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, name, email, status, status_notes, created_at, updated_at
		FROM adopters
		WHERE id = $1
		FOR UPDATE
	`
	adopter, err := scanAdopter(tx.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, err
	}

	if err := fn(txcontext.WithTx(ctx, tx), adopter); err != nil {
		return nil, err
	}

	update := `
		UPDATE adopters
		SET status = $2, status_notes = $3, updated_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(adopter.ID),
		string(adopter.Status),
		adopter.StatusNotes,
		adopter.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update adopter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adopter update: %w", err)
	}
	return adopter, nil
}

func (s *Postgres) AppendHistory(ctx context.Context, id domain.AdopterID, entry models.StandingHistoryEntry) error {
	query := `
		INSERT INTO adopter_status_history (adopter_id, action, notes, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	execer := dbExecutor(s.db)
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}
	_, err := execer.ExecContext(ctx, query,
		uuid.UUID(id),
		string(entry.Action),
		entry.Notes,
		entry.AdminID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert standing history: %w", err)
	}
	return nil
}

func (s *Postgres) ListHistory(ctx context.Context, id domain.AdopterID) ([]models.StandingHistoryEntry, error) {
	query := `
		SELECT action, notes, admin_id, created_at
		FROM adopter_status_history
		WHERE adopter_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("query standing history: %w", err)
	}
	defer rows.Close()

	var entries []models.StandingHistoryEntry
	for rows.Next() {
		var (
			entry  models.StandingHistoryEntry
			action string
		)
		if err := rows.Scan(&action, &entry.Notes, &entry.AdminID, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan standing history: %w", err)
		}
		entry.Action = models.StandingAction(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standing history: %w", err)
	}
	return entries, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.AdopterID, fn func(txCtx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM adopters WHERE id = $1 FOR UPDATE)`,
		uuid.UUID(id),
	).Scan(&exists); err != nil {
		return fmt.Errorf("lock adopter: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}

	if fn != nil {
		if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM adopter_status_history WHERE adopter_id = $1`, uuid.UUID(id)); err != nil {
		return fmt.Errorf("delete standing history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM adopters WHERE id = $1`, uuid.UUID(id)); err != nil {
		return fmt.Errorf("delete adopter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit adopter delete: %w", err)
	}
	return nil
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.StandingStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM adopters GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count adopters: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.StandingStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan adopter count: %w", err)
		}
		counts[models.StandingStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adopter counts: %w", err)
	}
	return counts, nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdopter(row rowScanner) (*models.Adopter, error) {
	var (
		adopter models.Adopter
		rawID   uuid.UUID
		status  string
	)
	err := row.Scan(
		&rawID,
		&adopter.Name,
		&adopter.Email,
		&status,
		&adopter.StatusNotes,
		&adopter.CreatedAt,
		&adopter.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan adopter: %w", err)
	}
	adopter.ID = domain.AdopterID(rawID)
	adopter.Status = models.StandingStatus(status)
	return &adopter, nil
}
