package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"homeward/internal/organization/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
	txcontext "homeward/pkg/platform/tx"
)

// Postgres persists organizations. Execute and Delete run their callbacks
// inside a transaction with the row locked, carrying the transaction through
// the callback context so audit and history appends commit in the same unit.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, email, verification_status, verification_document, verification_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(org.ID),
		org.Name,
		org.Email,
		string(org.VerificationStatus),
		org.VerificationDocument,
		org.VerificationNotes,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.OrganizationID) (*models.Organization, error) {
	query := `
		SELECT id, name, email, verification_status, verification_document, verification_notes, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	return scanOrganization(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *Postgres) Execute(ctx context.Context, id domain.OrganizationID, fn func(txCtx context.Context, o *models.Organization) error) (*models.Organization, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, name, email, verification_status, verification_document, verification_notes, created_at, updated_at
		FROM organizations
		WHERE id = $1
		FOR UPDATE
	`
	org, err := scanOrganization(tx.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, err
	}

	if err := fn(txcontext.WithTx(ctx, tx), org); err != nil {
		return nil, err
	}

	update := `
		UPDATE organizations
		SET verification_status = $2, verification_document = $3, verification_notes = $4, updated_at = $5
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(org.ID),
		string(org.VerificationStatus),
		org.VerificationDocument,
		org.VerificationNotes,
		org.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit organization update: %w", err)
	}
	return org, nil
}

func (s *Postgres) AppendHistory(ctx context.Context, id domain.OrganizationID, entry models.VerificationHistoryEntry) error {
	query := `
		INSERT INTO organization_verification_history (organization_id, previous_status, new_status, notes, resubmission, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	execer := dbExecutor(s.db)
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}
	_, err := execer.ExecContext(ctx, query,
		uuid.UUID(id),
		string(entry.PreviousStatus),
		string(entry.NewStatus),
		entry.Notes,
		entry.Resubmission,
		entry.AdminID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert verification history: %w", err)
	}
	return nil
}

func (s *Postgres) ListHistory(ctx context.Context, id domain.OrganizationID) ([]models.VerificationHistoryEntry, error) {
	query := `
		SELECT previous_status, new_status, notes, resubmission, admin_id, created_at
		FROM organization_verification_history
		WHERE organization_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("query verification history: %w", err)
	}
	defer rows.Close()

	var entries []models.VerificationHistoryEntry
	for rows.Next() {
		var (
			entry      models.VerificationHistoryEntry
			prevStatus string
			newStatus  string
		)
		if err := rows.Scan(&prevStatus, &newStatus, &entry.Notes, &entry.Resubmission, &entry.AdminID, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan verification history: %w", err)
		}
		entry.PreviousStatus = models.VerificationStatus(prevStatus)
		entry.NewStatus = models.VerificationStatus(newStatus)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification history: %w", err)
	}
	return entries, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.OrganizationID, fn func(txCtx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1 FOR UPDATE)`,
		uuid.UUID(id),
	).Scan(&exists); err != nil {
		return fmt.Errorf("lock organization: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}

	if fn != nil {
		if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM organization_verification_history WHERE organization_id = $1`, uuid.UUID(id)); err != nil {
		return fmt.Errorf("delete verification history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, uuid.UUID(id)); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit organization delete: %w", err)
	}
	return nil
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.VerificationStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT verification_status, COUNT(*) FROM organizations GROUP BY verification_status`)
	if err != nil {
		return nil, fmt.Errorf("count organizations: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.VerificationStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan organization count: %w", err)
		}
		counts[models.VerificationStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization counts: %w", err)
	}
	return counts, nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	var (
		org    models.Organization
		rawID  uuid.UUID
		status string
	)
	err := row.Scan(
		&rawID,
		&org.Name,
		&org.Email,
		&status,
		&org.VerificationDocument,
		&org.VerificationNotes,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	org.ID = domain.OrganizationID(rawID)
	org.VerificationStatus = models.VerificationStatus(status)
	return &org, nil
}
