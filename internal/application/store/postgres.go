package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"homeward/internal/application/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
	txcontext "homeward/pkg/platform/tx"
)

// uniqueViolation is the PostgreSQL error code raised when the
// applications_one_active partial index rejects a second live application.
const uniqueViolation = "23505"

// Postgres persists adoption applications. The one-active-application
// invariant is delegated to the applications_one_active partial unique
// index: the check and the insert are a single atomic unit, so two
// concurrent submissions cannot both succeed.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// CreateActive inserts a pending application, drawing its human-readable
// number from the application_number_seq sequence. Fails with ErrConflict
// when the adopter already has an active application for the same pet.
func (s *Postgres) CreateActive(ctx context.Context, app *models.Application) error {
	questionnaire, err := json.Marshal(app.Questionnaire)
	if err != nil {
		return fmt.Errorf("marshal questionnaire: %w", err)
	}
	reference, err := json.Marshal(app.Reference)
	if err != nil {
		return fmt.Errorf("marshal reference: %w", err)
	}

	query := `
		INSERT INTO applications (
			id, application_number, pet_id, adopter_id, organization_id, status,
			questionnaire, reference_contact, terms_accepted,
			rejection_reason, organization_notes, reviewed_by, created_at, updated_at
		)
		VALUES ($1, 'APP-' || LPAD(nextval('application_number_seq')::text, 6, '0'),
			$2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING application_number
	`
	err = s.db.QueryRowContext(ctx, query,
		uuid.UUID(app.ID),
		uuid.UUID(app.PetID),
		uuid.UUID(app.AdopterID),
		uuid.UUID(app.OrganizationID),
		string(app.Status),
		questionnaire,
		reference,
		app.TermsAccepted,
		app.RejectionReason,
		app.OrganizationNotes,
		app.ReviewedBy,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ApplicationNumber)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ApplicationID) (*models.Application, error) {
	query := selectApplication + ` WHERE id = $1`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

// FindActiveNumber returns the application number of the adopter's active
// application for the given pet, if one exists.
func (s *Postgres) FindActiveNumber(ctx context.Context, adopterID domain.AdopterID, petID domain.PetID) (string, bool, error) {
	query := `
		SELECT application_number
		FROM applications
		WHERE adopter_id = $1 AND pet_id = $2 AND status IN ('pending', 'reviewing', 'approved')
	`
	var number string
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(adopterID), uuid.UUID(petID)).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query active application: %w", err)
	}
	return number, true, nil
}

func (s *Postgres) Execute(ctx context.Context, id domain.ApplicationID, fn func(txCtx context.Context, a *models.Application) error) (*models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := selectApplication + ` WHERE id = $1 FOR UPDATE`
	app, err := scanApplication(tx.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, err
	}

	if err := fn(txcontext.WithTx(ctx, tx), app); err != nil {
		return nil, err
	}

	questionnaire, err := json.Marshal(app.Questionnaire)
	if err != nil {
		return nil, fmt.Errorf("marshal questionnaire: %w", err)
	}
	update := `
		UPDATE applications
		SET status = $2, questionnaire = $3, rejection_reason = $4,
			organization_notes = $5, reviewed_by = $6, updated_at = $7
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(app.ID),
		string(app.Status),
		questionnaire,
		app.RejectionReason,
		app.OrganizationNotes,
		app.ReviewedBy,
		app.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit application update: %w", err)
	}
	return app, nil
}

// HasActiveApplications reports whether the adopter has any application in a
// non-terminal status. Consumed by the adopter deletion gate.
func (s *Postgres) HasActiveApplications(ctx context.Context, adopterID domain.AdopterID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE adopter_id = $1 AND status IN ('pending', 'reviewing', 'approved')
		)
	`
	var active bool
	if err := s.db.QueryRowContext(ctx, query, uuid.UUID(adopterID)).Scan(&active); err != nil {
		return false, fmt.Errorf("query active applications: %w", err)
	}
	return active, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.ApplicationID, fn func(txCtx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1 FOR UPDATE)`,
		uuid.UUID(id),
	).Scan(&exists); err != nil {
		return fmt.Errorf("lock application: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}

	if fn != nil {
		if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, uuid.UUID(id)); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit application delete: %w", err)
	}
	return nil
}

// DeleteByOrganization removes every application belonging to the
// organization, joining the caller's transaction when one is carried in ctx.
func (s *Postgres) DeleteByOrganization(ctx context.Context, orgID domain.OrganizationID) (int, error) {
	execer := dbExecutor(s.db)
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}
	res, err := execer.ExecContext(ctx, `DELETE FROM applications WHERE organization_id = $1`, uuid.UUID(orgID))
	if err != nil {
		return 0, fmt.Errorf("delete organization applications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted applications: %w", err)
	}
	return int(n), nil
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan application count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate application counts: %w", err)
	}
	return counts, nil
}

const selectApplication = `
	SELECT id, application_number, pet_id, adopter_id, organization_id, status,
		questionnaire, reference_contact, terms_accepted,
		rejection_reason, organization_notes, reviewed_by, created_at, updated_at
	FROM applications
`

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app           models.Application
		rawID         uuid.UUID
		petID         uuid.UUID
		adopterID     uuid.UUID
		orgID         uuid.UUID
		status        string
		questionnaire []byte
		reference     []byte
	)
	err := row.Scan(
		&rawID,
		&app.ApplicationNumber,
		&petID,
		&adopterID,
		&orgID,
		&status,
		&questionnaire,
		&reference,
		&app.TermsAccepted,
		&app.RejectionReason,
		&app.OrganizationNotes,
		&app.ReviewedBy,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	if err := json.Unmarshal(questionnaire, &app.Questionnaire); err != nil {
		return nil, fmt.Errorf("unmarshal questionnaire: %w", err)
	}
	if err := json.Unmarshal(reference, &app.Reference); err != nil {
		return nil, fmt.Errorf("unmarshal reference: %w", err)
	}
	app.ID = domain.ApplicationID(rawID)
	app.PetID = domain.PetID(petID)
	app.AdopterID = domain.AdopterID(adopterID)
	app.OrganizationID = domain.OrganizationID(orgID)
	app.Status = models.Status(status)
	return &app, nil
}
