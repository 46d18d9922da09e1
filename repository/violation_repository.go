package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

const violationColumns = `id, guild_id, user_id, victim_id, kind, cost, description, due_date, state, created_on`

// ViolationRepository implements the ViolationRepository interface
type ViolationRepository struct {
	q       Queryable
	guildID int64
}

// NewViolationRepository creates a new violation repository
func NewViolationRepository(db *database.DB, guildID int64) *ViolationRepository {
	return &ViolationRepository{q: db.Pool, guildID: guildID}
}

// NewViolationRepositoryScoped creates a new violation repository with a transaction and guild scope
func NewViolationRepositoryScoped(tx Queryable, guildID int64) *ViolationRepository {
	return &ViolationRepository{q: tx, guildID: guildID}
}

// Create persists a new violation and assigns its ID
func (r *ViolationRepository) Create(ctx context.Context, violation *entities.Violation) error {
	query := `
		INSERT INTO violations (guild_id, user_id, victim_id, kind, cost, description, due_date, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_on`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		violation.UserID,
		violation.VictimID,
		violation.Kind,
		violation.Cost,
		violation.Description,
		violation.DueDate,
		violation.State,
	).Scan(&violation.ID, &violation.CreatedOn)
	if err != nil {
		return fmt.Errorf("failed to create violation for %d: %w", violation.UserID, err)
	}
	violation.GuildID = r.guildID
	return nil
}

// GetByID retrieves a violation, returning nil when it does not exist
func (r *ViolationRepository) GetByID(ctx context.Context, id int64) (*entities.Violation, error) {
	query := `SELECT ` + violationColumns + ` FROM violations WHERE guild_id = $1 AND id = $2`

	violation, err := scanViolation(r.q.QueryRow(ctx, query, r.guildID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get violation %d: %w", id, err)
	}
	return violation, nil
}

// GetOpen returns every violation that is not paid, oldest first
func (r *ViolationRepository) GetOpen(ctx context.Context) ([]*entities.Violation, error) {
	query := `SELECT ` + violationColumns + `
		FROM violations
		WHERE guild_id = $1 AND state <> $2
		ORDER BY due_date, id`
	return r.list(ctx, query, r.guildID, entities.ViolationPaid)
}

// GetByUser returns the violations recorded against a member
func (r *ViolationRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Violation, error) {
	query := `SELECT ` + violationColumns + `
		FROM violations
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY created_on DESC, id DESC`
	return r.list(ctx, query, r.guildID, userID)
}

// UpdateState persists a state transition if the row still holds from
func (r *ViolationRepository) UpdateState(ctx context.Context, id int64, from, to entities.ViolationState) error {
	query := `
		UPDATE violations
		SET state = $3, updated_at = NOW()
		WHERE guild_id = $1 AND id = $2 AND state = $4`

	tag, err := r.q.Exec(ctx, query, r.guildID, id, to, from)
	if err != nil {
		return fmt.Errorf("failed to update violation %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("violation %d is not %s: %w", id, from, entities.ErrInvalidState)
	}
	return nil
}

func (r *ViolationRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Violation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	var violations []*entities.Violation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating violations: %w", err)
	}
	return violations, nil
}

func scanViolation(row pgx.Row) (*entities.Violation, error) {
	var v entities.Violation
	err := row.Scan(
		&v.ID,
		&v.GuildID,
		&v.UserID,
		&v.VictimID,
		&v.Kind,
		&v.Cost,
		&v.Description,
		&v.DueDate,
		&v.State,
		&v.CreatedOn,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
