package repository

import (
	"context"
	"fmt"
	"time"

	"helios/database"
	"helios/domain/entities"
)

// EffectRepository implements the EffectRepository interface. Effects are
// reloaded for every guild at startup so the repository is not guild scoped.
type EffectRepository struct {
	q Queryable
}

// NewEffectRepository creates a new effect repository
func NewEffectRepository(db *database.DB) *EffectRepository {
	return &EffectRepository{q: db.Pool}
}

// NewEffectRepositoryWithTx creates a new effect repository with a transaction
func NewEffectRepositoryWithTx(tx Queryable) *EffectRepository {
	return &EffectRepository{q: tx}
}

// Create persists an effect and assigns its ID
func (r *EffectRepository) Create(ctx context.Context, effect *entities.Effect) error {
	query := `
		INSERT INTO effects (guild_id, kind, target_type, target_id, source_id, duration_seconds, applied_at, extras)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	seconds := max(int64(effect.Duration.Round(time.Second)/time.Second), 1)
	err := r.q.QueryRow(ctx, query,
		effect.GuildID,
		effect.Kind,
		effect.TargetType,
		effect.TargetID,
		effect.SourceID,
		seconds,
		effect.AppliedAt,
		effect.Extras,
	).Scan(&effect.ID)
	if err != nil {
		return fmt.Errorf("failed to create %s effect on %d: %w", effect.Kind, effect.TargetID, err)
	}
	return nil
}

// Delete removes an effect. Deleting a missing effect is not an error.
func (r *EffectRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM effects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete effect %d: %w", id, err)
	}
	return nil
}

// GetAll returns every persisted effect in application order
func (r *EffectRepository) GetAll(ctx context.Context) ([]*entities.Effect, error) {
	query := `
		SELECT ` + effectColumns + `
		FROM effects
		ORDER BY applied_at, id`
	return r.list(ctx, query)
}

// SavePending records a lift that waits for its target. The row keeps the
// effect's id so repeated saves collapse into one.
func (r *EffectRepository) SavePending(ctx context.Context, effect *entities.Effect) error {
	query := `
		INSERT INTO effect_pending (effect_id, guild_id, kind, target_type, target_id, source_id, duration_seconds, applied_at, extras)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (effect_id) DO NOTHING`

	_, err := r.q.Exec(ctx, query,
		effect.ID,
		effect.GuildID,
		effect.Kind,
		effect.TargetType,
		effect.TargetID,
		effect.SourceID,
		max(int64(effect.Duration.Round(time.Second)/time.Second), 1),
		effect.AppliedAt,
		effect.Extras,
	)
	if err != nil {
		return fmt.Errorf("failed to save pending lift of effect %d: %w", effect.ID, err)
	}
	return nil
}

// DeletePending forgets a recorded lift. Deleting a missing row is not an error.
func (r *EffectRepository) DeletePending(ctx context.Context, effectID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM effect_pending WHERE effect_id = $1`, effectID); err != nil {
		return fmt.Errorf("failed to delete pending lift of effect %d: %w", effectID, err)
	}
	return nil
}

// GetPending returns every recorded lift in application order
func (r *EffectRepository) GetPending(ctx context.Context) ([]*entities.Effect, error) {
	query := `
		SELECT effect_id, guild_id, kind, target_type, target_id, source_id, duration_seconds, applied_at, extras
		FROM effect_pending
		ORDER BY applied_at, effect_id`
	return r.list(ctx, query)
}

const effectColumns = `id, guild_id, kind, target_type, target_id, source_id, duration_seconds, applied_at, extras`

func (r *EffectRepository) list(ctx context.Context, query string) ([]*entities.Effect, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get effects: %w", err)
	}
	defer rows.Close()

	var effects []*entities.Effect
	for rows.Next() {
		var e entities.Effect
		var seconds int64
		err := rows.Scan(
			&e.ID,
			&e.GuildID,
			&e.Kind,
			&e.TargetType,
			&e.TargetID,
			&e.SourceID,
			&seconds,
			&e.AppliedAt,
			&e.Extras,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan effect: %w", err)
		}
		e.Duration = time.Duration(seconds) * time.Second
		effects = append(effects, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating effects: %w", err)
	}
	return effects, nil
}
