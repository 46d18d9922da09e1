package repository

import (
	"context"
	"errors"
	"fmt"

	"helios/database"
	"helios/domain/entities"

	"github.com/jackc/pgx/v5"
)

const themeColumns = `id, guild_id, owner_id, name, score_statistic, ranks, current, editable, created_at`

// ThemeRepository implements the ThemeRepository interface
type ThemeRepository struct {
	q       Queryable
	guildID int64
}

// NewThemeRepository creates a new theme repository
func NewThemeRepository(db *database.DB, guildID int64) *ThemeRepository {
	return &ThemeRepository{q: db.Pool, guildID: guildID}
}

// NewThemeRepositoryScoped creates a new theme repository with a transaction and guild scope
func NewThemeRepositoryScoped(tx Queryable, guildID int64) *ThemeRepository {
	return &ThemeRepository{q: tx, guildID: guildID}
}

// GetCurrent returns the active theme, or nil
func (r *ThemeRepository) GetCurrent(ctx context.Context) (*entities.Theme, error) {
	query := `SELECT ` + themeColumns + ` FROM themes WHERE guild_id = $1 AND current`

	theme, err := scanTheme(r.q.QueryRow(ctx, query, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current theme for guild %d: %w", r.guildID, err)
	}
	return theme, nil
}

// GetAll returns every theme of the guild
func (r *ThemeRepository) GetAll(ctx context.Context) ([]*entities.Theme, error) {
	query := `SELECT ` + themeColumns + ` FROM themes WHERE guild_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get themes for guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var themes []*entities.Theme
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating themes: %w", err)
	}
	return themes, nil
}

// Create persists a theme and assigns its ID
func (r *ThemeRepository) Create(ctx context.Context, theme *entities.Theme) error {
	query := `
		INSERT INTO themes (guild_id, owner_id, name, score_statistic, ranks, current, editable)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	ranks := theme.Ranks
	if ranks == nil {
		ranks = []entities.ThemeRank{}
	}
	err := r.q.QueryRow(ctx, query,
		r.guildID,
		theme.OwnerID,
		theme.Name,
		theme.ScoreStatistic,
		ranks,
		theme.Current,
		theme.Editable,
	).Scan(&theme.ID, &theme.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create theme %q: %w", theme.Name, err)
	}
	theme.GuildID = r.guildID
	return nil
}

// SetCurrent marks one theme as active and clears the others
func (r *ThemeRepository) SetCurrent(ctx context.Context, themeID int64) error {
	if _, err := r.q.Exec(ctx, `UPDATE themes SET current = FALSE WHERE guild_id = $1 AND current`, r.guildID); err != nil {
		return fmt.Errorf("failed to clear current theme: %w", err)
	}
	tag, err := r.q.Exec(ctx, `UPDATE themes SET current = TRUE WHERE guild_id = $1 AND id = $2`, r.guildID, themeID)
	if err != nil {
		return fmt.Errorf("failed to set current theme %d: %w", themeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("theme %d: %w", themeID, entities.ErrNotFound)
	}
	return nil
}

func scanTheme(row pgx.Row) (*entities.Theme, error) {
	var t entities.Theme
	err := row.Scan(
		&t.ID,
		&t.GuildID,
		&t.OwnerID,
		&t.Name,
		&t.ScoreStatistic,
		&t.Ranks,
		&t.Current,
		&t.Editable,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
