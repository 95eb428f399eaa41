package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/repositories"
	apperrors "github.com/venomx/AntivenomFinder/backend/pkg/errors"
)

// SnakeAdapter implements the SnakeRepository interface on PostgreSQL
type SnakeAdapter struct {
	db *sqlx.DB
}

var _ repositories.SnakeRepository = (*SnakeAdapter)(nil)

// NewSnakeAdapter creates a new snake adapter
func NewSnakeAdapter(db *sqlx.DB) *SnakeAdapter {
	return &SnakeAdapter{db: db}
}

const snakeColumns = `
	snake_id, scientific_name, common_name, fang_type,
	description, danger_level, image_url
`

// GetByCommonName resolves a snake by its common name (case-insensitive)
func (a *SnakeAdapter) GetByCommonName(ctx context.Context, commonName string) (*entities.Snake, error) {
	query := `
		SELECT ` + snakeColumns + `
		FROM snakes
		WHERE LOWER(common_name) = LOWER($1)
		LIMIT 1
	`

	var snake entities.Snake
	err := a.db.GetContext(ctx, &snake, query, commonName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("snake with common name %q not found", commonName))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get snake by common name", err)
	}

	return &snake, nil
}

// ListAll returns all snakes ordered by scientific name
func (a *SnakeAdapter) ListAll(ctx context.Context) ([]entities.Snake, error) {
	query := `
		SELECT ` + snakeColumns + `
		FROM snakes
		ORDER BY scientific_name
	`

	snakes := []entities.Snake{}
	if err := a.db.SelectContext(ctx, &snakes, query); err != nil {
		return nil, apperrors.NewInternalError("failed to list snakes", err)
	}

	return snakes, nil
}

// ListWithAntivenom returns only snakes with at least one linked antivenom
func (a *SnakeAdapter) ListWithAntivenom(ctx context.Context) ([]entities.Snake, error) {
	query := `
		SELECT DISTINCT s.snake_id, s.scientific_name, s.common_name, s.fang_type,
			s.description, s.danger_level, s.image_url
		FROM snakes s
		JOIN antivenom_snake_targets ast ON ast.snake_id = s.snake_id
		ORDER BY s.common_name
	`

	snakes := []entities.Snake{}
	if err := a.db.SelectContext(ctx, &snakes, query); err != nil {
		return nil, apperrors.NewInternalError("failed to list snakes with antivenom", err)
	}

	return snakes, nil
}
