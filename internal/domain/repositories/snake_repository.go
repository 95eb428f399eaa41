package repositories

import (
	"context"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
)

// SnakeRepository defines the interface for snake species lookups
type SnakeRepository interface {
	// GetByCommonName resolves a snake by its common name (case-insensitive)
	GetByCommonName(ctx context.Context, commonName string) (*entities.Snake, error)

	// ListAll returns all snakes ordered by scientific name
	ListAll(ctx context.Context) ([]entities.Snake, error)

	// ListWithAntivenom returns only snakes that have at least one
	// antivenom product linked, ordered by common name
	ListWithAntivenom(ctx context.Context) ([]entities.Snake, error)
}
