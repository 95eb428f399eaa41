package repositories

import (
	"context"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
)

// StockRepository defines the interface for antivenom stock lookups.
// All methods return raw facility+stock join rows; queries already exclude
// zero-quantity and expired stock. Backing-store failures surface as a
// generic internal error and are not retried here.
type StockRepository interface {
	// FindStockBySnakeID returns stock rows for antivenoms targeting the snake
	FindStockBySnakeID(ctx context.Context, snakeID int) ([]entities.StockRecord, error)

	// FindStockByAntivenomType returns stock rows for a type (polyvalent/monovalent)
	FindStockByAntivenomType(ctx context.Context, antivenomType string) ([]entities.StockRecord, error)

	// FindStockByAntivenomName returns stock rows matching a product name
	// substring, case-insensitively, with target-snake lists attached
	FindStockByAntivenomName(ctx context.Context, name string) ([]entities.StockRecord, error)

	// FindAllFacilities returns every facility regardless of stock
	FindAllFacilities(ctx context.Context) ([]entities.Facility, error)
}
