package providers

import (
	"context"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
)

// RoutingProvider defines the interface for travel distance resolution
type RoutingProvider interface {
	// Route returns the driving route between two points using the live
	// routing service. It fails on timeout, transport errors, or when the
	// service reports no route.
	Route(ctx context.Context, from, to Coordinates) (entities.RouteInfo, error)

	// RouteWithFallback never fails: when Route errors for any reason it
	// returns a straight-line estimate with the Fallback flag set.
	RouteWithFallback(ctx context.Context, from, to Coordinates) entities.RouteInfo
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64
	Longitude float64
}
