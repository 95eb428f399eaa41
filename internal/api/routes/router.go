package routes

import (
	"net/http"

	"github.com/venomx/AntivenomFinder/backend/internal/api/handlers"
	"github.com/venomx/AntivenomFinder/backend/internal/api/middleware"
	"github.com/venomx/AntivenomFinder/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	antivenomHandler *handlers.AntivenomHandler
	snakeHandler     *handlers.SnakeHandler
	routingHandler   *handlers.RoutingHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	antivenomHandler *handlers.AntivenomHandler,
	snakeHandler *handlers.SnakeHandler,
	routingHandler *handlers.RoutingHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		antivenomHandler: antivenomHandler,
		snakeHandler:     snakeHandler,
		routingHandler:   routingHandler,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Antivenom search endpoints
	r.mux.HandleFunc("POST /api/antivenom/finder", r.antivenomHandler.FindAntivenom)
	r.mux.HandleFunc("POST /api/antivenom/facilities", r.antivenomHandler.GetFacilitiesWithAntivenom)
	r.mux.HandleFunc("GET /api/antivenom/test-route", r.routingHandler.TestRoute)

	// Snake catalog endpoints
	r.mux.HandleFunc("GET /api/snakes", r.snakeHandler.ListSnakes)
	r.mux.HandleFunc("GET /api/snakes/with-antivenom", r.snakeHandler.ListSnakesWithAntivenom)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
