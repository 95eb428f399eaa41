package handlers

import (
	"net/http"
	"strconv"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
)

// RoutingHandler exposes a diagnostic endpoint for route calculation
type RoutingHandler struct {
	routing providers.RoutingProvider
	baseURL string
}

// NewRoutingHandler creates a new routing handler
func NewRoutingHandler(routing providers.RoutingProvider, baseURL string) *RoutingHandler {
	return &RoutingHandler{
		routing: routing,
		baseURL: baseURL,
	}
}

// TestRoute handles GET /api/antivenom/test-route
func (h *RoutingHandler) TestRoute(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	startLat, err1 := strconv.ParseFloat(query.Get("start_lat"), 64)
	startLon, err2 := strconv.ParseFloat(query.Get("start_lon"), 64)
	endLat, err3 := strconv.ParseFloat(query.Get("end_lat"), 64)
	endLon, err4 := strconv.ParseFloat(query.Get("end_lon"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		respondWithError(w, http.StatusBadRequest,
			"start_lat, start_lon, end_lat, and end_lon must be valid numbers")
		return
	}

	route := h.routing.RouteWithFallback(r.Context(),
		providers.Coordinates{Latitude: startLat, Longitude: startLon},
		providers.Coordinates{Latitude: endLat, Longitude: endLon},
	)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"route_info":    route,
		"osrm_base_url": h.baseURL,
	})
}
