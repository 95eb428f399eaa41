package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/pkg/config"
	apperrors "github.com/venomx/AntivenomFinder/backend/pkg/errors"
)

// AntivenomFinder is the service surface the handler depends on
type AntivenomFinder interface {
	Find(ctx context.Context, req entities.FinderRequest) (*entities.FinderResponse, error)
	ListFacilities(ctx context.Context, req entities.FacilityListRequest) (*entities.FinderResponse, error)
}

// AntivenomHandler handles antivenom search HTTP requests
type AntivenomHandler struct {
	finder AntivenomFinder
	cfg    config.FinderConfig
}

// NewAntivenomHandler creates a new antivenom handler
func NewAntivenomHandler(finder AntivenomFinder, cfg config.FinderConfig) *AntivenomHandler {
	return &AntivenomHandler{
		finder: finder,
		cfg:    cfg,
	}
}

// FindAntivenom handles POST /api/antivenom/finder
func (h *AntivenomHandler) FindAntivenom(w http.ResponseWriter, r *http.Request) {
	var req entities.FinderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SnakeCommonName == "" && req.SnakeID == nil && req.AntivenomType == "" {
		respondWithError(w, http.StatusBadRequest,
			"Either snake_common_name, snake_id, or antivenom_type must be provided")
		return
	}
	if msg, ok := validateSearchArea(req.UserLatitude, req.UserLongitude, req.MaxDistanceKm); !ok {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}
	if req.MaxDistanceKm == 0 {
		req.MaxDistanceKm = h.cfg.DefaultRadiusKm
	}

	resp, err := h.finder.Find(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GetFacilitiesWithAntivenom handles POST /api/antivenom/facilities
func (h *AntivenomHandler) GetFacilitiesWithAntivenom(w http.ResponseWriter, r *http.Request) {
	var req entities.FacilityListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AntivenomName == "" && req.SnakeID == nil {
		respondWithError(w, http.StatusBadRequest, "Either antivenom_name or snake_id must be provided")
		return
	}
	if msg, ok := validateSearchArea(req.UserLatitude, req.UserLongitude, req.MaxDistanceKm); !ok {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}
	if req.MaxDistanceKm == 0 {
		req.MaxDistanceKm = h.cfg.ListDefaultRadiusKm
	}

	resp, err := h.finder.ListFacilities(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func validateSearchArea(lat, lon, maxDistanceKm float64) (string, bool) {
	if lat < -90 || lat > 90 {
		return "user_latitude must be between -90 and 90", false
	}
	if lon < -180 || lon > 180 {
		return "user_longitude must be between -180 and 180", false
	}
	if maxDistanceKm < 0 {
		return "max_distance_km must be greater than 0", false
	}
	return "", true
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.As(err); ok {
		message := appErr.Message
		if appErr.HTTPStatus() == http.StatusInternalServerError {
			message = "internal server error"
		}
		respondWithError(w, appErr.HTTPStatus(), message)
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
