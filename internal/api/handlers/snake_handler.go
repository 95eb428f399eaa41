package handlers

import (
	"fmt"
	"net/http"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/repositories"
)

// SnakeHandler handles snake catalog HTTP requests
type SnakeHandler struct {
	snakeRepo repositories.SnakeRepository
}

// NewSnakeHandler creates a new snake handler
func NewSnakeHandler(snakeRepo repositories.SnakeRepository) *SnakeHandler {
	return &SnakeHandler{
		snakeRepo: snakeRepo,
	}
}

// ListSnakes handles GET /api/snakes
func (h *SnakeHandler) ListSnakes(w http.ResponseWriter, r *http.Request) {
	snakes, err := h.snakeRepo.ListAll(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(snakes),
		"snakes":  snakes,
	})
}

// ListSnakesWithAntivenom handles GET /api/snakes/with-antivenom
func (h *SnakeHandler) ListSnakesWithAntivenom(w http.ResponseWriter, r *http.Request) {
	snakes, err := h.snakeRepo.ListWithAntivenom(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(snakes),
		"snakes":  snakes,
		"message": fmt.Sprintf("Found %d snake species with antivenom available", len(snakes)),
	})
}
