package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/repositories"
	"github.com/venomx/AntivenomFinder/backend/internal/infrastructure/observability"
	"github.com/venomx/AntivenomFinder/backend/pkg/config"
	apperrors "github.com/venomx/AntivenomFinder/backend/pkg/errors"
)

// FinderService runs the antivenom facility search pipeline: strategy
// selection, candidate assembly, the nearest-facility degradation path, and
// ranking. It is stateless and shared across requests.
type FinderService struct {
	stockRepo repositories.StockRepository
	snakeRepo repositories.SnakeRepository
	assembler *CandidateAssembler
	cfg       config.FinderConfig
	metrics   *observability.Metrics
}

// NewFinderService creates a new finder service. metrics may be nil when
// telemetry is disabled.
func NewFinderService(
	stockRepo repositories.StockRepository,
	snakeRepo repositories.SnakeRepository,
	assembler *CandidateAssembler,
	cfg config.FinderConfig,
	metrics *observability.Metrics,
) *FinderService {
	return &FinderService{
		stockRepo: stockRepo,
		snakeRepo: snakeRepo,
		assembler: assembler,
		cfg:       cfg,
		metrics:   metrics,
	}
}

// Find locates facilities stocking antivenom for the requested snake or
// antivenom type. Snake identity takes precedence over type. Identity
// searches with no stock anywhere degrade to the nearest facilities; type
// searches never degrade.
func (s *FinderService) Find(ctx context.Context, req entities.FinderRequest) (*entities.FinderResponse, error) {
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "FinderService.Find")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)

	snakeID := req.SnakeID
	if snakeID == nil && req.SnakeCommonName != "" {
		snake, err := s.snakeRepo.GetByCommonName(ctx, req.SnakeCommonName)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				return nil, apperrors.NewNotFoundError(
					fmt.Sprintf("Snake species '%s' not found in database", req.SnakeCommonName))
			}
			return nil, err
		}
		snakeID = &snake.ID
	}

	identitySearch := snakeID != nil
	antivenomType := strings.ToLower(req.AntivenomType)

	var records []entities.StockRecord
	var err error
	switch {
	case identitySearch:
		logger.Info().Int("snake_id", *snakeID).Msg("finding facilities with antivenom for snake")
		records, err = s.stockRepo.FindStockBySnakeID(ctx, *snakeID)
	case antivenomType != "":
		if antivenomType != "polyvalent" && antivenomType != "monovalent" {
			return nil, apperrors.NewValidationError("antivenom_type must be 'polyvalent' or 'monovalent'")
		}
		logger.Info().Str("antivenom_type", antivenomType).Msg("finding facilities with antivenom type")
		records, err = s.stockRepo.FindStockByAntivenomType(ctx, antivenomType)
	default:
		return nil, apperrors.NewValidationError(
			"Either snake_common_name, snake_id, or antivenom_type must be provided")
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	criteria := entities.SearchCriteria{
		SnakeID:         snakeID,
		SnakeCommonName: req.SnakeCommonName,
		AntivenomType:   req.AntivenomType,
		UserLocation:    [2]float64{req.UserLatitude, req.UserLongitude},
		MaxDistanceKm:   req.MaxDistanceKm,
	}
	origin := providers.Coordinates{Latitude: req.UserLatitude, Longitude: req.UserLongitude}

	if len(records) == 0 {
		if !identitySearch {
			message := fmt.Sprintf("No facilities found with %s antivenom", antivenomType)
			return s.buildResponse(criteria, req.MaxDistanceKm, nil, message, start), nil
		}
		return s.nearestFacilities(ctx, criteria, origin, req.MaxDistanceKm, start), nil
	}

	candidates := s.assembler.Assemble(ctx, records, origin, req.MaxDistanceKm)
	rankCandidates(candidates)

	message := "No facilities found within specified distance"
	if len(candidates) > 0 {
		message = fmt.Sprintf("Found %d facilities with antivenom (nearest: %.1fkm)",
			len(candidates), candidates[0].DistanceKm())
	}

	return s.buildResponse(criteria, req.MaxDistanceKm, candidates, message, start), nil
}

// ListFacilities returns facilities stocking a specific antivenom product,
// searched by product name fragment or snake id. No degradation path exists
// for this listing.
func (s *FinderService) ListFacilities(ctx context.Context, req entities.FacilityListRequest) (*entities.FinderResponse, error) {
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "FinderService.ListFacilities")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)

	var records []entities.StockRecord
	var err error
	switch {
	case req.AntivenomName != "":
		logger.Info().Str("antivenom_name", req.AntivenomName).Msg("listing facilities by antivenom name")
		records, err = s.stockRepo.FindStockByAntivenomName(ctx, req.AntivenomName)
	case req.SnakeID != nil:
		logger.Info().Int("snake_id", *req.SnakeID).Msg("listing facilities by snake id")
		records, err = s.stockRepo.FindStockBySnakeID(ctx, *req.SnakeID)
	default:
		return nil, apperrors.NewValidationError("Either antivenom_name or snake_id must be provided")
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	criteria := entities.SearchCriteria{
		SnakeID:       req.SnakeID,
		AntivenomName: req.AntivenomName,
		UserLocation:  [2]float64{req.UserLatitude, req.UserLongitude},
		MaxDistanceKm: req.MaxDistanceKm,
	}

	if len(records) == 0 {
		return s.buildResponse(criteria, req.MaxDistanceKm, nil,
			"No facilities found matching the criteria", start), nil
	}

	origin := providers.Coordinates{Latitude: req.UserLatitude, Longitude: req.UserLongitude}
	candidates := s.assembler.Assemble(ctx, records, origin, req.MaxDistanceKm)
	rankCandidates(candidates)

	message := "No facilities found within specified distance"
	if len(candidates) > 0 {
		message = fmt.Sprintf("Found %d facilities (nearest: %.1fkm)",
			len(candidates), candidates[0].DistanceKm())
	}

	return s.buildResponse(criteria, req.MaxDistanceKm, candidates, message, start), nil
}

// nearestFacilities is the identity-search degradation path: no stock for
// the snake anywhere, so show the nearest facilities regardless of stock.
// Repository failures here degrade further instead of surfacing.
func (s *FinderService) nearestFacilities(
	ctx context.Context,
	criteria entities.SearchCriteria,
	origin providers.Coordinates,
	maxDistanceKm float64,
	start time.Time,
) *entities.FinderResponse {
	logger := observability.LoggerFromContext(ctx)
	logger.Info().Msg("no facilities with specific antivenom found, fetching nearest facilities as fallback")

	if s.metrics != nil {
		observability.RecordSearchFallback(ctx, s.metrics)
	}

	facilities, err := s.stockRepo.FindAllFacilities(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch facilities for fallback")
		return s.buildResponse(criteria, maxDistanceKm, nil,
			"No facilities found with antivenom for this snake species", start)
	}
	if len(facilities) == 0 {
		return s.buildResponse(criteria, maxDistanceKm, nil,
			"No facilities found in the system", start)
	}

	candidates := s.assembler.AssembleFacilities(ctx, facilities, origin)
	rankCandidates(candidates)
	if len(candidates) > s.cfg.FallbackLimit {
		candidates = candidates[:s.cfg.FallbackLimit]
	}

	message := fmt.Sprintf(
		"No facilities with specific antivenom found. Showing %d nearest facilities. Please contact them for alternative treatment options.",
		len(candidates))

	return s.buildResponse(criteria, maxDistanceKm, candidates, message, start)
}

func (s *FinderService) buildResponse(
	criteria entities.SearchCriteria,
	searchRadiusKm float64,
	candidates []entities.Candidate,
	message string,
	start time.Time,
) *entities.FinderResponse {
	if candidates == nil {
		candidates = []entities.Candidate{}
	}

	return &entities.FinderResponse{
		Success:               true,
		Message:               message,
		SearchCriteria:        criteria,
		FacilitiesFound:       len(candidates),
		Facilities:            candidates,
		SearchRadiusKm:        searchRadiusKm,
		UserLocation:          criteria.UserLocation,
		ProcessingTimeSeconds: roundSeconds(time.Since(start)),
	}
}

// rankCandidates orders by ascending distance. The sort is stable so exact
// ties keep their pre-sort (repository) order.
func rankCandidates(candidates []entities.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm() < candidates[j].DistanceKm()
	})
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
