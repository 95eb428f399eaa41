package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
)

// CandidateAssembler turns raw stock rows into route-resolved candidates.
// Rows are grouped by facility so each facility is routed exactly once per
// request, no matter how many antivenom products it stocks.
type CandidateAssembler struct {
	routing providers.RoutingProvider
	now     func() time.Time
}

// NewCandidateAssembler creates a new candidate assembler
func NewCandidateAssembler(routing providers.RoutingProvider) *CandidateAssembler {
	return &CandidateAssembler{
		routing: routing,
		now:     time.Now,
	}
}

// Assemble groups stock rows by facility (first-seen order), drops facilities
// without coordinates or without usable stock, resolves one route per facility
// concurrently, and applies the max-distance filter when set.
func (a *CandidateAssembler) Assemble(
	ctx context.Context,
	records []entities.StockRecord,
	origin providers.Coordinates,
	maxDistanceKm float64,
) []entities.Candidate {
	now := a.now()

	// Index by facility id; -1 marks a facility already rejected.
	index := make(map[int]int)
	groups := []entities.Candidate{}

	for _, record := range records {
		if i, seen := index[record.Facility.ID]; seen {
			if i >= 0 && record.Stock.Usable(now) {
				groups[i].Antivenoms = append(groups[i].Antivenoms, record.Stock)
			}
			continue
		}

		if !record.Facility.HasCoordinates() {
			log.Warn().
				Int("facility_id", record.Facility.ID).
				Str("facility_name", record.Facility.Name).
				Msg("facility has no coordinates, excluding from results")
			index[record.Facility.ID] = -1
			continue
		}

		if !record.Stock.Usable(now) {
			continue
		}

		index[record.Facility.ID] = len(groups)
		groups = append(groups, entities.Candidate{
			Facility:   record.Facility,
			Antivenoms: []entities.StockItem{record.Stock},
		})
	}

	candidates := a.resolveRoutes(ctx, groups, origin)

	if maxDistanceKm <= 0 {
		return candidates
	}

	withinRange := make([]entities.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.DistanceKm() > maxDistanceKm {
			continue
		}
		withinRange = append(withinRange, candidate)
	}
	return withinRange
}

// AssembleFacilities builds stock-less candidates for the nearest-facility
// degradation path. No max-distance filter applies here.
func (a *CandidateAssembler) AssembleFacilities(
	ctx context.Context,
	facilities []entities.Facility,
	origin providers.Coordinates,
) []entities.Candidate {
	candidates := make([]entities.Candidate, 0, len(facilities))
	for _, facility := range facilities {
		if !facility.HasCoordinates() {
			log.Warn().
				Int("facility_id", facility.ID).
				Str("facility_name", facility.Name).
				Msg("facility has no coordinates, excluding from results")
			continue
		}
		candidates = append(candidates, entities.Candidate{
			Facility:   facility,
			Antivenoms: []entities.StockItem{},
		})
	}

	return a.resolveRoutes(ctx, candidates, origin)
}

// resolveRoutes fans out one distance resolution per candidate and joins on
// all of them. Results are re-associated by slice index, never by completion
// order. A panic while resolving one facility only drops that facility.
func (a *CandidateAssembler) resolveRoutes(
	ctx context.Context,
	candidates []entities.Candidate,
	origin providers.Coordinates,
) []entities.Candidate {
	routes := make([]*entities.RouteInfo, len(candidates))

	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Int("facility_id", candidates[i].ID).
						Msg("distance resolution panicked, skipping facility")
				}
			}()

			route := a.routing.RouteWithFallback(ctx, origin, providers.Coordinates{
				Latitude:  *candidates[i].Latitude,
				Longitude: *candidates[i].Longitude,
			})
			routes[i] = &route
		}(i)
	}
	wg.Wait()

	resolved := make([]entities.Candidate, 0, len(candidates))
	for i, candidate := range candidates {
		if routes[i] == nil {
			continue
		}
		candidate.RouteInfo = routes[i]
		resolved = append(resolved, candidate)
	}
	return resolved
}
