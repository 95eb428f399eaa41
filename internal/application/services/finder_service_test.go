package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
	"github.com/venomx/AntivenomFinder/backend/pkg/config"
	apperrors "github.com/venomx/AntivenomFinder/backend/pkg/errors"
)

type fakeStockRepo struct {
	bySnake map[int][]entities.StockRecord
	byType  map[string][]entities.StockRecord
	byName  map[string][]entities.StockRecord
	all     []entities.Facility

	snakeErr error
	typeErr  error
	allErr   error

	allCalls int
}

func (f *fakeStockRepo) FindStockBySnakeID(ctx context.Context, snakeID int) ([]entities.StockRecord, error) {
	if f.snakeErr != nil {
		return nil, f.snakeErr
	}
	return f.bySnake[snakeID], nil
}

func (f *fakeStockRepo) FindStockByAntivenomType(ctx context.Context, antivenomType string) ([]entities.StockRecord, error) {
	if f.typeErr != nil {
		return nil, f.typeErr
	}
	return f.byType[antivenomType], nil
}

func (f *fakeStockRepo) FindStockByAntivenomName(ctx context.Context, name string) ([]entities.StockRecord, error) {
	return f.byName[name], nil
}

func (f *fakeStockRepo) FindAllFacilities(ctx context.Context) ([]entities.Facility, error) {
	f.allCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.all, nil
}

type fakeSnakeRepo struct {
	byName map[string]*entities.Snake
}

func (f *fakeSnakeRepo) GetByCommonName(ctx context.Context, commonName string) (*entities.Snake, error) {
	if snake, ok := f.byName[commonName]; ok {
		return snake, nil
	}
	return nil, apperrors.NewNotFoundError("snake not found")
}

func (f *fakeSnakeRepo) ListAll(ctx context.Context) ([]entities.Snake, error) {
	return nil, nil
}

func (f *fakeSnakeRepo) ListWithAntivenom(ctx context.Context) ([]entities.Snake, error) {
	return nil, nil
}

// fakeRouting resolves distances by destination latitude so tests can pin
// each facility's distance deterministically.
type fakeRouting struct {
	mu          sync.Mutex
	calls       int
	distances   map[float64]float64
	fallbackFor map[float64]bool
	panicFor    map[float64]bool
}

func (f *fakeRouting) Route(ctx context.Context, from, to providers.Coordinates) (entities.RouteInfo, error) {
	return f.RouteWithFallback(ctx, from, to), nil
}

func (f *fakeRouting) RouteWithFallback(ctx context.Context, from, to providers.Coordinates) entities.RouteInfo {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.panicFor[to.Latitude] {
		panic("resolver blew up")
	}

	km := f.distances[to.Latitude]
	return entities.RouteInfo{
		Success:         true,
		DistanceKm:      km,
		DistanceMeters:  km * 1000,
		DurationSeconds: km / 50.0 * 3600,
		Fallback:        f.fallbackFor[to.Latitude],
	}
}

func (f *fakeRouting) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testFacility(id int, name string, lat, lon float64) entities.Facility {
	return entities.Facility{
		ID:               id,
		Name:             name,
		FacilityType:     "hospital",
		Region:           "Region V",
		Province:         "Camarines Sur",
		CityMunicipality: "Naga City",
		Latitude:         &lat,
		Longitude:        &lon,
	}
}

func testStock(antivenomID int, name string, quantity int) entities.StockItem {
	return entities.StockItem{
		AntivenomID: antivenomID,
		Name:        name,
		Quantity:    quantity,
	}
}

func finderConfig() config.FinderConfig {
	return config.FinderConfig{
		DefaultRadiusKm:     100,
		ListDefaultRadiusKm: 200,
		FallbackLimit:       5,
	}
}

func newTestFinder(stockRepo *fakeStockRepo, snakeRepo *fakeSnakeRepo, routing *fakeRouting) *FinderService {
	return NewFinderService(stockRepo, snakeRepo, NewCandidateAssembler(routing), finderConfig(), nil)
}

func intPtr(v int) *int { return &v }

func TestFind_BySnakeID_SortedByDistance(t *testing.T) {
	facilityX := testFacility(1, "Facility X", 10.0, 120.0)
	facilityY := testFacility(2, "Facility Y", 20.0, 120.0)

	stockRepo := &fakeStockRepo{
		bySnake: map[int][]entities.StockRecord{
			7: {
				// Y first in repository order; ranking must put X first.
				{Facility: facilityY, Stock: testStock(11, "Polyvalent Antivenom", 4)},
				{Facility: facilityX, Stock: testStock(10, "Cobra Antivenin", 8)},
			},
		},
	}
	routing := &fakeRouting{distances: map[float64]float64{10.0: 12.0, 20.0: 30.0}}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(7),
		UserLatitude: 9.0, UserLongitude: 120.0,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.FacilitiesFound)
	require.Len(t, resp.Facilities, 2)
	assert.Equal(t, "Facility X", resp.Facilities[0].Name)
	assert.Equal(t, "Facility Y", resp.Facilities[1].Name)
	assert.Equal(t, "Found 2 facilities with antivenom (nearest: 12.0km)", resp.Message)
	assert.Equal(t, resp.FacilitiesFound, len(resp.Facilities))
	assert.LessOrEqual(t, resp.Facilities[0].DistanceKm(), resp.Facilities[1].DistanceKm())
	assert.Equal(t, intPtr(7), resp.SearchCriteria.SnakeID)
}

func TestFind_GroupsStockByFacility(t *testing.T) {
	facility := testFacility(1, "Bicol Medical Center", 13.6, 123.2)

	stockRepo := &fakeStockRepo{
		bySnake: map[int][]entities.StockRecord{
			7: {
				{Facility: facility, Stock: testStock(10, "Cobra Antivenin", 8)},
				{Facility: facility, Stock: testStock(11, "Polyvalent Antivenom", 4)},
			},
		},
	}
	routing := &fakeRouting{distances: map[float64]float64{13.6: 25.0}}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(7),
		UserLatitude: 13.0, UserLongitude: 123.0,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 1)
	assert.Len(t, resp.Facilities[0].Antivenoms, 2)
	// One route resolution per facility, not per stock row.
	assert.Equal(t, 1, routing.callCount())
}

func TestFind_BySnakeCommonName(t *testing.T) {
	facility := testFacility(1, "Bicol Medical Center", 13.6, 123.2)
	stockRepo := &fakeStockRepo{
		bySnake: map[int][]entities.StockRecord{
			4: {{Facility: facility, Stock: testStock(10, "Cobra Antivenin", 8)}},
		},
	}
	snakeRepo := &fakeSnakeRepo{
		byName: map[string]*entities.Snake{
			"Philippine Cobra": {ID: 4, ScientificName: "Naja philippinensis"},
		},
	}
	routing := &fakeRouting{distances: map[float64]float64{13.6: 5.0}}
	service := newTestFinder(stockRepo, snakeRepo, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeCommonName: "Philippine Cobra",
		UserLatitude:    13.0, UserLongitude: 123.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.FacilitiesFound)
	require.NotNil(t, resp.SearchCriteria.SnakeID)
	assert.Equal(t, 4, *resp.SearchCriteria.SnakeID)
	assert.Equal(t, "Philippine Cobra", resp.SearchCriteria.SnakeCommonName)
}

func TestFind_SnakeCommonNameNotFound(t *testing.T) {
	service := newTestFinder(&fakeStockRepo{}, &fakeSnakeRepo{}, &fakeRouting{})

	_, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeCommonName: "Unknown Serpent",
		UserLatitude:    13.0, UserLongitude: 123.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "Unknown Serpent")
}

func TestFind_ByType_NoMatches_NoFallback(t *testing.T) {
	stockRepo := &fakeStockRepo{
		all: []entities.Facility{testFacility(1, "Some Hospital", 13.6, 123.2)},
	}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, &fakeRouting{})

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		AntivenomType: "monovalent",
		UserLatitude:  13.0, UserLongitude: 123.0,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.FacilitiesFound)
	assert.Empty(t, resp.Facilities)
	assert.Equal(t, "No facilities found with monovalent antivenom", resp.Message)
	// Type searches never degrade to nearest facilities.
	assert.Equal(t, 0, stockRepo.allCalls)
}

func TestFind_InvalidAntivenomType(t *testing.T) {
	service := newTestFinder(&fakeStockRepo{}, &fakeSnakeRepo{}, &fakeRouting{})

	_, err := service.Find(context.Background(), entities.FinderRequest{
		AntivenomType: "trivalent",
		UserLatitude:  13.0, UserLongitude: 123.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFind_NoCriteria(t *testing.T) {
	service := newTestFinder(&fakeStockRepo{}, &fakeSnakeRepo{}, &fakeRouting{})

	_, err := service.Find(context.Background(), entities.FinderRequest{
		UserLatitude: 13.0, UserLongitude: 123.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFind_IdentitySearch_FallbackToNearestFive(t *testing.T) {
	all := []entities.Facility{}
	distances := map[float64]float64{}
	for i := 1; i <= 7; i++ {
		lat := float64(i)
		all = append(all, testFacility(i, "Hospital", lat, 120.0))
		// Facility 7 is nearest, facility 1 farthest.
		distances[lat] = float64(80 - i*10)
	}

	stockRepo := &fakeStockRepo{all: all}
	routing := &fakeRouting{distances: distances}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(9),
		UserLatitude: 0.0, UserLongitude: 120.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.FacilitiesFound)
	require.Len(t, resp.Facilities, 5)
	assert.Contains(t, resp.Message, "nearest")
	assert.Contains(t, resp.Message, "No facilities with specific antivenom found")
	for i, candidate := range resp.Facilities {
		assert.Empty(t, candidate.Antivenoms)
		if i > 0 {
			assert.GreaterOrEqual(t, candidate.DistanceKm(), resp.Facilities[i-1].DistanceKm())
		}
	}
	// Nearest facility is id 7 (10km away).
	assert.Equal(t, 7, resp.Facilities[0].ID)
}

func TestFind_FallbackRepositoryError_DegradesFurther(t *testing.T) {
	stockRepo := &fakeStockRepo{
		allErr: apperrors.NewInternalError("db down", assert.AnError),
	}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, &fakeRouting{})

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(9),
		UserLatitude: 13.0, UserLongitude: 123.0,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.FacilitiesFound)
	assert.Equal(t, "No facilities found with antivenom for this snake species", resp.Message)
}

func TestFind_FallbackNoFacilitiesInSystem(t *testing.T) {
	service := newTestFinder(&fakeStockRepo{}, &fakeSnakeRepo{}, &fakeRouting{})

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(9),
		UserLatitude: 13.0, UserLongitude: 123.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.FacilitiesFound)
	assert.Equal(t, "No facilities found in the system", resp.Message)
}

func TestFind_MaxDistanceFiltersAll_NoFallback(t *testing.T) {
	facility := testFacility(1, "Far Hospital", 15.0, 120.0)
	stockRepo := &fakeStockRepo{
		bySnake: map[int][]entities.StockRecord{
			7: {{Facility: facility, Stock: testStock(10, "Cobra Antivenin", 8)}},
		},
		all: []entities.Facility{facility},
	}
	routing := &fakeRouting{distances: map[float64]float64{15.0: 15.0}}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:       intPtr(7),
		UserLatitude:  13.0,
		UserLongitude: 120.0,
		MaxDistanceKm: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.FacilitiesFound)
	assert.Equal(t, "No facilities found within specified distance", resp.Message)
	// Matching stock existed, so the nearest-facility degradation must not run.
	assert.Equal(t, 0, stockRepo.allCalls)
}

func TestFind_ExpiredOnlyFacilityExcluded(t *testing.T) {
	expired := time.Now().Add(-24 * time.Hour)
	valid := time.Now().Add(90 * 24 * time.Hour)

	expiredStock := testStock(10, "Cobra Antivenin", 8)
	expiredStock.ExpirationDate = &expired
	validStock := testStock(11, "Polyvalent Antivenom", 3)
	validStock.ExpirationDate = &valid

	stockRepo := &fakeStockRepo{
		bySnake: map[int][]entities.StockRecord{
			7: {
				{Facility: testFacility(1, "Expired Only", 10.0, 120.0), Stock: expiredStock},
				{Facility: testFacility(2, "Valid Stock", 20.0, 120.0), Stock: validStock},
			},
		},
	}
	routing := &fakeRouting{distances: map[float64]float64{10.0: 5.0, 20.0: 25.0}}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(7),
		UserLatitude: 13.0, UserLongitude: 120.0,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 1)
	assert.Equal(t, "Valid Stock", resp.Facilities[0].Name)
}

func TestFind_FacilityWithoutCoordinatesExcluded(t *testing.T) {
	noCoords := entities.Facility{ID: 1, Name: "No Coordinates", FacilityType: "hospital"}

	stockRepo := &fakeStockRepo{
		bySnake: map[int][]entities.StockRecord{
			7: {
				{Facility: noCoords, Stock: testStock(10, "Cobra Antivenin", 8)},
				{Facility: testFacility(2, "Mapped Hospital", 20.0, 120.0), Stock: testStock(11, "Polyvalent Antivenom", 3)},
			},
		},
	}
	routing := &fakeRouting{distances: map[float64]float64{20.0: 25.0}}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(7),
		UserLatitude: 13.0, UserLongitude: 120.0,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 1)
	assert.Equal(t, "Mapped Hospital", resp.Facilities[0].Name)
}

func TestFind_RoutingFallbackCandidateStillIncluded(t *testing.T) {
	stockRepo := &fakeStockRepo{
		bySnake: map[int][]entities.StockRecord{
			7: {
				{Facility: testFacility(1, "Live Routed", 10.0, 120.0), Stock: testStock(10, "Cobra Antivenin", 8)},
				{Facility: testFacility(2, "Estimated", 20.0, 120.0), Stock: testStock(11, "Polyvalent Antivenom", 3)},
			},
		},
	}
	routing := &fakeRouting{
		distances:   map[float64]float64{10.0: 12.0, 20.0: 30.0},
		fallbackFor: map[float64]bool{20.0: true},
	}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(7),
		UserLatitude: 13.0, UserLongitude: 120.0,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 2)
	estimated := resp.Facilities[1]
	assert.Equal(t, "Estimated", estimated.Name)
	require.NotNil(t, estimated.RouteInfo)
	assert.True(t, estimated.RouteInfo.Fallback)
}

func TestFind_PrimarySearchErrorSurfaces(t *testing.T) {
	stockRepo := &fakeStockRepo{
		snakeErr: apperrors.NewInternalError("db down", assert.AnError),
	}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, &fakeRouting{})

	_, err := service.Find(context.Background(), entities.FinderRequest{
		SnakeID:      intPtr(7),
		UserLatitude: 13.0, UserLongitude: 123.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestListFacilities_ByName(t *testing.T) {
	facility := testFacility(1, "Bicol Medical Center", 13.6, 123.2)
	stock := testStock(10, "Purified Cobra Antivenin", 8)
	stock.TargetSnakes = []string{"Naja philippinensis"}

	stockRepo := &fakeStockRepo{
		byName: map[string][]entities.StockRecord{
			"cobra": {{Facility: facility, Stock: stock}},
		},
	}
	routing := &fakeRouting{distances: map[float64]float64{13.6: 8.0}}
	service := newTestFinder(stockRepo, &fakeSnakeRepo{}, routing)

	resp, err := service.ListFacilities(context.Background(), entities.FacilityListRequest{
		AntivenomName: "cobra",
		UserLatitude:  13.0, UserLongitude: 123.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.FacilitiesFound)
	assert.Equal(t, "Found 1 facilities (nearest: 8.0km)", resp.Message)
	require.Len(t, resp.Facilities, 1)
	assert.Equal(t, []string{"Naja philippinensis"}, resp.Facilities[0].Antivenoms[0].TargetSnakes)
}

func TestListFacilities_NoMatches(t *testing.T) {
	service := newTestFinder(&fakeStockRepo{}, &fakeSnakeRepo{}, &fakeRouting{})

	resp, err := service.ListFacilities(context.Background(), entities.FacilityListRequest{
		AntivenomName: "nonexistent",
		UserLatitude:  13.0, UserLongitude: 123.0,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.FacilitiesFound)
	assert.Equal(t, "No facilities found matching the criteria", resp.Message)
}

func TestListFacilities_NoCriteria(t *testing.T) {
	service := newTestFinder(&fakeStockRepo{}, &fakeSnakeRepo{}, &fakeRouting{})

	_, err := service.ListFacilities(context.Background(), entities.FacilityListRequest{
		UserLatitude: 13.0, UserLongitude: 123.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
