package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
	"github.com/venomx/AntivenomFinder/backend/internal/infrastructure/observability"
)

const (
	defaultBaseURL     = "https://router.project-osrm.org"
	defaultHTTPTimeout = 30 * time.Second

	earthRadiusKm = 6371.0
	// Assumed average driving speed for fallback duration estimates.
	fallbackSpeedKmh = 50.0

	fallbackNote = "Estimated based on straight-line distance (routing service unavailable)"
)

// OSRMProvider resolves driving routes against an OSRM instance. Any
// failure on the live path is absorbed by a straight-line estimate, so
// callers of RouteWithFallback never observe an error. The provider is
// stateless and safe for concurrent use.
type OSRMProvider struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
}

// NewOSRMProvider creates a routing provider for the given OSRM base URL.
// A nil httpClient gets the default 30s-timeout client; metrics may be nil
// when telemetry is disabled.
func NewOSRMProvider(baseURL string, httpClient *http.Client, metrics *observability.Metrics) providers.RoutingProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "osrm",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OSRMProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		breaker:    breaker,
		metrics:    metrics,
	}
}

// Route queries OSRM for the shortest driving route between two points.
// Timeouts, non-2xx responses, and "no route" answers all fail the same way.
func (p *OSRMProvider) Route(ctx context.Context, from, to providers.Coordinates) (entities.RouteInfo, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.doRouteRequest(ctx, from, to)
	})
	if err != nil {
		return entities.RouteInfo{}, err
	}
	return result.(entities.RouteInfo), nil
}

// RouteWithFallback resolves a route and silently degrades to a haversine
// estimate with an assumed average speed when the live service fails.
func (p *OSRMProvider) RouteWithFallback(ctx context.Context, from, to providers.Coordinates) entities.RouteInfo {
	route, err := p.Route(ctx, from, to)
	if err == nil {
		return route
	}

	log.Debug().Err(err).Msg("routing service unavailable, using straight-line estimate")
	if p.metrics != nil {
		observability.RecordRoutingFallback(ctx, p.metrics)
	}

	distanceKm := haversineKm(from, to)
	durationHours := distanceKm / fallbackSpeedKmh
	durationSeconds := durationHours * 3600

	return entities.RouteInfo{
		Success:           true,
		DistanceMeters:    distanceKm * 1000,
		DistanceKm:        round2(distanceKm),
		DurationSeconds:   durationSeconds,
		DurationMinutes:   round1(durationSeconds / 60),
		DurationHours:     round2(durationHours),
		FormattedDuration: formatDuration(durationSeconds),
		Fallback:          true,
		Note:              fallbackNote,
	}
}

func (p *OSRMProvider) doRouteRequest(ctx context.Context, from, to providers.Coordinates) (entities.RouteInfo, error) {
	// OSRM expects lon,lat pairs.
	reqURL := fmt.Sprintf(
		"%s/route/v1/driving/%f,%f;%f,%f?overview=false&alternatives=false&steps=false",
		p.baseURL,
		from.Longitude, from.Latitude,
		to.Longitude, to.Latitude,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return entities.RouteInfo{}, fmt.Errorf("failed to build route request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return entities.RouteInfo{}, fmt.Errorf("route request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entities.RouteInfo{}, fmt.Errorf("route request returned status %d", resp.StatusCode)
	}

	var payload osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return entities.RouteInfo{}, fmt.Errorf("failed to decode route response: %w", err)
	}

	if payload.Code != "Ok" {
		if payload.Message != "" {
			return entities.RouteInfo{}, fmt.Errorf("route request failed: %s - %s", payload.Code, payload.Message)
		}
		return entities.RouteInfo{}, fmt.Errorf("route request failed: %s", payload.Code)
	}
	if len(payload.Routes) == 0 {
		return entities.RouteInfo{}, fmt.Errorf("no routes found")
	}

	route := payload.Routes[0]
	return entities.RouteInfo{
		Success:           true,
		DistanceMeters:    route.Distance,
		DistanceKm:        round2(route.Distance / 1000),
		DurationSeconds:   route.Duration,
		DurationMinutes:   round1(route.Duration / 60),
		DurationHours:     round2(route.Duration / 3600),
		FormattedDuration: formatDuration(route.Duration),
	}, nil
}

// haversineKm computes the great-circle distance over a spherical earth.
func haversineKm(from, to providers.Coordinates) float64 {
	lat1 := toRadians(from.Latitude)
	lat2 := toRadians(to.Latitude)
	deltaLat := toRadians(to.Latitude - from.Latitude)
	deltaLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func formatDuration(durationSeconds float64) string {
	seconds := int(durationSeconds)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		minutes := seconds / 60
		rest := seconds % 60
		if rest > 0 {
			return fmt.Sprintf("%dm %ds", minutes, rest)
		}
		return fmt.Sprintf("%dm", minutes)
	default:
		hours := seconds / 3600
		minutes := (seconds % 3600) / 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}
