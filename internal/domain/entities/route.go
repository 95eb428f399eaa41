package entities

// RouteInfo describes the travel distance and duration between the caller
// and a facility. When Fallback is set the values are straight-line
// estimates rather than routed driving figures.
type RouteInfo struct {
	Success           bool    `json:"success"`
	DistanceMeters    float64 `json:"distance_meters"`
	DistanceKm        float64 `json:"distance_km"`
	DurationSeconds   float64 `json:"duration_seconds"`
	DurationMinutes   float64 `json:"duration_minutes"`
	DurationHours     float64 `json:"duration_hours"`
	FormattedDuration string  `json:"formatted_duration,omitempty"`
	Fallback          bool    `json:"fallback,omitempty"`
	Note              string  `json:"note,omitempty"`
}
