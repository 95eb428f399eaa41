package entities

// FinderRequest carries the search criteria for the antivenom finder.
// Exactly one of the identifying fields (snake id, snake common name,
// antivenom type) drives the search; snake identity takes precedence.
type FinderRequest struct {
	SnakeCommonName string  `json:"snake_common_name,omitempty"`
	SnakeID         *int    `json:"snake_id,omitempty"`
	AntivenomType   string  `json:"antivenom_type,omitempty"`
	UserLatitude    float64 `json:"user_latitude"`
	UserLongitude   float64 `json:"user_longitude"`
	MaxDistanceKm   float64 `json:"max_distance_km,omitempty"`
}

// FacilityListRequest carries the criteria for the stock listing endpoint
// (search by antivenom product name or snake id).
type FacilityListRequest struct {
	AntivenomName string  `json:"antivenom_name,omitempty"`
	SnakeID       *int    `json:"snake_id,omitempty"`
	UserLatitude  float64 `json:"user_latitude"`
	UserLongitude float64 `json:"user_longitude"`
	MaxDistanceKm float64 `json:"max_distance_km,omitempty"`
}

// SearchCriteria echoes the effective search parameters back to the caller.
type SearchCriteria struct {
	SnakeID         *int       `json:"snake_id"`
	SnakeCommonName string     `json:"snake_common_name,omitempty"`
	AntivenomType   string     `json:"antivenom_type,omitempty"`
	AntivenomName   string     `json:"antivenom_name,omitempty"`
	UserLocation    [2]float64 `json:"user_location"`
	MaxDistanceKm   float64    `json:"max_distance_km"`
}

// Candidate is a facility paired with its qualifying stock and resolved
// route. The stock list is empty only for nearest-facility fallback results.
type Candidate struct {
	Facility
	Antivenoms []StockItem `json:"antivenoms"`
	RouteInfo  *RouteInfo  `json:"route_info,omitempty"`
}

// DistanceKm returns the sort key for ranking candidates.
func (c *Candidate) DistanceKm() float64 {
	if c.RouteInfo == nil {
		return 0
	}
	return c.RouteInfo.DistanceKm
}

// FinderResponse is the response envelope shared by the finder and the
// facility listing endpoints. Facilities are ordered by ascending distance.
type FinderResponse struct {
	Success               bool           `json:"success"`
	Message               string         `json:"message"`
	SearchCriteria        SearchCriteria `json:"search_criteria"`
	FacilitiesFound       int            `json:"facilities_found"`
	Facilities            []Candidate    `json:"facilities"`
	SearchRadiusKm        float64        `json:"search_radius_km"`
	UserLocation          [2]float64     `json:"user_location"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds"`
}
