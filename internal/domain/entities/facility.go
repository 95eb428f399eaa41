package entities

import (
	"time"
)

// Facility represents a healthcare facility that may stock antivenom
type Facility struct {
	ID               int      `json:"facility_id" db:"facility_id"`
	Name             string   `json:"facility_name" db:"facility_name"`
	FacilityType     string   `json:"facility_type" db:"facility_type"`
	Region           string   `json:"region" db:"region"`
	Province         string   `json:"province" db:"province"`
	CityMunicipality string   `json:"city_municipality" db:"city_municipality"`
	Address          *string  `json:"address" db:"address"`
	Latitude         *float64 `json:"latitude" db:"latitude"`
	Longitude        *float64 `json:"longitude" db:"longitude"`
	ContactNumber    *string  `json:"contact_number" db:"contact_number"`
	Email            *string  `json:"facility_email" db:"facility_email"`
	ImageURL         *string  `json:"image_url,omitempty" db:"image_url"`
}

// HasCoordinates reports whether the facility can be positioned on a map.
// Facilities without coordinates never enter distance resolution.
func (f *Facility) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// StockItem represents one antivenom product's stock entry at a facility
type StockItem struct {
	AntivenomID    int        `json:"antivenom_id" db:"antivenom_id"`
	Name           string     `json:"antivenom_name" db:"antivenom_name"`
	Manufacturer   *string    `json:"manufacturer" db:"manufacturer"`
	Quantity       int        `json:"quantity" db:"quantity"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty" db:"expiration_date"`
	BatchNo        *string    `json:"batch_no,omitempty" db:"batch_no"`
	TargetSnakes   []string   `json:"target_snakes,omitempty" db:"-"`
}

// Usable reports whether the stock entry counts as available inventory:
// positive quantity and not expired as of now.
func (s *StockItem) Usable(now time.Time) bool {
	if s.Quantity <= 0 {
		return false
	}
	if s.ExpirationDate != nil && !s.ExpirationDate.After(now) {
		return false
	}
	return true
}

// StockRecord is one raw facility+stock row returned by the repository.
// It is a read-only snapshot per request.
type StockRecord struct {
	Facility Facility
	Stock    StockItem
}
