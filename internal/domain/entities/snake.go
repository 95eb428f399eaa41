package entities

// Snake represents a snake species known to the system
type Snake struct {
	ID             int     `json:"snake_id" db:"snake_id"`
	ScientificName string  `json:"scientific_name" db:"scientific_name"`
	CommonName     *string `json:"common_name" db:"common_name"`
	FangType       *string `json:"fang_type" db:"fang_type"`
	Description    *string `json:"description" db:"description"`
	DangerLevel    *string `json:"danger_level" db:"danger_level"`
	ImageURL       *string `json:"image_url" db:"image_url"`
}
