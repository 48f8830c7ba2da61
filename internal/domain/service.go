package domain

import "time"

// Service is a bookable offering. DurationMinutes is the unit used to slice
// working hours into slots and is treated as immutable once slots exist.
type Service struct {
	ID              int64     `json:"id"`
	OrganizationID  int64     `json:"organization_id" validate:"required"`
	Name            string    `json:"name" validate:"required"`
	NameRu          string    `json:"name_ru,omitempty"`
	NameKk          string    `json:"name_kk,omitempty"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
