package domain

import "time"

type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
	// AutoConfirm makes new appointments start as confirmed instead of pending.
	AutoConfirm bool      `json:"auto_confirm"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Services []Service `json:"services,omitempty"`
}
