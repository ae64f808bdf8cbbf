package domain

import "time"

const (
	DefaultTimezone = "UTC"
	DefaultLocale   = "en"
)

// Clinic is the tenant root. Every other record carries its ID.
type Clinic struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
