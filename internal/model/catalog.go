package model

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Service is a catalog entry shared by every clinic offering it.
type Service struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
}

type ClinicService struct {
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	Price     *float64  `db:"price" json:"price,omitempty"`
	Currency  string    `db:"currency" json:"currency"`
}

type Accreditation struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	LogoURL     string    `db:"logo_url" json:"logo_url"`
	Description string    `db:"description" json:"description"`
}

type ClinicImage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	URL       string    `db:"url" json:"url"`
	Title     string    `db:"title" json:"title"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
}

type Staff struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name      string    `db:"name" json:"name"`
	Title     string    `db:"title" json:"title"`
	Specialty string    `db:"specialty" json:"specialty"`
	PhotoURL  string    `db:"photo_url" json:"photo_url"`
	Bio       string    `db:"bio" json:"bio"`
}

// ClinicHours is one weekday of a clinic's week. Open and close are
// "HH:MM:SS" strings; both nil with IsClosed false means unspecified.
type ClinicHours struct {
	ClinicID  uuid.UUID `db:"clinic_id" json:"-"`
	Weekday   int       `db:"weekday" json:"weekday"`
	OpenTime  *string   `db:"open_time" json:"open_time"`
	CloseTime *string   `db:"close_time" json:"close_time"`
	IsClosed  bool      `db:"is_closed" json:"is_closed"`
}
