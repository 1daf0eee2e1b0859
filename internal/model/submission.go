package model

import (
	"github.com/google/uuid"
)

type ServiceItem struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Currency    string   `json:"currency" validate:"required"`
}

type ImageItem struct {
	URL   string `json:"url" validate:"required,url"`
	Title string `json:"title,omitempty"`
}

type DoctorItem struct {
	Name      string `json:"name" validate:"required"`
	Title     string `json:"title,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	Photo     string `json:"photo,omitempty" validate:"omitempty,url"`
	Bio       string `json:"bio,omitempty"`
}

type HoursEntry struct {
	Day  string `json:"day" validate:"required"`
	Time string `json:"time,omitempty"`
}

type AccreditationItem struct {
	Name        string `json:"name" validate:"required"`
	LogoURL     string `json:"logo_url,omitempty" validate:"omitempty,url"`
	Description string `json:"description,omitempty"`
}

// Submission is a fully assembled clinic profile ready to be committed,
// built either from a draft or from a bulk import.
type Submission struct {
	Name     string `json:"name" validate:"required"`
	Summary  string `json:"summary"`
	Category string `json:"category"`

	Country   string   `json:"country"`
	Province  string   `json:"province"`
	City      string   `json:"city"`
	District  string   `json:"district"`
	Address   string   `json:"address"`
	MapURL    string   `json:"map_url" validate:"omitempty,url"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`

	Payments  Payments  `json:"payments" validate:"dive"`
	Amenities Amenities `json:"amenities"`

	// Visibility is set by imports only. Owner submissions leave the
	// clinic's visibility to moderation.
	Visibility *ImportStatus `json:"visibility,omitempty"`

	Services       []ServiceItem       `json:"services" validate:"dive"`
	Images         []ImageItem         `json:"images" validate:"dive"`
	Doctors        []DoctorItem        `json:"doctors" validate:"dive"`
	Hours          []HoursEntry        `json:"hours" validate:"dive"`
	Accreditations []AccreditationItem `json:"accreditations" validate:"dive"`
}

// CommitResult reports where a submission landed.
type CommitResult struct {
	ClinicID uuid.UUID `json:"id"`
	Slug     string    `json:"slug"`
	// Reused is true when the header insert lost a slug race and the
	// existing clinic was reused.
	Reused bool `json:"reused"`
}

// ImportStatus is the visibility requested by a bulk import.
type ImportStatus string

const (
	ImportPending   ImportStatus = "Pending"
	ImportPublished ImportStatus = "Published"
	ImportHidden    ImportStatus = "Hidden"
)

// Apply sets the clinic visibility columns for a freshly imported clinic.
func (s ImportStatus) Apply(c *Clinic) {
	switch s {
	case ImportPublished:
		c.Status = VisibilityPublished
		c.ModerationStatus = ModerationApproved
		c.IsPublished = true
	case ImportHidden:
		c.Status = VisibilityHidden
		c.ModerationStatus = ModerationApproved
		c.IsPublished = false
	default:
		c.Status = VisibilityDraft
		c.ModerationStatus = ModerationPending
		c.IsPublished = false
	}
}

// ClinicImportRequest is the bulk import document. Unknown fields are
// rejected by the handler before validation.
type ClinicImportRequest struct {
	Name     string       `json:"name" validate:"required"`
	Summary  string       `json:"summary" validate:"required"`
	Category string       `json:"category" validate:"required"`
	Status   ImportStatus `json:"status" validate:"required,oneof=Pending Published Hidden"`

	Country   string   `json:"country" validate:"required"`
	Region    string   `json:"region,omitempty"`
	City      string   `json:"city" validate:"required"`
	District  string   `json:"district,omitempty"`
	Address   string   `json:"address" validate:"required"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	MapURL    string   `json:"map_url,omitempty" validate:"omitempty,url"`

	Payments  []PaymentMethod `json:"payments,omitempty" validate:"dive"`
	Amenities *Amenities      `json:"amenities,omitempty"`

	Services       []ServiceItem       `json:"services,omitempty" validate:"dive"`
	Images         []ImageItem         `json:"images,omitempty" validate:"dive"`
	Doctors        []DoctorItem        `json:"doctors,omitempty" validate:"dive"`
	Hours          []HoursEntry        `json:"hours,omitempty" validate:"dive"`
	Accreditations []AccreditationItem `json:"accreditations,omitempty" validate:"dive"`
}

// Submission converts a validated import request.
func (r *ClinicImportRequest) Submission() *Submission {
	var amenities Amenities
	if r.Amenities != nil {
		amenities = *r.Amenities
	}
	status := r.Status

	return &Submission{
		Name:           r.Name,
		Summary:        r.Summary,
		Category:       r.Category,
		Country:        r.Country,
		Province:       r.Region,
		City:           r.City,
		District:       r.District,
		Address:        r.Address,
		MapURL:         r.MapURL,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Payments:       Payments(r.Payments),
		Amenities:      amenities.Normalized(),
		Visibility:     &status,
		Services:       r.Services,
		Images:         r.Images,
		Doctors:        r.Doctors,
		Hours:          r.Hours,
		Accreditations: r.Accreditations,
	}
}
