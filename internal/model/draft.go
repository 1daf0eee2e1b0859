package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DraftStatus string

const (
	DraftEditing DraftStatus = "editing"
	DraftPending DraftStatus = "pending"
)

// Section names a top-level part of a clinic draft. Each maps to one jsonb column.
type Section string

const (
	SectionBasicInfo  Section = "basic_info"
	SectionServices   Section = "services"
	SectionDoctors    Section = "doctors"
	SectionFacilities Section = "facilities"
	SectionHours      Section = "hours"
	SectionGallery    Section = "gallery"
	SectionLocation   Section = "location"
	SectionPricing    Section = "pricing"
)

// Sections lists every draft section in column order.
var Sections = []Section{
	SectionBasicInfo,
	SectionServices,
	SectionDoctors,
	SectionFacilities,
	SectionHours,
	SectionGallery,
	SectionLocation,
	SectionPricing,
}

func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown draft section %q", s)
}

// DraftSections holds the loosely-typed section payloads. Shapes are only
// checked when the draft is submitted.
type DraftSections struct {
	BasicInfo  JSONB `db:"basic_info" json:"basic_info"`
	Services   JSONB `db:"services" json:"services"`
	Doctors    JSONB `db:"doctors" json:"doctors"`
	Facilities JSONB `db:"facilities" json:"facilities"`
	Hours      JSONB `db:"hours" json:"hours"`
	Gallery    JSONB `db:"gallery" json:"gallery"`
	Location   JSONB `db:"location" json:"location"`
	Pricing    JSONB `db:"pricing" json:"pricing"`
}

// Get returns the payload stored for a section.
func (s *DraftSections) Get(sec Section) JSONB {
	switch sec {
	case SectionBasicInfo:
		return s.BasicInfo
	case SectionServices:
		return s.Services
	case SectionDoctors:
		return s.Doctors
	case SectionFacilities:
		return s.Facilities
	case SectionHours:
		return s.Hours
	case SectionGallery:
		return s.Gallery
	case SectionLocation:
		return s.Location
	case SectionPricing:
		return s.Pricing
	}
	return nil
}

// Set replaces the payload of a section.
func (s *DraftSections) Set(sec Section, payload JSONB) {
	switch sec {
	case SectionBasicInfo:
		s.BasicInfo = payload
	case SectionServices:
		s.Services = payload
	case SectionDoctors:
		s.Doctors = payload
	case SectionFacilities:
		s.Facilities = payload
	case SectionHours:
		s.Hours = payload
	case SectionGallery:
		s.Gallery = payload
	case SectionLocation:
		s.Location = payload
	case SectionPricing:
		s.Pricing = payload
	}
}

type Draft struct {
	ClinicID uuid.UUID `db:"clinic_id" json:"clinic_id"`
	DraftSections
	Status    DraftStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// DraftContent is a whole-draft write. A nil Status keeps the stored one.
type DraftContent struct {
	DraftSections
	Status *DraftStatus `json:"status,omitempty"`
}

// Typed views of draft sections, decoded at submission time.

type BasicInfoSection struct {
	Name        string `json:"name"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LocationSection struct {
	Country   string   `json:"country"`
	Province  string   `json:"province"`
	Region    string   `json:"region"`
	City      string   `json:"city"`
	District  string   `json:"district"`
	Address   string   `json:"address"`
	MapURL    string   `json:"map_url"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type FacilitiesSection struct {
	Amenities
	Accreditations []AccreditationItem `json:"accreditations"`
}

type PricingSection struct {
	Payments json.RawMessage `json:"payments"`
}
