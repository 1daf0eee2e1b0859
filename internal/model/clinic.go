package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

type VisibilityStatus string

const (
	VisibilityDraft     VisibilityStatus = "draft"
	VisibilityPublished VisibilityStatus = "published"
	VisibilityHidden    VisibilityStatus = "hidden"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

type Clinic struct {
	Base
	Name             string           `db:"name" json:"name"`
	Slug             string           `db:"slug" json:"slug"`
	Summary          string           `db:"summary" json:"summary"`
	Country          string           `db:"country" json:"country"`
	Province         string           `db:"province" json:"province"`
	City             string           `db:"city" json:"city"`
	District         string           `db:"district" json:"district"`
	Address          string           `db:"address" json:"address"`
	MapURL           string           `db:"map_url" json:"map_url"`
	Latitude         *float64         `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64         `db:"longitude" json:"longitude,omitempty"`
	Payments         Payments         `db:"payments" json:"payments"`
	Amenities        Amenities        `db:"amenities" json:"amenities"`
	Status           VisibilityStatus `db:"status" json:"status"`
	ModerationStatus ModerationStatus `db:"moderation_status" json:"moderation_status"`
	ModerationNote   *string          `db:"moderation_note" json:"moderation_note,omitempty"`
	IsPublished      bool             `db:"is_published" json:"is_published"`
	FirstPublishedAt *time.Time       `db:"first_published_at" json:"first_published_at,omitempty"`
}

// EverPublished reports whether an administrator has approved this clinic at
// least once. Such clinics skip moderation on later submissions.
func (c *Clinic) EverPublished() bool {
	return c != nil && c.FirstPublishedAt != nil
}

// ModerationUpdate carries the visibility columns owned by moderation.
type ModerationUpdate struct {
	Status           VisibilityStatus
	ModerationStatus ModerationStatus
	IsPublished      bool
	Note             *string
	MarkPublished    bool
}

// PaymentMethod is one accepted way to pay, e.g. {"method": "Visa"}.
type PaymentMethod struct {
	Method string `json:"method" validate:"required"`
}

// Payments is the ordered payments list stored as jsonb.
type Payments []PaymentMethod

func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		p = Payments{}
	}
	return jsonValue(p)
}

func (p *Payments) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// NormalizePayments accepts a draft payments list whose elements are either
// bare strings or {"method": ...} objects and returns the canonical list.
// Empty and malformed elements are dropped.
func NormalizePayments(raw json.RawMessage) Payments {
	out := Payments{}
	if len(raw) == 0 {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}

	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err != nil {
			var obj struct {
				Method *string `json:"method"`
			}
			if err := json.Unmarshal(item, &obj); err != nil || obj.Method == nil {
				continue
			}
			name = *obj.Method
		}
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, PaymentMethod{Method: name})
		}
	}
	return out
}

// Amenities groups the four amenity lists shown on a clinic profile.
type Amenities struct {
	Premises        []string `json:"premises"`
	ClinicServices  []string `json:"clinic_services"`
	TravelServices  []string `json:"travel_services"`
	LanguagesSpoken []string `json:"languages_spoken"`
}

// Normalized returns a copy with every nil list replaced by an empty one.
func (a Amenities) Normalized() Amenities {
	orEmpty := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	return Amenities{
		Premises:        orEmpty(a.Premises),
		ClinicServices:  orEmpty(a.ClinicServices),
		TravelServices:  orEmpty(a.TravelServices),
		LanguagesSpoken: orEmpty(a.LanguagesSpoken),
	}
}

func (a Amenities) Value() (driver.Value, error) {
	return jsonValue(a.Normalized())
}

func (a *Amenities) Scan(src interface{}) error {
	if err := scanJSON(src, a); err != nil {
		return err
	}
	*a = a.Normalized()
	return nil
}

// ClinicProfile is the public read model of a published clinic.
type ClinicProfile struct {
	*Clinic
	Hours []ClinicHours `json:"hours"`
}

// ClinicFilter narrows admin clinic listings.
type ClinicFilter struct {
	ModerationStatus ModerationStatus `form:"moderation_status" binding:"omitempty,oneof=pending approved rejected"`
}
