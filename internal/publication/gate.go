// Package publication decides whether a listing may be shown on the marketplace and
// guards visibility changes.
package publication

import (
	"context"
	"fmt"

	"eventhub/internal/models"
	"eventhub/internal/validation"
)

// Publishable is anything with a required-fields rule and a visibility flag.
type Publishable interface {
	MissingRequired() []string
	MissingRecommended() []string
	Listed() bool
}

// Eligibility is the push-page checklist.
type Eligibility struct {
	Eligible    bool     `json:"eligible"`
	Listed      bool     `json:"listed"`
	Missing     []string `json:"missing"`
	Recommended []string `json:"recommended"`
}

// Evaluate computes eligibility. Recommended items never block publication.
func Evaluate(p Publishable) Eligibility {
	missing := p.MissingRequired()
	if missing == nil {
		missing = []string{}
	}
	recommended := p.MissingRecommended()
	if recommended == nil {
		recommended = []string{}
	}
	return Eligibility{
		Eligible:    len(missing) == 0,
		Listed:      p.Listed(),
		Missing:     missing,
		Recommended: recommended,
	}
}

// Toggle runs flip only when p is eligible. flip must change visibility in a single
// atomic write. An ineligible listing is rejected with a *validation.Error naming
// every missing requirement.
func Toggle[T any](ctx context.Context, p Publishable, flip func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	e := Evaluate(p)
	if !e.Eligible {
		return zero, validation.New("listing is incomplete", e.Missing...)
	}

	out, err := flip(ctx)
	if err != nil {
		return zero, fmt.Errorf("toggle visibility: %w", err)
	}
	return out, nil
}

// Account adapts a provider profile.
type Account struct{ *models.Account }

func (a Account) MissingRequired() []string {
	var missing []string
	if validation.Blank(a.BrandName) {
		missing = append(missing, "brand name")
	}
	if len(a.Pricing) == 0 {
		missing = append(missing, "at least one service with pricing")
	}
	if validation.Blank(a.Address) {
		missing = append(missing, "address")
	}
	return missing
}

func (a Account) MissingRecommended() []string {
	var missing []string
	if validation.Blank(a.LogoURL) {
		missing = append(missing, "logo")
	}
	if validation.Blank(a.City) || validation.Blank(a.State) || validation.Blank(a.Zip) {
		missing = append(missing, "city, state and zip")
	}
	return missing
}

func (a Account) Listed() bool { return a.IsPushedToMarket.IsSet() }

// Venue adapts a bookable venue.
type Venue struct{ *models.Venue }

func (v Venue) MissingRequired() []string {
	var missing []string
	if validation.Blank(v.VenueName) {
		missing = append(missing, "venue name")
	}
	if v.Capacity <= 0 {
		missing = append(missing, "capacity")
	}
	if v.Price < 0 {
		missing = append(missing, "price")
	}
	if validation.Blank(v.ImageURL) {
		missing = append(missing, "image")
	}
	return missing
}

func (v Venue) MissingRecommended() []string {
	var missing []string
	if validation.Blank(v.Description) {
		missing = append(missing, "description")
	}
	if validation.Blank(v.City) {
		missing = append(missing, "city")
	}
	return missing
}

func (v Venue) Listed() bool { return v.IsPublished }
