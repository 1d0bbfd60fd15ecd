package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/validation"
)

// Role distinguishes the two kinds of marketplace provider.
type Role string

const (
	RoleVenue        Role = "venue"
	RoleEventPlanner Role = "event_planner"
)

// ParseRole validates a raw role value.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleVenue, RoleEventPlanner:
		return Role(s), true
	default:
		return "", false
	}
}

// Currency is an ISO code accepted for service and venue prices.
type Currency string

// SupportedCurrencies lists the currencies offered in the pricing picker, in display order.
var SupportedCurrencies = []Currency{"USD", "EUR", "GBP", "NGN", "GHS", "ZAR", "KES"}

// DefaultCurrency is used when a price is entered without a currency.
const DefaultCurrency Currency = "USD"

// DefaultCountry is preset on the location step.
const DefaultCountry = "Nigeria"

// Valid reports whether c is one of SupportedCurrencies.
func (c Currency) Valid() bool {
	for _, supported := range SupportedCurrencies {
		if c == supported {
			return true
		}
	}
	return false
}

// ServiceOffering is one priced service on a provider profile.
// Price keeps the decimal string the provider entered.
type ServiceOffering struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency Currency `json:"currency"`
}

// Validate checks a single offering and returns the offending fields.
func (s ServiceOffering) Validate() []string {
	var problems []string
	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "service name")
	}
	price := strings.TrimSpace(s.Price)
	if price == "" {
		problems = append(problems, "service price")
	} else if v, err := strconv.ParseFloat(price, 64); err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		problems = append(problems, "service price must be a non-negative number")
	}
	if s.Currency != "" && !s.Currency.Valid() {
		problems = append(problems, fmt.Sprintf("unsupported currency %q", s.Currency))
	}
	return problems
}

// ServiceNames returns the plain name list stored alongside the pricing list.
func ServiceNames(offerings []ServiceOffering) []string {
	names := make([]string, 0, len(offerings))
	for _, o := range offerings {
		names = append(names, o.Name)
	}
	return names
}

// NormalizeServices trims and validates a service list. At least one entry is
// required and an empty currency becomes DefaultCurrency.
func NormalizeServices(offerings []ServiceOffering) ([]ServiceOffering, error) {
	if len(offerings) == 0 {
		return nil, validation.New("services are incomplete", "at least one service")
	}

	var problems []string
	cleaned := make([]ServiceOffering, 0, len(offerings))
	for i, o := range offerings {
		o.Name = strings.TrimSpace(o.Name)
		o.Price = strings.TrimSpace(o.Price)
		o.Currency = Currency(strings.ToUpper(strings.TrimSpace(string(o.Currency))))
		if o.Currency == "" {
			o.Currency = DefaultCurrency
		}
		for _, p := range o.Validate() {
			problems = append(problems, fmt.Sprintf("service %d: %s", i+1, p))
		}
		cleaned = append(cleaned, o)
	}
	if len(problems) > 0 {
		return nil, validation.New("services are invalid", problems...)
	}
	return cleaned, nil
}

// Account is the profile row owned by one authenticated identity.
type Account struct {
	FirebaseUID      string            `json:"firebase_uid"`
	Email            string            `json:"email,omitempty"`
	Name             string            `json:"name,omitempty"`
	Role             Role              `json:"role,omitempty"`
	BrandName        string            `json:"brand_name"`
	BrandDescription string            `json:"brand_description"`
	LogoURL          string            `json:"logo_url"`
	Photos           []string          `json:"photos"`
	Pricing          []ServiceOffering `json:"pricing"`
	Services         []string          `json:"services"`
	Address          string            `json:"address"`
	City             string            `json:"city"`
	State            string            `json:"state"`
	Zip              string            `json:"zip"`
	Country          string            `json:"country"`
	Bio              string            `json:"bio,omitempty"`
	Website          string            `json:"website,omitempty"`
	ThemeColor       string            `json:"theme_color,omitempty"`
	IsPushedToMarket Flag              `json:"is_pushed_to_market"`
	PushedAt         *time.Time        `json:"pushed_at,omitempty"`
	HasCompleted     bool              `json:"has_completed_onboarding"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// DisplayName picks the label shown to counterparties in conversations.
func (a *Account) DisplayName() string {
	switch {
	case strings.TrimSpace(a.Name) != "":
		return a.Name
	case strings.TrimSpace(a.Email) != "":
		return a.Email
	default:
		return a.BrandName
	}
}

// Location is the address block written by the location step.
type Location struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// ProfileUpdate carries the editable profile fields outside onboarding.
type ProfileUpdate struct {
	BrandName        string `json:"brand_name"`
	BrandDescription string `json:"brand_description"`
	Bio              string `json:"bio"`
	Website          string `json:"website"`
	ThemeColor       string `json:"theme_color"`
}

// Flag is a visibility value read from a loosely typed column. Rows written by older
// clients may hold the string "true" instead of a boolean.
type Flag struct {
	raw any
}

// NewFlag wraps a boolean.
func NewFlag(v bool) Flag { return Flag{raw: v} }

// RawFlag wraps an arbitrary stored value.
func RawFlag(v any) Flag { return Flag{raw: v} }

// IsSet is true only for boolean true or the exact string "true".
func (f Flag) IsSet() bool {
	switch v := f.raw.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case []byte:
		return string(v) == "true"
	default:
		return false
	}
}

// Scan implements sql.Scanner.
func (f *Flag) Scan(src any) error {
	switch v := src.(type) {
	case nil, bool, string:
		f.raw = v
	case []byte:
		f.raw = string(v)
	default:
		return fmt.Errorf("flag: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (f Flag) Value() (driver.Value, error) {
	return f.IsSet(), nil
}

// MarshalJSON renders the normalised boolean.
func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.IsSet())
}

// UnmarshalJSON keeps whatever JSON scalar was supplied.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.raw = v
	return nil
}
