package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/cache"
	"eventhub/internal/logging"
	"eventhub/internal/models"
	"eventhub/internal/validation"
)

// ErrProviderNotFound is returned for providers that do not exist or are not listed.
var ErrProviderNotFound = errors.New("provider not found")

const (
	providersKey = "marketplace:providers"
	venuesKey    = "marketplace:venues"
)

// Store defines the reads behind the marketplace
type Store interface {
	ListProviderAccounts(ctx context.Context) ([]*models.Account, error)
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	ListPublishedVenues(ctx context.Context) ([]*models.Venue, error)
}

// Filter narrows the provider listing. Role is "all", "venue" or "event_planner";
// Query matches brand name or city.
type Filter struct {
	Role  string
	Query string
}

// Provider is the public projection of a listed account.
type Provider struct {
	UID              string                   `json:"uid"`
	Role             models.Role              `json:"role"`
	BrandName        string                   `json:"brand_name"`
	BrandDescription string                   `json:"brand_description"`
	LogoURL          string                   `json:"logo_url"`
	Photos           []string                 `json:"photos"`
	Pricing          []models.ServiceOffering `json:"pricing"`
	Services         []string                 `json:"services"`
	Address          string                   `json:"address"`
	City             string                   `json:"city"`
	State            string                   `json:"state"`
	Country          string                   `json:"country"`
	Bio              string                   `json:"bio,omitempty"`
	Website          string                   `json:"website,omitempty"`
	ThemeColor       string                   `json:"theme_color,omitempty"`
	PushedAt         *time.Time               `json:"pushed_at,omitempty"`
}

// Counts tallies listed providers per role.
type Counts struct {
	All          int `json:"all"`
	Venue        int `json:"venue"`
	EventPlanner int `json:"event_planner"`
}

// Listing is a filtered provider page.
type Listing struct {
	Providers []Provider `json:"providers"`
	Counts    Counts     `json:"counts"`
}

// Service serves the public marketplace
type Service interface {
	ListProviders(ctx context.Context, f Filter) (*Listing, error)
	GetProvider(ctx context.Context, uid string) (*Provider, error)
	ListVenues(ctx context.Context, query string) ([]*models.Venue, error)
	InvalidateProviders(ctx context.Context)
	InvalidateVenues(ctx context.Context)
}

type service struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
}

// New constructs a marketplace Service. A nil cache disables snapshot caching.
func New(store Store, c cache.Cache, ttl time.Duration) Service {
	return &service{store: store, cache: c, ttl: ttl}
}

func (s *service) ListProviders(ctx context.Context, f Filter) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	role := strings.TrimSpace(f.Role)
	if role != "" && role != "all" {
		if _, ok := models.ParseRole(role); !ok {
			return nil, validation.New("invalid filter", "role must be all, venue or event_planner")
		}
	}

	listed, err := s.listedProviders(ctx)
	if err != nil {
		return nil, err
	}

	listing := &Listing{Providers: []Provider{}}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	for _, p := range listed {
		listing.Counts.All++
		switch p.Role {
		case models.RoleVenue:
			listing.Counts.Venue++
		case models.RoleEventPlanner:
			listing.Counts.EventPlanner++
		}

		if role != "" && role != "all" && string(p.Role) != role {
			continue
		}
		if !matches(query, p.BrandName, p.City) {
			continue
		}
		listing.Providers = append(listing.Providers, p)
	}
	return listing, nil
}

func (s *service) GetProvider(ctx context.Context, uid string) (*Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	account, err := s.store.GetAccount(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !account.IsPushedToMarket.IsSet() {
		return nil, ErrProviderNotFound
	}
	p := providerOf(account)
	return &p, nil
}

func (s *service) ListVenues(ctx context.Context, query string) ([]*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var venues []*models.Venue
	if !s.fromCache(ctx, venuesKey, &venues) {
		fetched, err := s.store.ListPublishedVenues(ctx)
		if err != nil {
			return nil, fmt.Errorf("list published venues: %w", err)
		}
		venues = fetched
		s.toCache(ctx, venuesKey, venues)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Venue, 0, len(venues))
	for _, v := range venues {
		if matches(q, v.VenueName, v.City, v.Country) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *service) InvalidateProviders(ctx context.Context) {
	s.drop(ctx, providersKey)
}

func (s *service) InvalidateVenues(ctx context.Context) {
	s.drop(ctx, venuesKey)
}

// listedProviders returns the accounts whose stored visibility flag is boolean true or
// the string "true".
func (s *service) listedProviders(ctx context.Context) ([]Provider, error) {
	var providers []Provider
	if s.fromCache(ctx, providersKey, &providers) {
		return providers, nil
	}

	accounts, err := s.store.ListProviderAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	providers = make([]Provider, 0, len(accounts))
	for _, a := range accounts {
		if a.IsPushedToMarket.IsSet() {
			providers = append(providers, providerOf(a))
		}
	}
	s.toCache(ctx, providersKey, providers)
	return providers, nil
}

func (s *service) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		logging.WithContext(ctx).Warn().Err(err).Str("key", key).Msg("Listing cache read failed")
	}
	return false
}

func (s *service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logging.WithContext(ctx).Warn().Err(err).Str("key", key).Msg("Listing cache write failed")
	}
}

func (s *service) drop(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logging.WithContext(ctx).Warn().Err(err).Str("key", key).Msg("Listing cache invalidation failed")
	}
}

// matches is a case-insensitive substring test; an empty query matches everything.
func matches(lowerQuery string, fields ...string) bool {
	if lowerQuery == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}

func providerOf(a *models.Account) Provider {
	return Provider{
		UID:              a.FirebaseUID,
		Role:             a.Role,
		BrandName:        a.BrandName,
		BrandDescription: a.BrandDescription,
		LogoURL:          a.LogoURL,
		Photos:           a.Photos,
		Pricing:          a.Pricing,
		Services:         a.Services,
		Address:          a.Address,
		City:             a.City,
		State:            a.State,
		Country:          a.Country,
		Bio:              a.Bio,
		Website:          a.Website,
		ThemeColor:       a.ThemeColor,
		PushedAt:         a.PushedAt,
	}
}
