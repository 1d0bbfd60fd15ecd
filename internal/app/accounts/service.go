package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"eventhub/internal/events"
	"eventhub/internal/logging"
	"eventhub/internal/models"
	"eventhub/internal/publication"
	"eventhub/internal/validation"
)

// ErrOnboardingIncomplete is returned when an account that has not finished onboarding
// tries to list itself on the marketplace.
var ErrOnboardingIncomplete = errors.New("onboarding must be completed before listing")

// Store defines persistence operations for provider accounts
type Store interface {
	EnsureAccount(ctx context.Context, uid, email, name string) (*models.Account, bool, error)
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	UpdateProfile(ctx context.Context, uid string, p models.ProfileUpdate) (*models.Account, error)
	UpdateServices(ctx context.Context, uid string, pricing []models.ServiceOffering) error
	ToggleAccountPublication(ctx context.Context, uid string, at time.Time) (*models.Account, error)
}

// ListingInvalidator drops cached marketplace snapshots after visibility changes.
type ListingInvalidator interface {
	InvalidateProviders(ctx context.Context)
}

// Profile is an account together with its publication checklist.
type Profile struct {
	Account     *models.Account         `json:"account"`
	Publication publication.Eligibility `json:"publication"`
}

// Service coordinates account operations
type Service interface {
	Ensure(ctx context.Context, uid, email, name string) (*models.Account, bool, error)
	Profile(ctx context.Context, uid string) (*Profile, error)
	UpdateProfile(ctx context.Context, uid string, p models.ProfileUpdate) (*Profile, error)
	SaveServices(ctx context.Context, uid string, offerings []models.ServiceOffering) (*Profile, error)
	Publication(ctx context.Context, uid string) (publication.Eligibility, error)
	PushToMarket(ctx context.Context, uid string, pending *[]models.ServiceOffering) (*Profile, error)
}

type service struct {
	store   Store
	events  events.Publisher
	listing ListingInvalidator
	now     func() time.Time
}

// Option customises the service.
type Option func(*service)

// WithEvents publishes visibility changes.
func WithEvents(p events.Publisher) Option {
	return func(s *service) { s.events = p }
}

// WithListingInvalidator clears the marketplace cache after visibility changes.
func WithListingInvalidator(inv ListingInvalidator) Option {
	return func(s *service) { s.listing = inv }
}

// WithClock overrides the time source used for pushed_at.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// New constructs an accounts Service backed by the provided Store
func New(store Store, opts ...Option) Service {
	s := &service{store: store, events: events.Noop{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Ensure(ctx context.Context, uid, email, name string) (*models.Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	account, created, err := s.store.EnsureAccount(ctx, uid, strings.TrimSpace(email), strings.TrimSpace(name))
	if err != nil {
		return nil, false, err
	}
	if created {
		logging.WithContext(ctx).Info().Msg("Account created")
	}
	return account, created, nil
}

func (s *service) Profile(ctx context.Context, uid string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	account, err := s.store.GetAccount(ctx, uid)
	if err != nil {
		return nil, err
	}
	return profileOf(account), nil
}

var themeColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (s *service) UpdateProfile(ctx context.Context, uid string, p models.ProfileUpdate) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.BrandName = strings.TrimSpace(p.BrandName)
	p.BrandDescription = strings.TrimSpace(p.BrandDescription)
	p.Bio = strings.TrimSpace(p.Bio)
	p.Website = strings.TrimSpace(p.Website)
	p.ThemeColor = strings.TrimSpace(p.ThemeColor)

	var problems []string
	if p.BrandName == "" {
		problems = append(problems, "brand name")
	}
	if p.ThemeColor != "" && !themeColorPattern.MatchString(p.ThemeColor) {
		problems = append(problems, "theme color must look like #RRGGBB")
	}
	if len(problems) > 0 {
		return nil, validation.New("profile is invalid", problems...)
	}

	account, err := s.store.UpdateProfile(ctx, uid, p)
	if err != nil {
		return nil, err
	}
	if account.IsPushedToMarket.IsSet() {
		s.invalidate(ctx)
	}
	return profileOf(account), nil
}

func (s *service) SaveServices(ctx context.Context, uid string, offerings []models.ServiceOffering) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.saveServices(ctx, uid, offerings); err != nil {
		return nil, err
	}
	profile, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if profile.Account.IsPushedToMarket.IsSet() {
		s.invalidate(ctx)
	}
	return profile, nil
}

func (s *service) saveServices(ctx context.Context, uid string, offerings []models.ServiceOffering) error {
	cleaned, err := models.NormalizeServices(offerings)
	if err != nil {
		return err
	}
	if err := s.store.UpdateServices(ctx, uid, cleaned); err != nil {
		return fmt.Errorf("save services: %w", err)
	}
	return nil
}

func (s *service) Publication(ctx context.Context, uid string) (publication.Eligibility, error) {
	profile, err := s.Profile(ctx, uid)
	if err != nil {
		return publication.Eligibility{}, err
	}
	return profile.Publication, nil
}

// PushToMarket saves pending service edits first, then toggles visibility through the
// publication gate. A failed save aborts before evaluation. Listing requires a finished
// onboarding run; unlisting does not.
func (s *service) PushToMarket(ctx context.Context, uid string, pending *[]models.ServiceOffering) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !account.HasCompleted && !account.IsPushedToMarket.IsSet() {
		return nil, ErrOnboardingIncomplete
	}

	if pending != nil {
		if err := s.saveServices(ctx, uid, *pending); err != nil {
			return nil, err
		}
		if account, err = s.store.GetAccount(ctx, uid); err != nil {
			return nil, err
		}
	}

	updated, err := publication.Toggle(ctx, publication.Account{Account: account}, func(ctx context.Context) (*models.Account, error) {
		return s.store.ToggleAccountPublication(ctx, uid, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	listed := updated.IsPushedToMarket.IsSet()
	subject := events.AccountUnpublished
	if listed {
		subject = events.AccountPublished
	}
	events.PublishBestEffort(ctx, s.events, subject, events.PublicationEvent{UID: uid, Listed: listed, At: s.now().UTC()})
	s.invalidate(ctx)

	logging.WithContext(ctx).Info().Bool("listed", listed).Msg("Marketplace visibility changed")
	return profileOf(updated), nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.listing != nil {
		s.listing.InvalidateProviders(ctx)
	}
}

func profileOf(account *models.Account) *Profile {
	return &Profile{Account: account, Publication: publication.Evaluate(publication.Account{Account: account})}
}
