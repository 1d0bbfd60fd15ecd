package venues

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/events"
	"eventhub/internal/logging"
	"eventhub/internal/models"
	"eventhub/internal/objectstore"
	"eventhub/internal/publication"
	"eventhub/internal/store"
	"eventhub/internal/validation"
)

// Store defines persistence operations for venues
type Store interface {
	CreateVenue(ctx context.Context, uid string, v *models.Venue) (*models.Venue, error)
	ListVenuesByOwner(ctx context.Context, uid string) ([]*models.Venue, error)
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	UpdateVenue(ctx context.Context, uid string, id int64, v *models.Venue) (*models.Venue, error)
	DeleteVenue(ctx context.Context, uid string, id int64) error
	ToggleVenuePublication(ctx context.Context, uid string, id int64, at time.Time) (*models.Venue, error)
}

// ListingInvalidator drops the cached published-venue snapshot.
type ListingInvalidator interface {
	InvalidateVenues(ctx context.Context)
}

// Input is the editable part of a venue. Image is optional on update.
type Input struct {
	VenueName   string
	Description string
	Capacity    int
	Price       float64
	Currency    string
	City        string
	Country     string
	Image       *objectstore.File
}

// Detail is a venue with its publication checklist.
type Detail struct {
	Venue       *models.Venue           `json:"venue"`
	Publication publication.Eligibility `json:"publication"`
}

// Service coordinates venue management
type Service interface {
	Create(ctx context.Context, uid string, in Input) (*Detail, error)
	List(ctx context.Context, uid string) ([]*models.Venue, error)
	Get(ctx context.Context, uid string, id int64) (*Detail, error)
	Update(ctx context.Context, uid string, id int64, in Input) (*Detail, error)
	Delete(ctx context.Context, uid string, id int64) error
	TogglePublish(ctx context.Context, uid string, id int64) (*Detail, error)
}

type service struct {
	store   Store
	objects objectstore.Store
	events  events.Publisher
	listing ListingInvalidator
	now     func() time.Time
	newID   func() string
}

// Option customises the service.
type Option func(*service)

// WithEvents publishes visibility changes.
func WithEvents(p events.Publisher) Option {
	return func(s *service) { s.events = p }
}

// WithListingInvalidator clears the marketplace venue cache after changes to published venues.
func WithListingInvalidator(inv ListingInvalidator) Option {
	return func(s *service) { s.listing = inv }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithIDs overrides image name generation.
func WithIDs(newID func() string) Option {
	return func(s *service) { s.newID = newID }
}

// New constructs a venues Service.
func New(store Store, objects objectstore.Store, opts ...Option) Service {
	s := &service{
		store:   store,
		objects: objects,
		events:  events.Noop{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, uid string, in Input) (*Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err := normalize(in)
	if err != nil {
		return nil, err
	}

	var key string
	if in.Image != nil {
		key, v.ImageURL, err = s.upload(ctx, uid, *in.Image)
		if err != nil {
			return nil, err
		}
	}

	created, err := s.store.CreateVenue(ctx, uid, v)
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	logging.WithContext(ctx).Info().Int64("venue_id", created.ID).Msg("Venue created")
	return detailOf(created), nil
}

func (s *service) List(ctx context.Context, uid string) ([]*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListVenuesByOwner(ctx, uid)
}

// Get returns a venue to its owner, or to anyone once it is published.
func (s *service) Get(ctx context.Context, uid string, id int64) (*Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := s.store.GetVenue(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.VendorID != uid && !v.IsPublished {
		return nil, store.ErrVenueNotFound
	}
	return detailOf(v), nil
}

func (s *service) Update(ctx context.Context, uid string, id int64, in Input) (*Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	v, err := normalize(in)
	if err != nil {
		return nil, err
	}
	v.ImageURL = existing.ImageURL

	var key string
	if in.Image != nil {
		key, v.ImageURL, err = s.upload(ctx, uid, *in.Image)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateVenue(ctx, uid, id, v)
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	if updated.IsPublished {
		s.invalidate(ctx)
	}
	return detailOf(updated), nil
}

func (s *service) Delete(ctx context.Context, uid string, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	existing, err := s.owned(ctx, uid, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteVenue(ctx, uid, id); err != nil {
		return err
	}
	if existing.IsPublished {
		s.invalidate(ctx)
	}
	logging.WithContext(ctx).Info().Int64("venue_id", id).Msg("Venue deleted")
	return nil
}

func (s *service) TogglePublish(ctx context.Context, uid string, id int64) (*Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	updated, err := publication.Toggle(ctx, publication.Venue{Venue: existing}, func(ctx context.Context) (*models.Venue, error) {
		return s.store.ToggleVenuePublication(ctx, uid, id, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	subject := events.VenueUnpublished
	if updated.IsPublished {
		subject = events.VenuePublished
	}
	events.PublishBestEffort(ctx, s.events, subject, events.PublicationEvent{
		UID:     uid,
		VenueID: id,
		Listed:  updated.IsPublished,
		At:      updated.UpdatedAt,
	})
	s.invalidate(ctx)
	return detailOf(updated), nil
}

func (s *service) owned(ctx context.Context, uid string, id int64) (*models.Venue, error) {
	v, err := s.store.GetVenue(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.VendorID != uid {
		return nil, store.ErrVenueNotFound
	}
	return v, nil
}

func (s *service) upload(ctx context.Context, uid string, f objectstore.File) (string, string, error) {
	key := fmt.Sprintf("%s/%s%s", uid, s.newID(), f.Ext())
	url, err := s.objects.Put(ctx, objectstore.BucketVenues, key, f)
	if err != nil {
		if errors.Is(err, objectstore.ErrEmptyFile) {
			return "", "", validation.New("venue is invalid", "image is empty")
		}
		return "", "", fmt.Errorf("upload venue image: %w", err)
	}
	return key, url, nil
}

// discard removes an image whose venue row was never written.
func (s *service) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.objects.Delete(context.WithoutCancel(ctx), objectstore.BucketVenues, key); err != nil {
		logging.WithContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned venue image")
	}
}

func (s *service) invalidate(ctx context.Context) {
	if s.listing != nil {
		s.listing.InvalidateVenues(ctx)
	}
}

func normalize(in Input) (*models.Venue, error) {
	v := &models.Venue{
		VenueName:   strings.TrimSpace(in.VenueName),
		Description: strings.TrimSpace(in.Description),
		Capacity:    in.Capacity,
		Price:       in.Price,
		Currency:    models.Currency(strings.ToUpper(strings.TrimSpace(in.Currency))),
		City:        strings.TrimSpace(in.City),
		Country:     strings.TrimSpace(in.Country),
	}
	if v.Currency == "" {
		v.Currency = models.DefaultCurrency
	}
	if v.Country == "" {
		v.Country = models.DefaultCountry
	}

	var problems []string
	if v.VenueName == "" {
		problems = append(problems, "venue name")
	}
	if v.Capacity <= 0 {
		problems = append(problems, "capacity must be positive")
	}
	switch {
	case math.IsNaN(v.Price) || math.IsInf(v.Price, 0):
		problems = append(problems, "price must be a number")
	case v.Price < 0:
		problems = append(problems, "price must not be negative")
	}
	if !v.Currency.Valid() {
		problems = append(problems, "unsupported currency "+string(v.Currency))
	}
	if len(problems) > 0 {
		return nil, validation.New("venue is invalid", problems...)
	}
	return v, nil
}

func detailOf(v *models.Venue) *Detail {
	return &Detail{Venue: v, Publication: publication.Evaluate(publication.Venue{Venue: v})}
}
