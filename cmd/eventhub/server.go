package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"eventhub/internal/app/accounts"
	"eventhub/internal/app/marketplace"
	"eventhub/internal/app/messages"
	"eventhub/internal/app/venues"
	"eventhub/internal/cache"
	"eventhub/internal/config"
	"eventhub/internal/events"
	"eventhub/internal/http/middleware"
	"eventhub/internal/httpapi"
	"eventhub/internal/identity"
	"eventhub/internal/objectstore"
	"eventhub/internal/onboarding"
	"eventhub/internal/store"
)

// dependencies are the external services the API talks to besides Postgres.
type dependencies struct {
	objects objectstore.Store
	events  events.Publisher
	cache   cache.Cache
	closers []func() error
}

func newDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	objects, err := objectstore.NewS3(ctx, objectstore.S3Config{
		Region:        cfg.Storage.Region,
		Endpoint:      cfg.Storage.Endpoint,
		UsePathStyle:  cfg.Storage.UsePathStyle,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Buckets: map[objectstore.Bucket]string{
			objectstore.BucketBrands:       cfg.Storage.BrandsBucket,
			objectstore.BucketVerification: cfg.Storage.VerificationBucket,
			objectstore.BucketVenues:       cfg.Storage.VenuesBucket,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	deps.objects = objects

	deps.events = events.Noop{}
	if cfg.NATS.URL != "" {
		publisher, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, domain events disabled")
		} else {
			deps.events = publisher
			deps.closers = append(deps.closers, publisher.Close)
			log.Info().Msg("Publishing domain events to NATS")
		}
	}

	deps.cache = cache.NewMemory()
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis.URL, "eventhub:")
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-process listing cache")
		} else {
			deps.cache = redisCache
			deps.closers = append(deps.closers, redisCache.Close)
			log.Info().Msg("Listing cache backed by Redis")
		}
	}

	return deps, nil
}

func (d *dependencies) Close() {
	for _, closeFn := range d.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("Failed to close dependency")
		}
	}
}

// newHTTPHandler builds the service graph. The returned func closes open event streams
// and belongs in http.Server.RegisterOnShutdown.
func newHTTPHandler(cfg *config.Config, dataStore *store.Store, deps *dependencies) (http.Handler, func()) {
	verifier := identity.NewVerifier(cfg.Security.JWTSecret, cfg.Security.JWTIssuer)

	// Marketplace first: the write-side services invalidate its snapshots
	marketSvc := marketplace.New(dataStore, deps.cache, cfg.Market.ListingTTL)

	accountSvc := accounts.New(dataStore,
		accounts.WithEvents(deps.events),
		accounts.WithListingInvalidator(marketSvc),
	)
	venueSvc := venues.New(dataStore, deps.objects,
		venues.WithEvents(deps.events),
		venues.WithListingInvalidator(marketSvc),
	)
	messageSvc := messages.New(dataStore, deps.events)

	wizard := onboarding.NewWizard(dataStore, deps.objects, onboarding.Options{
		Events:        deps.events,
		RedirectAfter: cfg.Market.RedirectAfter,
	})
	flow := onboarding.NewFlow(onboarding.NewRegistry(wizard))

	api := httpapi.New(verifier, accountSvc, flow, marketSvc, venueSvc, messageSvc, cfg.Market.PollInterval)

	handler := middleware.Chain(api.Routes(),
		middleware.RequestLogging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	return handler, api.CloseStreams
}
