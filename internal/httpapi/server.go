package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"eventhub/internal/app/accounts"
	"eventhub/internal/app/marketplace"
	"eventhub/internal/app/messages"
	"eventhub/internal/app/venues"
	"eventhub/internal/http/middleware"
	"eventhub/internal/identity"
	"eventhub/internal/logging"
	"eventhub/internal/models"
	"eventhub/internal/objectstore"
	"eventhub/internal/onboarding"
	"eventhub/internal/publication"
	"eventhub/internal/store"
	"eventhub/internal/validation"
)

// AccountService captures the account operations needed by the HTTP handlers.
type AccountService interface {
	Ensure(ctx context.Context, uid, email, name string) (*models.Account, bool, error)
	Profile(ctx context.Context, uid string) (*accounts.Profile, error)
	UpdateProfile(ctx context.Context, uid string, p models.ProfileUpdate) (*accounts.Profile, error)
	SaveServices(ctx context.Context, uid string, offerings []models.ServiceOffering) (*accounts.Profile, error)
	Publication(ctx context.Context, uid string) (publication.Eligibility, error)
	PushToMarket(ctx context.Context, uid string, pending *[]models.ServiceOffering) (*accounts.Profile, error)
}

// OnboardingService drives the wizard run of the caller.
type OnboardingService interface {
	State(ctx context.Context, uid string) (onboarding.State, error)
	Restart(ctx context.Context, uid string) (onboarding.State, error)
	SubmitRoleAndBrand(ctx context.Context, uid string, in onboarding.RoleAndBrandInput) (onboarding.State, error)
	SubmitAssets(ctx context.Context, uid string, in onboarding.AssetsInput) (onboarding.State, error)
	SubmitServices(ctx context.Context, uid string, offerings []models.ServiceOffering) (onboarding.State, error)
	SubmitLocation(ctx context.Context, uid string, loc models.Location) (onboarding.State, error)
	SubmitVerification(ctx context.Context, uid string, docs []objectstore.File) (onboarding.State, error)
	Finish(ctx context.Context, uid string) (onboarding.State, error)
}

// MarketplaceService exposes the public listing.
type MarketplaceService interface {
	ListProviders(ctx context.Context, f marketplace.Filter) (*marketplace.Listing, error)
	GetProvider(ctx context.Context, uid string) (*marketplace.Provider, error)
	ListVenues(ctx context.Context, query string) ([]*models.Venue, error)
}

// VenueService coordinates venue management.
type VenueService interface {
	Create(ctx context.Context, uid string, in venues.Input) (*venues.Detail, error)
	List(ctx context.Context, uid string) ([]*models.Venue, error)
	Get(ctx context.Context, uid string, id int64) (*venues.Detail, error)
	Update(ctx context.Context, uid string, id int64, in venues.Input) (*venues.Detail, error)
	Delete(ctx context.Context, uid string, id int64) error
	TogglePublish(ctx context.Context, uid string, id int64) (*venues.Detail, error)
}

// MessageService coordinates direct messages.
type MessageService interface {
	Send(ctx context.Context, senderUID, receiverUID, content string) (*models.Message, error)
	Conversation(ctx context.Context, uid, otherUID string) ([]models.Message, error)
	Inbox(ctx context.Context, uid string) ([]models.ConversationSummary, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	verifier     middleware.TokenVerifier
	accounts     AccountService
	onboarding   OnboardingService
	marketplace  MarketplaceService
	venues       VenueService
	messages     MessageService
	pollInterval time.Duration

	streams      context.Context
	closeStreams context.CancelFunc
}

// New configures a Server. pollInterval paces the server-sent-event streams.
func New(
	verifier middleware.TokenVerifier,
	accounts AccountService,
	onboarding OnboardingService,
	marketplace MarketplaceService,
	venues VenueService,
	messages MessageService,
	pollInterval time.Duration,
) *Server {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	streams, closeStreams := context.WithCancel(context.Background())
	return &Server{
		verifier:     verifier,
		accounts:     accounts,
		onboarding:   onboarding,
		marketplace:  marketplace,
		venues:       venues,
		messages:     messages,
		pollInterval: pollInterval,
		streams:      streams,
		closeStreams: closeStreams,
	}
}

// CloseStreams ends every open event stream. Register it with
// http.Server.RegisterOnShutdown so long-lived streams do not hold up shutdown.
func (s *Server) CloseStreams() {
	s.closeStreams()
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireIdentity(s.verifier)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Account routes
	mux.Handle("POST /api/v1/accounts", protected(s.handleEnsureAccount))
	mux.Handle("GET /api/v1/me", protected(s.handleMe))
	mux.Handle("PUT /api/v1/me/profile", protected(s.handleUpdateProfile))
	mux.Handle("PUT /api/v1/me/services", protected(s.handleSaveServices))
	mux.Handle("GET /api/v1/me/publication", protected(s.handlePublication))
	mux.Handle("POST /api/v1/me/publication/toggle", protected(s.handleTogglePublication))

	// Onboarding routes
	mux.Handle("GET /api/v1/onboarding", protected(s.handleOnboardingState))
	mux.Handle("POST /api/v1/onboarding", protected(s.handleOnboardingRestart))
	mux.Handle("POST /api/v1/onboarding/role-and-brand", protected(s.handleRoleAndBrand))
	mux.Handle("POST /api/v1/onboarding/assets", protected(s.handleAssets))
	mux.Handle("POST /api/v1/onboarding/services", protected(s.handleOnboardingServices))
	mux.Handle("POST /api/v1/onboarding/location", protected(s.handleLocation))
	mux.Handle("POST /api/v1/onboarding/verification", protected(s.handleVerification))
	mux.Handle("POST /api/v1/onboarding/complete", protected(s.handleOnboardingComplete))

	// Marketplace routes are public
	mux.HandleFunc("GET /api/v1/marketplace/providers", s.handleListProviders)
	mux.HandleFunc("GET /api/v1/marketplace/providers/stream", s.handleStreamProviders)
	mux.HandleFunc("GET /api/v1/marketplace/providers/{uid}", s.handleGetProvider)
	mux.HandleFunc("GET /api/v1/marketplace/venues", s.handleMarketplaceVenues)
	mux.HandleFunc("GET /api/v1/marketplace/venues/stream", s.handleStreamMarketplaceVenues)

	// Venue routes
	mux.Handle("POST /api/v1/venues", protected(s.handleCreateVenue))
	mux.Handle("GET /api/v1/venues", protected(s.handleListVenues))
	mux.Handle("GET /api/v1/venues/{id}", protected(s.handleGetVenue))
	mux.Handle("PUT /api/v1/venues/{id}", protected(s.handleUpdateVenue))
	mux.Handle("DELETE /api/v1/venues/{id}", protected(s.handleDeleteVenue))
	mux.Handle("POST /api/v1/venues/{id}/publish", protected(s.handleToggleVenue))

	// Message routes
	mux.Handle("GET /api/v1/messages", protected(s.handleInbox))
	mux.Handle("GET /api/v1/messages/{uid}", protected(s.handleConversation))
	mux.Handle("POST /api/v1/messages/{uid}", protected(s.handleSendMessage))
	mux.Handle("GET /api/v1/messages/{uid}/stream", protected(s.handleStreamConversation))

	return mux
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// currentUID returns the verified caller. Routes behind RequireIdentity always have one.
func currentUID(r *http.Request) string {
	id, _ := identity.FromContext(r.Context())
	return id.UID
}

// decodeJSON decodes the request body into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	return err
}

func writeInvalidJSON(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := validation.As(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Fields: ve.Fields})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, identity.ErrMissingToken), errors.Is(err, identity.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrVenueNotFound),
		errors.Is(err, marketplace.ErrProviderNotFound),
		errors.Is(err, messages.ErrRecipientNotFound):
		status = http.StatusNotFound
	case errors.Is(err, onboarding.ErrWrongStep),
		errors.Is(err, onboarding.ErrAlreadyCompleted),
		errors.Is(err, onboarding.ErrNotComplete),
		errors.Is(err, store.ErrOnboardingClosed),
		errors.Is(err, accounts.ErrOnboardingIncomplete),
		errors.Is(err, store.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, objectstore.ErrEmptyFile):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
