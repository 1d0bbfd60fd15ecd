package httpapi

import (
	"context"
	"net/http"

	"eventhub/internal/app/marketplace"
	"eventhub/internal/models"
)

func providerFilter(r *http.Request) marketplace.Filter {
	q := r.URL.Query()
	return marketplace.Filter{Role: q.Get("role"), Query: q.Get("q")}
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	listing, err := s.marketplace.ListProviders(r.Context(), providerFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleStreamProviders(w http.ResponseWriter, r *http.Request) {
	filter := providerFilter(r)
	s.stream(w, r, func(ctx context.Context) (any, error) {
		return s.marketplace.ListProviders(ctx, filter)
	})
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := s.marketplace.GetProvider(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

type venueListResponse struct {
	Venues []*models.Venue `json:"venues"`
}

func (s *Server) handleMarketplaceVenues(w http.ResponseWriter, r *http.Request) {
	list, err := s.marketplace.ListVenues(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venueListResponse{Venues: list})
}

func (s *Server) handleStreamMarketplaceVenues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	s.stream(w, r, func(ctx context.Context) (any, error) {
		list, err := s.marketplace.ListVenues(ctx, query)
		if err != nil {
			return nil, err
		}
		return venueListResponse{Venues: list}, nil
	})
}
