package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"eventhub/internal/app/venues"
)

type venueRequest struct {
	VenueName   string  `json:"venue_name"`
	Description string  `json:"description"`
	Capacity    int     `json:"capacity"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
}

// venueInput accepts either a JSON body or a multipart form with an optional image.
func venueInput(w http.ResponseWriter, r *http.Request) (venues.Input, string) {
	if !isMultipart(r) {
		var req venueRequest
		if err := decodeJSON(r, &req, false); err != nil {
			return venues.Input{}, "invalid JSON payload"
		}
		return venues.Input{
			VenueName:   req.VenueName,
			Description: req.Description,
			Capacity:    req.Capacity,
			Price:       req.Price,
			Currency:    req.Currency,
			City:        req.City,
			Country:     req.Country,
		}, ""
	}

	if err := parseMultipart(w, r); err != nil {
		return venues.Input{}, "invalid multipart payload"
	}

	in := venues.Input{
		VenueName:   r.FormValue("venue_name"),
		Description: r.FormValue("description"),
		Currency:    r.FormValue("currency"),
		City:        r.FormValue("city"),
		Country:     r.FormValue("country"),
	}
	if raw := strings.TrimSpace(r.FormValue("capacity")); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			return venues.Input{}, "invalid capacity"
		}
		in.Capacity = capacity
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return venues.Input{}, "invalid price"
		}
		in.Price = price
	}

	image, err := formFile(r, "image")
	if err != nil {
		return venues.Input{}, err.Error()
	}
	in.Image = image
	return in, ""
}

func venueID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue ID"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	in, problem := venueInput(w, r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	created, err := s.venues.Create(r.Context(), currentUID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	list, err := s.venues.List(r.Context(), currentUID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venueListResponse{Venues: list})
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := venueID(w, r)
	if !ok {
		return
	}

	detail, err := s.venues.Get(r.Context(), currentUID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := venueID(w, r)
	if !ok {
		return
	}
	in, problem := venueInput(w, r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: problem})
		return
	}

	updated, err := s.venues.Update(r.Context(), currentUID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := venueID(w, r)
	if !ok {
		return
	}

	if err := s.venues.Delete(r.Context(), currentUID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := venueID(w, r)
	if !ok {
		return
	}

	detail, err := s.venues.TogglePublish(r.Context(), currentUID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
