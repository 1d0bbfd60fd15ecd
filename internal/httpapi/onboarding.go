package httpapi

import (
	"errors"
	"net/http"

	"eventhub/internal/models"
	"eventhub/internal/onboarding"
)

type onboardingErrorResponse struct {
	Error string           `json:"error"`
	State onboarding.State `json:"state"`
}

// writeOnboarding answers a step submission. Out-of-order submissions return the
// current state so the client can resynchronise.
func writeOnboarding(w http.ResponseWriter, r *http.Request, st onboarding.State, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, st)
		return
	}
	if errors.Is(err, onboarding.ErrWrongStep) || errors.Is(err, onboarding.ErrNotComplete) {
		writeJSON(w, http.StatusConflict, onboardingErrorResponse{Error: err.Error(), State: st})
		return
	}
	writeError(w, r, err)
}

func (s *Server) handleOnboardingState(w http.ResponseWriter, r *http.Request) {
	st, err := s.onboarding.State(r.Context(), currentUID(r))
	writeOnboarding(w, r, st, err)
}

func (s *Server) handleOnboardingRestart(w http.ResponseWriter, r *http.Request) {
	st, err := s.onboarding.Restart(r.Context(), currentUID(r))
	writeOnboarding(w, r, st, err)
}

func (s *Server) handleRoleAndBrand(w http.ResponseWriter, r *http.Request) {
	var req onboarding.RoleAndBrandInput
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidJSON(w)
		return
	}
	st, err := s.onboarding.SubmitRoleAndBrand(r.Context(), currentUID(r), req)
	writeOnboarding(w, r, st, err)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart payload"})
		return
	}

	logo, err := formFile(r, "logo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	photos, err := formFiles(r, "photos")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	st, err := s.onboarding.SubmitAssets(r.Context(), currentUID(r), onboarding.AssetsInput{Logo: logo, Gallery: photos})
	writeOnboarding(w, r, st, err)
}

func (s *Server) handleOnboardingServices(w http.ResponseWriter, r *http.Request) {
	var req servicesRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidJSON(w)
		return
	}
	st, err := s.onboarding.SubmitServices(r.Context(), currentUID(r), req.Services)
	writeOnboarding(w, r, st, err)
}

type locationRequest struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidJSON(w)
		return
	}
	loc := models.Location{Address: req.Address, City: req.City, State: req.State, Zip: req.Zip, Country: req.Country}
	st, err := s.onboarding.SubmitLocation(r.Context(), currentUID(r), loc)
	writeOnboarding(w, r, st, err)
}

func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart payload"})
		return
	}

	docs, err := formFiles(r, "document")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	st, err := s.onboarding.SubmitVerification(r.Context(), currentUID(r), docs)
	writeOnboarding(w, r, st, err)
}

func (s *Server) handleOnboardingComplete(w http.ResponseWriter, r *http.Request) {
	st, err := s.onboarding.Finish(r.Context(), currentUID(r))
	writeOnboarding(w, r, st, err)
}
