package httpapi

import (
	"net/http"

	"eventhub/internal/identity"
	"eventhub/internal/models"
)

type servicesRequest struct {
	Services []models.ServiceOffering `json:"services"`
}

// pushRequest carries unsaved service edits from the push page. A missing services
// key means nothing is pending.
type pushRequest struct {
	Services *[]models.ServiceOffering `json:"services"`
}

func (s *Server) handleEnsureAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	account, created, err := s.accounts.Ensure(r.Context(), id.UID, id.Email, id.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, account)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := s.accounts.Profile(r.Context(), currentUID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidJSON(w)
		return
	}

	profile, err := s.accounts.UpdateProfile(r.Context(), currentUID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSaveServices(w http.ResponseWriter, r *http.Request) {
	var req servicesRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidJSON(w)
		return
	}

	profile, err := s.accounts.SaveServices(r.Context(), currentUID(r), req.Services)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePublication(w http.ResponseWriter, r *http.Request) {
	e, err := s.accounts.Publication(r.Context(), currentUID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleTogglePublication(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeInvalidJSON(w)
		return
	}

	profile, err := s.accounts.PushToMarket(r.Context(), currentUID(r), req.Services)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
