package server

import (
	"net/http"
	"strings"

	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
)

// handleProviders handles GET /api/providers.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	statuses, err := s.app.InsightService.ProviderStatuses(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to read provider statuses: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, statuses)
}

// handleProviderSelect handles POST /api/providers/select.
func (s *Server) handleProviderSelect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Provider models.ProviderID `json:"provider"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !models.ValidProvider(req.Provider) {
		WriteError(w, http.StatusBadRequest, "Unknown provider: "+string(req.Provider))
		return
	}

	if err := s.app.Storage.KV().Set(r.Context(), interfaces.KVSelectedProvider, string(req.Provider)); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to store selection: "+err.Error())
		return
	}
	s.logger.Info().Str("provider", string(req.Provider)).Msg("Provider selected")
	WriteJSON(w, http.StatusOK, map[string]string{"selected": string(req.Provider)})
}

// routeProviderCredential handles PUT and DELETE /api/providers/{id}/credential.
func (s *Server) routeProviderCredential(w http.ResponseWriter, r *http.Request) {
	rest := PathParam(r, "/api/providers/", "")
	if !strings.HasSuffix(rest, "/credential") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	id := models.ProviderID(strings.TrimSuffix(rest, "/credential"))
	if !models.ValidProvider(id) {
		WriteError(w, http.StatusBadRequest, "Unknown provider: "+string(id))
		return
	}

	credentials := s.app.Storage.Credentials()

	switch r.Method {
	case http.MethodPut:
		var req struct {
			APIKey string `json:"api_key"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.APIKey == "" {
			WriteError(w, http.StatusBadRequest, "api_key is required")
			return
		}
		if err := credentials.SetSecret(r.Context(), id, req.APIKey); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to store credential: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "stored", "provider": string(id)})

	case http.MethodDelete:
		if err := credentials.DeleteSecret(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to delete credential: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "provider": string(id)})

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}
