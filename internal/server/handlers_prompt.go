package server

import (
	"net/http"

	"github.com/mingmanhk/deepticker/internal/interfaces"
)

// handlePrompt handles GET, PUT, and DELETE /api/prompt: the stored
// custom prompt template used when an insight request carries none.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	kv := s.app.Storage.KV()

	switch r.Method {
	case http.MethodGet:
		prompt, err := kv.Get(r.Context(), interfaces.KVCustomPrompt)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to read prompt: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"prompt": prompt})

	case http.MethodPut:
		var req struct {
			Prompt string `json:"prompt"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Prompt == "" {
			WriteError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		if err := kv.Set(r.Context(), interfaces.KVCustomPrompt, req.Prompt); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to store prompt: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "stored"})

	case http.MethodDelete:
		if err := kv.Delete(r.Context(), interfaces.KVCustomPrompt); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to delete prompt: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
