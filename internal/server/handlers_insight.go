package server

import (
	"errors"
	"net/http"

	"github.com/mingmanhk/deepticker/internal/models"
	"github.com/mingmanhk/deepticker/internal/services/insight"
)

// insightRequest is the request body for POST /api/insights/{kind}.
type insightRequest struct {
	Provider models.ProviderID `json:"provider,omitempty"`
	Prompt   string            `json:"prompt,omitempty"`
}

// handleInsight handles POST /api/insights/{kind}. The portfolio
// snapshot is rebuilt first so the analysis always sees current
// holdings and quotes.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	kind := models.InsightKind(PathParam(r, "/api/insights/", ""))
	if !models.ValidInsightKind(kind) {
		WriteError(w, http.StatusBadRequest, "Unknown insight kind: "+string(kind))
		return
	}

	var req insightRequest
	if r.ContentLength > 0 {
		if !DecodeJSON(w, r, &req) {
			return
		}
	}

	snapshot, err := s.app.PortfolioService.Refresh(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to build portfolio snapshot: "+err.Error())
		return
	}

	result, err := s.app.InsightService.GenerateInsight(r.Context(), kind, snapshot, req.Provider, req.Prompt)
	if err != nil {
		s.writeInsightError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// writeInsightError maps insight failures onto HTTP statuses and codes.
func (s *Server) writeInsightError(w http.ResponseWriter, err error) {
	var parseErr *insight.ParseError
	var reqErr *insight.RequestError

	switch {
	case errors.Is(err, insight.ErrNoProviderSelected):
		WriteErrorWithCode(w, http.StatusPreconditionFailed, err.Error(), "no_provider_selected")
	case errors.Is(err, insight.ErrProviderUnconfigured):
		WriteErrorWithCode(w, http.StatusPreconditionFailed, err.Error(), "provider_unconfigured")
	case errors.As(err, &parseErr):
		WriteJSON(w, http.StatusBadGateway, map[string]string{
			"error": parseErr.Error(),
			"code":  "parse_error",
			"raw":   parseErr.Raw,
		})
	case errors.As(err, &reqErr):
		WriteErrorWithCode(w, http.StatusBadGateway, reqErr.Error(), "provider_request_failed")
	default:
		WriteError(w, http.StatusBadRequest, err.Error())
	}
}
