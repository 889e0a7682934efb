package server

import (
	"errors"
	"net/http"

	"github.com/mingmanhk/deepticker/internal/services/quote"
)

// handleQuote handles GET /api/quotes/{symbol}.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/quotes/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	q, err := s.app.QuoteService.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteUnavailable) {
			WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), "quote_unavailable")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, q)
}
