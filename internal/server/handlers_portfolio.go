package server

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mingmanhk/deepticker/internal/models"
)

// handlePortfolio handles GET /api/portfolio. The snapshot is always
// derived on demand; quotes inside their TTL come from the cache.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := s.app.PortfolioService.Refresh(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to build portfolio snapshot: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// handlePortfolioRefresh handles POST /api/portfolio/refresh.
func (s *Server) handlePortfolioRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	snapshot, err := s.app.PortfolioService.Refresh(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Refresh failed: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// holdingRequest is the request body for creating or updating a holding.
type holdingRequest struct {
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// handleHoldings handles GET and POST /api/holdings.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		holdings, err := s.app.PortfolioService.ListHoldings(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to list holdings: "+err.Error())
			return
		}
		if holdings == nil {
			holdings = []models.Holding{}
		}
		WriteJSON(w, http.StatusOK, holdings)

	case http.MethodPost:
		var req holdingRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		holding, err := s.app.PortfolioService.AddHolding(r.Context(), req.Symbol, req.Shares, req.CostBasis)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, holding)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeHolding handles PUT and DELETE /api/holdings/{symbol}.
func (s *Server) routeHolding(w http.ResponseWriter, r *http.Request) {
	symbol := PathParam(r, "/api/holdings/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req holdingRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		holding, err := s.app.PortfolioService.UpdateHolding(r.Context(), symbol, req.Shares, req.CostBasis)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, holding)

	case http.MethodDelete:
		if err := s.app.PortfolioService.RemoveHolding(r.Context(), symbol); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "symbol": models.NormalizeSymbol(symbol)})

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}
