package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all report routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/report", func(r chi.Router) {
		r.Get("/", h.HandleGetReport)
		r.Post("/refresh", h.HandleRefreshReport)
	})

	r.Route("/satid", func(r chi.Router) {
		r.Get("/scores", h.HandleGetScores)
		r.Get("/portfolio", h.HandleGetPortfolio)
		r.Get("/assets/{assetID}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetAsset(w, r, chi.URLParam(r, "assetID"))
		})
	})

	r.Route("/risk", func(r chi.Router) {
		r.Get("/statistics", h.HandleGetRiskStats)
		r.Get("/exposure", h.HandleGetExposure)
	})

	r.Get("/performance", h.HandleGetPerformance)
}
