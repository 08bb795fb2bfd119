package api

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/health", h.HandleHealth)

	r.Route("/circuit", func(r chi.Router) {
		r.Post("/run-circuit/", h.HandleRunCircuit)
	})
	r.Route("/grover", func(r chi.Router) {
		r.Post("/search", h.HandleSearch)
	})
	r.Route("/portfolio", func(r chi.Router) {
		r.Post("/optimize", h.HandlePortfolio)
	})
}
