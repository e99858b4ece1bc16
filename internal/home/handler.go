package home

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/eugenenazirov/hotel-showcase/internal/settings"
	"github.com/eugenenazirov/hotel-showcase/internal/testimonials"
	"github.com/eugenenazirov/hotel-showcase/internal/web"
)

// Handler is the default controller.
type Handler struct {
	site         settings.Public
	testimonials testimonials.Provider
	views        *views
	log          *zap.Logger
}

// NewHandler parses the embedded views and binds the controller's dependencies.
func NewHandler(s settings.Settings, provider testimonials.Provider, logger *zap.Logger) (*Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		provider = testimonials.NullProvider{}
	}
	return &Handler{
		site:         s.Public(),
		testimonials: provider,
		views:        v,
		log:          logger,
	}, nil
}

// Controller exposes the handler's actions to the conventional route.
func (h *Handler) Controller() web.Controller {
	return web.Controller{
		Name: web.DefaultController,
		Actions: map[string]web.Action{
			web.DefaultAction: h.Index,
			"Error":           h.Error,
			"Testimonials":    h.Testimonials,
		},
	}
}

type indexPage struct {
	Title        string
	Site         settings.Public
	Testimonials []testimonials.Testimonial
}

type errorPage struct {
	Title     string
	Site      settings.Public
	RequestID string
}

// Index renders the landing page.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) error {
	data := indexPage{
		Title:        "Home",
		Site:         h.site,
		Testimonials: testimonials.FetchOrEmpty(r.Context(), h.testimonials, h.log),
	}
	return h.views.render(w, http.StatusOK, "index", data)
}

// Error renders the generic error page the boundary redirects to.
// GET /Home/Error
func (h *Handler) Error(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Cache-Control", "no-store")
	data := errorPage{
		Title:     "Error",
		Site:      h.site,
		RequestID: web.RequestID(r.Context()),
	}
	return h.views.render(w, http.StatusOK, "error", data)
}

// Testimonials returns the testimonial list for the client application.
// GET /Home/Testimonials
func (h *Handler) Testimonials(w http.ResponseWriter, r *http.Request) error {
	items := testimonials.FetchOrEmpty(r.Context(), h.testimonials, h.log)
	if err := web.WriteJSON(w, http.StatusOK, items); err != nil {
		return fmt.Errorf("encode testimonials: %w", err)
	}
	return nil
}
