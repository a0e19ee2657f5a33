package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lehigh-university-libraries/srcsetter/internal/breakpoints"
	"github.com/lehigh-university-libraries/srcsetter/internal/srcset"
)

type markupResponse struct {
	Markup string `json:"markup"`
}

// HandleSrcset renders a srcset.Request posted as JSON. Missing images and
// stylesheets yield empty markup.
func (h *Handler) HandleSrcset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req srcset.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		h.writeError(w, "image is required", http.StatusBadRequest)
		return
	}

	markup, err := h.resolver.Build(r.Context(), req)
	if err != nil {
		h.writeError(w, "Failed to render image: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.writeJSON(w, markupResponse{Markup: markup})
}

type tagRequest struct {
	Image string `json:"image"`
	srcset.TagOptions
}

// HandleTag renders a plain img tag, or inline markup for SVG files.
func (h *Handler) HandleTag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	markup, err := h.resolver.Tag(r.Context(), req.Image, req.TagOptions)
	if err != nil {
		h.writeError(w, "Failed to render tag: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, markupResponse{Markup: markup})
}

// HandleBreakpoints returns the active theme's breakpoint catalog.
func (h *Handler) HandleBreakpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bands, err := h.resolver.Catalog.Get(h.site.BreakpointsPath())
	switch {
	case errors.Is(err, breakpoints.ErrCatalogNotFound):
		h.writeError(w, "Breakpoints not found", http.StatusNotFound)
		return
	case err != nil:
		h.writeError(w, "Failed to load breakpoints: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, bands)
}
