package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
)

// HandleMedia reports size and mime type for ?path=.
func (h *Handler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := h.pathParam(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, h.site.Inspect(rel))
}

// HandleMetadata reads or replaces stored title and description for ?path=.
func (h *Handler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	rel, ok := h.pathParam(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		meta, err := h.store.Get(r.Context(), rel)
		if err != nil {
			h.writeError(w, "Failed to load metadata: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if meta == nil {
			h.writeError(w, "Metadata not found", http.StatusNotFound)
			return
		}
		h.writeJSON(w, meta)
	case "PUT":
		if !h.site.Exists(rel) {
			h.writeError(w, "Image not found", http.StatusNotFound)
			return
		}
		var meta imagetext.Metadata
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.store.Set(r.Context(), rel, meta); err != nil {
			h.writeError(w, "Failed to store metadata: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, meta)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleResized serves files written by the resizer.
func (h *Handler) HandleResized(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/")

	// Prevent directory traversal attacks
	if strings.Contains(rel, "..") || !strings.HasPrefix(rel, h.cacheDir+"/") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, h.site.Path(rel))
}

func (h *Handler) pathParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("path")
	if strings.TrimSpace(raw) == "" {
		h.writeError(w, "path is required", http.StatusBadRequest)
		return "", false
	}
	rel := h.site.Normalize(raw)
	if rel == "" || strings.Contains(rel, "..") {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return "", false
	}
	return rel, true
}
