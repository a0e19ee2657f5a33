package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/srcsetter/internal/media"
	"github.com/lehigh-university-libraries/srcsetter/internal/metadata"
	"github.com/lehigh-university-libraries/srcsetter/internal/srcset"
)

type Handler struct {
	resolver *srcset.Resolver
	site     *media.Site
	store    metadata.Store
	cacheDir string
}

func New(resolver *srcset.Resolver, site *media.Site, store metadata.Store, cacheDir string) *Handler {
	return &Handler{
		resolver: resolver,
		site:     site,
		store:    store,
		cacheDir: cacheDir,
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/srcset", h.HandleSrcset)
	mux.HandleFunc("/api/tag", h.HandleTag)
	mux.HandleFunc("/api/media", h.HandleMedia)
	mux.HandleFunc("/api/metadata", h.HandleMetadata)
	mux.HandleFunc("/api/breakpoints", h.HandleBreakpoints)
	mux.HandleFunc("/"+h.cacheDir+"/", h.HandleResized)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
