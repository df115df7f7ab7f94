package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/image-analyzer/internal/models"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
)

// HandleCredentials lists which providers have a key. Keys themselves are never returned.
func (h *Handler) HandleCredentials(w http.ResponseWriter, r *http.Request) {
	configured := h.credentials.Providers()
	if configured == nil {
		configured = []providers.ID{}
	}
	h.writeJSON(w, models.Credentials{Configured: configured})
}

// HandleSetCredential stores {"api_key": "..."} for a provider; an empty key removes it
func (h *Handler) HandleSetCredential(w http.ResponseWriter, r *http.Request) {
	id, err := providers.ParseID(r.PathValue("provider"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var request struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.credentials.Set(id, request.APIKey); err != nil {
		slog.Error("Unable to store credential", "provider", id, "err", err)
		http.Error(w, "Unable to store credential", http.StatusInternalServerError)
		return
	}

	slog.Info("Credential updated", "provider", id, "cleared", strings.TrimSpace(request.APIKey) == "")
	w.WriteHeader(http.StatusNoContent)
}
