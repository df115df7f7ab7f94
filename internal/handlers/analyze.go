package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/lehigh-university-libraries/image-analyzer/internal/media"
	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
)

type analyzeRequest struct {
	Provider string `json:"provider"`
}

// HandleAnalyze runs one analysis attempt for a ready session.
// The body is optional; without a provider the first enabled one is used.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	var request analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !session.TryBeginAnalysis() {
		h.writeError(w, "Analysis already in progress", http.StatusConflict)
		return
	}
	defer session.EndAnalysis()

	var (
		ready      bool
		img        *media.Image
		fields     []prompt.FieldID
		enabled    []providers.ID
		generation uint64
	)
	session.Do(func(s *selection.State) {
		ready = s.Snapshot().Ready
		if !ready {
			return
		}
		img = s.Image()
		fields = s.Fields()
		enabled = s.Models()
		generation = s.Generation()
	})
	if !ready {
		h.writeError(w, "Session is not ready for analysis", http.StatusConflict)
		return
	}

	id := enabled[0]
	if request.Provider != "" {
		requested, err := providers.ParseID(request.Provider)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !slices.Contains(enabled, requested) {
			h.writeError(w, "Provider not enabled for this session: "+string(requested), http.StatusBadRequest)
			return
		}
		id = requested
	}

	// The attempt is committed; the previous result no longer applies
	session.Do(func(s *selection.State) {
		s.ClearResult()
	})

	credential, hasKey := h.credentials.Get(id)

	slog.Info("Starting analysis",
		"session_id", session.ID,
		"provider", id,
		"fields", fields,
		"image", img.Name,
		"has_key", hasKey,
	)
	result := h.orchestrator.Analyze(r.Context(), id, img, fields, credential)

	var stored bool
	session.Do(func(s *selection.State) {
		stored = s.SetResult(generation, result)
	})
	if !stored {
		slog.Warn("Discarding result for replaced image", "session_id", session.ID, "provider", id)
	}

	h.writeJSON(w, result)
}
