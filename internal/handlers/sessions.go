package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/image-analyzer/internal/models"
	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]models.Session, 0, len(sessions))
		for _, session := range sessions {
			sessionList = append(sessionList, sessionView(session))
		}
		h.writeJSON(w, sessionList)
	case "POST":
		session := h.sessionStore.Create()
		session.Do(func(s *selection.State) {
			s.Subscribe(logSelection(session.ID))
		})
		slog.Info("Session created", "session_id", session.ID)
		h.writeJSONStatus(w, http.StatusCreated, sessionView(session))
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, sessionView(session))
	case "DELETE":
		h.sessionStore.Delete(sessionID)
		slog.Info("Session deleted", "session_id", sessionID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleModels toggles providers: {"anthropic": true, "openai": false}
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	var request map[string]bool
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	toggles := make(map[providers.ID]bool, len(request))
	for name, enabled := range request {
		id, err := providers.ParseID(name)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if enabled && !h.orchestrator.Has(id) {
			h.writeError(w, "Provider not configured: "+string(id), http.StatusBadRequest)
			return
		}
		toggles[id] = enabled
	}

	session.Do(func(s *selection.State) {
		for id, enabled := range toggles {
			s.SetModel(id, enabled)
		}
	})

	h.writeJSON(w, sessionView(session))
}

// HandleFields toggles output fields: {"description": true, "aspect-ratio": true}
func (h *Handler) HandleFields(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	var request map[string]bool
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	toggles := make(map[prompt.FieldID]bool, len(request))
	for name, enabled := range request {
		f, err := prompt.ParseField(name)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		toggles[f] = enabled
	}

	session.Do(func(s *selection.State) {
		for f, enabled := range toggles {
			s.SetField(f, enabled)
		}
	})

	h.writeJSON(w, sessionView(session))
}
