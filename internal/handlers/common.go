package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/image-analyzer/internal/analysis"
	"github.com/lehigh-university-libraries/image-analyzer/internal/config"
	"github.com/lehigh-university-libraries/image-analyzer/internal/models"
	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
	"github.com/lehigh-university-libraries/image-analyzer/internal/storage"
)

// CredentialStore is the subset of the key store the handlers need
type CredentialStore interface {
	Get(id providers.ID) (string, bool)
	Set(id providers.ID, secret string) error
	Providers() []providers.ID
}

type Handler struct {
	sessionStore *storage.SessionStore
	orchestrator *analysis.Orchestrator
	credentials  CredentialStore
	uploadLimit  int64
	app          config.App
}

func New(orchestrator *analysis.Orchestrator, credentials CredentialStore, uploadLimit int64, app config.App) *Handler {
	return &Handler{
		sessionStore: storage.New(),
		orchestrator: orchestrator,
		credentials:  credentials,
		uploadLimit:  uploadLimit,
		app:          app,
	}
}

// Routes registers the API on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/app", h.HandleApp)
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("/api/sessions/{id}/image", h.HandleImage)
	mux.HandleFunc("PUT /api/sessions/{id}/models", h.HandleModels)
	mux.HandleFunc("PUT /api/sessions/{id}/fields", h.HandleFields)
	mux.HandleFunc("POST /api/sessions/{id}/analyze", h.HandleAnalyze)
	mux.HandleFunc("GET /api/credentials", h.HandleCredentials)
	mux.HandleFunc("PUT /api/credentials/{provider}", h.HandleSetCredential)
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*storage.Session, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func logSelection(sessionID string) selection.Observer {
	return func(snap selection.Snapshot) {
		slog.Debug("Selection changed",
			"session_id", sessionID,
			"image_ready", snap.ImageReady,
			"model_ready", snap.ModelReady,
			"fields_ready", snap.FieldsReady,
			"progress", snap.Progress,
		)
	}
}

func sessionView(session *storage.Session) models.Session {
	view := models.Session{
		ID:        session.ID,
		Models:    []providers.ID{},
		Fields:    []prompt.FieldID{},
		CreatedAt: session.CreatedAt,
	}

	session.Do(func(s *selection.State) {
		view.Models = append(view.Models, s.Models()...)
		view.Fields = append(view.Fields, s.Fields()...)
		view.Readiness = s.Snapshot()
		if r := s.Result(); r != nil {
			result := *r
			view.Result = &result
		}
		if img := s.Image(); img != nil {
			view.Image = &models.ImageItem{
				Filename:  img.Name,
				MediaType: string(img.MediaType),
				Size:      img.Size(),
				Bytes:     len(img.Data),
				Width:     img.Width,
				Height:    img.Height,
			}
		}
	})

	return view
}

func (h *Handler) HandleApp(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.app)
}
