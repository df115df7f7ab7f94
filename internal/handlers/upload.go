package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/image-analyzer/internal/storage"
)

// HandleImage uploads (POST) or removes (DELETE) the session's image.
// POST accepts multipart field "file" or a JSON body {"url": "..."}.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	switch r.Method {
	case "POST":
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			h.handleURLUpload(w, r, session)
			return
		}
		h.handleFileUpload(w, r, session)
	case "DELETE":
		h.removeImage(session)
		h.writeJSON(w, sessionView(session))
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request, session *storage.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("files")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	img, err := h.processImageFile(file, header.Filename)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.storeImage(session, img)
	slog.Info("Image stored", "session_id", session.ID, "filename", img.Name)
	h.writeJSON(w, sessionView(session))
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request, session *storage.Session) {
	var request struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.URL == "" {
		h.writeError(w, "url is required", http.StatusBadRequest)
		return
	}

	img, err := h.processImageURL(request.URL)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.storeImage(session, img)
	slog.Info("Image stored", "session_id", session.ID, "filename", img.Name)
	h.writeJSON(w, sessionView(session))
}
