package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/media"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
	"github.com/lehigh-university-libraries/image-analyzer/internal/storage"
)

var downloadClient = &http.Client{Timeout: 30 * time.Second}

func (h *Handler) processImageFile(r io.Reader, filename string) (*media.Image, error) {
	if !media.Accepted(filename) {
		return nil, fmt.Errorf("unsupported image type: %s", filename)
	}

	img, err := media.Read(r, filename, h.uploadLimit)
	if err != nil {
		return nil, err
	}

	slog.Info("Image received",
		"filename", img.Name,
		"type", img.MediaType,
		"size", img.Size(),
		"width", img.Width,
		"height", img.Height,
	)
	return img, nil
}

func (h *Handler) processImageURL(imageURL string) (*media.Image, error) {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid image url: %s", imageURL)
	}

	// URLs without an extension are declared as JPEG, like any unknown type
	filename := path.Base(u.Path)
	if ext := path.Ext(filename); ext == "" || ext == filename {
		filename = "image.jpg"
	}

	resp, err := downloadClient.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	img, err := h.processImageFile(resp.Body, filename)
	if err != nil {
		return nil, err
	}

	slog.Info("Image downloaded", "url", u.Redacted())
	return img, nil
}

func (h *Handler) storeImage(session *storage.Session, img *media.Image) {
	session.Do(func(s *selection.State) {
		s.SetImage(img)
	})
}

func (h *Handler) removeImage(session *storage.Session) {
	session.Do(func(s *selection.State) {
		s.ClearImage()
	})
	slog.Info("Image removed", "session_id", session.ID)
}
