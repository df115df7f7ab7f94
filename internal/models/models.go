package models

import (
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/analysis"
	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
)

// Session is the JSON view of an analysis session
type Session struct {
	ID        string             `json:"id"`
	Image     *ImageItem         `json:"image,omitempty"`
	Models    []providers.ID     `json:"models"`
	Fields    []prompt.FieldID   `json:"fields"`
	Readiness selection.Snapshot `json:"readiness"`
	Result    *analysis.Result   `json:"result,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// ImageItem describes the uploaded image without its bytes
type ImageItem struct {
	Filename  string `json:"filename"`
	MediaType string `json:"media_type"`
	Size      string `json:"size"`
	Bytes     int    `json:"bytes"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Credentials reports which providers have a key configured; keys themselves are never returned
type Credentials struct {
	Configured []providers.ID `json:"configured"`
}
