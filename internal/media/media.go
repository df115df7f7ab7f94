package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MediaType is the declared type sent to providers alongside the image payload
type MediaType string

const (
	JPEG MediaType = "image/jpeg"
	PNG  MediaType = "image/png"
	GIF  MediaType = "image/gif"
	BMP  MediaType = "image/bmp"
	WEBP MediaType = "image/webp"
)

var extensionTypes = map[string]MediaType{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".gif":  GIF,
	".bmp":  BMP,
	".webp": WEBP,
}

// TypeFor maps a file name to its media type by extension.
// Unknown or missing extensions are declared as JPEG; the bytes are never sniffed.
func TypeFor(fileName string) MediaType {
	if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return JPEG
}

// Accepted reports whether the file name carries one of the upload extensions
func Accepted(fileName string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// Encode returns the media type for fileName and the standard base64 encoding of data
func Encode(data []byte, fileName string) (MediaType, string) {
	return TypeFor(fileName), base64.StdEncoding.EncodeToString(data)
}

// Image is an uploaded image held in memory
type Image struct {
	Name      string
	Data      []byte
	MediaType MediaType
	Width     int
	Height    int
}

// NewImage wraps uploaded bytes. Dimensions are best effort.
func NewImage(name string, data []byte) *Image {
	img := &Image{
		Name:      name,
		Data:      data,
		MediaType: TypeFor(name),
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Failed to get image dimensions", "filename", name, "error", err)
	} else {
		img.Width, img.Height = cfg.Width, cfg.Height
	}

	return img
}

// Read loads at most limit bytes from r. Images at or above the limit, or empty ones, are rejected.
func Read(r io.Reader, name string, limit int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) >= limit {
		return nil, fmt.Errorf("image too large (max %s)", humanize.IBytes(uint64(limit)))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %q is empty", name)
	}
	return NewImage(name, data), nil
}

// Size is the human readable size of the image bytes
func (i *Image) Size() string {
	return humanize.Bytes(uint64(len(i.Data)))
}
