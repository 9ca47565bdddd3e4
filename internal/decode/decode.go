// Package decode turns uploaded image bytes into self-contained data URIs.
package decode

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

var (
	// ErrEmpty is returned for a file without payload.
	ErrEmpty = errors.New("file is empty")
	// ErrUnsupported is returned when the payload is not a decodable image.
	ErrUnsupported = errors.New("unsupported or corrupt image")
	// ErrTimeout is returned when a decode does not finish in time.
	ErrTimeout = errors.New("decode timed out")
	// ErrTooLarge is returned for a payload above the decoder's size limit.
	ErrTooLarge = errors.New("file too large")
)

const svgMediaType = "image/svg+xml"

// Decoder converts a file handle into a preview. Implementations must honour
// ctx cancellation.
type Decoder interface {
	Decode(ctx context.Context, file models.FileHandle) (models.DecodedPreview, error)
}

// DataURIDecoder verifies raster images with image.DecodeConfig and encodes
// them as base64 data URIs. SVG payloads are passed through unchecked apart
// from a root element sniff.
type DataURIDecoder struct {
	// MaxBytes rejects larger payloads. Zero means no limit.
	MaxBytes int64
}

// New returns a decoder without a size limit.
func New() *DataURIDecoder {
	return &DataURIDecoder{}
}

// NewLimited returns a decoder that fails files above maxBytes.
func NewLimited(maxBytes int64) *DataURIDecoder {
	return &DataURIDecoder{MaxBytes: maxBytes}
}

type result struct {
	preview models.DecodedPreview
	err     error
}

// Decode runs the conversion off the caller's goroutine so an expired ctx
// returns immediately. A decode that outlives ctx still finishes but its
// result is dropped.
func (d *DataURIDecoder) Decode(ctx context.Context, file models.FileHandle) (models.DecodedPreview, error) {
	if d.MaxBytes > 0 && int64(len(file.Data)) > d.MaxBytes {
		return models.DecodedPreview{}, fmt.Errorf("%s: %w", file.Name, ErrTooLarge)
	}

	done := make(chan result, 1)
	go func() {
		p, err := ToPreview(file)
		done <- result{preview: p, err: err}
	}()

	select {
	case r := <-done:
		return r.preview, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.DecodedPreview{}, fmt.Errorf("%s: %w", file.Name, ErrTimeout)
		}
		return models.DecodedPreview{}, fmt.Errorf("%s: %w", file.Name, ctx.Err())
	}
}

// ToPreview decodes file synchronously. The returned preview has no ID.
func ToPreview(file models.FileHandle) (models.DecodedPreview, error) {
	if len(file.Data) == 0 {
		return models.DecodedPreview{}, fmt.Errorf("%s: %w", file.Name, ErrEmpty)
	}

	mediaType := baseMediaType(file.MediaType)
	preview := models.DecodedPreview{
		Label:     file.Name,
		MediaType: mediaType,
	}

	switch {
	case mediaType == svgMediaType:
		if !looksLikeSVG(file.Data) {
			return models.DecodedPreview{}, fmt.Errorf("%s: %w", file.Name, ErrUnsupported)
		}
	case passthrough(mediaType, file.Data):
		// Browsers render these directly; dimensions stay unknown.
	default:
		cfg, format, err := image.DecodeConfig(bytes.NewReader(file.Data))
		if err != nil {
			return models.DecodedPreview{}, fmt.Errorf("%s: %w: %v", file.Name, ErrUnsupported, err)
		}
		preview.Width = cfg.Width
		preview.Height = cfg.Height
		if mediaType == "" || mediaType == "image/*" || mediaType == "application/octet-stream" {
			preview.MediaType = "image/" + format
		}
	}

	preview.Source = DataURI(preview.MediaType, file.Data)
	return preview, nil
}

// DataURI encodes data as a base64 data URI of the given media type.
func DataURI(mediaType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mediaType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

func baseMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(mediaType)
	}
	return parsed
}

// passthrough reports whether data carries the signature of a format
// browsers display but the image package cannot read.
func passthrough(mediaType string, data []byte) bool {
	switch mediaType {
	case "image/avif":
		return len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) &&
			(bytes.Equal(data[8:12], []byte("avif")) || bytes.Equal(data[8:12], []byte("avis")))
	case "image/x-icon", "image/vnd.microsoft.icon":
		return bytes.HasPrefix(data, []byte{0x00, 0x00, 0x01, 0x00})
	default:
		return false
	}
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
