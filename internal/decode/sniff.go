package decode

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

// MediaType resolves the media type of an uploaded file. A declared type
// wins unless it is missing or generic; then the extension is consulted and
// finally the content is sniffed.
func MediaType(name, declared string, data []byte) string {
	if mediaType := DeclaredMediaType(name, declared); mediaType != "" {
		return mediaType
	}
	return http.DetectContentType(data)
}

// DeclaredMediaType resolves the media type without looking at content. It
// returns "" when neither the declared type nor the extension tells.
func DeclaredMediaType(name, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
}

// Handle builds a normalised file handle.
func Handle(name, declared string, data []byte) models.FileHandle {
	return models.FileHandle{
		Name:      name,
		MediaType: MediaType(name, declared, data),
		Data:      data,
	}
}
