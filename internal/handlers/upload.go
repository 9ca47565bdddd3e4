package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/lehigh-university-libraries/storyboard/internal/composer"
	"github.com/lehigh-university-libraries/storyboard/internal/decode"
	"github.com/lehigh-university-libraries/storyboard/internal/host"
	"github.com/lehigh-university-libraries/storyboard/internal/intake"
	"github.com/lehigh-university-libraries/storyboard/internal/models"
)

// Multipart bodies beyond this are kept on disk by the mime package.
const maxMemory = 32 << 20

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, session *host.Host) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Failed to remove multipart temp files", "err", err)
		}
	}()

	source, err := host.ParseSource(r.FormValue("source"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}

	files, err := h.readFiles(headers)
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Selection received", "session_id", session.ID, "source", source, "files", len(files))

	if _, emitted := session.Submit(source, files); emitted {
		if _, err := session.Wait(r.Context()); err != nil && !errors.Is(err, composer.ErrSuperseded) {
			h.writeError(w, "Preview did not complete: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	h.writeJSON(w, session.Snapshot())
}

// readFiles normalises the uploaded parts. Parts that are plainly not images
// are passed on without content so the intake can drop them. Image payloads
// are read up to one byte past the size limit; the decoder fails anything
// longer.
func (h *Handler) readFiles(headers []*multipart.FileHeader) ([]models.FileHandle, error) {
	files := make([]models.FileHandle, 0, len(headers))
	for _, header := range headers {
		declared := header.Header.Get("Content-Type")
		if mediaType := decode.DeclaredMediaType(header.Filename, declared); mediaType != "" && !intake.IsImage(mediaType) {
			files = append(files, models.FileHandle{Name: header.Filename, MediaType: mediaType})
			continue
		}

		data, err := h.readFile(header)
		if err != nil {
			return nil, err
		}
		files = append(files, decode.Handle(header.Filename, declared, data))
	}
	return files, nil
}

func (h *Handler) readFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(h.cfg.MaxFileSize)+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", header.Filename, err)
	}
	return data, nil
}
