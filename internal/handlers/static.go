package handlers

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/storyboard/internal/host"
	"github.com/lehigh-university-libraries/storyboard/internal/render"
)

//go:embed static
var staticFiles embed.FS

var staticFS, _ = fs.Sub(staticFiles, "static")

// HandleStatic serves /static/ assets and the storyboard page. Without a
// session in the query a new session is created and the browser is
// redirected to it.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/static/") {
		h.serveAsset(w, r, strings.TrimPrefix(r.URL.Path, "/static/"))
		return
	}

	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	session, ok := h.pageSession(r.URL.Query().Get("session"))
	if !ok {
		session = h.createSession()
		http.Redirect(w, r, "/?session="+session.ID, http.StatusFound)
		return
	}

	batch, _ := session.Batch()
	snap := session.Snapshot()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Page(w, render.PageData{
		SessionID: session.ID,
		MaxImages: snap.MaxImages,
		Message:   snap.Message,
		Hovering:  snap.Hovering,
		Batch:     batch,
	}); err != nil {
		slog.Error("Unable to render page", "session_id", session.ID, "err", err)
	}
}

// pageSession resolves the session named in the page URL. A well-formed id
// that is no longer stored, for example after a restart or pruning, is
// recreated so bookmarked pages keep working.
func (h *Handler) pageSession(sessionID string) (*host.Host, bool) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, false
	}
	session, created := h.sessionStore.GetOrCreate(sessionID, h.newSession)
	if created {
		slog.Info("Session recreated", "session_id", sessionID)
	}
	return session, true
}

func (h *Handler) serveAsset(w http.ResponseWriter, r *http.Request, filepath string) {
	// Prevent directory traversal attacks
	if filepath == "" || strings.Contains(filepath, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(filepath, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(filepath, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	}

	http.ServeFileFS(w, r, staticFS, filepath)
}
