package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/storyboard/internal/composer"
	"github.com/lehigh-university-libraries/storyboard/internal/config"
	"github.com/lehigh-university-libraries/storyboard/internal/decode"
	"github.com/lehigh-university-libraries/storyboard/internal/host"
	"github.com/lehigh-university-libraries/storyboard/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	cfg          config.Config
	decoder      decode.Decoder
}

func New(cfg config.Config) *Handler {
	return &Handler{
		sessionStore: storage.New(),
		cfg:          cfg,
		decoder:      decode.NewLimited(int64(cfg.MaxFileSize)),
	}
}

// Sessions exposes the store so the server can prune idle sessions.
func (h *Handler) Sessions() *storage.SessionStore {
	return h.sessionStore
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*host.Host, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (h *Handler) createSession() *host.Host {
	session := h.newSession(uuid.NewString())
	h.sessionStore.Set(session.ID, session)
	slog.Info("Session created", "session_id", session.ID, "max_images", h.cfg.MaxImages)
	return session
}

func (h *Handler) newSession(sessionID string) *host.Host {
	return host.New(sessionID, host.Options{
		MaxImages: h.cfg.MaxImages,
		Decoder:   h.decoder,
		Composer: composer.Options{
			DecodeTimeout: h.cfg.DecodeTimeout,
			Concurrency:   h.cfg.Concurrency,
		},
	})
}
