package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/storyboard/internal/host"
	"github.com/lehigh-university-libraries/storyboard/internal/models"
	"github.com/lehigh-university-libraries/storyboard/internal/render"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]models.SessionSummary, 0, len(sessions))
		for _, session := range sessions {
			sessionList = append(sessionList, session.Summary())
		}
		h.writeJSON(w, sessionList)
	case "POST":
		session := h.createSession()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		h.writeJSON(w, session.Snapshot())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves /api/sessions/{id} and its sub-resources.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, _ := strings.Cut(rest, "/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch action {
	case "":
	case "upload":
		h.handleUpload(w, r, session)
		return
	case "drag":
		h.handleDrag(w, r, session)
		return
	case "storyboard":
		h.handleStoryboard(w, r, session)
		return
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, session.Snapshot())
	case "DELETE":
		h.sessionStore.Delete(sessionID)
		slog.Info("Session deleted", "session_id", sessionID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleDrag(w http.ResponseWriter, r *http.Request, session *host.Host) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Event string `json:"event"` // "enter", "over", "leave"
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := session.Drag(request.Event); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, map[string]any{
		"hovering": session.Snapshot().Hovering,
	})
}

func (h *Handler) handleStoryboard(w http.ResponseWriter, r *http.Request, session *host.Host) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batch, _ := session.Batch()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Storyboard(w, batch); err != nil {
		slog.Error("Unable to render storyboard", "session_id", session.ID, "err", err)
	}
}
