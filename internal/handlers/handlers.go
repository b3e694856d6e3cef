package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"baduklive/internal/logging"
	"baduklive/internal/session"
	"baduklive/internal/storage"
	"baduklive/internal/templates"
	"baduklive/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const heartbeatInterval = 15 * time.Second

// StatsSource reports archive statistics
type StatsSource interface {
	FetchStats(ctx context.Context) (storage.Stats, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub       *session.Hub
	Stats     StatsSource
	Origins   []string
	Commit    string
	BuildDate string
}

// NewHandler creates a new handler instance
func NewHandler(hub *session.Hub, stats StatsSource) *Handler {
	return &Handler{Hub: hub, Stats: stats}
}

// Response is the envelope of every command reply
type Response struct {
	OK    bool          `json:"ok"`
	Error string        `json:"error,omitempty"`
	State *session.View `json:"state,omitempty"`
}

// HandleNew creates a new kiosk session and redirects to it
func (h *Handler) HandleNew(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	http.Redirect(w, r, "/s/"+id, http.StatusFound)
}

// HandleHome serves the home page
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	templates.WriteHomeHTML(w)
}

// HandleKiosk serves the kiosk page of a session
func (h *Handler) HandleKiosk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		http.NotFound(w, r)
		return
	}
	if _, err := h.Hub.Get(id); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	templates.WriteKioskHTML(w, id)
}

// HandleSSE streams session views as Server-Sent Events
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	conn := utils.RandomHex(4)
	log := logging.With().Str("session", s.ID).Str("conn", conn).Logger()

	ch := make(chan []byte, 16)
	s.AddWatcher(ch)
	defer s.RemoveWatcher(ch)
	release := trackWatcher("sse")
	defer release()
	log.Debug().Str("ip", ClientIP(r)).Msg("sse attached")

	_, _ = fmt.Fprintf(w, "data: %s\n\n", s.Frame())
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("sse detached")
			return
		case <-s.Done():
			return
		case <-ticker.C:
			// heartbeat
			_, _ = w.Write([]byte("data: {}\n\n"))
			flusher.Flush()
			s.Touch()
		case msg := <-ch:
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// HandleView returns the current view of a session
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Touch()
	v := s.View()
	WriteJSON(w, http.StatusOK, Response{OK: true, State: &v})
}

// HandleAnalysis returns every analysis record loaded for the selected match
func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, recs, err := s.Analysis()
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, Response{Error: err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "match_id": id, "analysis": recs})
}

// HandleMatches returns the cached match list
func (h *Handler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Hub.Matches())
}

// HandleStats returns archive and session statistics
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	var stats storage.Stats
	if h.Stats != nil {
		var err error
		stats, err = h.Stats.FetchStats(r.Context())
		if err != nil {
			logging.Error().Err(err).Msg("fetch archive stats")
			WriteJSON(w, http.StatusInternalServerError, Response{Error: "stats unavailable"})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "archive": stats, "sessions": h.Hub.Len()})
}

// HandleHealth reports liveness and build information
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "commit": h.Commit, "build_date": h.BuildDate})
}

type selectRequest struct {
	MatchID string `json:"matchId"`
}

type gotoRequest struct {
	Move *int `json:"move"`
}

type followRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandleSelect switches the session to another match
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var body selectRequest
	if !decode(w, r, &body) {
		return
	}
	h.command(w, r, func(s *session.Session) (session.View, error) { return s.Select(body.MatchID) })
}

// HandleGoTo jumps to a move
func (h *Handler) HandleGoTo(w http.ResponseWriter, r *http.Request) {
	var body gotoRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Move == nil {
		WriteJSON(w, http.StatusBadRequest, Response{Error: "missing move"})
		return
	}
	h.command(w, r, func(s *session.Session) (session.View, error) { return s.GoTo(*body.Move) })
}

// HandlePlay starts playback
func (h *Handler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, (*session.Session).Play)
}

// HandlePause stops playback
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, (*session.Session).Pause)
}

// HandleFollow sets follow mode, or toggles it when enabled is omitted
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	var body followRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Enabled == nil {
		h.command(w, r, (*session.Session).ToggleFollowLatest)
		return
	}
	on := *body.Enabled
	h.command(w, r, func(s *session.Session) (session.View, error) { return s.SetFollowLatest(on) })
}

// HandleRefresh forces a re-fetch of the selected match
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, (*session.Session).Refresh)
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request, fn func(*session.Session) (session.View, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	v, err := fn(s)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		WriteJSON(w, status, Response{Error: err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, Response{OK: true, State: &v})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		WriteJSON(w, http.StatusNotFound, Response{Error: "unknown session"})
		return nil, false
	}
	s, err := h.Hub.Get(id)
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, Response{Error: err.Error()})
		return nil, false
	}
	return s, true
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// decode reads an optional JSON body; an empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		WriteJSON(w, http.StatusBadRequest, Response{Error: "bad json"})
		return false
	}
	return true
}
