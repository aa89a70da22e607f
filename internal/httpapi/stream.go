package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live-caption-room-service/internal/ingest"
	"live-caption-room-service/internal/models"
	"live-caption-room-service/internal/room"
)

// events streams a subscriber's feed as server-sent events. target_lang may
// repeat to subscribe to several translation feeds; no_transcriptions=1
// opts out of the plain transcription feed. The subscription is torn down
// when the client disconnects.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	langs := r.URL.Query()["target_lang"]
	noTranscriptions, _ := strconv.ParseBool(r.URL.Query().Get("no_transcriptions"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	clientID := uuid.NewString()
	queue, err := s.rooms.Subscribe(roomID, clientID, langs, !noTranscriptions)
	switch {
	case errors.Is(err, room.ErrNotFound):
		writeError(w, http.StatusNotFound, "room not found")
		return
	case errors.Is(err, room.ErrNoFeeds):
		writeError(w, http.StatusBadRequest, "subscription selects no feeds")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "subscribe failed")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.log.Info().
		Str("roomId", roomID).
		Str("clientId", clientID).
		Strs("languages", langs).
		Bool("transcriptions", !noTranscriptions).
		Msg("subscriber connected")

	d := room.NewDelivery(s.rooms, roomID, clientID, queue)
	err = d.Run(r.Context(), func(m models.Message) error {
		if err := writeEvent(w, m); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, r.Context().Err()) {
		s.log.Warn().Err(err).Str("clientId", clientID).Msg("event stream ended")
	}
}

// writeEvent frames one message as a server-sent event, tagged with its
// kind.
func writeEvent(w http.ResponseWriter, m models.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Kind(), payload)
	return err
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	// Producers are trusted tools; cross-origin checks add nothing here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// stream is the producer ingest: a WebSocket carrying binary PCM frames.
// Windowing, voice-activity gating, and reconciliation run server-side in
// a per-connection session.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !s.rooms.Exists(roomID) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	session := ingest.NewSession(s.pipeline, roomID, s.sessionOpts)
	s.log.Info().Str("roomId", roomID).Msg("producer connected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := session.Ingest(r.Context(), data); err != nil {
			s.log.Error().Err(err).Str("roomId", roomID).Msg("ingest failed")
			break
		}
	}

	if err := session.Close(r.Context()); err != nil {
		s.log.Warn().Err(err).Str("roomId", roomID).Msg("session close failed")
	}
	s.log.Info().Str("roomId", roomID).Msg("producer disconnected")
}
