package httpapi

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"live-caption-room-service/internal/room"
)

func (s *Server) createRoom(w http.ResponseWriter, _ *http.Request) {
	id := s.rooms.CreateRoom()
	writeJSON(w, http.StatusCreated, map[string]string{"room_id": id})
}

func (s *Server) listRooms(w http.ResponseWriter, _ *http.Request) {
	ids := s.rooms.Rooms()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string][]string{"rooms": ids})
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")
	if !s.rooms.Exists(id) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	langs := s.rooms.SubscribedLanguages(id)
	sort.Strings(langs)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":   id,
		"languages": langs,
	})
}

func (s *Server) listLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": s.languages})
}

// submitAudio accepts one raw PCM chunk. The is_utterance query flag marks
// the chunk as completing an utterance.
func (s *Server) submitAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")

	isUtterance, _ := strconv.ParseBool(r.URL.Query().Get("is_utterance"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAudioSubmission))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio body")
		return
	}

	if err := s.pipeline.ProcessAudio(r.Context(), id, body, isUtterance); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		s.log.Error().Err(err).Str("roomId", id).Msg("audio submission failed")
		writeError(w, http.StatusInternalServerError, "audio submission failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
