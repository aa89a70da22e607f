// Package httpapi exposes the service over HTTP: room management, audio
// submission, the server-sent event stream for subscribers, and a
// WebSocket ingest for producers.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"live-caption-room-service/internal/ingest"
	"live-caption-room-service/internal/observability/logging"
	"live-caption-room-service/internal/room"
	"live-caption-room-service/internal/translate"
)

// maxAudioSubmission bounds one chunk POST body.
const maxAudioSubmission = 10 << 20

// Server holds the handler dependencies.
type Server struct {
	rooms       *room.Registry
	pipeline    *ingest.Pipeline
	languages   []translate.Language
	sessionOpts ingest.SessionOptions
	gatherer    prometheus.Gatherer
	log         zerolog.Logger
}

// NewServer creates the HTTP API. languages is the translation backend's
// supported-target list, queried once at startup.
func NewServer(rooms *room.Registry, pipeline *ingest.Pipeline, languages []translate.Language, sessionOpts ingest.SessionOptions, gatherer prometheus.Gatherer) *Server {
	return &Server{
		rooms:       rooms,
		pipeline:    pipeline,
		languages:   languages,
		sessionOpts: sessionOpts,
		gatherer:    gatherer,
		log:         logging.WithComponent("httpapi"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
