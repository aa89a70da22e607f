// Package ingest orchestrates audio submissions end to end: transcription,
// the staleness gate, room fan-out, and per-language translation.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"live-caption-room-service/internal/audio"
	"live-caption-room-service/internal/models"
	"live-caption-room-service/internal/observability/logging"
	"live-caption-room-service/internal/observability/metrics"
	"live-caption-room-service/internal/room"
	"live-caption-room-service/internal/stt"
	"live-caption-room-service/internal/translate"
)

// Archiver persists committed utterances beyond the live feed. The live
// path never depends on it succeeding.
type Archiver interface {
	PublishUtterance(ctx context.Context, roomID string, utteranceID int64, text string) error
}

// Pipeline runs one audio submission through transcription, the ordering
// gate, and fan-out. Submissions for the same room may run concurrently
// and complete out of order; the watermark gate in the registry keeps
// stale results from overwriting fresher ones.
type Pipeline struct {
	rooms       *room.Registry
	transcriber stt.Transcriber
	translator  translate.Translator
	archive     Archiver

	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// NewPipeline wires the pipeline's collaborators. archive may be nil.
func NewPipeline(rooms *room.Registry, transcriber stt.Transcriber, translator translate.Translator, archive Archiver, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		rooms:       rooms,
		transcriber: transcriber,
		translator:  translator,
		archive:     archive,
		metrics:     m,
		log:         logging.WithComponent("ingest.pipeline"),
		now:         time.Now,
	}
}

// ProcessAudio handles one self-contained audio submission: the bytes are
// decoded, transcribed as a whole, and the result published. isUtterance
// marks the chunk as completing an utterance. The receive timestamp is
// captured at entry so the gate orders by request order, not response
// order. Transcription failure aborts only this submission.
func (p *Pipeline) ProcessAudio(ctx context.Context, roomID string, audioBytes []byte, isUtterance bool) error {
	if !p.rooms.Exists(roomID) {
		return fmt.Errorf("process audio %q: %w", roomID, room.ErrNotFound)
	}

	receivedAt := p.now()
	p.metrics.AudioBytesReceived.Add(float64(len(audioBytes)))

	res, err := p.Transcribe(ctx, audio.DecodePCM16(audioBytes), "")
	if err != nil {
		p.log.Error().Err(err).Str("roomId", roomID).Msg("transcription failed, submission dropped")
		return nil
	}

	p.Publish(ctx, roomID, res.Text, receivedAt, isUtterance)
	return nil
}

// Publish pushes an already-transcribed result through the gate, the
// transcription feed, and every subscribed language's translation feed.
// Sessions that run their own windowing and reconciliation call this
// directly.
func (p *Pipeline) Publish(ctx context.Context, roomID, text string, receivedAt time.Time, isUtterance bool) {
	if !p.rooms.GateTranscription(roomID, receivedAt, isUtterance) {
		return
	}

	// Captured before any increment so translations below can carry the
	// same id as the transcription they derive from.
	utteranceID := p.rooms.UtteranceID(roomID)

	p.rooms.PushTranscription(roomID, models.Transcription(utteranceID, text, isUtterance))
	if isUtterance {
		p.rooms.AdvanceUtterance(roomID)
		p.archiveUtterance(ctx, roomID, utteranceID, text)
	}

	for _, lang := range p.rooms.SubscribedLanguages(roomID) {
		translatedAt := p.now()

		start := time.Now()
		translated, err := p.translator.Translate(ctx, text, lang)
		p.metrics.TranslateLatency.WithLabelValues(lang).Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.TranslateErrors.WithLabelValues(lang).Inc()
			p.log.Error().Err(err).Str("roomId", roomID).Str("language", lang).Msg("translation failed, language skipped")
			continue
		}

		if !p.rooms.GateTranslation(roomID, lang, translatedAt, isUtterance) {
			continue
		}
		p.rooms.PushTranslation(roomID, lang, models.Translation(utteranceID, translated, lang, isUtterance))
	}
}

// Transcribe runs the transcription collaborator with latency and error
// accounting. Sessions use it so every backend call is counted the same
// way.
func (p *Pipeline) Transcribe(ctx context.Context, samples []float32, prompt string) (stt.Result, error) {
	start := time.Now()
	res, err := p.transcriber.Transcribe(ctx, samples, prompt)
	p.metrics.TranscribeLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.TranscribeErrors.Inc()
	}
	return res, err
}

func (p *Pipeline) archiveUtterance(ctx context.Context, roomID string, utteranceID int64, text string) {
	if p.archive == nil {
		return
	}
	if err := p.archive.PublishUtterance(ctx, roomID, utteranceID, text); err != nil {
		p.log.Error().Err(err).Str("roomId", roomID).Msg("archive publish failed")
	}
}
