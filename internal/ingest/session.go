package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"live-caption-room-service/internal/audio"
	"live-caption-room-service/internal/observability/logging"
	"live-caption-room-service/internal/reconcile"
	"live-caption-room-service/internal/stt"
	"live-caption-room-service/internal/vad"
)

// Windowing policies for a producer session.
const (
	// PolicyIncremental transcribes the growing analysis window on every
	// released chunk and publishes volatile updates between utterance
	// boundaries.
	PolicyIncremental = "incremental"

	// PolicySilence buffers audio until a silence boundary and transcribes
	// each utterance once. Cheaper on backend calls, no live partials.
	PolicySilence = "silence"
)

// SessionOptions tunes one producer session. Zero values select defaults.
type SessionOptions struct {
	Policy       string
	SampleRate   int
	MinChunk     time.Duration
	SilenceFlush time.Duration
	MaxWindow    time.Duration
	VADThreshold float64
	FlushAfter   float64
	ContextWords int
}

func (o *SessionOptions) applyDefaults() {
	if o.Policy == "" {
		o.Policy = PolicyIncremental
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 16000
	}
	if o.SilenceFlush <= 0 {
		o.SilenceFlush = audio.DefaultSilenceFlush
	}
	if o.MaxWindow <= 0 {
		o.MaxWindow = audio.DefaultMaxBuffer
	}
}

// Session owns the windowing and reconciliation state for one continuous
// producer audio stream. One goroutine services a session; it is not safe
// for concurrent use.
type Session struct {
	pipeline *Pipeline
	roomID   string
	opts     SessionOptions

	windower *audio.Windower
	speech   *audio.SpeechWindower
	detector *vad.Detector
	proc     *reconcile.Processor

	// agreement is the fallback merge when the backend returns no word
	// timings.
	agreement *reconcile.LocalAgreement

	silence time.Duration
	spoke   bool

	log zerolog.Logger
}

// NewSession creates reconciliation state for one producer stream feeding
// roomID.
func NewSession(p *Pipeline, roomID string, opts SessionOptions) *Session {
	opts.applyDefaults()

	s := &Session{
		pipeline:  p,
		roomID:    roomID,
		opts:      opts,
		proc:      reconcile.NewProcessor(opts.SampleRate, opts.FlushAfter, opts.ContextWords),
		agreement: &reconcile.LocalAgreement{},
		log:       logging.WithComponent("ingest.session").With().Str("roomId", roomID).Logger(),
	}
	if opts.Policy == PolicySilence {
		s.speech = audio.NewSpeechWindower(opts.SampleRate, opts.SilenceFlush, opts.MaxWindow, vad.NewDetector(opts.VADThreshold))
	} else {
		s.windower = audio.NewWindower(opts.SampleRate, opts.MinChunk)
		s.detector = vad.NewDetector(opts.VADThreshold)
	}
	return s
}

// Ingest consumes one raw PCM frame from the producer. Depending on policy
// it may publish nothing, a volatile update, or a committed utterance.
func (s *Session) Ingest(ctx context.Context, raw []byte) error {
	s.pipeline.metrics.AudioBytesReceived.Add(float64(len(raw)))

	if s.speech != nil {
		samples, boundary := s.speech.Push(raw)
		if !boundary {
			return nil
		}
		return s.observe(ctx, samples, true)
	}

	chunk, ok := s.windower.Push(raw)
	if !ok {
		return nil
	}

	if s.detector.Voiced(chunk) {
		s.spoke = true
		s.silence = 0
	} else {
		s.silence += time.Duration(float64(len(chunk)) / float64(s.opts.SampleRate) * float64(time.Second))
		// Silence with nothing pending: skip the backend call.
		if !s.spoke && s.proc.WindowSeconds() == 0 {
			return nil
		}
	}

	boundary := (s.spoke && s.silence >= s.opts.SilenceFlush) ||
		s.proc.WindowSeconds() >= s.opts.MaxWindow.Seconds()
	return s.observe(ctx, chunk, boundary)
}

// Close flushes any buffered audio and finalizes the in-progress utterance.
func (s *Session) Close(ctx context.Context) error {
	var samples []float32
	var ok bool
	if s.speech != nil {
		samples, ok = s.speech.Flush()
	} else {
		samples, ok = s.windower.Flush()
	}
	if !ok && s.proc.PendingText() == "" && s.agreement.UncommittedText() == "" {
		return nil
	}
	return s.observe(ctx, samples, true)
}

// observe appends the chunk to the analysis window, transcribes it with
// carry-forward context, folds the hypothesis into the merge, and publishes
// the reconciled text. On an utterance boundary the reconciliation state
// resets for the next utterance.
func (s *Session) observe(ctx context.Context, chunk []float32, boundary bool) error {
	receivedAt := time.Now()
	s.proc.Append(chunk)

	res, err := s.pipeline.Transcribe(ctx, s.proc.Window(), s.proc.Prompt())
	if err != nil {
		s.log.Error().Err(err).Msg("transcription failed, chunk dropped")
		return nil
	}

	var text string
	if len(res.Words) > 0 {
		s.proc.Observe(toWords(res.Words))
		text = s.proc.PendingText()
		if boundary {
			text = s.proc.FinishUtterance()
		}
	} else {
		s.agreement.Update(strings.Fields(res.Text))
		text = strings.TrimSpace(s.agreement.CommittedText() + " " + s.agreement.UncommittedText())
		if boundary {
			s.agreement = &reconcile.LocalAgreement{}
			s.proc.FinishUtterance()
		}
	}

	if boundary {
		s.resetBoundaryState()
	}
	if text == "" {
		return nil
	}

	s.pipeline.Publish(ctx, s.roomID, text, receivedAt, boundary)
	return nil
}

func (s *Session) resetBoundaryState() {
	s.silence = 0
	s.spoke = false
	if s.detector != nil {
		s.detector.Reset()
	}
}

func toWords(in []stt.Word) []reconcile.Word {
	out := make([]reconcile.Word, len(in))
	for i, w := range in {
		out[i] = reconcile.Word{Start: w.Start, End: w.End, Text: w.Text}
	}
	return out
}
