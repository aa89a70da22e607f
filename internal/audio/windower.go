package audio

import (
	"time"

	"live-caption-room-service/internal/vad"
)

// Default windowing policy knobs.
const (
	DefaultMinChunk     = time.Second
	DefaultSilenceFlush = 700 * time.Millisecond
	DefaultMaxBuffer    = 30 * time.Second
)

// Windower accumulates raw PCM bytes until a configured minimum duration
// is buffered, then releases the buffer as one normalized chunk. Not safe
// for concurrent use; each audio stream owns one.
type Windower struct {
	minBytes int
	buf      []byte
}

// NewWindower creates a duration-gated windower. A non-positive minChunk
// selects DefaultMinChunk.
func NewWindower(sampleRate int, minChunk time.Duration) *Windower {
	if minChunk <= 0 {
		minChunk = DefaultMinChunk
	}
	return &Windower{
		minBytes: int(float64(sampleRate*BytesPerSample) * minChunk.Seconds()),
	}
}

// Push appends raw bytes and, once the minimum duration is buffered,
// returns the accumulated samples and resets the buffer. The second return
// reports whether a chunk was released.
func (w *Windower) Push(p []byte) ([]float32, bool) {
	w.buf = append(w.buf, p...)
	if len(w.buf) < w.minBytes {
		return nil, false
	}
	samples := DecodePCM16(w.buf)
	w.buf = nil
	return samples, true
}

// Flush releases whatever is buffered regardless of duration. Used when a
// stream ends mid-chunk.
func (w *Windower) Flush() ([]float32, bool) {
	if len(w.buf) == 0 {
		return nil, false
	}
	samples := DecodePCM16(w.buf)
	w.buf = nil
	return samples, true
}

// SpeechWindower gates release on voice activity instead of a fixed
// duration: the buffer flushes once trailing silence exceeds the silence
// threshold or the buffer hits the hard duration cap. Buffers that never
// contained detected speech are discarded, saving a transcription call on
// pure silence. Not safe for concurrent use.
type SpeechWindower struct {
	sampleRate   int
	silenceFlush time.Duration
	maxBuffer    time.Duration
	detector     *vad.Detector

	buf       []byte
	hasSpeech bool
	silence   time.Duration
}

// NewSpeechWindower creates a voice-activity-gated windower. Non-positive
// thresholds select the defaults.
func NewSpeechWindower(sampleRate int, silenceFlush, maxBuffer time.Duration, detector *vad.Detector) *SpeechWindower {
	if silenceFlush <= 0 {
		silenceFlush = DefaultSilenceFlush
	}
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}
	if detector == nil {
		detector = vad.NewDetector(0)
	}
	return &SpeechWindower{
		sampleRate:   sampleRate,
		silenceFlush: silenceFlush,
		maxBuffer:    maxBuffer,
		detector:     detector,
	}
}

// Push appends raw bytes, scores them for voice activity, and releases the
// buffer when a flush condition is met. The boundary return is true when
// speech was followed by enough silence to call the utterance finished;
// samples is nil when nothing flushes or a speechless buffer is discarded.
func (w *SpeechWindower) Push(p []byte) (samples []float32, boundary bool) {
	chunk := DecodePCM16(p)
	w.buf = append(w.buf, p...)

	if w.detector.Voiced(chunk) {
		w.hasSpeech = true
		w.silence = 0
	} else {
		w.silence += w.duration(len(p))
	}

	if w.hasSpeech && w.silence >= w.silenceFlush {
		return w.take(), true
	}
	if w.duration(len(w.buf)) >= w.maxBuffer {
		if !w.hasSpeech {
			w.reset()
			return nil, false
		}
		return w.take(), true
	}
	return nil, false
}

// Flush releases any buffered speech at stream end; speechless buffers are
// dropped.
func (w *SpeechWindower) Flush() ([]float32, bool) {
	if !w.hasSpeech || len(w.buf) == 0 {
		w.reset()
		return nil, false
	}
	return w.take(), true
}

func (w *SpeechWindower) take() []float32 {
	samples := DecodePCM16(w.buf)
	w.reset()
	return samples
}

func (w *SpeechWindower) reset() {
	w.buf = nil
	w.hasSpeech = false
	w.silence = 0
	w.detector.Reset()
}

func (w *SpeechWindower) duration(nbytes int) time.Duration {
	return time.Duration(float64(nbytes) / float64(w.sampleRate*BytesPerSample) * float64(time.Second))
}
