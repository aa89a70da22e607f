// Package stt defines the interface for speech-to-text backends.
package stt

import "context"

// Word is one transcribed token with time bounds in seconds relative to
// the start of the submitted window. Text carries its own leading
// whitespace.
type Word struct {
	Start float64
	End   float64
	Text  string
}

// Result is one transcription of a full audio window. Words is empty for
// backends that do not report per-word timing; callers fall back to the
// timestamp-free merge strategy in that case.
type Result struct {
	Text  string
	Words []Word
}

// Transcriber converts a window of normalized PCM samples to text. The
// prompt is decoding context carried forward from earlier committed text;
// backends that cannot use it ignore it. Failures are per-call and
// non-fatal.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, prompt string) (Result, error)
}
