// Package mock provides a canned transcriber for development and testing
// without cloud credentials. It simulates incremental recognition: each
// call over a growing window reveals one more word of the current
// sentence, with stable timings so the merge layer commits prefixes the
// way it would against a real backend.
package mock

import (
	"context"
	"strings"
	"sync"

	"live-caption-room-service/internal/stt"
)

// DefaultSentences are cycled through, one per simulated utterance.
var DefaultSentences = []string{
	"welcome everyone to today's session",
	"we will start with a short overview",
	"please keep your questions for the end",
	"the slides will be shared afterwards",
	"thank you all for joining",
}

// secondsPerWord spaces the simulated word timings.
const secondsPerWord = 0.4

// Transcriber implements stt.Transcriber with canned sentences.
type Transcriber struct {
	mu        sync.Mutex
	sentences []string
	sentence  int
	revealed  int
}

// New creates a mock transcriber over the given sentences, falling back to
// DefaultSentences when none are given.
func New(sentences ...string) *Transcriber {
	if len(sentences) == 0 {
		sentences = DefaultSentences
	}
	return &Transcriber{sentences: sentences}
}

// Transcribe reveals one more word of the current sentence per call and
// returns all revealed words with stable timings. Once a sentence is
// exhausted the next call moves on to the following one.
func (t *Transcriber) Transcribe(_ context.Context, _ []float32, _ string) (stt.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	words := strings.Fields(t.sentences[t.sentence])
	if t.revealed < len(words) {
		t.revealed++
	} else {
		t.sentence = (t.sentence + 1) % len(t.sentences)
		t.revealed = 1
		words = strings.Fields(t.sentences[t.sentence])
	}

	res := stt.Result{}
	for i := 0; i < t.revealed; i++ {
		res.Words = append(res.Words, stt.Word{
			Start: float64(i) * secondsPerWord,
			End:   float64(i+1) * secondsPerWord,
			Text:  " " + words[i],
		})
		res.Text += " " + words[i]
	}
	return res, nil
}
