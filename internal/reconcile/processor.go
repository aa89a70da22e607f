package reconcile

import "strings"

// DefaultFlushAfter is the confirmed-audio threshold, in seconds, past
// which stable text is flushed and the analysis window trimmed.
const DefaultFlushAfter = 15.0

// DefaultContextWords bounds the carry-forward decoding context.
const DefaultContextWords = 200

// promptBuffer keeps the most recent committed words as decoding context
// for subsequent transcription calls.
type promptBuffer struct {
	capacity int
	words    []string
}

func (b *promptBuffer) extend(words []Word) {
	for _, w := range words {
		b.words = append(b.words, w.Text)
	}
	if excess := len(b.words) - b.capacity; excess > 0 {
		b.words = append([]string(nil), b.words[excess:]...)
	}
}

func (b *promptBuffer) text() string {
	return strings.Join(b.words, "")
}

// Processor is the per-ingest-session reconciliation state: the analysis
// window of not-yet-committed audio, the timestamp-anchored merge, the
// carry-forward context, and the running transcript of the current
// utterance. It is not safe for concurrent use; each audio stream owns one.
type Processor struct {
	sampleRate int
	flushAfter float64

	merge  TimestampMerge
	prompt promptBuffer
	window []float32

	// flushed holds committed text already moved out of the merge for
	// the current utterance.
	flushed strings.Builder
}

// NewProcessor creates reconciliation state for one audio stream.
func NewProcessor(sampleRate int, flushAfter float64, contextWords int) *Processor {
	if flushAfter <= 0 {
		flushAfter = DefaultFlushAfter
	}
	if contextWords <= 0 {
		contextWords = DefaultContextWords
	}
	return &Processor{
		sampleRate: sampleRate,
		flushAfter: flushAfter,
		prompt:     promptBuffer{capacity: contextWords},
	}
}

// Append extends the analysis window with a new chunk of samples.
func (p *Processor) Append(samples []float32) {
	p.window = append(p.window, samples...)
}

// Window returns the current analysis window to hand to transcription.
func (p *Processor) Window() []float32 {
	return p.window
}

// WindowSeconds returns the analysis window length in seconds.
func (p *Processor) WindowSeconds() float64 {
	return float64(len(p.window)) / float64(p.sampleRate)
}

// Prompt returns the carry-forward decoding context.
func (p *Processor) Prompt() string {
	return p.prompt.text()
}

// Observe folds a new hypothesis into the merge and, once enough audio is
// confirmed, flushes stable text and trims the analysis window so neither
// memory nor per-call transcription latency grows without bound.
func (p *Processor) Observe(words []Word) {
	p.merge.Update(words)

	if p.merge.LastConfirmed() <= p.flushAfter {
		return
	}

	committed := p.merge.TakeCommitted()
	p.prompt.extend(committed)
	for _, w := range committed {
		p.flushed.WriteString(w.Text)
	}

	trim := int(p.merge.LastConfirmed() * float64(p.sampleRate))
	if trim > len(p.window) {
		trim = len(p.window)
	}
	p.window = append([]float32(nil), p.window[trim:]...)
	p.merge.RebaseTimeline()
}

// PendingText is the full not-yet-finalized text of the current utterance:
// flushed prefix, merge-committed middle, and uncommitted suffix.
func (p *Processor) PendingText() string {
	return p.flushed.String() + p.merge.CommittedText() + p.merge.UncommittedText()
}

// FinishUtterance finalizes the current utterance: its full text is
// returned, all of its words feed the carry-forward context, and the
// analysis window and merge state reset for the next utterance.
func (p *Processor) FinishUtterance() string {
	text := p.PendingText()

	p.prompt.extend(p.merge.TakeCommitted())
	p.prompt.extend(p.merge.Uncommitted())

	p.merge = TimestampMerge{}
	p.window = nil
	p.flushed.Reset()

	return text
}
