// Package reconcile turns overlapping, partially-contradictory transcription
// hypotheses into a stable committed prefix and a replaceable uncommitted
// suffix.
package reconcile

// Word is one transcribed token with its time bounds in seconds, relative
// to the start of the current analysis window. Text carries its own leading
// whitespace, the way transcription backends emit word tokens.
type Word struct {
	Start float64
	End   float64
	Text  string
}

// TimestampMerge implements the timestamp-anchored merge strategy: greedy
// prefix agreement between the previous uncommitted sequence and each new
// hypothesis. CommittedText is append-only across updates; UncommittedText
// may be fully replaced on every update.
type TimestampMerge struct {
	lastConfirmed float64
	committed     []Word
	uncommitted   []Word
	started       bool
}

// Update folds a new hypothesis into the merge state and returns the words
// committed by this update, in order.
func (m *TimestampMerge) Update(words []Word) []Word {
	if !m.started {
		m.started = true
		m.uncommitted = words
		return nil
	}

	// Words fully behind the confirmation point were already judged.
	fresh := filterFrom(words, m.lastConfirmed)

	var newlyCommitted []Word
	limit := len(m.uncommitted)
	if len(fresh) < limit {
		limit = len(fresh)
	}
	for i := 0; i < limit; i++ {
		prev, curr := m.uncommitted[i], fresh[i]
		if prev.Text != curr.Text || prev.End <= curr.Start {
			break
		}
		m.lastConfirmed = prev.End
		m.committed = append(m.committed, prev)
		newlyCommitted = append(newlyCommitted, prev)
	}

	m.uncommitted = filterFrom(fresh, m.lastConfirmed)
	return newlyCommitted
}

func filterFrom(words []Word, ts float64) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Start >= ts {
			out = append(out, w)
		}
	}
	return out
}

// CommittedText returns the concatenation of all committed words.
func (m *TimestampMerge) CommittedText() string {
	return joinWords(m.committed)
}

// UncommittedText returns the concatenation of the current uncommitted
// suffix.
func (m *TimestampMerge) UncommittedText() string {
	return joinWords(m.uncommitted)
}

// LastConfirmed returns the timestamp of the newest committed word.
func (m *TimestampMerge) LastConfirmed() float64 {
	return m.lastConfirmed
}

// TakeCommitted removes and returns the committed words, keeping the
// uncommitted suffix. Used when flushing stable text out of the merge.
func (m *TimestampMerge) TakeCommitted() []Word {
	words := m.committed
	m.committed = nil
	return words
}

// Uncommitted returns the current uncommitted words.
func (m *TimestampMerge) Uncommitted() []Word {
	return m.uncommitted
}

// RebaseTimeline resets the confirmation point after the analysis window
// has been trimmed to start at it.
func (m *TimestampMerge) RebaseTimeline() {
	m.lastConfirmed = 0
}

func joinWords(words []Word) string {
	var out []byte
	for _, w := range words {
		out = append(out, w.Text...)
	}
	return string(out)
}
