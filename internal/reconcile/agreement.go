package reconcile

import "strings"

const (
	// agreementWindow is how many trailing words of the previous
	// hypothesis are kept for anchor search.
	agreementWindow = 7

	// agreementRun is the minimum run of consecutive matching words
	// required to form an anchor.
	agreementRun = 2
)

// LocalAgreement implements the sliding local-agreement merge for backends
// that return plain word sequences without timestamps. Successive
// hypotheses over a fixed-length feedback window are anchored on a run of
// agreeing words; text before the anchor is committed, text after it
// replaces the running hypothesis.
type LocalAgreement struct {
	committed  []string
	hypothesis []string
}

// Update folds a new hypothesis into the state.
//
// Anchor search scans candidate new-hypothesis start positions left to
// right and, for each, tail offsets ascending from 2; the first position
// whose match run extends through the end of the tail is the anchor. On a
// match the whole previous hypothesis is committed and the new hypothesis
// past the overlap becomes the running uncommitted suffix. With fewer than
// agreementWindow previous words, or no anchor, the new hypothesis is a
// pure extension: nothing is committed and it replaces the suffix whole.
func (a *LocalAgreement) Update(words []string) {
	if len(a.hypothesis) >= agreementWindow {
		tail := a.hypothesis[len(a.hypothesis)-agreementWindow:]
		for i := 0; i < len(words); i++ {
			for j := 2; j+agreementRun <= agreementWindow; j++ {
				if !overlaps(tail[j:], words[i:]) {
					continue
				}
				a.committed = append(a.committed, a.hypothesis...)
				rest := words[i+agreementWindow-j:]
				a.hypothesis = append([]string(nil), rest...)
				return
			}
		}
	}

	a.hypothesis = append([]string(nil), words...)
}

// overlaps reports whether words begins with the whole tail suffix.
func overlaps(tail, words []string) bool {
	if len(words) < len(tail) {
		return false
	}
	for k := range tail {
		if words[k] != tail[k] {
			return false
		}
	}
	return true
}

// CommittedText returns the committed words joined by single spaces. It is
// append-only across updates.
func (a *LocalAgreement) CommittedText() string {
	return strings.Join(a.committed, " ")
}

// UncommittedText returns the running hypothesis joined by single spaces.
func (a *LocalAgreement) UncommittedText() string {
	return strings.Join(a.hypothesis, " ")
}
