package reconcile

import "testing"

func TestLocalAgreement_AnchorCommitsPreviousHypothesis(t *testing.T) {
	var a LocalAgreement

	a.Update([]string{"the", "quick", "brown", "fox", "jumps", "over", "the"})
	a.Update([]string{"brown", "fox", "jumps", "over", "the", "lazy", "dog"})

	if got, want := a.CommittedText(), "the quick brown fox jumps over the"; got != want {
		t.Errorf("expected committed %q, got %q", want, got)
	}
	if got, want := a.UncommittedText(), "lazy dog"; got != want {
		t.Errorf("expected uncommitted %q, got %q", want, got)
	}
}

func TestLocalAgreement_ShortHypothesisIsPureExtension(t *testing.T) {
	var a LocalAgreement

	a.Update([]string{"hello", "world"})
	a.Update([]string{"hello", "world", "again"})

	if got := a.CommittedText(); got != "" {
		t.Errorf("expected nothing committed below the window size, got %q", got)
	}
	if got, want := a.UncommittedText(), "hello world again"; got != want {
		t.Errorf("expected uncommitted %q, got %q", want, got)
	}
}

func TestLocalAgreement_NoAnchorReplacesHypothesis(t *testing.T) {
	var a LocalAgreement

	a.Update([]string{"one", "two", "three", "four", "five", "six", "seven"})
	a.Update([]string{"entirely", "different", "words"})

	if got := a.CommittedText(); got != "" {
		t.Errorf("expected nothing committed without an anchor, got %q", got)
	}
	if got, want := a.UncommittedText(), "entirely different words"; got != want {
		t.Errorf("expected uncommitted %q, got %q", want, got)
	}
}

func TestLocalAgreement_CommittedIsAppendOnly(t *testing.T) {
	var a LocalAgreement

	a.Update([]string{"the", "quick", "brown", "fox", "jumps", "over", "the"})
	a.Update([]string{"brown", "fox", "jumps", "over", "the", "lazy", "dog"})
	before := a.CommittedText()

	a.Update([]string{"nothing", "in", "common"})

	if got := a.CommittedText(); got != before {
		t.Errorf("committed text changed from %q to %q", before, got)
	}
}
