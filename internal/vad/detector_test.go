package vad

import "testing"

func TestDetector_SilenceIsNotVoiced(t *testing.T) {
	d := NewDetector(0)

	if d.Voiced(make([]float32, 512)) {
		t.Error("all-zero frame scored as voiced")
	}
}

func TestDetector_SpeechLevelIsVoiced(t *testing.T) {
	d := NewDetector(0)

	frame := make([]float32, 512)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 0.25
		} else {
			frame[i] = -0.25
		}
	}
	if !d.Voiced(frame) {
		t.Error("high-energy frame scored as silence")
	}
}

func TestDetector_SmoothingDampsSingleSpike(t *testing.T) {
	d := NewDetector(0.1)

	// Establish a silence baseline, then feed one loud frame.
	for i := 0; i < 5; i++ {
		d.Voiced(make([]float32, 512))
	}
	spike := make([]float32, 512)
	for i := range spike {
		spike[i] = 0.2
	}
	if d.Voiced(spike) {
		t.Error("single spike after silence crossed the threshold")
	}
	// Sustained energy should cross it.
	for i := 0; i < 10; i++ {
		d.Voiced(spike)
	}
	if !d.Voiced(spike) {
		t.Error("sustained energy never crossed the threshold")
	}
}

func TestDetector_Reset(t *testing.T) {
	d := NewDetector(0)

	loud := make([]float32, 64)
	for i := range loud {
		loud[i] = 0.5
	}
	d.Voiced(loud)
	d.Reset()

	if got := d.Score(nil); got != 0 {
		t.Errorf("expected zero score after reset, got %v", got)
	}
}
