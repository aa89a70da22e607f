package audio

import (
	"testing"
	"time"
)

// speechBytes returns nbytes of 16-bit PCM carrying a loud square wave.
func speechBytes(nbytes int) []byte {
	samples := make([]float32, nbytes/BytesPerSample)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.25
		} else {
			samples[i] = -0.25
		}
	}
	return EncodePCM16(samples)
}

func TestWindower_ReleasesAtMinDuration(t *testing.T) {
	w := NewWindower(10, time.Second) // 20 bytes per chunk

	if _, ok := w.Push(make([]byte, 10)); ok {
		t.Fatal("released before the minimum duration was buffered")
	}
	samples, ok := w.Push(make([]byte, 10))
	if !ok {
		t.Fatal("did not release at the minimum duration")
	}
	if len(samples) != 10 {
		t.Errorf("expected 10 samples, got %d", len(samples))
	}

	// The buffer resets after release.
	if _, ok := w.Push(make([]byte, 10)); ok {
		t.Error("released again without enough new audio")
	}
}

func TestWindower_FlushReleasesPartialBuffer(t *testing.T) {
	w := NewWindower(10, time.Second)

	w.Push(make([]byte, 6))
	samples, ok := w.Flush()
	if !ok {
		t.Fatal("flush released nothing")
	}
	if len(samples) != 3 {
		t.Errorf("expected 3 samples, got %d", len(samples))
	}
	if _, ok := w.Flush(); ok {
		t.Error("second flush released an empty buffer")
	}
}

func TestSpeechWindower_FlushesOnTrailingSilence(t *testing.T) {
	w := NewSpeechWindower(1000, 700*time.Millisecond, 30*time.Second, nil)

	if _, boundary := w.Push(speechBytes(100)); boundary {
		t.Fatal("flushed while speech was still arriving")
	}

	var flushed []float32
	for i := 0; i < 100; i++ {
		samples, boundary := w.Push(make([]byte, 100))
		if boundary {
			flushed = samples
			break
		}
	}
	if flushed == nil {
		t.Fatal("never flushed on trailing silence")
	}
	if len(flushed) < 50 {
		t.Errorf("flush lost the speech prefix: %d samples", len(flushed))
	}
}

func TestSpeechWindower_DiscardsPureSilence(t *testing.T) {
	w := NewSpeechWindower(1000, 700*time.Millisecond, time.Second, nil)

	// 2 s of silence crosses the hard cap without ever containing speech.
	for i := 0; i < 40; i++ {
		if samples, boundary := w.Push(make([]byte, 100)); samples != nil || boundary {
			t.Fatal("silence-only buffer was released for transcription")
		}
	}
	if _, ok := w.Flush(); ok {
		t.Error("flush released a speechless buffer")
	}
}

func TestSpeechWindower_HardCapForcesFlush(t *testing.T) {
	w := NewSpeechWindower(1000, time.Hour, time.Second, nil)

	var flushed []float32
	for i := 0; i < 40; i++ {
		samples, boundary := w.Push(speechBytes(100))
		if boundary {
			flushed = samples
			break
		}
	}
	if flushed == nil {
		t.Fatal("continuous speech never hit the hard cap")
	}
	if got := len(flushed); got < 1000 {
		t.Errorf("expected roughly a second of samples at the cap, got %d", got)
	}
}

func TestSpeechWindower_FlushReleasesBufferedSpeech(t *testing.T) {
	w := NewSpeechWindower(1000, 700*time.Millisecond, 30*time.Second, nil)

	w.Push(speechBytes(100))
	samples, ok := w.Flush()
	if !ok {
		t.Fatal("flush dropped buffered speech")
	}
	if len(samples) != 50 {
		t.Errorf("expected 50 samples, got %d", len(samples))
	}
}
