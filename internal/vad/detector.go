// Package vad scores audio frames for voice activity so the windower can
// flush on silence boundaries instead of fixed timers.
package vad

import "math"

// DefaultThreshold is the smoothed-energy level above which a frame counts
// as speech. Normalized PCM conversational speech sits well above it; room
// noise and line hum sit below.
const DefaultThreshold = 0.01

// Detector is an energy-based voice activity detector over normalized
// float32 PCM. Frame scores are exponentially smoothed so a single loud
// click does not register as speech. Not safe for concurrent use; each
// audio stream owns one.
type Detector struct {
	threshold float64
	smoothing float64
	last      float64
	started   bool
}

// NewDetector creates a detector. A non-positive threshold selects
// DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold, smoothing: 0.3}
}

// Score returns the smoothed RMS energy of the frame in [0, 1].
func (d *Detector) Score(samples []float32) float64 {
	if len(samples) == 0 {
		return d.last
	}

	var energy float64
	for _, s := range samples {
		energy += float64(s) * float64(s)
	}
	rms := math.Sqrt(energy / float64(len(samples)))

	if !d.started {
		d.started = true
		d.last = rms
		return rms
	}
	d.last = d.smoothing*rms + (1-d.smoothing)*d.last
	return d.last
}

// Voiced reports whether the frame's smoothed energy crosses the speech
// threshold.
func (d *Detector) Voiced(samples []float32) bool {
	return d.Score(samples) >= d.threshold
}

// Reset clears the smoothing state, for reuse across utterances.
func (d *Detector) Reset() {
	d.last = 0
	d.started = false
}
