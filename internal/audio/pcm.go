// Package audio accumulates raw PCM bytes into analysis-ready windows and
// converts between the wire sample format and normalized floats.
package audio

import "encoding/binary"

// BytesPerSample is the width of one 16-bit PCM sample on the wire.
const BytesPerSample = 2

// DecodePCM16 converts little-endian 16-bit PCM bytes into normalized
// float32 samples in [-1, 1). A trailing odd byte is dropped.
func DecodePCM16(data []byte) []float32 {
	samples := make([]float32, len(data)/BytesPerSample)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
		samples[i] = float32(v) / 32768
	}
	return samples
}

// EncodePCM16 converts normalized float32 samples back into little-endian
// 16-bit PCM bytes, clamping out-of-range values.
func EncodePCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		v := s * 32768
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(data[i*BytesPerSample:], uint16(int16(v)))
	}
	return data
}
