// Package google provides a Google Cloud Speech-to-Text transcriber.
package google

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"live-caption-room-service/internal/audio"
	"live-caption-room-service/internal/stt"
)

// Config holds recognition parameters.
type Config struct {
	SampleRate   int
	LanguageCode string
}

// Transcriber implements stt.Transcriber using synchronous recognition
// over each analysis window, with per-word time offsets enabled so the
// timestamp-anchored merge can run.
type Transcriber struct {
	client *speech.Client
	cfg    Config
}

// New creates a Google STT transcriber.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
func New(ctx context.Context, cfg Config) (*Transcriber, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	return &Transcriber{client: c, cfg: cfg}, nil
}

// Transcribe recognizes one audio window. The prompt is passed as a
// speech context phrase to bias decoding toward recently committed text.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, prompt string) (stt.Result, error) {
	cfg := &speechpb.RecognitionConfig{
		Encoding:              speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:       int32(t.cfg.SampleRate),
		LanguageCode:          t.cfg.LanguageCode,
		EnableWordTimeOffsets: true,
	}
	if p := strings.TrimSpace(prompt); p != "" {
		cfg.SpeechContexts = []*speechpb.SpeechContext{{Phrases: []string{p}}}
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio.EncodePCM16(samples),
			},
		},
	})
	if err != nil {
		return stt.Result{}, err
	}
	return resultFromResponse(resp), nil
}

// resultFromResponse flattens the top alternative of every result into one
// word sequence. Word tokens get a leading space so concatenation yields
// readable text.
func resultFromResponse(resp *speechpb.RecognizeResponse) stt.Result {
	var res stt.Result
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		res.Text += alt.Transcript
		for _, w := range alt.Words {
			res.Words = append(res.Words, stt.Word{
				Start: w.StartTime.AsDuration().Seconds(),
				End:   w.EndTime.AsDuration().Seconds(),
				Text:  " " + w.Word,
			})
		}
	}
	return res
}

// Close releases the underlying client.
func (t *Transcriber) Close() error {
	return t.client.Close()
}
