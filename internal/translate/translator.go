// Package translate defines the interface for text translation backends.
package translate

import "context"

// Language is one supported translation target.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Translator converts text to a target language. Failures are per-call
// and non-fatal. SupportedLanguages is queried at startup, not per
// message.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
	SupportedLanguages(ctx context.Context) ([]Language, error)
}
