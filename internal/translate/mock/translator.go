// Package mock provides a translator for development and testing without
// an API key. It tags the input text with the target language instead of
// translating it.
package mock

import (
	"context"
	"fmt"

	"live-caption-room-service/internal/translate"
)

// Languages is the fixed set the mock claims to support.
var Languages = []translate.Language{
	{Code: "DE", Name: "German"},
	{Code: "FR", Name: "French"},
	{Code: "ES", Name: "Spanish"},
	{Code: "UK", Name: "Ukrainian"},
}

// Translator implements translate.Translator with tagged passthrough.
type Translator struct{}

// New creates a mock translator.
func New() *Translator {
	return &Translator{}
}

// Translate returns the input tagged with the target language.
func (*Translator) Translate(_ context.Context, text, targetLang string) (string, error) {
	return fmt.Sprintf("[%s] %s", targetLang, text), nil
}

// SupportedLanguages returns the fixed mock set.
func (*Translator) SupportedLanguages(context.Context) ([]translate.Language, error) {
	return Languages, nil
}
