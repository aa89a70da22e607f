// Package models defines the wire unit delivered to room subscribers.
package models

// Event kinds used to tag messages on the event stream.
const (
	KindTranscription = "transcription"
	KindTranslation   = "translation"
)

// Message is one update delivered to a subscriber. Committed is set only on
// an utterance boundary; Volatile is set on every accepted result. Both are
// pointers so an absent Committed serializes as JSON null, which is what
// subscriber clients expect off utterance boundaries.
type Message struct {
	UtteranceID  int64   `json:"utterance_id"`
	Committed    *string `json:"committed"`
	Volatile     *string `json:"volatile"`
	LanguageCode string  `json:"language_code,omitempty"`
}

// Kind returns the event type for this message: a message carrying a
// language code is a translation, anything else is a transcription.
func (m Message) Kind() string {
	if m.LanguageCode != "" {
		return KindTranslation
	}
	return KindTranscription
}

// Transcription builds a transcription message. The committed field is set
// iff the result closed an utterance.
func Transcription(utteranceID int64, text string, isUtterance bool) Message {
	m := Message{
		UtteranceID: utteranceID,
		Volatile:    &text,
	}
	if isUtterance {
		m.Committed = &text
	}
	return m
}

// Translation builds a translation message carrying the utterance id of the
// transcription it was derived from.
func Translation(utteranceID int64, text, languageCode string, isUtterance bool) Message {
	m := Transcription(utteranceID, text, isUtterance)
	m.LanguageCode = languageCode
	return m
}
