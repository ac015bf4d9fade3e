package genai

import "strings"

// Tone is the emotional register of a card.
type Tone string

const (
	ToneCelebratory  Tone = "celebratory"
	ToneElegant      Tone = "elegant"
	TonePlayful      Tone = "playful"
	ToneRomantic     Tone = "romantic"
	ToneProfessional Tone = "professional"
)

// Style is the illustration style of a card.
type Style string

const (
	StyleAnime       Style = "anime"
	StyleWatercolor  Style = "watercolor"
	StyleLineart     Style = "lineart"
	StyleOilPainting Style = "oilpainting"
	StyleCartoon     Style = "cartoon"
)

// ParseTone maps free text onto a known tone, defaulting to celebratory.
func ParseTone(s string) Tone {
	switch t := Tone(strings.ToLower(strings.TrimSpace(s))); t {
	case ToneCelebratory, ToneElegant, TonePlayful, ToneRomantic, ToneProfessional:
		return t
	default:
		return ToneCelebratory
	}
}

// ParseStyle maps free text onto a known style, defaulting to cartoon.
// Separators are ignored so "oil painting" and "line-art" resolve.
func ParseStyle(s string) Style {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch st := Style(key); st {
	case StyleAnime, StyleWatercolor, StyleLineart, StyleOilPainting, StyleCartoon:
		return st
	default:
		return StyleCartoon
	}
}

// PromptAnalysis is the structured reading of a free-text card prompt.
type PromptAnalysis struct {
	Occasion          string   `json:"occasion"`
	RecipientName     string   `json:"recipientName,omitempty"`
	Age               int      `json:"age,omitempty"`
	Interests         []string `json:"interests"`
	Tone              Tone     `json:"tone"`
	IllustrationStyle Style    `json:"illustrationStyle"`
}

// CardInput describes the card a caller wants designed.
type CardInput struct {
	RecipientName string   `json:"recipient_name"`
	Occasion      string   `json:"occasion"`
	Interests     []string `json:"interests"`
	Age           int      `json:"age,omitempty"`
	Style         string   `json:"style,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Image is a rendered picture returned by the image model.
type Image struct {
	MIMEType string `json:"mime_type"`
	// DataURL is a base64 data: URL suitable for direct embedding.
	DataURL string `json:"data_url"`
}

// DesignVariant pairs a generation prompt with its rendered image. Image
// is empty when rendering is disabled or failed.
type DesignVariant struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Image  *Image `json:"image,omitempty"`
}

// RefinedDesign is the result of refining a design from user feedback.
type RefinedDesign struct {
	Prompt      string `json:"prompt"`
	Description string `json:"description"`
}

// Source tags where a gateway result came from.
type Source string

const (
	SourceParsed   Source = "parsed"
	SourceFallback Source = "fallback"
)

// Result carries a gateway value along with whether it was produced by the
// model or substituted. Err holds the cause of a fallback.
type Result[T any] struct {
	Value  T
	Source Source
	Err    error
}

// Fallback reports whether Value is canned content.
func (r Result[T]) Fallback() bool {
	return r.Source == SourceFallback
}

func parsed[T any](v T) Result[T] {
	return Result[T]{Value: v, Source: SourceParsed}
}

func fallback[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Source: SourceFallback, Err: err}
}
