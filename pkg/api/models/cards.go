package models

import "github.com/cardforge/cardforge/pkg/genai"

// CardRequest is the structured card description shared by the card
// generation routes.
type CardRequest struct {
	RecipientName string   `json:"recipient_name" validate:"required,max=100" example:"Maya"`
	Occasion      string   `json:"occasion" validate:"required,max=100" example:"birthday"`
	Interests     []string `json:"interests" validate:"required,min=1,max=20,dive,required,max=50"`
	Age           int      `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Style         string   `json:"style,omitempty" validate:"omitempty,max=50" example:"watercolor"`
	Message       string   `json:"message,omitempty" validate:"omitempty,max=1000"`
}

// Input converts the request to a gateway card input.
func (r CardRequest) Input() genai.CardInput {
	return genai.CardInput{
		RecipientName: r.RecipientName,
		Occasion:      r.Occasion,
		Interests:     r.Interests,
		Age:           r.Age,
		Style:         r.Style,
		Message:       r.Message,
	}
}

// MessageRequest asks for a card message. Interests are optional here.
type MessageRequest struct {
	RecipientName string   `json:"recipient_name" validate:"required,max=100"`
	Occasion      string   `json:"occasion" validate:"required,max=100"`
	Interests     []string `json:"interests,omitempty" validate:"omitempty,max=20,dive,max=50"`
	Age           int      `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Style         string   `json:"style,omitempty" validate:"omitempty,max=50"`
}

// Input converts the request to a gateway card input.
func (r MessageRequest) Input() genai.CardInput {
	return genai.CardInput{
		RecipientName: r.RecipientName,
		Occasion:      r.Occasion,
		Interests:     r.Interests,
		Age:           r.Age,
		Style:         r.Style,
	}
}

// GenerateCardResponse is returned by POST /api/cards/generate.
type GenerateCardResponse struct {
	Designs []genai.DesignVariant `json:"designs"`
	Message string                `json:"message"`
	Input   genai.CardInput       `json:"input"`
}

// RefineRequest asks the model to adjust an earlier design prompt.
type RefineRequest struct {
	OriginalPrompt    string `json:"original_prompt" validate:"required,max=2000"`
	RefinementRequest string `json:"refinement_request" validate:"required,max=1000"`
}

// RefineResponse wraps a refined design.
type RefineResponse struct {
	Design genai.RefinedDesign `json:"design"`
}

// MessageResponse wraps a generated message.
type MessageResponse struct {
	Message string `json:"message"`
}

// GrammarRequest carries text to proofread.
type GrammarRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// GrammarResponse reports the corrected text.
type GrammarResponse struct {
	Original   string `json:"original"`
	Corrected  string `json:"corrected"`
	HasChanges bool   `json:"has_changes"`
}

// ConnectionResponse reports whether the generation model is reachable.
type ConnectionResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Models  map[string]string `json:"models"`
}
