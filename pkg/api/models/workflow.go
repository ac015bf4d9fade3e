// Package models defines API request/response data structures.
package models

// GenerateCardWorkflowRequest starts a full orchestrated card run.
type GenerateCardWorkflowRequest struct {
	// Prompt is the free-text description of the card.
	Prompt string `json:"prompt" validate:"required_without=Card,max=2000" example:"A birthday card for my sister Maya who loves coffee and books"`

	// UserID enables the shopping stage when set.
	UserID string `json:"user_id,omitempty" validate:"omitempty,max=128"`

	// Card optionally supplies structured madlib input that takes
	// precedence over the prompt analysis.
	Card *CardRequest `json:"card,omitempty"`
}
