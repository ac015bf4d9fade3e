package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cardforge/cardforge/pkg/api/models"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/cardforge/cardforge/pkg/workflow"
)

// WorkflowRunner runs the card generation pipeline.
type WorkflowRunner interface {
	RunWithInput(ctx context.Context, prompt, userID string, input *genai.CardInput) *workflow.State
}

var _ WorkflowRunner = (*workflow.Orchestrator)(nil)

// WorkflowHandler handles workflow-related endpoints.
type WorkflowHandler struct {
	runner    WorkflowRunner
	logger    logger.Logger
	validator *validator.Validate
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(runner WorkflowRunner, log logger.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		runner:    runner,
		logger:    log,
		validator: newValidator(),
	}
}

// GenerateCard handles POST /api/workflows/generate-card
func (h *WorkflowHandler) GenerateCard(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateCardWorkflowRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	ctx := r.Context()
	var input *genai.CardInput
	prompt := req.Prompt
	if req.Card != nil {
		in := req.Card.Input()
		input = &in
		if prompt == "" {
			prompt = fmt.Sprintf("A %s card for %s", in.Occasion, in.RecipientName)
		}
	}

	state := h.runner.RunWithInput(ctx, prompt, req.UserID, input)
	if state.CurrentStep == workflow.StepFailed {
		h.logger.WarnContext(ctx, "Card workflow failed",
			"workflow_id", state.ID,
			"errors", state.Errors,
		)
	}

	// Pipeline failure is part of the payload, not the HTTP status.
	response.JSON(w, http.StatusOK, state)
}
