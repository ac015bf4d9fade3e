package agents

import (
	"context"

	"github.com/cardforge/cardforge/pkg/design"
	"github.com/cardforge/cardforge/pkg/workflow"
)

// Editor proofreads every text node of the design.
type Editor struct {
	proofreader Proofreader
	opts        options
}

// NewEditor creates the editing stage.
func NewEditor(p Proofreader, opts ...Option) *Editor {
	return &Editor{proofreader: p, opts: buildOptions("editor", opts)}
}

// Name returns workflow.StepEditing.
func (e *Editor) Name() workflow.Step { return workflow.StepEditing }

// Run corrects text nodes in place.
func (e *Editor) Run(ctx context.Context, state *workflow.State) error {
	if state.Design == nil {
		return ErrNothingToEdit
	}
	texts := state.Design.NodesOfType(design.NodeText)
	if len(texts) == 0 {
		return ErrNothingToEdit
	}

	changed := 0
	for _, n := range texts {
		if err := ctx.Err(); err != nil {
			return err
		}
		corrected := e.proofreader.CheckGrammar(ctx, n.Content)
		if corrected == n.Content {
			continue
		}
		n.Content = corrected
		changed++
		if n.Style["role"] == roleMessage {
			state.Message = corrected
		}
	}

	e.opts.log.DebugContext(ctx, "design proofread",
		"workflow_id", state.ID,
		"text_nodes", len(texts),
		"changed", changed,
	)
	return nil
}
