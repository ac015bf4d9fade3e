package agents

import (
	"context"

	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/workflow"
)

var toneEntrances = map[genai.Tone]string{
	genai.ToneCelebratory:  "confetti",
	genai.TonePlayful:      "bounce",
	genai.ToneElegant:      "fade",
	genai.ToneRomantic:     "float",
	genai.ToneProfessional: "slide",
}

const entranceDurationMS = 800

// Animator tags the design root with an entrance animation.
type Animator struct {
	opts options
}

// NewAnimator creates the animation stage.
func NewAnimator(opts ...Option) *Animator {
	return &Animator{opts: buildOptions("animator", opts)}
}

// Name returns workflow.StepAnimating.
func (a *Animator) Name() workflow.Step { return workflow.StepAnimating }

// Run never fails.
func (a *Animator) Run(ctx context.Context, state *workflow.State) error {
	tone := genai.ToneCelebratory
	if state.Analysis != nil {
		tone = state.Analysis.Tone
	}
	entrance, ok := toneEntrances[tone]
	if !ok {
		entrance = "fade"
	}

	animation := map[string]any{
		"entrance":    entrance,
		"duration_ms": entranceDurationMS,
	}
	state.Animation = animation
	if state.Design != nil {
		state.Design.SetStyle("animation", animation)
	}

	a.opts.log.DebugContext(ctx, "animation applied", "workflow_id", state.ID, "entrance", entrance)
	return nil
}
