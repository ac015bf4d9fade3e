package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cardforge/cardforge/pkg/design"
	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/workflow"
)

type palette struct {
	background string
	accent     string
	text       string
	font       string
}

var tonePalettes = map[genai.Tone]palette{
	genai.ToneCelebratory:  {background: "#FFF4D6", accent: "#FF8A00", text: "#3B2A00", font: "Baloo 2"},
	genai.ToneElegant:      {background: "#F7F5F0", accent: "#B8955A", text: "#2B2B2B", font: "Playfair Display"},
	genai.TonePlayful:      {background: "#E8F7FF", accent: "#FF4FA3", text: "#1D3557", font: "Fredoka"},
	genai.ToneRomantic:     {background: "#FFE8EE", accent: "#D7263D", text: "#4A1020", font: "Dancing Script"},
	genai.ToneProfessional: {background: "#FFFFFF", accent: "#1F4E79", text: "#1A1A1A", font: "Inter"},
}

var styleFrames = map[genai.Style]string{
	genai.StyleAnime:       "rounded",
	genai.StyleWatercolor:  "soft-edge",
	genai.StyleLineart:     "thin-border",
	genai.StyleOilPainting: "gilded",
	genai.StyleCartoon:     "bold-border",
}

// Illustrator builds the initial design tree and its variations.
type Illustrator struct {
	designer Designer
	opts     options
}

// NewIllustrator creates the illustration stage.
func NewIllustrator(designer Designer, opts ...Option) *Illustrator {
	return &Illustrator{designer: designer, opts: buildOptions("illustrator", opts)}
}

// Name returns workflow.StepIllustrating.
func (i *Illustrator) Name() workflow.Step { return workflow.StepIllustrating }

// Critical is true: nothing downstream can work without a design.
func (i *Illustrator) Critical() bool { return true }

// Run builds the tree: background shape, headline, illustration and message.
func (i *Illustrator) Run(ctx context.Context, state *workflow.State) error {
	if strings.TrimSpace(state.Prompt) == "" && state.MadlibInput == nil {
		return ErrNoDesign
	}

	analysis := genai.DefaultAnalysis()
	if state.Analysis != nil {
		analysis = *state.Analysis
	}
	in := state.CardInput()

	style := genai.ParseStyle(in.Style)
	if in.Style == "" {
		style = analysis.IllustrationStyle
	}
	pal, ok := tonePalettes[analysis.Tone]
	if !ok {
		pal = tonePalettes[genai.ToneCelebratory]
	}

	variations := i.designer.GenerateDesignVariations(ctx, in)
	message := in.Message
	if strings.TrimSpace(message) == "" {
		message = i.designer.GenerateMessage(ctx, in)
	}

	root := design.NewContainer(map[string]any{
		"width":      600,
		"height":     800,
		"fontFamily": pal.font,
		"tone":       string(analysis.Tone),
	})
	children := []*design.Node{
		design.NewShape("rectangle", map[string]any{
			"role":   roleBackground,
			"fill":   pal.background,
			"x":      0,
			"y":      0,
			"width":  600,
			"height": 800,
		}),
		design.NewText(headline(in), map[string]any{
			"role":     roleHeadline,
			"color":    pal.accent,
			"fontSize": 42,
			"align":    "center",
			"y":        60,
		}),
		design.NewImage(illustrationSource(variations, style), map[string]any{
			"role":  roleIllustration,
			"style": string(style),
			"frame": styleFrames[style],
			"y":     160,
		}),
		design.NewText(message, map[string]any{
			"role":     roleMessage,
			"color":    pal.text,
			"fontSize": 22,
			"align":    "center",
			"y":        620,
		}),
	}
	if err := root.AddChild(children...); err != nil {
		return fmt.Errorf("assemble design: %w", err)
	}
	if err := root.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoDesign, err)
	}

	state.Design = root
	state.Variations = variations
	state.Message = message

	i.opts.log.DebugContext(ctx, "design assembled",
		"workflow_id", state.ID,
		"nodes", root.Count(),
		"variations", len(variations),
		"style", style,
	)
	return nil
}

func headline(in genai.CardInput) string {
	occasion := strings.TrimSpace(in.Occasion)
	if occasion == "" {
		occasion = genai.DefaultAnalysis().Occasion
	}
	title := "Happy " + genai.TitleCase(occasion)
	if name := strings.TrimSpace(in.RecipientName); name != "" {
		return title + ", " + name + "!"
	}
	return title + "!"
}

// illustrationSource prefers the first rendered variation and falls back
// to the bundled artwork for the style.
func illustrationSource(variations []genai.DesignVariant, style genai.Style) string {
	for _, v := range variations {
		if v.Image != nil && v.Image.DataURL != "" {
			return v.Image.DataURL
		}
	}
	return "/assets/illustrations/" + string(style) + ".png"
}
