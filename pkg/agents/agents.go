// Package agents holds the creative stages run by the workflow
// orchestrator. Each stage reads and mutates a workflow.State.
package agents

import (
	"context"
	"errors"

	"github.com/cardforge/cardforge/pkg/catalog"
	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/cardforge/cardforge/pkg/workflow"
)

var (
	// ErrNoDesign is returned by the illustrator when there is nothing to design from.
	ErrNoDesign = errors.New("no design could be produced")
	// ErrNothingToEdit is returned by the editor when the tree has no text nodes.
	ErrNothingToEdit = errors.New("design has no text to edit")
)

// Node roles stored under the "role" style key.
const (
	roleBackground   = "background"
	roleHeadline     = "headline"
	roleIllustration = "illustration"
	roleMessage      = "message"
)

// Designer produces card copy and illustration prompts.
type Designer interface {
	GenerateMessage(ctx context.Context, in genai.CardInput) string
	GenerateDesignVariations(ctx context.Context, in genai.CardInput) []genai.DesignVariant
}

// Proofreader corrects text.
type Proofreader interface {
	CheckGrammar(ctx context.Context, text string) string
}

// GiftRecommender ranks merchants for a recipient.
type GiftRecommender interface {
	Recommend(ctx context.Context, interests []string, occasion string, limit int) []catalog.Merchant
}

var (
	_ workflow.Stage         = (*Illustrator)(nil)
	_ workflow.CriticalStage = (*Illustrator)(nil)
	_ workflow.Stage         = (*Editor)(nil)
	_ workflow.Stage         = (*Animator)(nil)
	_ workflow.Stage         = (*Recommender)(nil)
)

type options struct {
	log   logger.Logger
	limit int
}

// Option configures a stage.
type Option func(*options)

// WithLogger sets the stage logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithLimit sets how many gifts the recommender suggests.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{log: logger.NewNop(), limit: RecommendationLimit}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.With("component", component)
	return o
}

// Writer is the generation surface the creative stages need.
type Writer interface {
	Designer
	Proofreader
}

// Pipeline returns the standard stage order.
func Pipeline(gw Writer, gifts GiftRecommender, opts ...Option) []workflow.Stage {
	return []workflow.Stage{
		NewIllustrator(gw, opts...),
		NewEditor(gw, opts...),
		NewAnimator(opts...),
		NewRecommender(gifts, opts...),
	}
}
