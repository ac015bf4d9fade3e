// Package genai is the generative content gateway. It turns card requests
// into model prompts, parses loosely structured model output and
// substitutes deterministic fallback content when generation or parsing
// fails. Core operations never return an error; the *Result variants say
// whether the value was parsed or substituted.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cardforge.genai"

// Operation names used in logs, spans and metrics.
const (
	OpAnalyzePrompt    = "analyze_prompt"
	OpDesignVariations = "design_variations"
	OpRenderImage      = "render_image"
	OpGenerateMessage  = "generate_message"
	OpRefineDesign     = "refine_design"
	OpCheckGrammar     = "check_grammar"
	OpTestConnection   = "test_connection"
)

// ErrNoModel is the fallback cause when no model is configured.
var ErrNoModel = errors.New("no generation model configured")

// MetricsRecorder receives one observation per gateway operation.
type MetricsRecorder interface {
	RecordGeneration(operation, outcome string, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordGeneration(string, string, time.Duration) {}

// Executor runs a model call, possibly after waiting for capacity.
// *lane.Lane satisfies it.
type Executor interface {
	Do(ctx context.Context, fn func(context.Context) error) error
}

type direct struct{}

func (direct) Do(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

// Config controls gateway behaviour.
type Config struct {
	TextModel       string
	ImageModel      string
	ImageGeneration bool
	Timeout         time.Duration
}

// Gateway wraps a Model with prompt construction, tolerant parsing and fallbacks.
type Gateway struct {
	model   Model
	cfg     Config
	log     logger.Logger
	metrics MetricsRecorder
	exec    Executor
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(g *Gateway) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithLane runs every model call through e. A call the lane rejects
// falls back like any other failure.
func WithLane(e Executor) Option {
	return func(g *Gateway) {
		if e != nil {
			g.exec = e
		}
	}
}

// NewGateway creates a gateway. A nil model is allowed: every operation
// then returns its fallback.
func NewGateway(model Model, cfg Config, opts ...Option) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	g := &Gateway{
		model:   model,
		cfg:     cfg,
		log:     logger.NewNop(),
		metrics: nopMetrics{},
		exec:    direct{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Models returns the configured model names.
func (g *Gateway) Models() map[string]string {
	return map[string]string{
		"text":  g.cfg.TextModel,
		"image": g.cfg.ImageModel,
	}
}

// AnalyzePrompt classifies a free-text prompt.
func (g *Gateway) AnalyzePrompt(ctx context.Context, prompt string) PromptAnalysis {
	return g.AnalyzePromptResult(ctx, prompt).Value
}

// AnalyzePromptResult is AnalyzePrompt with provenance.
func (g *Gateway) AnalyzePromptResult(ctx context.Context, prompt string) Result[PromptAnalysis] {
	return run(ctx, g, OpAnalyzePrompt, DefaultAnalysis(), func(ctx context.Context) (PromptAnalysis, error) {
		if strings.TrimSpace(prompt) == "" {
			return PromptAnalysis{}, errors.New("empty prompt")
		}
		raw, err := g.model.GenerateText(ctx, analyzePromptTemplate(prompt))
		if err != nil {
			return PromptAnalysis{}, err
		}
		var payload analysisPayload
		if err := decodeJSON(raw, &payload); err != nil {
			return PromptAnalysis{}, err
		}
		return payload.toAnalysis(), nil
	})
}

// GenerateDesignVariations produces three design prompts, rendering each
// when image generation is enabled.
func (g *Gateway) GenerateDesignVariations(ctx context.Context, in CardInput) []DesignVariant {
	return g.GenerateDesignVariationsResult(ctx, in).Value
}

// GenerateDesignVariationsResult is GenerateDesignVariations with provenance.
// The Source describes the prompts; a failed render never turns the
// result into a fallback.
func (g *Gateway) GenerateDesignVariationsResult(ctx context.Context, in CardInput) Result[[]DesignVariant] {
	res := run(ctx, g, OpDesignVariations, DefaultVariationPrompts(in), func(ctx context.Context) ([]string, error) {
		raw, err := g.model.GenerateText(ctx, variationsTemplate(in))
		if err != nil {
			return nil, err
		}
		lines := parseVariationLines(raw)
		if lines == nil {
			return nil, fmt.Errorf("expected %d numbered variations", variationCount)
		}
		return lines, nil
	})

	variants := make([]DesignVariant, len(res.Value))
	for i, p := range res.Value {
		variants[i] = DesignVariant{
			ID:     fmt.Sprintf("design-%d-%s", i+1, uuid.NewString()[:8]),
			Prompt: p,
		}
		if g.cfg.ImageGeneration && g.model != nil {
			variants[i].Image = g.renderImage(ctx, p)
		}
	}
	return Result[[]DesignVariant]{Value: variants, Source: res.Source, Err: res.Err}
}

func (g *Gateway) renderImage(ctx context.Context, prompt string) *Image {
	res := run(ctx, g, OpRenderImage, (*Image)(nil), func(ctx context.Context) (*Image, error) {
		return g.model.GenerateImage(ctx, prompt)
	})
	return res.Value
}

// GenerateMessage writes a short card message.
func (g *Gateway) GenerateMessage(ctx context.Context, in CardInput) string {
	return g.GenerateMessageResult(ctx, in).Value
}

// GenerateMessageResult is GenerateMessage with provenance.
func (g *Gateway) GenerateMessageResult(ctx context.Context, in CardInput) Result[string] {
	return run(ctx, g, OpGenerateMessage, DefaultMessage(in), func(ctx context.Context) (string, error) {
		raw, err := g.model.GenerateText(ctx, messageTemplate(in))
		if err != nil {
			return "", err
		}
		msg := strings.Trim(cleanJSONResponse(raw), "\"' \n")
		if msg == "" {
			return "", ErrEmptyResponse
		}
		return msg, nil
	})
}

// RefineDesign rewrites a design prompt according to feedback.
func (g *Gateway) RefineDesign(ctx context.Context, originalPrompt, feedback string) RefinedDesign {
	return g.RefineDesignResult(ctx, originalPrompt, feedback).Value
}

// RefineDesignResult is RefineDesign with provenance.
func (g *Gateway) RefineDesignResult(ctx context.Context, originalPrompt, feedback string) Result[RefinedDesign] {
	return run(ctx, g, OpRefineDesign, defaultRefinedDesign(originalPrompt, feedback), func(ctx context.Context) (RefinedDesign, error) {
		raw, err := g.model.GenerateText(ctx, refineTemplate(originalPrompt, feedback))
		if err != nil {
			return RefinedDesign{}, err
		}
		var out RefinedDesign
		if err := decodeJSON(raw, &out); err != nil {
			return RefinedDesign{}, err
		}
		if strings.TrimSpace(out.Prompt) == "" {
			return RefinedDesign{}, errors.New("refined design has no prompt")
		}
		return out, nil
	})
}

// CheckGrammar returns text with spelling and grammar corrected, or text
// unchanged when the model is unavailable.
func (g *Gateway) CheckGrammar(ctx context.Context, text string) string {
	return g.CheckGrammarResult(ctx, text).Value
}

// CheckGrammarResult is CheckGrammar with provenance.
func (g *Gateway) CheckGrammarResult(ctx context.Context, text string) Result[string] {
	if strings.TrimSpace(text) == "" {
		return parsed(text)
	}
	return run(ctx, g, OpCheckGrammar, text, func(ctx context.Context) (string, error) {
		raw, err := g.model.GenerateText(ctx, grammarTemplate(text))
		if err != nil {
			return "", err
		}
		corrected := strings.TrimSpace(cleanJSONResponse(raw))
		if corrected == "" {
			return "", ErrEmptyResponse
		}
		return corrected, nil
	})
}

// TestConnection reports whether the text model answers.
func (g *Gateway) TestConnection(ctx context.Context) bool {
	res := run(ctx, g, OpTestConnection, false, func(ctx context.Context) (bool, error) {
		if _, err := g.model.GenerateText(ctx, "Reply with the single word OK."); err != nil {
			return false, err
		}
		return true, nil
	})
	return res.Value
}

// run executes fn through the executor, under the gateway timeout and a
// span. The timeout starts once the executor admits the call. Any error or
// panic yields def tagged as a fallback and logged at WARN.
func run[T any](ctx context.Context, g *Gateway, op string, def T, fn func(context.Context) (T, error)) (res Result[T]) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "genai."+op, trace.WithAttributes(
		attribute.String("genai.operation", op),
		attribute.String("genai.model", g.cfg.TextModel),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res = fallback(def, fmt.Errorf("panic in %s: %v", op, r))
		}
		g.metrics.RecordGeneration(op, string(res.Source), time.Since(start))
		span.SetAttributes(attribute.String("genai.outcome", string(res.Source)))
		if res.Fallback() {
			span.SetStatus(codes.Error, res.Err.Error())
			g.log.WarnContext(ctx, "generation fell back to default content",
				"operation", op,
				"error", res.Err,
			)
		}
	}()

	if g.model == nil {
		return fallback(def, ErrNoModel)
	}

	var v T
	err := g.exec.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		var err error
		v, err = fn(callCtx)
		return err
	})
	if err != nil {
		return fallback(def, fmt.Errorf("%s: %w", op, err))
	}
	return parsed(v)
}
