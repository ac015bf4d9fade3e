// Package workflow runs the card generation pipeline: prompt analysis
// followed by an ordered list of creative stages folded over one State.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cardforge.workflow"

const (
	spanRun   = "workflow.run"
	spanStage = "workflow.stage"
)

// Stage outcomes recorded in metrics.
const (
	outcomeOK       = "ok"
	outcomeSoftFail = "soft_fail"
	outcomeFailed   = "failed"
)

// DefaultTimeout bounds a whole run.
const DefaultTimeout = 15 * time.Second

// Stage is one creative step. Run mutates state in place.
type Stage interface {
	Name() Step
	Run(ctx context.Context, state *State) error
}

// CriticalStage is implemented by stages whose failure aborts the run
// regardless of what state they leave behind.
type CriticalStage interface {
	Critical() bool
}

// Analyzer classifies the prompt. It must not fail; a fallback analysis
// is reported through the Result source.
type Analyzer interface {
	AnalyzePromptResult(ctx context.Context, prompt string) genai.Result[genai.PromptAnalysis]
}

// MetricsRecorder receives run and stage observations.
type MetricsRecorder interface {
	RecordWorkflowRun(result string, duration time.Duration)
	RecordStageDuration(stage, outcome string, duration time.Duration)
	IncActiveWorkflows()
	DecActiveWorkflows()
}

type nopMetrics struct{}

func (nopMetrics) RecordWorkflowRun(string, time.Duration)           {}
func (nopMetrics) RecordStageDuration(string, string, time.Duration) {}
func (nopMetrics) IncActiveWorkflows()                               {}
func (nopMetrics) DecActiveWorkflows()                               {}

// PanicError wraps a panic recovered from a stage.
type PanicError struct {
	Stage Step
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("stage %s panicked: %v", e.Stage, e.Value)
}

// Orchestrator sequences the analysis and the creative stages.
type Orchestrator struct {
	analyzer Analyzer
	stages   []Stage
	timeout  time.Duration
	log      logger.Logger
	metrics  MetricsRecorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStages sets the ordered stage list. A stage named StepShopping only
// runs for runs with a user id.
func WithStages(stages ...Stage) Option {
	return func(o *Orchestrator) {
		o.stages = append([]Stage(nil), stages...)
	}
}

// WithTimeout bounds each run.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// New creates an orchestrator.
func New(analyzer Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analyzer: analyzer,
		timeout:  DefaultTimeout,
		log:      logger.NewNop(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline for prompt. It always returns a state; a
// failed run has CurrentStep StepFailed and at least one entry in Errors.
func (o *Orchestrator) Run(ctx context.Context, prompt, userID string) *State {
	return o.RunWithInput(ctx, prompt, userID, nil)
}

// RunWithInput is Run with structured card input that takes precedence
// over the analysis when stages build generation requests.
func (o *Orchestrator) RunWithInput(ctx context.Context, prompt, userID string, input *genai.CardInput) *State {
	state := NewState(prompt, userID)
	state.MadlibInput = input
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, spanRun, trace.WithAttributes(
		attribute.String("workflow.id", state.ID),
		attribute.Bool("workflow.has_user", userID != ""),
	))
	defer span.End()

	log := o.log.With("workflow_id", state.ID)
	o.metrics.IncActiveWorkflows()
	defer o.metrics.DecActiveWorkflows()

	log.InfoContext(ctx, "workflow started", "user_id", userID)

	o.analyze(ctx, state, log)

	for _, stage := range o.stages {
		if state.CurrentStep.Terminal() {
			break
		}
		if stage.Name() == StepShopping && state.UserID == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			state.fail(fmt.Sprintf("%s: %v", stage.Name(), err))
			break
		}

		state.advance(stage.Name())
		o.runStage(ctx, stage, state, log)
	}

	if !state.CurrentStep.Terminal() {
		state.advance(StepComplete)
	}
	state.CompletedAt = time.Now().UTC()

	duration := time.Since(start)
	o.metrics.RecordWorkflowRun(string(state.CurrentStep), duration)
	span.SetAttributes(attribute.String("workflow.result", string(state.CurrentStep)))
	if state.CurrentStep == StepFailed {
		span.SetStatus(codes.Error, state.Errors[len(state.Errors)-1])
		log.WarnContext(ctx, "workflow failed", "errors", state.Errors, "duration", duration)
	} else {
		log.InfoContext(ctx, "workflow complete", "steps", state.Steps, "warnings", len(state.Warnings), "duration", duration)
	}
	return state
}

func (o *Orchestrator) analyze(ctx context.Context, state *State, log logger.Logger) {
	state.advance(StepAnalyzing)
	start := time.Now()

	res := o.analyzer.AnalyzePromptResult(ctx, state.Prompt)
	analysis := res.Value
	state.Analysis = &analysis
	state.AnalysisSource = res.Source

	outcome := outcomeOK
	if res.Fallback() {
		outcome = outcomeSoftFail
		state.warn(fmt.Sprintf("%s: using default analysis: %v", StepAnalyzing, res.Err))
	}
	o.metrics.RecordStageDuration(string(StepAnalyzing), outcome, time.Since(start))
	log.DebugContext(ctx, "prompt analysed", "occasion", analysis.Occasion, "source", res.Source)
}

// runStage executes one stage and applies the failure policy: errors are
// soft unless the stage is critical, it panicked, the run deadline
// expired, or no design tree exists afterwards.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, state *State, log logger.Logger) {
	name := stage.Name()
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanStage, trace.WithAttributes(
		attribute.String("workflow.stage", string(name)),
	))
	defer span.End()

	start := time.Now()
	err := safeRun(ctx, stage, state)
	duration := time.Since(start)

	if err == nil {
		o.metrics.RecordStageDuration(string(name), outcomeOK, duration)
		return
	}

	span.RecordError(err)
	var panicErr *PanicError
	abort := errors.As(err, &panicErr) ||
		isCritical(stage) ||
		ctx.Err() != nil ||
		state.Design == nil

	if !abort {
		o.metrics.RecordStageDuration(string(name), outcomeSoftFail, duration)
		state.warn(fmt.Sprintf("%s: %v", name, err))
		log.WarnContext(ctx, "stage failed softly", "stage", name, "error", err)
		return
	}

	o.metrics.RecordStageDuration(string(name), outcomeFailed, duration)
	span.SetStatus(codes.Error, err.Error())
	if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		err = fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	state.fail(fmt.Sprintf("%s: %v", name, err))
	if panicErr != nil {
		log.ErrorContext(ctx, "stage panicked", "stage", name, "panic", panicErr.Value, "stack", string(panicErr.Stack))
		return
	}
	log.ErrorContext(ctx, "stage failed", "stage", name, "error", err)
}

func safeRun(ctx context.Context, stage Stage, state *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Stage: stage.Name(), Value: r, Stack: debug.Stack()}
		}
	}()
	return stage.Run(ctx, state)
}

func isCritical(stage Stage) bool {
	c, ok := stage.(CriticalStage)
	return ok && c.Critical()
}
