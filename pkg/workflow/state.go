package workflow

import (
	"time"

	"github.com/cardforge/cardforge/pkg/catalog"
	"github.com/cardforge/cardforge/pkg/design"
	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/google/uuid"
)

// Step labels the pipeline position of a run.
type Step string

const (
	StepStart        Step = "start"
	StepAnalyzing    Step = "analyzing"
	StepIllustrating Step = "illustrating"
	StepEditing      Step = "editing"
	StepAnimating    Step = "animating"
	StepShopping     Step = "shopping"
	StepComplete     Step = "complete"
	StepFailed       Step = "failed"
)

// Terminal reports whether no further stage may run after s.
func (s Step) Terminal() bool {
	return s == StepComplete || s == StepFailed
}

// Contact is a person the sender might want to involve in the card.
type Contact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Reason       string `json:"reason"`
}

// State is the record threaded through one run. It is owned by a single
// run and never shared across requests.
type State struct {
	ID                  string                `json:"id"`
	Prompt              string                `json:"prompt"`
	MadlibInput         *genai.CardInput      `json:"madlib_input,omitempty"`
	UserID              string                `json:"user_id,omitempty"`
	Analysis            *genai.PromptAnalysis `json:"analysis,omitempty"`
	AnalysisSource      genai.Source          `json:"analysis_source,omitempty"`
	Design              *design.Node          `json:"design,omitempty"`
	Variations          []genai.DesignVariant `json:"variations,omitempty"`
	Message             string                `json:"message,omitempty"`
	Animation           map[string]any        `json:"animation,omitempty"`
	GiftRecommendations []catalog.Merchant    `json:"gift_recommendations,omitempty"`
	SuggestedContacts   []Contact             `json:"suggested_contacts,omitempty"`
	CurrentStep         Step                  `json:"current_step"`
	Steps               []Step                `json:"steps"`
	Errors              []string              `json:"errors"`
	Warnings            []string              `json:"warnings"`
	StartedAt           time.Time             `json:"started_at"`
	CompletedAt         time.Time             `json:"completed_at,omitzero"`
}

// NewState creates a state at StepStart.
func NewState(prompt, userID string) *State {
	return &State{
		ID:          uuid.NewString(),
		Prompt:      prompt,
		UserID:      userID,
		CurrentStep: StepStart,
		Steps:       []Step{},
		Errors:      []string{},
		Warnings:    []string{},
		StartedAt:   time.Now().UTC(),
	}
}

// CardInput derives generation input from the madlib input or, failing
// that, the analysis.
func (s *State) CardInput() genai.CardInput {
	if s.MadlibInput != nil {
		return *s.MadlibInput
	}
	if s.Analysis == nil {
		return genai.CardInput{Occasion: genai.DefaultAnalysis().Occasion}
	}
	return genai.CardInput{
		RecipientName: s.Analysis.RecipientName,
		Occasion:      s.Analysis.Occasion,
		Interests:     s.Analysis.Interests,
		Age:           s.Analysis.Age,
		Style:         string(s.Analysis.IllustrationStyle),
	}
}

// HasStep reports whether step appears in the history.
func (s *State) HasStep(step Step) bool {
	for _, st := range s.Steps {
		if st == step {
			return true
		}
	}
	return false
}

func (s *State) advance(step Step) {
	s.CurrentStep = step
	s.Steps = append(s.Steps, step)
}

func (s *State) fail(msg string) {
	s.Errors = append(s.Errors, msg)
	s.advance(StepFailed)
}

func (s *State) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
