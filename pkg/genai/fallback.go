package genai

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultOccasion = "celebration"
	variationCount  = 3
)

// DefaultAnalysis is returned when the prompt cannot be analysed.
func DefaultAnalysis() PromptAnalysis {
	return PromptAnalysis{
		Occasion:          defaultOccasion,
		Interests:         []string{},
		Tone:              ToneCelebratory,
		IllustrationStyle: StyleCartoon,
	}
}

// DefaultMessage is the templated card message.
func DefaultMessage(in CardInput) string {
	occasion := strings.TrimSpace(in.Occasion)
	if occasion == "" {
		occasion = defaultOccasion
	}
	name := strings.TrimSpace(in.RecipientName)
	if name == "" {
		name = "friend"
	}
	return fmt.Sprintf("Happy %s, %s!", TitleCase(occasion), name)
}

// DefaultVariationPrompts returns the three hand-written design prompts.
func DefaultVariationPrompts(in CardInput) []string {
	occasion := strings.TrimSpace(in.Occasion)
	if occasion == "" {
		occasion = defaultOccasion
	}
	interests := "things they love"
	if len(in.Interests) > 0 {
		interests = strings.Join(in.Interests, " and ")
	}
	style := ParseStyle(in.Style)

	return []string{
		fmt.Sprintf("A vibrant %s style %s card featuring %s with bright festive colors and confetti", style, occasion, interests),
		fmt.Sprintf("An elegant %s card in %s style with soft pastel tones, delicate borders and subtle %s motifs", occasion, style, interests),
		fmt.Sprintf("A playful %s style %s illustration where %s come together in a whimsical scene", style, occasion, interests),
	}
}

func defaultRefinedDesign(originalPrompt, feedback string) RefinedDesign {
	prompt := strings.TrimSpace(originalPrompt)
	if f := strings.TrimSpace(feedback); f != "" {
		prompt = fmt.Sprintf("%s, %s", prompt, f)
	}
	return RefinedDesign{
		Prompt:      prompt,
		Description: "Original design with the requested changes applied to the prompt",
	}
}

// TitleCase collapses whitespace and capitalises the first letter of each
// word, lowering the rest.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
