package genai

import (
	"fmt"
	"strings"
)

func analyzePromptTemplate(prompt string) string {
	return fmt.Sprintf(`Analyze this greeting card request and extract structured information.

Request: %q

Respond with JSON only, no prose:
{
  "occasion": "birthday, anniversary, graduation, wedding, holiday, thank you, ...",
  "recipientName": "name if mentioned, otherwise empty",
  "age": number or null,
  "interests": ["keywords describing the recipient's interests"],
  "tone": "celebratory | elegant | playful | romantic | professional",
  "illustrationStyle": "anime | watercolor | lineart | oilpainting | cartoon"
}`, prompt)
}

func variationsTemplate(in CardInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d distinct image-generation prompts for a %s greeting card", variationCount, orDefault(in.Occasion, defaultOccasion))
	if in.RecipientName != "" {
		fmt.Fprintf(&b, " for %s", in.RecipientName)
	}
	if in.Age > 0 {
		fmt.Fprintf(&b, " who is turning %d", in.Age)
	}
	b.WriteString(".\n")
	if len(in.Interests) > 0 {
		fmt.Fprintf(&b, "Incorporate these interests: %s.\n", strings.Join(in.Interests, ", "))
	}
	fmt.Fprintf(&b, "Illustration style: %s.\n", ParseStyle(in.Style))
	b.WriteString("Do not include any text or lettering in the images.\n")
	b.WriteString("Return exactly one prompt per line, numbered 1. 2. 3.")
	return b.String()
}

func messageTemplate(in CardInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, warm %s card message for %s.", orDefault(in.Occasion, defaultOccasion), orDefault(in.RecipientName, "a friend"))
	if in.Age > 0 {
		fmt.Fprintf(&b, " They are turning %d.", in.Age)
	}
	if len(in.Interests) > 0 {
		fmt.Fprintf(&b, " They enjoy %s.", strings.Join(in.Interests, ", "))
	}
	if in.Message != "" {
		fmt.Fprintf(&b, " Build on this note from the sender: %q.", in.Message)
	}
	b.WriteString(" Keep it under 40 words. Reply with the message text only.")
	return b.String()
}

func refineTemplate(originalPrompt, feedback string) string {
	return fmt.Sprintf(`A greeting card design was generated from this prompt:
%q

The user asked for these changes:
%q

Respond with JSON only:
{"prompt": "the revised image-generation prompt", "description": "one sentence describing what changed"}`, originalPrompt, feedback)
}

func grammarTemplate(text string) string {
	return fmt.Sprintf(`Correct the spelling and grammar of this greeting card text. Keep the meaning, tone and line breaks.
Reply with the corrected text only. If nothing needs fixing, repeat it unchanged.

%s`, text)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
