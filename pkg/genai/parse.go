package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a model response contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in model response")

// variationLine matches "1. text", "2) text" and "3: text".
var variationLine = regexp.MustCompile(`^\s*\d+[.):]\s*(.+)$`)

// cleanJSONResponse removes markdown code fences from a model response.
func cleanJSONResponse(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```JSON")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp)
}

// extractJSON returns the first balanced {...} object in response.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}

// decodeJSON strips fences and decodes the first JSON object in raw into v.
func decodeJSON(raw string, v any) error {
	cleaned := cleanJSONResponse(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	obj := extractJSON(cleaned)
	if obj == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}

// parseVariationLines returns the first three numbered lines of raw, or
// nil when fewer than three are present.
func parseVariationLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(cleanJSONResponse(raw), "\n") {
		m := variationLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `"*`))
		if text == "" {
			continue
		}
		out = append(out, text)
		if len(out) == variationCount {
			return out
		}
	}
	return nil
}

// analysisPayload is the loose shape the model is asked to return. Age is
// tolerated as either a number or a string.
type analysisPayload struct {
	Occasion          string          `json:"occasion"`
	RecipientName     string          `json:"recipientName"`
	Age               json.RawMessage `json:"age"`
	Interests         []string        `json:"interests"`
	Tone              string          `json:"tone"`
	IllustrationStyle string          `json:"illustrationStyle"`
}

func (p analysisPayload) toAnalysis() PromptAnalysis {
	a := PromptAnalysis{
		Occasion:          strings.ToLower(strings.TrimSpace(p.Occasion)),
		RecipientName:     strings.TrimSpace(p.RecipientName),
		Age:               parseAge(p.Age),
		Interests:         cleanInterests(p.Interests),
		Tone:              ParseTone(p.Tone),
		IllustrationStyle: ParseStyle(p.IllustrationStyle),
	}
	if a.Occasion == "" {
		a.Occasion = defaultOccasion
	}
	return a
}

func parseAge(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var age int
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &age); err == nil && age > 0 {
			return age
		}
	}
	return 0
}

func cleanInterests(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
