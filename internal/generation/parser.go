package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"safepath-server/internal/domain"
)

const (
	maxSlides = 8
	minSlides = 3
)

var (
	errEmptyResponse  = errors.New("model returned empty response")
	errNoJSONObject   = errors.New("no JSON object found in model response")
	errNoSlides       = errors.New("model did not return a valid slides list")
	errTooFewSlides   = errors.New("model returned too few valid slides")
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	ageNumbersPattern = regexp.MustCompile(`\d+`)
)

// extractFirstJSONObject parses the model output as a JSON object, tolerating
// surrounding prose by falling back to the widest {...} span in the text.
func extractFirstJSONObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errEmptyResponse
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil && parsed != nil {
		return parsed, nil
	}

	span := jsonObjectPattern.FindString(text)
	if span == "" {
		return nil, errNoJSONObject
	}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON returned by model: %w", err)
	}
	if parsed == nil {
		return nil, errNoJSONObject
	}
	return parsed, nil
}

// parseAgeValue derives a representative reader age from an age group label
// like "6-8". A single number is taken as-is, a range is averaged.
func parseAgeValue(ageGroup string) int {
	matches := ageNumbersPattern.FindAllString(ageGroup, -1)
	numbers := make([]int, 0, len(matches))
	for _, m := range matches {
		var n int
		if _, err := fmt.Sscanf(m, "%d", &n); err == nil {
			numbers = append(numbers, n)
		}
	}
	switch len(numbers) {
	case 0:
		return 8
	case 1:
		return numbers[0]
	default:
		return (numbers[0] + numbers[1]) / 2
	}
}

// normalizeContext repairs the planner output field by field, substituting
// request-derived defaults for anything missing or mistyped.
func normalizeContext(raw map[string]any, req domain.GenerationRequest) storyContext {
	sctx := defaultContext(req)

	if age, ok := raw["age"].(float64); ok && age == float64(int(age)) {
		sctx.Age = int(age)
	}
	if location, ok := raw["location"].(string); ok && strings.TrimSpace(location) != "" {
		sctx.Location = location
	}
	if topic, ok := raw["topic"].(string); ok && strings.TrimSpace(topic) != "" {
		sctx.Topic = topic
	}
	if character, ok := raw["character"].(map[string]any); ok {
		if skin, ok := character["skin"].(string); ok && skin != "" {
			sctx.Character.Skin = skin
		}
		if hair, ok := character["hair"].(string); ok && hair != "" {
			sctx.Character.Hair = hair
		}
		if clothes, ok := character["clothes"].(string); ok && clothes != "" {
			sctx.Character.Clothes = clothes
		}
	}
	return sctx
}

// normalizeChoices filters the raw choice list down to entries with non-empty
// text and a boolean correct flag. Missing ids get sequential letters. Returns
// nil when nothing usable remains, which marks the slide as non-branching.
func normalizeChoices(raw any) []domain.StoryChoice {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	var normalized []domain.StoryChoice
	for idx, entry := range list {
		choice, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		text, ok := choice["text"].(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		correct, ok := choice["correct"].(bool)
		if !ok {
			continue
		}

		id := ""
		if rawID, ok := choice["id"].(string); ok {
			id = strings.TrimSpace(rawID)
		}
		if id == "" {
			id = string(rune('a' + idx))
		}

		normalized = append(normalized, domain.StoryChoice{
			ID:      id,
			Text:    strings.TrimSpace(text),
			Correct: correct,
		})
	}
	return normalized
}

// normalizeSlides turns raw model output into a well-formed slide sequence:
// at most 8 slides with contiguous 1-based positions, every choice set has a
// correct answer, and at least one slide branches.
func normalizeSlides(raw map[string]any, req domain.GenerationRequest) ([]domain.ProposedSlide, error) {
	rawSlides, ok := raw["slides"].([]any)
	if !ok || len(rawSlides) == 0 {
		return nil, errNoSlides
	}
	if len(rawSlides) > maxSlides {
		rawSlides = rawSlides[:maxSlides]
	}

	var slides []domain.ProposedSlide
	for _, entry := range rawSlides {
		rawSlide, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		text, ok := rawSlide["text"].(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}

		choices := normalizeChoices(rawSlide["choices"])
		if len(choices) > 0 && !anyCorrect(choices) {
			choices[0].Correct = true
		}

		slides = append(slides, domain.ProposedSlide{
			Position: len(slides) + 1,
			Text:     strings.TrimSpace(text),
			Choices:  choices,
		})
	}

	if len(slides) < minSlides {
		return nil, errTooFewSlides
	}

	if !anyBranch(slides) {
		guidance := req.LessonOrDefault("Say no and tell a trusted adult.")
		branch := domain.ProposedSlide{
			Text: fmt.Sprintf("A risky moment appears about %s. What is the safest choice?", strings.ToLower(req.Topic)),
			Choices: []domain.StoryChoice{
				{ID: "a", Text: guidance, Correct: true},
				{ID: "b", Text: "Ignore warning signs and go alone.", Correct: false},
			},
		}
		slides = append(slides[:1], append([]domain.ProposedSlide{branch}, slides[1:]...)...)
		if len(slides) > maxSlides {
			slides = slides[:maxSlides]
		}
		for i := range slides {
			slides[i].Position = i + 1
		}
	}

	return slides, nil
}

func anyCorrect(choices []domain.StoryChoice) bool {
	for _, c := range choices {
		if c.Correct {
			return true
		}
	}
	return false
}

func anyBranch(slides []domain.ProposedSlide) bool {
	for _, s := range slides {
		if len(s.Choices) > 0 {
			return true
		}
	}
	return false
}
