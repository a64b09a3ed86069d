package generation

import (
	"fmt"
	"testing"

	"safepath-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Title:          "Maya Learns to Say No",
		Topic:          "stranger-danger",
		AgeGroup:       "6-8",
		Language:       "English",
		Description:    "A story about being careful around strangers.",
		CharacterCount: 2,
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	t.Run("PlainObject", func(t *testing.T) {
		parsed, err := extractFirstJSONObject(`{"slides": []}`)
		require.NoError(t, err)
		assert.Contains(t, parsed, "slides")
	})

	t.Run("ObjectWithSurroundingProse", func(t *testing.T) {
		parsed, err := extractFirstJSONObject("Here is the story:\n```json\n{\"age\": 7}\n```\nEnjoy!")
		require.NoError(t, err)
		assert.Equal(t, float64(7), parsed["age"])
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := extractFirstJSONObject("   ")
		assert.ErrorIs(t, err, errEmptyResponse)
	})

	t.Run("NoObject", func(t *testing.T) {
		_, err := extractFirstJSONObject("the model refused to answer")
		assert.ErrorIs(t, err, errNoJSONObject)
	})

	t.Run("ArrayRootRejected", func(t *testing.T) {
		_, err := extractFirstJSONObject(`[1, 2, 3]`)
		assert.Error(t, err)
	})
}

func TestParseAgeValue(t *testing.T) {
	assert.Equal(t, 4, parseAgeValue("3-5"))
	assert.Equal(t, 7, parseAgeValue("6-8"))
	assert.Equal(t, 10, parseAgeValue("9-12"))
	assert.Equal(t, 6, parseAgeValue("6"))
	assert.Equal(t, 8, parseAgeValue("preschool"))
}

func TestNormalizeContext(t *testing.T) {
	req := testRequest()

	t.Run("FullPlannerOutput", func(t *testing.T) {
		raw := map[string]any{
			"age":      float64(7),
			"location": "a busy market",
			"topic":    "stranger-danger",
			"character": map[string]any{
				"skin":    "light brown",
				"hair":    "curly",
				"clothes": "red kurta",
			},
		}
		sctx := normalizeContext(raw, req)
		assert.Equal(t, 7, sctx.Age)
		assert.Equal(t, "a busy market", sctx.Location)
		assert.Equal(t, "curly", sctx.Character.Hair)
	})

	t.Run("EmptyPlannerOutputFallsBackToDefaults", func(t *testing.T) {
		sctx := normalizeContext(map[string]any{}, req)
		assert.Equal(t, 7, sctx.Age)
		assert.Equal(t, "school playground", sctx.Location)
		assert.Equal(t, "stranger-danger", sctx.Topic)
		assert.Equal(t, "school uniform", sctx.Character.Clothes)
	})

	t.Run("MistypedFieldsIgnored", func(t *testing.T) {
		raw := map[string]any{
			"age":       "seven",
			"location":  "  ",
			"character": "not an object",
		}
		sctx := normalizeContext(raw, req)
		assert.Equal(t, 7, sctx.Age)
		assert.Equal(t, "school playground", sctx.Location)
	})
}

func TestNormalizeChoices(t *testing.T) {
	t.Run("ValidChoices", func(t *testing.T) {
		raw := []any{
			map[string]any{"id": "a", "text": "Tell a teacher", "correct": true},
			map[string]any{"id": "b", "text": "Keep quiet", "correct": false},
		}
		choices := normalizeChoices(raw)
		require.Len(t, choices, 2)
		assert.True(t, choices[0].Correct)
		assert.Equal(t, "Keep quiet", choices[1].Text)
	})

	t.Run("MissingIDGetsLetter", func(t *testing.T) {
		raw := []any{
			map[string]any{"text": "Run away", "correct": true},
			map[string]any{"id": " ", "text": "Stay", "correct": false},
		}
		choices := normalizeChoices(raw)
		require.Len(t, choices, 2)
		assert.Equal(t, "a", choices[0].ID)
		assert.Equal(t, "b", choices[1].ID)
	})

	t.Run("InvalidEntriesDropped", func(t *testing.T) {
		raw := []any{
			"not a map",
			map[string]any{"text": "", "correct": true},
			map[string]any{"text": "No correct flag"},
			map[string]any{"text": "Valid", "correct": "yes"},
		}
		assert.Nil(t, normalizeChoices(raw))
	})

	t.Run("NullChoices", func(t *testing.T) {
		assert.Nil(t, normalizeChoices(nil))
	})
}

func rawSlide(text string, choices []any) map[string]any {
	slide := map[string]any{"text": text}
	if choices != nil {
		slide["choices"] = choices
	}
	return slide
}

func TestNormalizeSlides(t *testing.T) {
	req := testRequest()

	t.Run("WellFormedStory", func(t *testing.T) {
		raw := map[string]any{"slides": []any{
			rawSlide("Maya walks home from school.", nil),
			rawSlide("A stranger offers her sweets.", []any{
				map[string]any{"id": "a", "text": "Say no and walk away", "correct": true},
				map[string]any{"id": "b", "text": "Take the sweets", "correct": false},
			}),
			rawSlide("Maya tells her mother what happened.", nil),
		}}
		slides, err := normalizeSlides(raw, req)
		require.NoError(t, err)
		require.Len(t, slides, 3)
		for i, s := range slides {
			assert.Equal(t, i+1, s.Position)
		}
		assert.Len(t, slides[1].Choices, 2)
	})

	t.Run("NoCorrectChoiceGetsForced", func(t *testing.T) {
		raw := map[string]any{"slides": []any{
			rawSlide("Opening.", nil),
			rawSlide("Decision time.", []any{
				map[string]any{"id": "a", "text": "Option one", "correct": false},
				map[string]any{"id": "b", "text": "Option two", "correct": false},
			}),
			rawSlide("Closing.", nil),
		}}
		slides, err := normalizeSlides(raw, req)
		require.NoError(t, err)
		assert.True(t, slides[1].Choices[0].Correct)
	})

	t.Run("MissingBranchGetsInserted", func(t *testing.T) {
		raw := map[string]any{"slides": []any{
			rawSlide("One.", nil),
			rawSlide("Two.", nil),
			rawSlide("Three.", nil),
		}}
		slides, err := normalizeSlides(raw, req)
		require.NoError(t, err)
		require.Len(t, slides, 4)
		assert.Len(t, slides[1].Choices, 2)
		assert.True(t, slides[1].Choices[0].Correct)
		for i, s := range slides {
			assert.Equal(t, i+1, s.Position)
		}
	})

	t.Run("SkippedSlidesKeepPositionsContiguous", func(t *testing.T) {
		raw := map[string]any{"slides": []any{
			rawSlide("One.", nil),
			rawSlide("  ", nil),
			map[string]any{"not": "a slide"},
			rawSlide("Two.", nil),
			rawSlide("Three.", []any{
				map[string]any{"id": "a", "text": "Safe", "correct": true},
				map[string]any{"id": "b", "text": "Unsafe", "correct": false},
			}),
		}}
		slides, err := normalizeSlides(raw, req)
		require.NoError(t, err)
		require.Len(t, slides, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{slides[0].Position, slides[1].Position, slides[2].Position})
	})

	t.Run("CappedAtEightSlides", func(t *testing.T) {
		var entries []any
		for i := 0; i < 12; i++ {
			entries = append(entries, rawSlide(fmt.Sprintf("Slide %d with a choice.", i), []any{
				map[string]any{"id": "a", "text": "Yes", "correct": true},
				map[string]any{"id": "b", "text": "No", "correct": false},
			}))
		}
		slides, err := normalizeSlides(map[string]any{"slides": entries}, req)
		require.NoError(t, err)
		assert.Len(t, slides, maxSlides)
	})

	t.Run("TooFewValidSlides", func(t *testing.T) {
		raw := map[string]any{"slides": []any{
			rawSlide("Only one.", nil),
			rawSlide("", nil),
		}}
		_, err := normalizeSlides(raw, req)
		assert.ErrorIs(t, err, errTooFewSlides)
	})

	t.Run("MissingSlidesKey", func(t *testing.T) {
		_, err := normalizeSlides(map[string]any{"story": "text"}, req)
		assert.ErrorIs(t, err, errNoSlides)
	})
}

func TestDefaultSlides(t *testing.T) {
	req := testRequest()
	req.MoralLesson = strPtr("Always tell a trusted adult.")

	slides := DefaultSlides(req)
	require.Len(t, slides, 3)
	assert.Equal(t, 1, slides[0].Position)
	assert.Contains(t, slides[0].Text, req.Title)
	require.Len(t, slides[1].Choices, 2)
	assert.True(t, slides[1].Choices[0].Correct)
	assert.Contains(t, slides[1].Choices[0].Text, "trusted adult")
	assert.Contains(t, slides[2].Text, "Always tell a trusted adult.")
}
