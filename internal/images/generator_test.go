package images

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"safepath-server/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "water-safety", slugify("Water Safety"))
	assert.Equal(t, "stranger-danger", slugify("stranger-danger"))
	assert.Equal(t, "scene", slugify("!!!"))
}

func TestPaletteFor(t *testing.T) {
	assert.Equal(t, topicPalettes["water"], paletteFor("water-safety"))
	assert.Equal(t, topicPalettes["fire"], paletteFor("Fire-Safety"))
	assert.Equal(t, topicPalettes["stranger"], paletteFor("stranger-danger"))
	assert.Equal(t, defaultPalette, paletteFor("road-safety"))
}

func TestPlaceholderImageGenerator(t *testing.T) {
	req := domain.GenerationRequest{Topic: "water-safety", AgeGroup: "6-8"}
	slides := []domain.ProposedSlide{
		{Position: 1, Text: "One."},
		{Position: 2, Text: "Two."},
		{Position: 3, Text: "Three."},
		{Position: 4, Text: "Four."},
	}

	urls := PlaceholderImageGenerator{}.GenerateImages(context.Background(), req, uuid.New(), slides)
	require.Len(t, urls, 4)
	for _, u := range urls {
		require.NotNil(t, u)
		assert.Contains(t, *u, "placehold.co")
	}
	// palette cycles after its three colors
	assert.Equal(t, *urls[0] != *urls[1], true)
	assert.Contains(t, *urls[0], topicPalettes["water"][0])
	assert.Contains(t, *urls[3], topicPalettes["water"][0])
}

func TestBuildImagePromptTruncatesSceneText(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	req := domain.GenerationRequest{Topic: "fire-safety", AgeGroup: "9-12"}
	prompt := buildImagePrompt(req, domain.ProposedSlide{Text: string(long)})
	assert.Less(t, len(prompt), 500)
	assert.Contains(t, prompt, "fire-safety")
	assert.Contains(t, prompt, "Indian neighborhood")
}

func TestBuildImagePromptTruncatesOnRuneBoundaries(t *testing.T) {
	req := domain.GenerationRequest{Topic: "water-safety", AgeGroup: "6-8"}
	prompt := buildImagePrompt(req, domain.ProposedSlide{Text: strings.Repeat("पानी", 120)})
	assert.True(t, utf8.ValidString(prompt))
}
