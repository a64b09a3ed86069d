package generation

import (
	"fmt"
	"strings"

	"safepath-server/internal/domain"
)

func defaultContext(req domain.GenerationRequest) storyContext {
	return storyContext{
		Age:      parseAgeValue(req.AgeGroup),
		Location: req.RegionOrDefault("school playground"),
		Character: storyCharacter{
			Skin:    "brown",
			Hair:    "short black",
			Clothes: "school uniform",
		},
		Topic: req.Topic,
	}
}

// DefaultSlides is the hand-written branching slide set used when model
// output cannot be obtained and fallback is enabled. It satisfies every
// structural rule the validator enforces.
func DefaultSlides(req domain.GenerationRequest) []domain.ProposedSlide {
	guidance := req.LessonOrDefault("Say no, move to safety, and tell a trusted adult immediately.")
	return []domain.ProposedSlide{
		{
			Position: 1,
			Text: fmt.Sprintf("%s begins in %s where children are learning how to stay safe.",
				req.Title, req.RegionOrDefault("a familiar neighborhood")),
		},
		{
			Position: 2,
			Text:     fmt.Sprintf("A tricky situation appears around %s. What should the child do?", strings.ToLower(req.Topic)),
			Choices: []domain.StoryChoice{
				{ID: "a", Text: guidance, Correct: true},
				{ID: "b", Text: "Keep it secret and stay quiet.", Correct: false},
			},
		},
		{
			Position: 3,
			Text:     fmt.Sprintf("The child makes a safe choice and learns: %s", guidance),
		},
	}
}
