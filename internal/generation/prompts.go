package generation

import (
	"encoding/json"
	"fmt"

	"safepath-server/internal/domain"
)

// storyContext is the planner's structured summary of the NGO input. It keeps
// the protagonist consistent across the story and its illustrations.
type storyContext struct {
	Age       int            `json:"age"`
	Location  string         `json:"location"`
	Character storyCharacter `json:"character"`
	Topic     string         `json:"topic"`
}

type storyCharacter struct {
	Skin    string `json:"skin"`
	Hair    string `json:"hair"`
	Clothes string `json:"clothes"`
}

func buildPlannerPrompt(req domain.GenerationRequest) string {
	return fmt.Sprintf(
		"You are a planner that converts NGO input into child-safe structured context for a safety story. "+
			"Return ONLY valid JSON with this exact shape: "+
			`{"age": number, "location": string, "character": {"skin": string, "hair": string, "clothes": string}, "topic": string}. `+
			"Do not include markdown or extra keys.\n\n"+
			"NGO Input:\n"+
			"- title: %s\n"+
			"- topic: %s\n"+
			"- age_group: %s\n"+
			"- language: %s\n"+
			"- region_context: %s\n"+
			"- character_count: %d\n"+
			"- description: %s\n"+
			"- moral_lesson: %s",
		req.Title,
		req.Topic,
		req.AgeGroup,
		req.Language,
		req.RegionOrDefault("not provided"),
		req.CharacterCount,
		req.Description,
		req.LessonOrDefault("not provided"),
	)
}

func buildStoryPrompt(req domain.GenerationRequest, sctx storyContext) string {
	contextJSON, err := json.Marshal(sctx)
	if err != nil {
		contextJSON = []byte("{}")
	}
	return fmt.Sprintf(
		"You generate branching, age-appropriate child safety stories as JSON. "+
			"Return ONLY valid JSON with this exact shape: "+
			`{"slides": [{"position": number, "text": string, "choices": null | [{"id": string, "text": string, "correct": boolean}]}]}. `+
			"Rules: 4 to 6 slides, simple language, at least one slide with exactly 2 choices (one correct=true and one correct=false), "+
			"no violence, focus on safe behavior and trusted adults, output in the requested language.\n\n"+
			"Story metadata:\n"+
			"- title: %s\n"+
			"- topic: %s\n"+
			"- age_group: %s\n"+
			"- language: %s\n"+
			"- moral_lesson: %s\n"+
			"- region_context: %s\n"+
			"- context_json: %s",
		req.Title,
		req.Topic,
		req.AgeGroup,
		req.Language,
		req.LessonOrDefault("Use safe choices and tell a trusted adult."),
		req.RegionOrDefault("not provided"),
		contextJSON,
	)
}
