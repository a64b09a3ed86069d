package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerationRequest is the authoring input forwarded to the generation
// collaborators. The owner identity is deliberately absent: it comes from the
// verified token, never from this payload.
type GenerationRequest struct {
	Title          string
	Topic          string
	AgeGroup       string
	Language       string
	RegionContext  *string
	Description    string
	MoralLesson    *string
	CharacterCount int
}

// RegionOrDefault returns the region context, or fallback when not provided.
func (r GenerationRequest) RegionOrDefault(fallback string) string {
	if r.RegionContext != nil && *r.RegionContext != "" {
		return *r.RegionContext
	}
	return fallback
}

// LessonOrDefault returns the moral lesson, or fallback when not provided.
func (r GenerationRequest) LessonOrDefault(fallback string) string {
	if r.MoralLesson != nil && *r.MoralLesson != "" {
		return *r.MoralLesson
	}
	return fallback
}

// StoryPublishedEvent is emitted once per observed draft -> published
// transition.
type StoryPublishedEvent struct {
	StoryID    uuid.UUID `json:"storyId"`
	NgoID      uuid.UUID `json:"ngoId"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurredAt"`
}
