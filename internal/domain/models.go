package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StoryStatus is the lifecycle state of a story. The only transition is
// draft -> published, performed by the owning NGO.
type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"
	StoryStatusPublished StoryStatus = "published"
)

// NgoAccount represents an authoring organization. The ID is generated by the
// database at insert time and is the sole stable identity: it never changes,
// even if the account's email does.
type NgoAccount struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OrgName      string    `db:"org_name" json:"orgName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never serialized
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// StudentProfile is a lightweight, unauthenticated reader identity.
type StudentProfile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	AgeGroup  string    `db:"age_group" json:"ageGroup"`
	Avatar    *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Story is a unit of interactive content owned by exactly one NGO.
type Story struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	NgoID           uuid.UUID   `db:"ngo_id" json:"ngoId"`
	Title           string      `db:"title" json:"title"`
	Topic           string      `db:"topic" json:"topic"`
	AgeGroup        string      `db:"age_group" json:"ageGroup"`
	Language        string      `db:"language" json:"language"`
	RegionContext   *string     `db:"region_context" json:"regionContext,omitempty"`
	Description     string      `db:"description" json:"description"`
	MoralLesson     *string     `db:"moral_lesson" json:"moralLesson,omitempty"`
	CharacterCount  int         `db:"character_count" json:"characterCount"`
	Status          StoryStatus `db:"status" json:"status"`
	StudentsReached int         `db:"students_reached" json:"studentsReached"`
	CompletionRate  int         `db:"completion_rate" json:"completionRate"`
	CoverImage      *string     `db:"cover_image_url" json:"coverImage,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
}

// StoryChoice is one selectable option on a branching slide. Exactly the
// subset with Correct=true represents the safe outcome the narrative rewards.
type StoryChoice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// StorySlide is one narrative beat of a story. Positions within a story form
// a contiguous 1-based sequence; a slide either has no choices (linear
// continuation) or at least one, with at least one marked correct.
type StorySlide struct {
	StoryID  uuid.UUID     `db:"story_id" json:"-"`
	Position int           `db:"position" json:"id"` // Exposed as the slide id, per the public API
	Image    *string       `db:"image_url" json:"image,omitempty"`
	Text     string        `db:"text" json:"text"`
	Choices  []StoryChoice `db:"choices" json:"choices,omitempty"`
}

// ChoicesJSON serializes the slide's choices for the JSONB column.
// Returns nil for linear slides so the column stays NULL.
func (s *StorySlide) ChoicesJSON() (json.RawMessage, error) {
	if len(s.Choices) == 0 {
		return nil, nil
	}
	return json.Marshal(s.Choices)
}

// ProposedSlide is a candidate slide produced by the generation collaborator.
// It is untrusted input: the story service validates it before anything is
// persisted.
type ProposedSlide struct {
	Position int           `json:"position"`
	Text     string        `json:"text"`
	Choices  []StoryChoice `json:"choices,omitempty"`
	Image    *string       `json:"image,omitempty"`
}

// DashboardStats aggregates over the stories owned by a single NGO.
type DashboardStats struct {
	StoriesCreated  int `json:"storiesCreated"`
	StudentsReached int `json:"studentsReached"`
	CompletionRate  int `json:"completionRate"`
	ActiveSessions  int `json:"activeSessions"`
}

// StoryFilter narrows a story listing. A nil field means "no constraint".
type StoryFilter struct {
	Status   *StoryStatus
	Topic    *string
	AgeGroup *string
	OwnerID  *uuid.UUID
}

// OwnerStats is the repository-level aggregate backing DashboardStats;
// the active session count comes from the session tracker, not Postgres.
type OwnerStats struct {
	StoriesCreated  int
	StudentsReached int
	CompletionRate  int
}
