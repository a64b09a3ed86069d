package interfaces

import (
	"context"

	"safepath-server/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool / pgx.Tx the repositories need, so the
// same repository code runs against the pool and inside transactions and tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NgoAccountRepository persists NGO accounts. The account ID is generated by
// the store at creation; callers never supply it.
type NgoAccountRepository interface {
	Create(ctx context.Context, account *domain.NgoAccount) error
	GetByEmail(ctx context.Context, email string) (*domain.NgoAccount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.NgoAccount, error)
}

// StudentProfileRepository persists student reader profiles.
type StudentProfileRepository interface {
	Create(ctx context.Context, profile *domain.StudentProfile) error
}

// StoryRepository persists stories and their ordered slide sequences.
type StoryRepository interface {
	// CreateWithSlides inserts the story row and all slide rows in one
	// transaction. Partial slide sets are never visible.
	CreateWithSlides(ctx context.Context, story *domain.Story, slides []domain.StorySlide) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Story, error)
	ListSlides(ctx context.Context, storyID uuid.UUID) ([]domain.StorySlide, error)
	List(ctx context.Context, filter domain.StoryFilter) ([]domain.Story, error)
	// Search matches q case-insensitively against title and description of the
	// owner's stories. The returned total is independent of limit/offset.
	Search(ctx context.Context, ownerID uuid.UUID, q string, limit, offset int) ([]domain.Story, int, error)
	// Publish transitions the story to published. Calling it on an already
	// published story is a no-op success.
	Publish(ctx context.Context, id uuid.UUID) (*domain.Story, error)
	OwnerStats(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerStats, error)
}

// SlideGenerator is the external content-generation collaborator. Its output
// is untrusted and validated by the story service before persistence.
type SlideGenerator interface {
	GenerateSlides(ctx context.Context, req domain.GenerationRequest) ([]domain.ProposedSlide, error)
}

// ImageGenerator produces one illustration URL per slide. Implementations
// must degrade, not fail: on upstream errors they return placeholder URLs.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, req domain.GenerationRequest, storyID uuid.UUID, slides []domain.ProposedSlide) []*string
}

// SessionTracker counts active reading sessions per NGO over a sliding window.
type SessionTracker interface {
	Touch(ctx context.Context, ngoID uuid.UUID, sessionKey string) error
	ActiveCount(ctx context.Context, ngoID uuid.UUID) (int, error)
}

// StoryEventPublisher emits story lifecycle events for downstream consumers.
type StoryEventPublisher interface {
	PublishStoryPublished(ctx context.Context, event domain.StoryPublishedEvent) error
}
