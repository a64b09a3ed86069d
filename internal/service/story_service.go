package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"
	"safepath-server/internal/safety"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryService orchestrates the authoring pipeline and all story reads.
type StoryService interface {
	// CreateStory runs the full authoring pipeline: validate input, generate
	// slides, pass them through the safety critic, attach illustrations, and
	// persist everything atomically. Nothing is stored until the slide set
	// has passed validation.
	CreateStory(ctx context.Context, ngoID uuid.UUID, req domain.GenerationRequest) (*domain.Story, []domain.StorySlide, error)
	// PublishStory transitions a draft to published. Only the owner may
	// publish; repeating the call on a published story is a no-op success.
	PublishStory(ctx context.Context, storyID, requesterID uuid.UUID) (*domain.Story, error)
	// ListStories applies the caller's filter within visibility rules:
	// anonymous callers only ever see published stories.
	ListStories(ctx context.Context, filter domain.StoryFilter, requester *uuid.UUID) ([]domain.Story, error)
	// SearchStories matches q against title and description of the
	// requester's own stories, drafts included.
	SearchStories(ctx context.Context, requesterID uuid.UUID, q string, limit, offset int) ([]domain.Story, int, error)
	GetStory(ctx context.Context, id uuid.UUID) (*domain.Story, error)
	// GetSlides returns the ordered slide sequence. A non-empty sessionKey
	// marks an active reading session against the story's owner.
	GetSlides(ctx context.Context, storyID uuid.UUID, sessionKey string) ([]domain.StorySlide, error)
	// DashboardStats aggregates the owner's stories plus the live session
	// count from the tracker.
	DashboardStats(ctx context.Context, ngoID uuid.UUID) (*domain.DashboardStats, error)
}

// Compile-time check to ensure storyServiceImpl implements StoryService
var _ StoryService = (*storyServiceImpl)(nil)

type storyServiceImpl struct {
	storyRepo      interfaces.StoryRepository
	accountRepo    interfaces.NgoAccountRepository
	generator      interfaces.SlideGenerator
	critic         *safety.Critic
	images         interfaces.ImageGenerator
	sessions       interfaces.SessionTracker
	eventPublisher interfaces.StoryEventPublisher
	logger         *zap.Logger
}

// NewStoryService creates a new instance of storyServiceImpl.
func NewStoryService(
	storyRepo interfaces.StoryRepository,
	accountRepo interfaces.NgoAccountRepository,
	generator interfaces.SlideGenerator,
	critic *safety.Critic,
	images interfaces.ImageGenerator,
	sessions interfaces.SessionTracker,
	eventPublisher interfaces.StoryEventPublisher,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		storyRepo:      storyRepo,
		accountRepo:    accountRepo,
		generator:      generator,
		critic:         critic,
		images:         images,
		sessions:       sessions,
		eventPublisher: eventPublisher,
		logger:         logger.Named("StoryService"),
	}
}

func (s *storyServiceImpl) CreateStory(ctx context.Context, ngoID uuid.UUID, req domain.GenerationRequest) (*domain.Story, []domain.StorySlide, error) {
	logFields := []zap.Field{zap.String("ngoID", ngoID.String()), zap.String("title", req.Title)}
	s.logger.Info("Creating story", logFields...)

	if err := validateGenerationRequest(req); err != nil {
		s.logger.Warn("Story creation rejected: invalid input", append(logFields, zap.Error(err))...)
		return nil, nil, err
	}

	// The token subject must still resolve to an account before we spend
	// seconds on generation; a deleted account means a stale token.
	if _, err := s.accountRepo.GetByID(ctx, ngoID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.logger.Warn("Story creation rejected: owner account no longer exists", logFields...)
			return nil, nil, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthorized)
		}
		s.logger.Error("Failed to resolve owner account", append(logFields, zap.Error(err))...)
		return nil, nil, err
	}

	proposed, err := s.generator.GenerateSlides(ctx, req)
	if err != nil {
		s.logger.Error("Slide generation failed", append(logFields, zap.Error(err))...)
		return nil, nil, err
	}

	criticResult, err := s.critic.Apply(ctx, req, proposed)
	if err != nil {
		s.logger.Warn("Safety critic rejected generated slides", append(logFields, zap.Error(err))...)
		return nil, nil, err
	}
	proposed = criticResult.Slides

	if err := validateSlideSet(proposed); err != nil {
		s.logger.Error("Generated slide set failed validation", append(logFields, zap.Error(err))...)
		return nil, nil, err
	}

	storyID := uuid.New()
	imageURLs := s.images.GenerateImages(ctx, req, storyID, proposed)

	story := &domain.Story{
		ID:             storyID,
		NgoID:          ngoID,
		Title:          strings.TrimSpace(req.Title),
		Topic:          req.Topic,
		AgeGroup:       req.AgeGroup,
		Language:       req.Language,
		RegionContext:  req.RegionContext,
		Description:    strings.TrimSpace(req.Description),
		MoralLesson:    req.MoralLesson,
		CharacterCount: req.CharacterCount,
		Status:         domain.StoryStatusDraft,
	}

	slides := make([]domain.StorySlide, len(proposed))
	for i, p := range proposed {
		var image *string
		if i < len(imageURLs) {
			image = imageURLs[i]
		}
		slides[i] = domain.StorySlide{
			StoryID:  storyID,
			Position: p.Position,
			Image:    image,
			Text:     p.Text,
			Choices:  p.Choices,
		}
	}
	if len(imageURLs) > 0 && imageURLs[0] != nil {
		story.CoverImage = imageURLs[0]
	}

	if err := s.storyRepo.CreateWithSlides(ctx, story, slides); err != nil {
		s.logger.Error("Failed to persist story", append(logFields, zap.Error(err))...)
		return nil, nil, err
	}

	s.logger.Info("Story created",
		zap.String("storyID", story.ID.String()),
		zap.String("ngoID", ngoID.String()),
		zap.Int("slides", len(slides)),
		zap.Strings("safetyIssues", criticResult.Issues))
	return story, slides, nil
}

func (s *storyServiceImpl) PublishStory(ctx context.Context, storyID, requesterID uuid.UUID) (*domain.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.NgoID != requesterID {
		s.logger.Warn("Publish rejected: requester is not the owner",
			zap.String("storyID", storyID.String()),
			zap.String("requesterID", requesterID.String()))
		return nil, domain.ErrForbidden
	}

	wasDraft := story.Status == domain.StoryStatusDraft

	published, err := s.storyRepo.Publish(ctx, storyID)
	if err != nil {
		return nil, err
	}

	if wasDraft {
		event := domain.StoryPublishedEvent{
			StoryID:    published.ID,
			NgoID:      published.NgoID,
			Title:      published.Title,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.eventPublisher.PublishStoryPublished(ctx, event); err != nil {
			// The transition itself already committed.
			s.logger.Warn("Failed to emit story published event",
				zap.String("storyID", published.ID.String()), zap.Error(err))
		}
		s.logger.Info("Story published",
			zap.String("storyID", published.ID.String()),
			zap.String("ngoID", published.NgoID.String()))
	}
	return published, nil
}

func (s *storyServiceImpl) ListStories(ctx context.Context, filter domain.StoryFilter, requester *uuid.UUID) ([]domain.Story, error) {
	published := domain.StoryStatusPublished
	if requester == nil {
		// Anonymous callers never see drafts, whatever they asked for.
		filter.Status = &published
	} else if filter.Status == nil || *filter.Status != domain.StoryStatusPublished {
		// Draft visibility is limited to the requester's own stories.
		filter.OwnerID = requester
	}
	return s.storyRepo.List(ctx, filter)
}

// NormalizeSearchPaging clamps limit to 1..100 (10 when out of range) and
// offset to >= 0. Callers echoing paging back to the client must echo these
// values, not the raw request.
func NormalizeSearchPaging(limit, offset int) (int, int) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *storyServiceImpl) SearchStories(ctx context.Context, requesterID uuid.UUID, q string, limit, offset int) ([]domain.Story, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	limit, offset = NormalizeSearchPaging(limit, offset)
	return s.storyRepo.Search(ctx, requesterID, q, limit, offset)
}

func (s *storyServiceImpl) GetStory(ctx context.Context, id uuid.UUID) (*domain.Story, error) {
	return s.storyRepo.GetByID(ctx, id)
}

func (s *storyServiceImpl) GetSlides(ctx context.Context, storyID uuid.UUID, sessionKey string) ([]domain.StorySlide, error) {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	slides, err := s.storyRepo.ListSlides(ctx, storyID)
	if err != nil {
		return nil, err
	}

	if sessionKey != "" {
		if err := s.sessions.Touch(ctx, story.NgoID, sessionKey); err != nil {
			// Session tracking is best effort and never blocks reading.
			s.logger.Warn("Failed to record reading session",
				zap.String("storyID", storyID.String()), zap.Error(err))
		}
	}
	return slides, nil
}

func (s *storyServiceImpl) DashboardStats(ctx context.Context, ngoID uuid.UUID) (*domain.DashboardStats, error) {
	ownerStats, err := s.storyRepo.OwnerStats(ctx, ngoID)
	if err != nil {
		return nil, err
	}

	activeSessions, err := s.sessions.ActiveCount(ctx, ngoID)
	if err != nil {
		s.logger.Warn("Failed to count active sessions, reporting zero",
			zap.String("ngoID", ngoID.String()), zap.Error(err))
		activeSessions = 0
	}

	return &domain.DashboardStats{
		StoriesCreated:  ownerStats.StoriesCreated,
		StudentsReached: ownerStats.StudentsReached,
		CompletionRate:  ownerStats.CompletionRate,
		ActiveSessions:  activeSessions,
	}, nil
}

// validateGenerationRequest enforces the closed attribute sets before any
// external collaborator is called.
func validateGenerationRequest(req domain.GenerationRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	if !domain.IsValidTopic(req.Topic) {
		return fmt.Errorf("%w: unknown topic '%s'", domain.ErrInvalidInput, req.Topic)
	}
	if !domain.IsValidAgeGroup(req.AgeGroup) {
		return fmt.Errorf("%w: unknown age group '%s'", domain.ErrInvalidInput, req.AgeGroup)
	}
	if !domain.IsValidLanguage(req.Language) {
		return fmt.Errorf("%w: unsupported language '%s'", domain.ErrInvalidInput, req.Language)
	}
	if req.CharacterCount < 1 || req.CharacterCount > 4 {
		return fmt.Errorf("%w: character count must be between 1 and 4", domain.ErrInvalidInput)
	}
	return nil
}

// validateSlideSet is the last gate before persistence. It rejects instead
// of repairing: a slide set that still violates the content invariants after
// the safety critic ran means the pipeline upstream is broken.
func validateSlideSet(slides []domain.ProposedSlide) error {
	if len(slides) == 0 {
		return fmt.Errorf("%w: empty slide set", domain.ErrSlideSetInvalid)
	}

	branching := false
	for i, slide := range slides {
		if slide.Position != i+1 {
			return fmt.Errorf("%w: positions must be contiguous starting at 1, slide %d has position %d",
				domain.ErrSlideSetInvalid, i+1, slide.Position)
		}
		if strings.TrimSpace(slide.Text) == "" {
			return fmt.Errorf("%w: slide %d has empty text", domain.ErrSlideSetInvalid, slide.Position)
		}
		if len(slide.Choices) > 0 {
			branching = true
			correct := 0
			for _, choice := range slide.Choices {
				if strings.TrimSpace(choice.Text) == "" {
					return fmt.Errorf("%w: slide %d has a choice with empty text", domain.ErrSlideSetInvalid, slide.Position)
				}
				if choice.Correct {
					correct++
				}
			}
			if correct == 0 {
				return fmt.Errorf("%w: slide %d has choices but none marked correct", domain.ErrSlideSetInvalid, slide.Position)
			}
		}
	}
	if !branching {
		return fmt.Errorf("%w: story has no branching slide", domain.ErrSlideSetInvalid)
	}
	return nil
}
