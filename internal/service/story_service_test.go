package service

import (
	"context"
	"errors"
	"testing"

	"safepath-server/internal/domain"
	"safepath-server/internal/mocks"
	"safepath-server/internal/safety"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type storyServiceMocks struct {
	storyRepo   *mocks.StoryRepository
	accountRepo *mocks.NgoAccountRepository
	generator   *mocks.SlideGenerator
	images      *mocks.ImageGenerator
	sessions    *mocks.SessionTracker
	events      *mocks.StoryEventPublisher
}

// ownerExists stubs the owner-account lookup CreateStory performs before
// generation.
func (m *storyServiceMocks) ownerExists(ngoID uuid.UUID) {
	m.accountRepo.On("GetByID", mock.Anything, ngoID).
		Return(&domain.NgoAccount{ID: ngoID}, nil).Once()
}

func newTestStoryService(t *testing.T) (StoryService, *storyServiceMocks) {
	t.Helper()
	m := &storyServiceMocks{
		storyRepo:   new(mocks.StoryRepository),
		accountRepo: new(mocks.NgoAccountRepository),
		generator:   new(mocks.SlideGenerator),
		images:      new(mocks.ImageGenerator),
		sessions:    new(mocks.SessionTracker),
		events:      new(mocks.StoryEventPublisher),
	}
	critic := safety.NewCritic(safety.Config{
		Enabled:               true,
		MaxTextLength:         320,
		MaxScaryTermsPerSlide: 2,
	}, nil, zap.NewNop())

	svc := NewStoryService(m.storyRepo, m.accountRepo, m.generator, critic, m.images, m.sessions, m.events, zap.NewNop())
	return svc, m
}

func validRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Title:          "Asha Crosses the Road",
		Topic:          "road-safety",
		AgeGroup:       "6-8",
		Language:       "English",
		Description:    "Learning to cross at the zebra crossing.",
		CharacterCount: 2,
	}
}

func generatedSlides() []domain.ProposedSlide {
	return []domain.ProposedSlide{
		{Position: 1, Text: "Asha waits at the crossing with her teacher."},
		{Position: 2, Text: "The light turns red. What should Asha do?", Choices: []domain.StoryChoice{
			{ID: "a", Text: "Wait for the green signal.", Correct: true},
			{ID: "b", Text: "Run across quickly.", Correct: false},
		}},
		{Position: 3, Text: "Asha crosses safely holding her teacher's hand."},
	}
}

func imageURLs(n int) []*string {
	urls := make([]*string, n)
	for i := range urls {
		u := "https://img.example/slide.png"
		urls[i] = &u
	}
	return urls
}

func TestCreateStory(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		ngoID := uuid.New()
		req := validRequest()

		m.ownerExists(ngoID)
		m.generator.On("GenerateSlides", ctx, req).Return(generatedSlides(), nil).Once()
		m.images.On("GenerateImages", ctx, req, mock.AnythingOfType("uuid.UUID"), mock.Anything).
			Return(imageURLs(3)).Once()
		m.storyRepo.On("CreateWithSlides", ctx, mock.AnythingOfType("*domain.Story"), mock.AnythingOfType("[]domain.StorySlide")).
			Return(nil).Once()

		story, slides, err := svc.CreateStory(ctx, ngoID, req)
		require.NoError(t, err)
		assert.Equal(t, ngoID, story.NgoID)
		assert.Equal(t, domain.StoryStatusDraft, story.Status)
		assert.Equal(t, 0, story.StudentsReached)
		assert.Equal(t, 0, story.CompletionRate)
		require.NotNil(t, story.CoverImage)
		require.Len(t, slides, 3)
		for i, slide := range slides {
			assert.Equal(t, i+1, slide.Position)
			assert.Equal(t, story.ID, slide.StoryID)
			assert.NotNil(t, slide.Image)
		}
		m.storyRepo.AssertExpectations(t)
	})

	t.Run("InvalidTopicRejectedBeforeGeneration", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		req := validRequest()
		req.Topic = "dinosaurs"

		_, _, err := svc.CreateStory(ctx, uuid.New(), req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		m.generator.AssertNotCalled(t, "GenerateSlides")
	})

	t.Run("InvalidCharacterCount", func(t *testing.T) {
		svc, _ := newTestStoryService(t)
		req := validRequest()
		req.CharacterCount = 9

		_, _, err := svc.CreateStory(ctx, uuid.New(), req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("StaleTokenOwnerRejectedBeforeGeneration", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		ngoID := uuid.New()

		m.accountRepo.On("GetByID", mock.Anything, ngoID).
			Return(nil, domain.ErrAccountNotFound).Once()

		_, _, err := svc.CreateStory(ctx, ngoID, validRequest())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		m.generator.AssertNotCalled(t, "GenerateSlides")
		m.storyRepo.AssertNotCalled(t, "CreateWithSlides")
	})

	t.Run("GenerationFailureNothingPersisted", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		ngoID := uuid.New()
		req := validRequest()

		m.ownerExists(ngoID)
		m.generator.On("GenerateSlides", ctx, req).
			Return(nil, domain.ErrGenerationUnavailable).Once()

		_, _, err := svc.CreateStory(ctx, ngoID, req)
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
		m.storyRepo.AssertNotCalled(t, "CreateWithSlides")
		m.images.AssertNotCalled(t, "GenerateImages")
	})

	t.Run("PersistFailurePropagates", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		ngoID := uuid.New()
		req := validRequest()
		dbErr := errors.New("connection reset")

		m.ownerExists(ngoID)
		m.generator.On("GenerateSlides", ctx, req).Return(generatedSlides(), nil).Once()
		m.images.On("GenerateImages", ctx, req, mock.AnythingOfType("uuid.UUID"), mock.Anything).
			Return(imageURLs(3)).Once()
		m.storyRepo.On("CreateWithSlides", ctx, mock.Anything, mock.Anything).Return(dbErr).Once()

		_, _, err := svc.CreateStory(ctx, ngoID, req)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestValidateSlideSet(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validateSlideSet(generatedSlides()))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.ErrorIs(t, validateSlideSet(nil), domain.ErrSlideSetInvalid)
	})

	t.Run("NonContiguousPositions", func(t *testing.T) {
		slides := generatedSlides()
		slides[2].Position = 5
		assert.ErrorIs(t, validateSlideSet(slides), domain.ErrSlideSetInvalid)
	})

	t.Run("EmptyText", func(t *testing.T) {
		slides := generatedSlides()
		slides[0].Text = " "
		assert.ErrorIs(t, validateSlideSet(slides), domain.ErrSlideSetInvalid)
	})

	t.Run("NoBranchingSlide", func(t *testing.T) {
		slides := generatedSlides()
		slides[1].Choices = nil
		assert.ErrorIs(t, validateSlideSet(slides), domain.ErrSlideSetInvalid)
	})

	t.Run("ChoicesWithoutCorrect", func(t *testing.T) {
		slides := generatedSlides()
		slides[1].Choices[0].Correct = false
		assert.ErrorIs(t, validateSlideSet(slides), domain.ErrSlideSetInvalid)
	})
}

func TestPublishStory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()

	draft := &domain.Story{ID: storyID, NgoID: ownerID, Title: "Asha Crosses the Road", Status: domain.StoryStatusDraft}
	published := &domain.Story{ID: storyID, NgoID: ownerID, Title: "Asha Crosses the Road", Status: domain.StoryStatusPublished}

	t.Run("OwnerPublishesDraft", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(draft, nil).Once()
		m.storyRepo.On("Publish", ctx, storyID).Return(published, nil).Once()
		m.events.On("PublishStoryPublished", ctx, mock.AnythingOfType("domain.StoryPublishedEvent")).
			Return(nil).Once()

		got, err := svc.PublishStory(ctx, storyID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, domain.StoryStatusPublished, got.Status)
		m.events.AssertExpectations(t)
	})

	t.Run("RepublishIsNoOpWithoutEvent", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(published, nil).Once()
		m.storyRepo.On("Publish", ctx, storyID).Return(published, nil).Once()

		got, err := svc.PublishStory(ctx, storyID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, domain.StoryStatusPublished, got.Status)
		m.events.AssertNotCalled(t, "PublishStoryPublished")
	})

	t.Run("NonOwnerForbidden", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(draft, nil).Once()

		_, err := svc.PublishStory(ctx, storyID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrForbidden)
		m.storyRepo.AssertNotCalled(t, "Publish")
	})

	t.Run("UnknownStory", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(nil, domain.ErrStoryNotFound).Once()

		_, err := svc.PublishStory(ctx, storyID, ownerID)
		assert.ErrorIs(t, err, domain.ErrStoryNotFound)
	})

	t.Run("EventFailureDoesNotFailPublish", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(draft, nil).Once()
		m.storyRepo.On("Publish", ctx, storyID).Return(published, nil).Once()
		m.events.On("PublishStoryPublished", ctx, mock.Anything).
			Return(errors.New("broker down")).Once()

		got, err := svc.PublishStory(ctx, storyID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, domain.StoryStatusPublished, got.Status)
	})
}

func TestListStories(t *testing.T) {
	ctx := context.Background()

	t.Run("AnonymousForcedToPublished", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		draftStatus := domain.StoryStatusDraft
		m.storyRepo.On("List", ctx, mock.MatchedBy(func(f domain.StoryFilter) bool {
			return f.Status != nil && *f.Status == domain.StoryStatusPublished
		})).Return([]domain.Story{}, nil).Once()

		_, err := svc.ListStories(ctx, domain.StoryFilter{Status: &draftStatus}, nil)
		require.NoError(t, err)
		m.storyRepo.AssertExpectations(t)
	})

	t.Run("AuthenticatedDraftScopedToOwner", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		requester := uuid.New()

		draftStatus := domain.StoryStatusDraft
		m.storyRepo.On("List", ctx, mock.MatchedBy(func(f domain.StoryFilter) bool {
			return f.OwnerID != nil && *f.OwnerID == requester
		})).Return([]domain.Story{}, nil).Once()

		_, err := svc.ListStories(ctx, domain.StoryFilter{Status: &draftStatus}, &requester)
		require.NoError(t, err)
		m.storyRepo.AssertExpectations(t)
	})

	t.Run("AuthenticatedPublishedNotOwnerScoped", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		requester := uuid.New()

		publishedStatus := domain.StoryStatusPublished
		m.storyRepo.On("List", ctx, mock.MatchedBy(func(f domain.StoryFilter) bool {
			return f.OwnerID == nil
		})).Return([]domain.Story{}, nil).Once()

		_, err := svc.ListStories(ctx, domain.StoryFilter{Status: &publishedStatus}, &requester)
		require.NoError(t, err)
		m.storyRepo.AssertExpectations(t)
	})
}

func TestSearchStories(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyTermRejected", func(t *testing.T) {
		svc, _ := newTestStoryService(t)
		_, _, err := svc.SearchStories(ctx, uuid.New(), "  ", 10, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("OutOfRangePagingNormalized", func(t *testing.T) {
		svc, m := newTestStoryService(t)
		requester := uuid.New()

		m.storyRepo.On("Search", ctx, requester, "water", 10, 0).
			Return([]domain.Story{}, 0, nil).Once()

		_, _, err := svc.SearchStories(ctx, requester, "water", 500, -3)
		require.NoError(t, err)
		m.storyRepo.AssertExpectations(t)
	})
}

func TestGetSlides(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()
	story := &domain.Story{ID: storyID, NgoID: ownerID, Status: domain.StoryStatusPublished}
	slides := []domain.StorySlide{{StoryID: storyID, Position: 1, Text: "One."}}

	t.Run("TouchesSessionWhenKeyPresent", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(story, nil).Once()
		m.storyRepo.On("ListSlides", ctx, storyID).Return(slides, nil).Once()
		m.sessions.On("Touch", ctx, ownerID, "reader-42").Return(nil).Once()

		got, err := svc.GetSlides(ctx, storyID, "reader-42")
		require.NoError(t, err)
		assert.Equal(t, slides, got)
		m.sessions.AssertExpectations(t)
	})

	t.Run("NoSessionKeyNoTouch", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(story, nil).Once()
		m.storyRepo.On("ListSlides", ctx, storyID).Return(slides, nil).Once()

		_, err := svc.GetSlides(ctx, storyID, "")
		require.NoError(t, err)
		m.sessions.AssertNotCalled(t, "Touch")
	})

	t.Run("TrackerFailureDoesNotFailRead", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(story, nil).Once()
		m.storyRepo.On("ListSlides", ctx, storyID).Return(slides, nil).Once()
		m.sessions.On("Touch", ctx, ownerID, "reader-42").Return(errors.New("redis down")).Once()

		got, err := svc.GetSlides(ctx, storyID, "reader-42")
		require.NoError(t, err)
		assert.Equal(t, slides, got)
	})

	t.Run("UnknownStory", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("GetByID", ctx, storyID).Return(nil, domain.ErrStoryNotFound).Once()

		_, err := svc.GetSlides(ctx, storyID, "")
		assert.ErrorIs(t, err, domain.ErrStoryNotFound)
	})
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	ngoID := uuid.New()
	ownerStats := &domain.OwnerStats{StoriesCreated: 4, StudentsReached: 120, CompletionRate: 75}

	t.Run("CombinesRepositoryAndTracker", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("OwnerStats", ctx, ngoID).Return(ownerStats, nil).Once()
		m.sessions.On("ActiveCount", ctx, ngoID).Return(7, nil).Once()

		stats, err := svc.DashboardStats(ctx, ngoID)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.StoriesCreated)
		assert.Equal(t, 120, stats.StudentsReached)
		assert.Equal(t, 75, stats.CompletionRate)
		assert.Equal(t, 7, stats.ActiveSessions)
	})

	t.Run("TrackerFailureReportsZeroSessions", func(t *testing.T) {
		svc, m := newTestStoryService(t)

		m.storyRepo.On("OwnerStats", ctx, ngoID).Return(ownerStats, nil).Once()
		m.sessions.On("ActiveCount", ctx, ngoID).Return(0, errors.New("redis down")).Once()

		stats, err := svc.DashboardStats(ctx, ngoID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.ActiveSessions)
	})
}
