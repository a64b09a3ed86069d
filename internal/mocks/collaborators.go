package mocks

import (
	"context"

	"safepath-server/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock SlideGenerator
type SlideGenerator struct {
	mock.Mock
}

func (m *SlideGenerator) GenerateSlides(ctx context.Context, req domain.GenerationRequest) ([]domain.ProposedSlide, error) {
	args := m.Called(ctx, req)
	slides, _ := args.Get(0).([]domain.ProposedSlide)
	return slides, args.Error(1)
}

// Mock ImageGenerator
type ImageGenerator struct {
	mock.Mock
}

func (m *ImageGenerator) GenerateImages(ctx context.Context, req domain.GenerationRequest, storyID uuid.UUID, slides []domain.ProposedSlide) []*string {
	args := m.Called(ctx, req, storyID, slides)
	urls, _ := args.Get(0).([]*string)
	return urls
}

// Mock SessionTracker
type SessionTracker struct {
	mock.Mock
}

func (m *SessionTracker) Touch(ctx context.Context, ngoID uuid.UUID, sessionKey string) error {
	args := m.Called(ctx, ngoID, sessionKey)
	return args.Error(0)
}
func (m *SessionTracker) ActiveCount(ctx context.Context, ngoID uuid.UUID) (int, error) {
	args := m.Called(ctx, ngoID)
	return args.Int(0), args.Error(1)
}

// Mock StoryEventPublisher
type StoryEventPublisher struct {
	mock.Mock
}

func (m *StoryEventPublisher) PublishStoryPublished(ctx context.Context, event domain.StoryPublishedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
