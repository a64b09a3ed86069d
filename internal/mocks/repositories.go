package mocks

import (
	"context"

	"safepath-server/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock NgoAccountRepository
type NgoAccountRepository struct {
	mock.Mock
}

func (m *NgoAccountRepository) Create(ctx context.Context, account *domain.NgoAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}
func (m *NgoAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.NgoAccount, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*domain.NgoAccount)
	return account, args.Error(1)
}
func (m *NgoAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.NgoAccount, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*domain.NgoAccount)
	return account, args.Error(1)
}

// Mock StudentProfileRepository
type StudentProfileRepository struct {
	mock.Mock
}

func (m *StudentProfileRepository) Create(ctx context.Context, profile *domain.StudentProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) CreateWithSlides(ctx context.Context, story *domain.Story, slides []domain.StorySlide) error {
	args := m.Called(ctx, story, slides)
	return args.Error(0)
}
func (m *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*domain.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) ListSlides(ctx context.Context, storyID uuid.UUID) ([]domain.StorySlide, error) {
	args := m.Called(ctx, storyID)
	slides, _ := args.Get(0).([]domain.StorySlide)
	return slides, args.Error(1)
}
func (m *StoryRepository) List(ctx context.Context, filter domain.StoryFilter) ([]domain.Story, error) {
	args := m.Called(ctx, filter)
	stories, _ := args.Get(0).([]domain.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) Search(ctx context.Context, ownerID uuid.UUID, q string, limit, offset int) ([]domain.Story, int, error) {
	args := m.Called(ctx, ownerID, q, limit, offset)
	stories, _ := args.Get(0).([]domain.Story)
	return stories, args.Int(1), args.Error(2)
}
func (m *StoryRepository) Publish(ctx context.Context, id uuid.UUID) (*domain.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*domain.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) OwnerStats(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerStats, error) {
	args := m.Called(ctx, ownerID)
	stats, _ := args.Get(0).(*domain.OwnerStats)
	return stats, args.Error(1)
}
