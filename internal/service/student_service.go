package service

import (
	"context"
	"fmt"
	"strings"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"go.uber.org/zap"
)

// StudentService manages lightweight reader profiles. No authentication is
// involved; profiles exist so the reading UI can greet the child by name.
type StudentService interface {
	CreateProfile(ctx context.Context, name, ageGroup string, avatar *string) (*domain.StudentProfile, error)
}

var _ StudentService = (*studentServiceImpl)(nil)

type studentServiceImpl struct {
	profileRepo interfaces.StudentProfileRepository
	logger      *zap.Logger
}

func NewStudentService(profileRepo interfaces.StudentProfileRepository, logger *zap.Logger) StudentService {
	return &studentServiceImpl{
		profileRepo: profileRepo,
		logger:      logger.Named("StudentService"),
	}
}

func (s *studentServiceImpl) CreateProfile(ctx context.Context, name, ageGroup string, avatar *string) (*domain.StudentProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !domain.IsValidAgeGroup(ageGroup) {
		return nil, fmt.Errorf("%w: unknown age group '%s'", domain.ErrInvalidInput, ageGroup)
	}

	profile := &domain.StudentProfile{
		Name:     name,
		AgeGroup: ageGroup,
		Avatar:   avatar,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		s.logger.Error("Failed to create student profile", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Student profile created",
		zap.String("profileID", profile.ID.String()), zap.String("ageGroup", ageGroup))
	return profile, nil
}
