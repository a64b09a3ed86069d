package database

import (
	"context"
	"fmt"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"go.uber.org/zap"
)

var _ interfaces.StudentProfileRepository = (*pgStudentProfileRepository)(nil)

type pgStudentProfileRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStudentProfileRepository creates a new PostgreSQL-backed StudentProfileRepository.
func NewPgStudentProfileRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StudentProfileRepository {
	return &pgStudentProfileRepository{
		db:     db,
		logger: logger.Named("PgStudentProfileRepo"),
	}
}

// Create inserts a new student profile. The id is generated by the database.
func (r *pgStudentProfileRepository) Create(ctx context.Context, profile *domain.StudentProfile) error {
	query := `INSERT INTO student_profiles (name, age_group, avatar) VALUES ($1, $2, $3) RETURNING id, created_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("name", profile.Name), zap.String("ageGroup", profile.AgeGroup))
	err := r.db.QueryRow(ctx, query, profile.Name, profile.AgeGroup, profile.Avatar).
		Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create student profile in postgres", zap.Error(err), zap.String("name", profile.Name))
		return fmt.Errorf("failed to create student profile in postgres: %w", err)
	}
	r.logger.Info("Student profile created successfully", zap.String("profileID", profile.ID.String()))
	return nil
}
