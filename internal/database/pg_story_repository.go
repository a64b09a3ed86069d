package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgStoryRepository implements StoryRepository
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

const storyFields = `id, ngo_id, title, topic, age_group, language, region_context, description,
		moral_lesson, character_count, status, students_reached, completion_rate, cover_image_url, created_at`

const (
	createStoryQuery = `
		INSERT INTO stories (
			ngo_id, title, topic, age_group, language, region_context,
			description, moral_lesson, character_count, status, cover_image_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	createSlideQuery = `
		INSERT INTO story_slides (story_id, position, image_url, text, choices)
		VALUES ($1, $2, $3, $4, $5)
	`
	getStoryByIDQuery = `SELECT ` + storyFields + ` FROM stories WHERE id = $1`
	listSlidesQuery   = `
		SELECT story_id, position, image_url, text, choices
		FROM story_slides WHERE story_id = $1 ORDER BY position ASC
	`
	publishStoryQuery = `
		UPDATE stories SET status = 'published' WHERE id = $1
		RETURNING ` + storyFields + `
	`
	ownerStatsQuery = `
		SELECT
			COUNT(*) AS stories_created,
			COALESCE(SUM(students_reached), 0) AS students_reached,
			COALESCE(ROUND(AVG(completion_rate)), 0) AS completion_rate
		FROM stories WHERE ngo_id = $1
	`
	searchStoriesQueryBase = `
		SELECT ` + storyFields + ` FROM stories
		WHERE ngo_id = $1 AND (title ILIKE $2 OR description ILIKE $2)
	`
	searchStoriesCountQuery = `
		SELECT COUNT(*) FROM stories
		WHERE ngo_id = $1 AND (title ILIKE $2 OR description ILIKE $2)
	`
)

// CreateWithSlides persists the story row and all of its slides in a single
// transaction. Either everything becomes visible or nothing does.
func (r *pgStoryRepository) CreateWithSlides(ctx context.Context, story *domain.Story, slides []domain.StorySlide) error {
	logFields := []zap.Field{
		zap.String("ngoID", story.NgoID.String()),
		zap.String("title", story.Title),
		zap.Int("slideCount", len(slides)),
	}
	r.logger.Debug("Creating story with slides", logFields...)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction for story creation", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to begin story creation transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	err = tx.QueryRow(ctx, createStoryQuery,
		story.NgoID,
		story.Title,
		story.Topic,
		story.AgeGroup,
		story.Language,
		story.RegionContext,
		story.Description,
		story.MoralLesson,
		story.CharacterCount,
		story.Status,
		story.CoverImage,
	).Scan(&story.ID, &story.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert story row", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert story: %w", err)
	}

	for i := range slides {
		slides[i].StoryID = story.ID
		choices, err := slides[i].ChoicesJSON()
		if err != nil {
			r.logger.Error("Failed to marshal slide choices", append(logFields, zap.Int("position", slides[i].Position), zap.Error(err))...)
			return fmt.Errorf("failed to marshal choices for slide %d: %w", slides[i].Position, err)
		}
		_, err = tx.Exec(ctx, createSlideQuery, story.ID, slides[i].Position, slides[i].Image, slides[i].Text, choices)
		if err != nil {
			r.logger.Error("Failed to insert story slide", append(logFields, zap.Int("position", slides[i].Position), zap.Error(err))...)
			return fmt.Errorf("failed to insert slide %d: %w", slides[i].Position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit story creation transaction", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to commit story creation: %w", err)
	}

	r.logger.Info("Story created successfully", append(logFields, zap.String("storyID", story.ID.String()))...)
	return nil
}

// GetByID retrieves a single story.
func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Story, error) {
	story := &domain.Story{}
	r.logger.Debug("Executing query", zap.String("query", getStoryByIDQuery), zap.String("storyID", id.String()))
	err := pgxscan.Get(ctx, r.db, story, getStoryByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Story not found", zap.String("storyID", id.String()))
			return nil, domain.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story by id from postgres", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to get story by id from postgres: %w", err)
	}
	return story, nil
}

// ListSlides returns the story's slides ordered by position ascending.
// The story must exist; callers distinguish "no story" from "no slides".
func (r *pgStoryRepository) ListSlides(ctx context.Context, storyID uuid.UUID) ([]domain.StorySlide, error) {
	r.logger.Debug("Executing query", zap.String("query", listSlidesQuery), zap.String("storyID", storyID.String()))
	rows, err := r.db.Query(ctx, listSlidesQuery, storyID)
	if err != nil {
		r.logger.Error("Failed to query story slides from postgres", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to query story slides: %w", err)
	}
	defer rows.Close()

	slides := make([]domain.StorySlide, 0)
	for rows.Next() {
		var slide domain.StorySlide
		var choices []byte // NULL for linear slides
		if err := rows.Scan(&slide.StoryID, &slide.Position, &slide.Image, &slide.Text, &choices); err != nil {
			r.logger.Error("Failed to scan story slide row", zap.Error(err), zap.String("storyID", storyID.String()))
			return nil, fmt.Errorf("failed to scan story slide row: %w", err)
		}
		if len(choices) > 0 {
			if err := json.Unmarshal(choices, &slide.Choices); err != nil {
				r.logger.Error("Failed to unmarshal slide choices", zap.Error(err), zap.String("storyID", storyID.String()), zap.Int("position", slide.Position))
				return nil, fmt.Errorf("failed to unmarshal choices for slide %d: %w", slide.Position, err)
			}
		}
		slides = append(slides, slide)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating story slide rows", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("error iterating story slide rows: %w", err)
	}
	return slides, nil
}

// List returns stories matching the filter, newest first.
func (r *pgStoryRepository) List(ctx context.Context, filter domain.StoryFilter) ([]domain.Story, error) {
	query := `SELECT ` + storyFields + ` FROM stories`
	conditions := ""
	args := []interface{}{}
	argID := 1

	appendCondition := func(clause string, value interface{}) {
		if conditions == "" {
			conditions = " WHERE "
		} else {
			conditions += " AND "
		}
		conditions += fmt.Sprintf(clause, argID)
		args = append(args, value)
		argID++
	}

	if filter.Status != nil {
		appendCondition("status = $%d", *filter.Status)
	}
	if filter.Topic != nil {
		appendCondition("topic = $%d", *filter.Topic)
	}
	if filter.AgeGroup != nil {
		appendCondition("age_group = $%d", *filter.AgeGroup)
	}
	if filter.OwnerID != nil {
		appendCondition("ngo_id = $%d", *filter.OwnerID)
	}

	query += conditions + " ORDER BY created_at DESC"

	r.logger.Debug("Executing query", zap.String("query", query))
	stories := make([]domain.Story, 0)
	if err := pgxscan.Select(ctx, r.db, &stories, query, args...); err != nil {
		r.logger.Error("Failed to list stories from postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// Search matches q case-insensitively against title and description of the
// owner's stories. The total is computed over the whole match set so it is
// stable across pagination windows.
func (r *pgStoryRepository) Search(ctx context.Context, ownerID uuid.UUID, q string, limit, offset int) ([]domain.Story, int, error) {
	pattern := "%" + q + "%"
	logFields := []zap.Field{zap.String("ownerID", ownerID.String()), zap.String("q", q), zap.Int("limit", limit), zap.Int("offset", offset)}

	var total int
	if err := r.db.QueryRow(ctx, searchStoriesCountQuery, ownerID, pattern).Scan(&total); err != nil {
		r.logger.Error("Failed to count story search results", append(logFields, zap.Error(err))...)
		return nil, 0, fmt.Errorf("failed to count story search results: %w", err)
	}

	query := searchStoriesQueryBase + " ORDER BY created_at DESC LIMIT $3 OFFSET $4"
	stories := make([]domain.Story, 0)
	if err := pgxscan.Select(ctx, r.db, &stories, query, ownerID, pattern, limit, offset); err != nil {
		r.logger.Error("Failed to search stories from postgres", append(logFields, zap.Error(err))...)
		return nil, 0, fmt.Errorf("failed to search stories: %w", err)
	}

	return stories, total, nil
}

// Publish unconditionally sets status to published. Concurrent callers race
// benignly: the end state is published either way, and a repeat call is a
// no-op success.
func (r *pgStoryRepository) Publish(ctx context.Context, id uuid.UUID) (*domain.Story, error) {
	story := &domain.Story{}
	r.logger.Debug("Executing query", zap.String("query", publishStoryQuery), zap.String("storyID", id.String()))
	err := pgxscan.Get(ctx, r.db, story, publishStoryQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Attempted to publish non-existent story", zap.String("storyID", id.String()))
			return nil, domain.ErrStoryNotFound
		}
		r.logger.Error("Failed to publish story in postgres", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to publish story: %w", err)
	}
	r.logger.Info("Story published", zap.String("storyID", id.String()))
	return story, nil
}

// OwnerStats aggregates strictly over stories owned by ownerID. The
// completion rate is the unweighted arithmetic mean of per-story rates,
// 0 when the owner has no stories.
func (r *pgStoryRepository) OwnerStats(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerStats, error) {
	stats := &domain.OwnerStats{}
	r.logger.Debug("Executing query", zap.String("query", ownerStatsQuery), zap.String("ownerID", ownerID.String()))
	err := r.db.QueryRow(ctx, ownerStatsQuery, ownerID).
		Scan(&stats.StoriesCreated, &stats.StudentsReached, &stats.CompletionRate)
	if err != nil {
		r.logger.Error("Failed to aggregate owner stats from postgres", zap.Error(err), zap.String("ownerID", ownerID.String()))
		return nil, fmt.Errorf("failed to aggregate owner stats: %w", err)
	}
	return stats, nil
}
