package handler

import (
	"net/http"
	"strconv"

	"safepath-server/internal/domain"
	"safepath-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// sessionKeyHeader carries an opaque reading-session identifier chosen by
// the reader client. Used only for the active-session dashboard metric.
const sessionKeyHeader = "X-Session-Key"

func (h *Handler) listStories(c *gin.Context) {
	var filter domain.StoryFilter

	if raw := c.Query("status"); raw != "" {
		status := domain.StoryStatus(raw)
		if status != domain.StoryStatusDraft && status != domain.StoryStatusPublished {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
				Message: "Unknown status filter", Error: errCodeValidation,
			})
			return
		}
		filter.Status = &status
	}
	if topic := c.Query("topic"); topic != "" {
		filter.Topic = &topic
	}
	if ageGroup := c.Query("age_group"); ageGroup != "" {
		filter.AgeGroup = &ageGroup
	}

	var requester *uuid.UUID
	if id, ok := requesterID(c); ok {
		requester = &id
	}

	stories, err := h.storyService.ListStories(c.Request.Context(), filter, requester)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if stories == nil {
		stories = []domain.Story{}
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) searchStories(c *gin.Context) {
	ngoID, ok := requesterID(c)
	if !ok {
		handleServiceError(c, domain.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	// Echo the paging the service actually applies, or clients stepping
	// offset += limit skip results.
	limit, offset = service.NormalizeSearchPaging(limit, offset)

	stories, total, err := h.storyService.SearchStories(c.Request.Context(), ngoID, c.Query("q"), limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if stories == nil {
		stories = []domain.Story{}
	}
	c.JSON(http.StatusOK, searchStoriesResponse{
		Stories: stories,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (h *Handler) getStory(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		handleServiceError(c, domain.ErrStoryNotFound)
		return
	}

	story, err := h.storyService.GetStory(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) getStorySlides(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		handleServiceError(c, domain.ErrStoryNotFound)
		return
	}

	slides, err := h.storyService.GetSlides(c.Request.Context(), storyID, c.GetHeader(sessionKeyHeader))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if slides == nil {
		slides = []domain.StorySlide{}
	}
	c.JSON(http.StatusOK, slides)
}

func (h *Handler) createStory(c *gin.Context) {
	ngoID, ok := requesterID(c)
	if !ok {
		handleServiceError(c, domain.ErrUnauthorized)
		return
	}

	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}

	story, slides, err := h.storyService.CreateStory(c.Request.Context(), ngoID, domain.GenerationRequest{
		Title:          req.Title,
		Topic:          req.Topic,
		AgeGroup:       req.AgeGroup,
		Language:       req.Language,
		RegionContext:  req.RegionContext,
		Description:    req.Description,
		MoralLesson:    req.MoralLesson,
		CharacterCount: req.CharacterCount,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	storiesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, createStoryResponse{Story: story, Slides: slides})
}

func (h *Handler) publishStory(c *gin.Context) {
	ngoID, ok := requesterID(c)
	if !ok {
		handleServiceError(c, domain.ErrUnauthorized)
		return
	}

	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		handleServiceError(c, domain.ErrStoryNotFound)
		return
	}

	story, err := h.storyService.PublishStory(c.Request.Context(), storyID, ngoID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	storiesPublishedTotal.Inc()
	c.JSON(http.StatusOK, story)
}
