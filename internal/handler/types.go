package handler

import "safepath-server/internal/domain"

// --- Request structs ---

type signupRequest struct {
	OrgName  string `json:"orgName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type createStudentRequest struct {
	Name     string  `json:"name" binding:"required"`
	AgeGroup string  `json:"ageGroup" binding:"required"`
	Avatar   *string `json:"avatar"`
}

// createStoryRequest deliberately has no owner field: the acting NGO comes
// from the verified token. An ngoId sent by a client is silently dropped.
type createStoryRequest struct {
	Title          string  `json:"title" binding:"required"`
	Topic          string  `json:"topic" binding:"required"`
	AgeGroup       string  `json:"ageGroup" binding:"required"`
	Language       string  `json:"language" binding:"required"`
	RegionContext  *string `json:"regionContext"`
	Description    string  `json:"description" binding:"required"`
	MoralLesson    *string `json:"moralLesson"`
	CharacterCount int     `json:"characterCount" binding:"required,min=1,max=4"`
}

// --- Response structs ---

// tokenResponse is the envelope returned by signup and login.
type tokenResponse struct {
	Success          bool   `json:"success"`
	NgoID            string `json:"ngoId"`
	Email            string `json:"email"`
	OrgName          string `json:"orgName"`
	AccessToken      string `json:"accessToken"`
	TokenType        string `json:"tokenType"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func newTokenResponse(td *domain.TokenDetails) tokenResponse {
	return tokenResponse{
		Success:          true,
		NgoID:            td.NgoID.String(),
		Email:            td.Email,
		OrgName:          td.OrgName,
		AccessToken:      td.AccessToken,
		TokenType:        "bearer",
		ExpiresInSeconds: td.ExpiresIn,
	}
}

type createStoryResponse struct {
	Story  *domain.Story       `json:"story"`
	Slides []domain.StorySlide `json:"slides"`
}

type searchStoriesResponse struct {
	Stories []domain.Story `json:"stories"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// errorResponse is the uniform failure envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
