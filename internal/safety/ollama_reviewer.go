package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"safepath-server/internal/domain"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

var _ Reviewer = (*OllamaReviewer)(nil)

// OllamaReviewer asks a model to double-check the sanitized slides. Its
// verdict is advisory and recorded with the story; an unreachable reviewer
// degrades to an unapproved verdict instead of failing the request.
type OllamaReviewer struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewOllamaReviewer(baseURL, model string, timeout time.Duration, logger *zap.Logger) (*OllamaReviewer, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/v1"), "/")
	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama base URL '%s': %w", trimmed, err)
	}
	return &OllamaReviewer{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: timeout}),
		model:   model,
		timeout: timeout,
		logger:  logger.Named("SafetyReviewer"),
	}, nil
}

func (r *OllamaReviewer) Review(ctx context.Context, req domain.GenerationRequest, slides []domain.ProposedSlide) *Review {
	slidesJSON, err := json.Marshal(slides)
	if err != nil {
		return &Review{Approved: false, RiskFlags: []string{"llm_review_unavailable"}, Notes: "LLM review unavailable"}
	}

	prompt := fmt.Sprintf(
		"You are a child-safety reviewer. Review story slides for age appropriateness and safety guidance. "+
			"Return ONLY valid JSON with this shape: "+
			`{"approved": boolean, "risk_flags": [string], "notes": string}. `+
			"Do not include markdown.\n\n"+
			"topic: %s\n"+
			"age_group: %s\n"+
			"slides_json: %s",
		req.Topic, req.AgeGroup, slidesJSON,
	)

	requestCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ollamaReq := &api.GenerateRequest{
		Model:  r.model,
		Prompt: prompt,
		Stream: func(b bool) *bool { return &b }(false),
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": 0.0,
		},
	}

	var resp api.GenerateResponse
	err = r.client.Generate(requestCtx, ollamaReq, func(g api.GenerateResponse) error {
		resp = g
		return nil
	})
	if err != nil {
		r.logger.Warn("LLM review unavailable", zap.String("model", r.model), zap.Error(err))
		return &Review{Approved: false, RiskFlags: []string{"llm_review_unavailable"}, Notes: "LLM review unavailable"}
	}

	var review Review
	if err := json.Unmarshal([]byte(resp.Response), &review); err != nil {
		r.logger.Warn("LLM review returned invalid payload", zap.String("model", r.model), zap.Error(err))
		return &Review{Approved: false, RiskFlags: []string{"llm_review_invalid"}, Notes: "Invalid LLM review payload"}
	}
	return &review
}
