package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config carries the model server settings for the slide generator.
type Config struct {
	BaseURL           string
	PlannerModel      string
	StoryModel        string
	RequestTimeout    time.Duration
	FallbackToDefault bool
}

var _ interfaces.SlideGenerator = (*OllamaSlideGenerator)(nil)

// OllamaSlideGenerator produces slide sequences with a two-stage pipeline
// against an Ollama server: a planner model distills the NGO input into a
// structured context, then a story model writes the branching slides.
type OllamaSlideGenerator struct {
	client            *api.Client
	plannerModel      string
	storyModel        string
	timeout           time.Duration
	fallbackToDefault bool
	logger            *zap.Logger
}

// NewOllamaSlideGenerator builds the generator. api.NewClient wants the base
// URL without an /api or /v1 suffix.
func NewOllamaSlideGenerator(cfg Config, logger *zap.Logger) (*OllamaSlideGenerator, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama base URL '%s': %w", baseURL, err)
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	log := logger.Named("SlideGenerator")
	log.Info("Ollama slide generator created",
		zap.String("baseURL", baseURL),
		zap.String("plannerModel", cfg.PlannerModel),
		zap.String("storyModel", cfg.StoryModel),
		zap.Duration("timeout", cfg.RequestTimeout))

	return &OllamaSlideGenerator{
		client:            api.NewClient(parsedURL, httpClient),
		plannerModel:      cfg.PlannerModel,
		storyModel:        cfg.StoryModel,
		timeout:           cfg.RequestTimeout,
		fallbackToDefault: cfg.FallbackToDefault,
		logger:            log,
	}, nil
}

// GenerateSlides runs the planner and story stages and normalizes the model
// output. When the pipeline fails and fallback is enabled, the default
// branching slide set is returned instead of an error.
func (g *OllamaSlideGenerator) GenerateSlides(ctx context.Context, req domain.GenerationRequest) ([]domain.ProposedSlide, error) {
	slides, err := g.generate(ctx, req)
	if err == nil {
		return slides, nil
	}

	if g.fallbackToDefault {
		g.logger.Warn("Slide generation failed, using default branching slides",
			zap.String("title", req.Title), zap.Error(err))
		generationFallbacksTotal.Inc()
		return DefaultSlides(req), nil
	}
	return nil, err
}

func (g *OllamaSlideGenerator) generate(ctx context.Context, req domain.GenerationRequest) ([]domain.ProposedSlide, error) {
	plannerOutput, err := g.generateJSON(ctx, g.plannerModel, "planner", buildPlannerPrompt(req))
	if err != nil {
		return nil, err
	}
	sctx := normalizeContext(plannerOutput, req)

	storyOutput, err := g.generateJSON(ctx, g.storyModel, "story", buildStoryPrompt(req, sctx))
	if err != nil {
		return nil, err
	}

	slides, err := normalizeSlides(storyOutput, req)
	if err != nil {
		g.logger.Warn("Model output rejected by normalizer", zap.String("title", req.Title), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	return slides, nil
}

// generateJSON sends one non-streaming generate request with JSON-constrained
// output and parses the first JSON object out of the response text.
func (g *OllamaSlideGenerator) generateJSON(ctx context.Context, model, stage, prompt string) (map[string]any, error) {
	requestCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ollamaReq := &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: func(b bool) *bool { return &b }(false),
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": 0.3,
		},
	}

	startTime := time.Now()
	var resp api.GenerateResponse
	err := g.client.Generate(requestCtx, ollamaReq, func(r api.GenerateResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		g.logger.Error("Ollama request failed",
			zap.String("model", model), zap.String("stage", stage),
			zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": model, "stage": stage, "status": "error"}).Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	g.observeUsage(model, stage, prompt, resp, duration)

	parsed, err := extractFirstJSONObject(resp.Response)
	if err != nil {
		g.logger.Warn("Ollama response is not a JSON object",
			zap.String("model", model), zap.String("stage", stage), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": model, "stage": stage, "status": "invalid"}).Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": model, "stage": stage, "status": "success"}).Inc()
	g.logger.Debug("Ollama response received",
		zap.String("model", model), zap.String("stage", stage),
		zap.Duration("duration", duration), zap.Int("responseLength", len(resp.Response)))
	return parsed, nil
}

// observeUsage records token metrics, estimating with tiktoken when the
// server omits eval counts.
func (g *OllamaSlideGenerator) observeUsage(model, stage, prompt string, resp api.GenerateResponse, duration time.Duration) {
	aiRequestDuration.With(prometheus.Labels{"model": model, "stage": stage}).Observe(duration.Seconds())

	promptTokens := resp.PromptEvalCount
	completionTokens := resp.EvalCount
	if promptTokens == 0 && completionTokens == 0 {
		if tke, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			promptTokens = len(tke.Encode(prompt, nil, nil))
			completionTokens = len(tke.Encode(resp.Response, nil, nil))
		}
	}
	if promptTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": model, "stage": stage}).Observe(float64(promptTokens))
	}
	if completionTokens > 0 {
		aiCompletionTokens.With(prometheus.Labels{"model": model, "stage": stage}).Observe(float64(completionTokens))
	}
}
