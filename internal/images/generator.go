package images

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config carries the illustration backend settings. An empty APIKey disables
// the remote backend entirely and every slide gets a placeholder.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// topicPalettes themes the placeholder art by safety topic.
var topicPalettes = map[string][]string{
	"water":    {"2563eb", "06b6d4", "1e3a8a"},
	"fire":     {"dc2626", "ea580c", "eab308"},
	"stranger": {"7c3aed", "8b5cf6", "d946ef"},
	"bullying": {"16a34a", "10b981", "84cc16"},
	"body":     {"ec4899", "f43f5e", "fb7185"},
}

var defaultPalette = []string{"2563eb", "7c3aed", "16a34a", "ea580c", "dc2626"}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func slugify(value string) string {
	safe := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-"), "-")
	if safe == "" {
		return "scene"
	}
	return safe
}

func paletteFor(topic string) []string {
	topicLower := strings.ToLower(topic)
	for key, colors := range topicPalettes {
		if strings.Contains(topicLower, key) {
			return colors
		}
	}
	return defaultPalette
}

// placeholderURL renders a themed card so the reader UI always has something
// to show for a slide.
func placeholderURL(topic string, index int) string {
	palette := paletteFor(topic)
	color := palette[index%len(palette)]
	label := url.QueryEscape(fmt.Sprintf("%s %d", slugify(topic), index+1))
	return fmt.Sprintf("https://placehold.co/400x300/%s/ffffff.png?text=%s", color, label)
}

func buildImagePrompt(req domain.GenerationRequest, slide domain.ProposedSlide) string {
	text := strings.TrimSpace(slide.Text)
	if runes := []rune(text); len(runes) > 300 {
		text = string(runes[:300])
	}
	return fmt.Sprintf(
		"Children's safety story illustration, warm colors, friendly cartoon style, "+
			"non-violent, educational scene, age group %s, topic %s, setting %s, scene: %s.",
		req.AgeGroup, req.Topic, req.RegionOrDefault("Indian neighborhood"), text,
	)
}

var _ interfaces.ImageGenerator = (*PlaceholderImageGenerator)(nil)

// PlaceholderImageGenerator serves themed placeholder URLs without calling
// any backend.
type PlaceholderImageGenerator struct{}

func (PlaceholderImageGenerator) GenerateImages(_ context.Context, req domain.GenerationRequest, _ uuid.UUID, slides []domain.ProposedSlide) []*string {
	urls := make([]*string, len(slides))
	for i := range slides {
		u := placeholderURL(req.Topic, i)
		urls[i] = &u
	}
	return urls
}

var _ interfaces.ImageGenerator = (*OpenAIImageGenerator)(nil)

// OpenAIImageGenerator renders one illustration per slide through an
// OpenAI-compatible image endpoint. A failed render falls back to the
// placeholder for that slide only, so illustration trouble never blocks
// story creation.
type OpenAIImageGenerator struct {
	client      *openai.Client
	placeholder PlaceholderImageGenerator
	timeout     time.Duration
	logger      *zap.Logger
}

// NewImageGenerator picks the backend from the config: the OpenAI-compatible
// client when an API key is present, placeholders otherwise.
func NewImageGenerator(cfg Config, logger *zap.Logger) interfaces.ImageGenerator {
	log := logger.Named("ImageGenerator")
	if cfg.APIKey == "" {
		log.Info("Image API key not configured, using themed placeholders")
		return PlaceholderImageGenerator{}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	log.Info("Image generator created", zap.String("baseURL", clientConfig.BaseURL))
	return &OpenAIImageGenerator{
		client:  openai.NewClientWithConfig(clientConfig),
		timeout: cfg.Timeout,
		logger:  log,
	}
}

func (g *OpenAIImageGenerator) GenerateImages(ctx context.Context, req domain.GenerationRequest, storyID uuid.UUID, slides []domain.ProposedSlide) []*string {
	urls := make([]*string, len(slides))
	for i, slide := range slides {
		imageURL, err := g.renderSlide(ctx, req, slide)
		if err != nil {
			g.logger.Warn("Slide illustration failed, using placeholder",
				zap.String("storyID", storyID.String()),
				zap.Int("position", slide.Position),
				zap.Error(err))
			fallback := placeholderURL(req.Topic, i)
			urls[i] = &fallback
			continue
		}
		urls[i] = &imageURL
	}
	return urls
}

func (g *OpenAIImageGenerator) renderSlide(ctx context.Context, req domain.GenerationRequest, slide domain.ProposedSlide) (string, error) {
	requestCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateImage(requestCtx, openai.ImageRequest{
		Prompt:         buildImagePrompt(req, slide),
		N:              1,
		Size:           openai.CreateImageSize512x512,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image response contained no URL")
	}
	return resp.Data[0].URL, nil
}
