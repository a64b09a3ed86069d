package safety

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"safepath-server/internal/domain"

	"go.uber.org/zap"
)

// Config carries the critic's operating limits.
type Config struct {
	Enabled               bool
	Strict                bool
	MaxTextLength         int
	MaxScaryTermsPerSlide int
}

// Review is the advisory verdict of the optional LLM reviewer. It is attached
// to the result for auditing and never blocks publication on its own.
type Review struct {
	Approved  bool     `json:"approved"`
	RiskFlags []string `json:"risk_flags"`
	Notes     string   `json:"notes"`
}

// Reviewer runs an optional model-backed review pass over sanitized slides.
type Reviewer interface {
	Review(ctx context.Context, req domain.GenerationRequest, slides []domain.ProposedSlide) *Review
}

// Result is the sanitized slide set plus an audit trail of every applied fix.
type Result struct {
	Slides    []domain.ProposedSlide
	Issues    []string
	LLMReview *Review
}

// unsafeReplacement rewrites a term that must never reach a child reader.
type unsafeReplacement struct {
	pattern     *regexp.Regexp
	term        string
	replacement string
}

var unsafeReplacements = buildReplacements(map[string]string{
	"kill":    "hurt",
	"killing": "hurting",
	"dead":    "unsafe",
	"blood":   "danger",
	"weapon":  "dangerous object",
	"gun":     "dangerous object",
	"knife":   "sharp object",
	"abduct":  "take away",
	"kidnap":  "take away",
	"nude":    "inappropriate",
	"sex":     "inappropriate",
})

var scaryTermPatterns = buildTermPatterns([]string{
	"kidnap", "abduct", "blood", "dead", "die",
	"weapon", "gun", "knife", "attack", "violence",
})

var trustedAdultTerms = []string{
	"trusted adult", "teacher", "parent", "mother", "father",
	"guardian", "caregiver", "police", "counselor",
}

func buildReplacements(terms map[string]string) []unsafeReplacement {
	out := make([]unsafeReplacement, 0, len(terms))
	for term, replacement := range terms {
		out = append(out, unsafeReplacement{
			pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			term:        term,
			replacement: replacement,
		})
	}
	return out
}

func buildTermPatterns(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(term)+`\b`))
	}
	return out
}

// Critic enforces the content rules between generation and persistence. It
// repairs what it can and keeps a per-slide audit trail. In strict mode a
// slide with no usable text fails the whole story instead of being patched.
type Critic struct {
	cfg      Config
	reviewer Reviewer
	logger   *zap.Logger
}

// NewCritic builds the critic. reviewer may be nil when LLM review is off.
func NewCritic(cfg Config, reviewer Reviewer, logger *zap.Logger) *Critic {
	return &Critic{cfg: cfg, reviewer: reviewer, logger: logger.Named("SafetyCritic")}
}

// Apply sanitizes the slide set. When the critic is disabled the input passes
// through untouched.
func (c *Critic) Apply(ctx context.Context, req domain.GenerationRequest, slides []domain.ProposedSlide) (Result, error) {
	if !c.cfg.Enabled {
		return Result{Slides: slides}, nil
	}
	if len(slides) == 0 {
		return Result{}, fmt.Errorf("%w: no slides available for safety validation", domain.ErrSafetyRejected)
	}

	fixed := make([]domain.ProposedSlide, 0, len(slides))
	var issues []string

	for idx, slide := range slides {
		text := strings.TrimSpace(slide.Text)
		if text == "" {
			if c.cfg.Strict {
				return Result{}, fmt.Errorf("%w: slide %d has empty text", domain.ErrSafetyRejected, idx+1)
			}
			text = "The child stays calm and chooses a safe action."
			issues = append(issues, fmt.Sprintf("slide_%d: filled missing text", idx+1))
		}

		sanitized, changes := sanitizeText(text)
		for _, change := range changes {
			issues = append(issues, fmt.Sprintf("slide_%d: %s", idx+1, change))
		}

		if countScaryTerms(sanitized) > c.cfg.MaxScaryTermsPerSlide {
			issues = append(issues, fmt.Sprintf("slide_%d: tone too intense, softened", idx+1))
			sanitized = "A confusing moment happens, but the child remembers safe rules and seeks help."
		}

		// Length is counted in runes so a trim never splits a multibyte
		// character in Hindi or Tamil text.
		if runes := []rune(sanitized); len(runes) > c.cfg.MaxTextLength {
			sanitized = strings.TrimRight(string(runes[:c.cfg.MaxTextLength]), " ") + "..."
			issues = append(issues, fmt.Sprintf("slide_%d: trimmed long text", idx+1))
		}

		cleaned := domain.ProposedSlide{
			Position: idx + 1,
			Text:     sanitized,
			Image:    slide.Image,
		}

		if len(slide.Choices) > 0 {
			capped := slide.Choices
			if len(capped) > 2 {
				capped = capped[:2]
			}
			for choiceIdx, choice := range capped {
				choiceText, choiceChanges := sanitizeText(choice.Text)
				for _, change := range choiceChanges {
					issues = append(issues, fmt.Sprintf("slide_%d_choice_%d: %s", idx+1, choiceIdx+1, change))
				}
				id := choice.ID
				if id == "" {
					id = letterID(choiceIdx)
				}
				if choiceText == "" {
					choiceText = "Choose the safer option."
				}
				cleaned.Choices = append(cleaned.Choices, domain.StoryChoice{
					ID:      id,
					Text:    choiceText,
					Correct: choice.Correct,
				})
			}
		}

		fixed = append(fixed, cleaned)
	}

	fixed = coerceTwoChoiceBranch(fixed)
	for i := range fixed {
		fixed[i].Position = i + 1
	}

	if !hasTrustedAdultReference(fixed) {
		last := len(fixed) - 1
		fixed[last].Text += " Then the child tells a trusted adult like a parent or teacher."
		issues = append(issues, "added trusted adult guidance")
	}

	result := Result{Slides: fixed, Issues: issues}
	if c.reviewer != nil {
		result.LLMReview = c.reviewer.Review(ctx, req, fixed)
	}

	if len(issues) > 0 {
		c.logger.Info("Safety critic applied fixes",
			zap.String("title", req.Title), zap.Strings("issues", issues))
	}
	return result, nil
}

func sanitizeText(text string) (string, []string) {
	updated := text
	var changes []string
	for _, r := range unsafeReplacements {
		if r.pattern.MatchString(updated) {
			updated = r.pattern.ReplaceAllString(updated, r.replacement)
			changes = append(changes, fmt.Sprintf("replaced unsafe term '%s'", r.term))
		}
	}
	return strings.TrimSpace(updated), changes
}

func countScaryTerms(text string) int {
	count := 0
	for _, pattern := range scaryTermPatterns {
		if pattern.MatchString(text) {
			count++
		}
	}
	return count
}

func hasTrustedAdultReference(slides []domain.ProposedSlide) bool {
	for _, slide := range slides {
		text := strings.ToLower(slide.Text)
		for _, term := range trustedAdultTerms {
			if strings.Contains(text, term) {
				return true
			}
		}
		for _, choice := range slide.Choices {
			choiceText := strings.ToLower(choice.Text)
			for _, term := range trustedAdultTerms {
				if strings.Contains(choiceText, term) {
					return true
				}
			}
		}
	}
	return false
}

// coerceTwoChoiceBranch makes the first slide with at least two choices a
// clean two-way branch with exactly one correct answer. When no such slide
// exists a canned branch is inserted after the opening slide.
func coerceTwoChoiceBranch(slides []domain.ProposedSlide) []domain.ProposedSlide {
	for i := range slides {
		if len(slides[i].Choices) < 2 {
			continue
		}
		choices := slides[i].Choices[:2]
		for j := range choices {
			if choices[j].ID == "" {
				choices[j].ID = letterID(j)
			}
			if strings.TrimSpace(choices[j].Text) == "" {
				choices[j].Text = "Choose the safer option."
			}
		}
		if choices[0].Correct == choices[1].Correct {
			choices[0].Correct = true
			choices[1].Correct = false
		}
		slides[i].Choices = choices
		return slides
	}

	branch := domain.ProposedSlide{
		Text: "A risky moment appears. What is the safest choice?",
		Choices: []domain.StoryChoice{
			{ID: "a", Text: "Move away and tell a trusted adult.", Correct: true},
			{ID: "b", Text: "Go alone and keep it secret.", Correct: false},
		},
	}
	at := 1
	if len(slides) < 1 {
		at = 0
	}
	out := make([]domain.ProposedSlide, 0, len(slides)+1)
	out = append(out, slides[:at]...)
	out = append(out, branch)
	out = append(out, slides[at:]...)
	return out
}

func letterID(idx int) string {
	if idx == 0 {
		return "a"
	}
	return "b"
}
