package classify

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// Config holds the classifier's keyword tables and shot preference tables.
// Passed in explicitly at construction; no package-level mutable state.
type Config struct {
	Model           string
	Keywords        map[types.ContentType][]string
	ShotPreferences map[types.ContentType][]types.ShotType
	RateLimitPerMin int
}

// DefaultConfig returns the built-in keyword and shot preference tables.
func DefaultConfig() Config {
	return Config{
		Model:           "gpt-4o-mini",
		RateLimitPerMin: 60,
		Keywords: map[types.ContentType][]string{
			types.CharacterAction: {
				"walked", "ran", "fought", "moved", "entered", "left", "approached",
				"reached", "climbed", "descended", "opened", "closed", "picked", "dropped",
				"grabbed", "pushed", "pulled", "jumped", "fell", "stood", "sat", "lay",
			},
			types.EnvironmentDescription: {
				"palace", "room", "building", "city", "street", "forest", "mountain",
				"river", "ocean", "desert", "garden", "chamber", "hall", "temple",
				"castle", "fortress", "village", "town", "landscape", "scenery",
			},
			types.EmotionalMoment: {
				"felt", "thought", "realized", "understood", "feared", "hoped", "loved",
				"hated", "worried", "excited", "sad", "happy", "angry", "surprised",
				"confused", "determined", "desperate", "proud", "ashamed", "grateful",
			},
			types.DialogueConfrontation: {
				"said", "spoke", "told", "asked", "answered", "replied", "shouted",
				"whispered", "argued", "debated", "discussed", "agreed", "disagreed",
				"confronted", "challenged", "threatened", "promised", "warned",
			},
			types.ExpositionSetup: {
				"was", "were", "had", "been", "became", "remained", "stayed",
				"lived", "ruled", "governed", "controlled", "owned", "possessed",
				"belonged", "existed", "occurred", "happened", "took place",
			},
		},
		ShotPreferences: map[types.ContentType][]types.ShotType{
			types.CharacterAction:        {types.MediumShot, types.WideShot, types.CloseUp, types.EstablishingShot},
			types.EnvironmentDescription: {types.EstablishingShot, types.WideShot, types.CloseUp, types.MediumShot},
			types.EmotionalMoment:        {types.CloseUp, types.MediumShot, types.WideShot, types.EstablishingShot},
			types.DialogueConfrontation:  {types.MediumShot, types.TwoShot, types.CloseUp, types.WideShot},
			types.ExpositionSetup:        {types.EstablishingShot, types.WideShot, types.MediumShot, types.CloseUp},
		},
	}
}

// FromConfig merges the yaml overrides over the built-in tables. An
// override replaces the whole list for its content type.
func FromConfig(c config.ClassifyConfig) Config {
	cfg := DefaultConfig()
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.RateLimitPerMin > 0 {
		cfg.RateLimitPerMin = c.RateLimitPerMin
	}
	for ct, keywords := range c.Keywords {
		cfg.Keywords[types.ContentType(ct)] = keywords
	}
	for ct, shots := range c.ShotPreferences {
		list := make([]types.ShotType, 0, len(shots))
		for _, s := range shots {
			list = append(list, types.ShotType(s))
		}
		cfg.ShotPreferences[types.ContentType(ct)] = list
	}
	return cfg
}

// Classifier labels a segment's narrative content type. The contextual
// path uses an LLM collaborator; callers fall back to KeywordClassify
// explicitly when Classify returns an error.
type Classifier struct {
	cfg     Config
	client  openai.Client
	limiter *rate.Limiter
	hasKey  bool
}

// New creates a Classifier from the given config. The OPENAI_API_KEY env
// var gates the contextual path; without it Classify always errors and
// callers use the keyword fallback.
func New(cfg Config) *Classifier {
	if cfg.Keywords == nil {
		cfg.Keywords = DefaultConfig().Keywords
	}
	if cfg.ShotPreferences == nil {
		cfg.ShotPreferences = DefaultConfig().ShotPreferences
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 60
	}

	key := os.Getenv("OPENAI_API_KEY")
	return &Classifier{
		cfg:     cfg,
		client:  openai.NewClient(option.WithAPIKey(key)),
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMin)/60.0), 1),
		hasKey:  key != "",
	}
}

const classifyPrompt = `Classify this audio segment's narrative purpose as ONE of:
- character_action: someone doing something physical, movement, behavior
- environment_description: describing a place, location, setting, atmosphere
- emotional_moment: feelings, thoughts, reactions, internal states
- dialogue_confrontation: conversation, conflict, interaction between people
- exposition_setup: background information, context, historical facts

Consider context and meaning, not just individual words.
Return only the classification.

AUDIO: %q`

// Classify asks the LLM collaborator for a contextual classification.
// Returns an error when the collaborator is unavailable or answers with
// something outside the vocabulary; it never guesses on the caller's
// behalf. Guessing is KeywordClassify's job.
func (c *Classifier) Classify(ctx context.Context, segmentText string) (types.ContentType, error) {
	if !c.hasKey {
		return "", fmt.Errorf("classify: OPENAI_API_KEY not set")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("classify: rate limiter: %w", err)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are an expert at analyzing narrative content for visual storytelling."),
			openai.UserMessage(fmt.Sprintf(classifyPrompt, segmentText)),
		},
		MaxTokens:   openai.Int(20),
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("classify: empty response")
	}

	answer := types.ContentType(strings.TrimSpace(strings.ToLower(resp.Choices[0].Message.Content)))
	for _, ct := range types.ContentTypes {
		if answer == ct {
			return ct, nil
		}
	}
	return "", fmt.Errorf("classify: unrecognized content type %q", answer)
}

// KeywordClassify is the deterministic fallback: score each content type
// by keyword hits and pick the highest, defaulting to exposition_setup on
// a zero-score tie. Ties between nonzero scores break in the fixed
// ContentTypes order.
func (c *Classifier) KeywordClassify(segmentText string) types.ContentType {
	lower := strings.ToLower(segmentText)

	best := types.ExpositionSetup
	bestScore := 0
	for _, ct := range types.ContentTypes {
		score := 0
		for _, kw := range c.cfg.Keywords[ct] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = ct
			bestScore = score
		}
	}
	return best
}

// ClassifyWithFallback runs the contextual classifier and falls back to
// keyword scoring on any error. Never fails.
func (c *Classifier) ClassifyWithFallback(ctx context.Context, segmentText string) types.ContentType {
	ct, err := c.Classify(ctx, segmentText)
	if err != nil {
		log.Printf("[classify] contextual classification failed: %v — using keyword fallback", err)
		return c.KeywordClassify(segmentText)
	}
	return ct
}
