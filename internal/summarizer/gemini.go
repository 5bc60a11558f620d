package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const DefaultModel = "gemini-2.5-flash"

var ErrEmptySummary = errors.New("empty summary")

// Gemini talks to Gemini through its OpenAI-compatible endpoint.
type Gemini struct {
	client *openai.Client
	model  string
	log    logrus.FieldLogger
}

func NewGemini(apiKey, baseURL, model string, log logrus.FieldLogger) *Gemini {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if model == "" {
		model = DefaultModel
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Gemini{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log,
	}
}

// Summarize sends prompt as a single user message and returns the reply text.
func (g *Gemini) Summarize(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	duration := time.Since(start)

	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptySummary
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptySummary
	}

	g.log.WithFields(logrus.Fields{
		"model":             g.model,
		"duration":          duration,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("summary generated")

	return text, nil
}
