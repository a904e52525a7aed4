// Package ai generates action point suggestions from meeting transcripts.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMalformedResponse is returned when the model reply does not contain a
// parseable JSON array of action points.
var ErrMalformedResponse = errors.New("ai: response is not a JSON array of action points")

// Suggestion is a single action point proposed by the model.
type Suggestion struct {
	Title string `json:"title"`
}

// Client wraps an OpenAI-compatible chat completions endpoint.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// Config holds client settings. BaseURL may point at any server speaking the
// OpenAI chat completions wire format, which is also how tests stub the model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
	}
}

// GenerateActionPoints asks the model for new action points based on the
// transcript. Titles already present on the thread are passed along so the
// model does not propose duplicates.
func (c *Client) GenerateActionPoints(ctx context.Context, transcript string, existingTitles []string) ([]Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(transcript, existingTitles)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrMalformedResponse
	}

	return parseSuggestions(resp.Choices[0].Message.Content)
}

const systemPrompt = `You extract concrete action points from meeting transcripts. ` +
	`Respond with a JSON array of objects of the form {"title": "..."} and nothing else.`

func buildPrompt(transcript string, existingTitles []string) string {
	var b strings.Builder
	b.WriteString("Extract 3 to 5 new action points from the transcript below.\n")
	if len(existingTitles) > 0 {
		b.WriteString("These action points already exist, do not repeat them:\n")
		for _, title := range existingTitles {
			b.WriteString("- ")
			b.WriteString(title)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(transcript)
	return b.String()
}

// jsonArrayPattern matches the first bracketed block in the reply. Models
// sometimes wrap the array in prose or a code fence.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

func parseSuggestions(content string) ([]Suggestion, error) {
	raw := jsonArrayPattern.FindString(content)
	if raw == "" {
		return nil, ErrMalformedResponse
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		return nil, ErrMalformedResponse
	}

	// An array that parses but holds nothing usable is a valid answer of
	// zero action points, not a malformed reply.
	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
