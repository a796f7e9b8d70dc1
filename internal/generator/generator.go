package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DemoPlaceholder is returned for the DEMO category without touching the
// network.
const DemoPlaceholder = "This is demo content."

// ErrEmptyHistory rejects real generations with no candidate history.
var ErrEmptyHistory = errors.New("candidate history is required")

// Request carries the builder form fields for one generation.
type Request struct {
	Category         string
	Region           string
	Style            string
	CandidateHistory string
	JobDescription   string
}

// Client wraps the hosted text-generation service. One blocking
// request/response per call; no retries, no streaming.
type Client struct {
	model  string
	client *genai.Client
}

// NewClient constructs the generation client for the given API key and model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("llm api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return &Client{model: model, client: gc}, nil
}

// Generate composes the prompt for req and returns the first completion's
// text verbatim. Failures come back as errors, never as text a caller could
// mistake for resume content.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if req.Category == DemoCategory {
		return DemoPlaceholder, nil
	}
	if strings.TrimSpace(req.CandidateHistory) == "" {
		return "", ErrEmptyHistory
	}
	return c.complete(ctx, BuildPrompt(req))
}

// GenerateSample produces the showcase text demo sessions display for a
// (category, region, style) pick.
func (c *Client) GenerateSample(ctx context.Context, category, region, style string) (string, error) {
	return c.complete(ctx, BuildSamplePrompt(category, region, style))
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("llm returned an empty completion")
	}
	return text, nil
}
