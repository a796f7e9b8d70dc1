package main

import (
	"context"
	"fmt"

	"careerflow/internal/generator"
)

// offlineGenerator stands in for the LLM when the service boots without an
// API key. Demo placeholders still work; anything real reports the outage.
type offlineGenerator struct{}

func (offlineGenerator) Generate(_ context.Context, req generator.Request) (string, error) {
	if req.Category == generator.DemoCategory {
		return generator.DemoPlaceholder, nil
	}
	return "", fmt.Errorf("generation unavailable in offline mode")
}

func (offlineGenerator) GenerateSample(_ context.Context, _, _, _ string) (string, error) {
	return generator.DemoPlaceholder, nil
}
