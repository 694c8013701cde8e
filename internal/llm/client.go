// Package llm provides the generation capability used by the ensemble
// resolver: a provider-agnostic client interface, HTTP clients for Ollama
// and OpenAI-compatible APIs, response sanitation, and request pacing.
package llm

import (
	"context"
	"time"
)

// defaultMaxTokens bounds completions when no explicit budget is configured.
// Merchant names are a handful of tokens; anything longer is commentary the
// sanitizer would reject anyway.
const defaultMaxTokens = 35

// Client is the generation capability interface. Implementations send one
// prompt and return the raw completion text.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single generation call.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Config holds provider settings for constructing a client.
type Config struct {
	Provider          string
	BaseURL           string
	APIKey            string
	PrimaryModel      string
	SecondaryModel    string
	MaxTokens         int
	RequestsPerMinute int
	Timeout           time.Duration
}

// Model returns the model identity for an ensemble slot. When a secondary
// model is configured, the middle slot uses it so roles do not all share one
// model's failure modes.
func (c Config) ModelForSlot(slot int) string {
	if c.SecondaryModel != "" && slot == 1 {
		return c.SecondaryModel
	}
	return c.PrimaryModel
}
