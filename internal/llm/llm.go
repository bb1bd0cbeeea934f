package llm

import (
	"context"
	"fmt"

	"github.com/DeafMist/list-digest/internal/config"
)

// Request is a single prompt-in, text-out completion.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Client completes prompts against a hosted language model.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the client selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLM) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg), nil
	case "gemini":
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
