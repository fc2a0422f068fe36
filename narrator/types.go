package narrator

import (
	"context"
	"time"

	"github.com/spektr-org/pulse/engine"
)

// ============================================================================
// NARRATOR — AI boundary for executive summaries
// ============================================================================
// The only component that talks to an AI service. It is handed computed
// metrics, alerts and churn tiers; raw rows never leave the process.
// ============================================================================

// Narrator turns a finished Analysis into an executive summary.
// Implementations: Gemini.
type Narrator interface {
	Summarize(ctx context.Context, a *engine.Analysis) (string, error)
}

// Config holds narrator configuration. Zero values take defaults.
type Config struct {
	APIKey    string        // Gemini API key
	Model     string        // e.g. "gemini-2.5-flash-lite"
	Endpoint  string        // models base URL override
	Timeout   time.Duration // per request
	MaxTokens int           // summary length cap
}

// DefaultGeminiConfig returns a Config with sensible Gemini defaults.
func DefaultGeminiConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		Model:     defaultModel,
		Endpoint:  defaultEndpoint,
		Timeout:   defaultTimeout,
		MaxTokens: defaultMaxTokens,
	}
}
