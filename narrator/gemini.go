package narrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spektr-org/pulse/engine"
)

// ============================================================================
// GEMINI NARRATOR — executive summaries via generateContent
// ============================================================================

const (
	defaultModel     = "gemini-2.5-flash-lite"
	defaultEndpoint  = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 512

	// Low temperature: the summary restates numbers, it must not invent them.
	summaryTemperature = 0.2

	systemInstruction = "You write short executive summaries of sales analytics for business owners. " +
		"Quote only the numbers you are given."
)

// ErrNoAPIKey is returned when Summarize is called without credentials.
var ErrNoAPIKey = errors.New("gemini API key not configured")

// Gemini implements Narrator on the Gemini REST API.
type Gemini struct {
	cfg    Config
	client *http.Client
}

// NewGemini fills unset Config fields with defaults.
func NewGemini(cfg Config) *Gemini {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Gemini{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Summarize asks the model for a short executive summary of a.
func (g *Gemini) Summarize(ctx context.Context, a *engine.Analysis) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	prompt := BuildPrompt(a)
	start := time.Now()
	text, err := g.generate(ctx, prompt)
	if err != nil {
		log.Printf("⚠️ Pulse Narrator: %s failed after %s: %v", g.cfg.Model, time.Since(start).Round(time.Millisecond), err)
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	log.Printf("🧠 Pulse Narrator: %s answered in %s (prompt %d bytes, summary %d bytes)",
		g.cfg.Model, time.Since(start).Round(time.Millisecond), len(prompt), len(text))
	return text, nil
}

// ============================================================================
// WIRE FORMAT
// ============================================================================

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ============================================================================
// CALL
// ============================================================================

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     summaryTemperature,
			MaxOutputTokens: g.cfg.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", strings.TrimRight(g.cfg.Endpoint, "/"), g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, clip(string(raw), 200))
	}
	return parseResponse(raw)
}

// parseResponse joins the text parts of the first candidate.
func parseResponse(raw []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("empty response")
	}

	c := resp.Candidates[0]
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		if c.FinishReason != "" && c.FinishReason != "STOP" {
			return "", fmt.Errorf("empty response (finish reason %s)", c.FinishReason)
		}
		return "", errors.New("empty response")
	}
	return text, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
