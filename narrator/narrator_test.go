package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pulse/engine"
)

func sampleAnalysis() *engine.Analysis {
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	return &engine.Analysis{
		Config: engine.DefaultConfig(),
		KPIs: engine.KPISnapshot{
			TotalRevenue:  engine.Metric{Value: 2800, Available: true},
			OrderCount:    engine.Metric{Value: 3, Available: true},
			GrowthPct:     engine.Metric{Value: -50, Available: true},
			CurrentMonth:  "Mar-2024",
			PreviousMonth: "Feb-2024",
			PeriodFrom:    &from,
			PeriodTo:      &to,
			DataQuality:   engine.DataQuality{Score: 100},
			TopProducts:   []engine.Share{{Name: "Widget", Revenue: 2200, SharePct: 78.57}},
		},
		Alerts: []engine.Alert{{Severity: engine.SeverityHigh, Message: "Revenue dropped 50.0%"}},
		Churn: []engine.ChurnRecord{
			{CustomerID: "Lost Ltd", RiskTier: engine.RiskHigh, TotalScore: 97, DaysInactive: 90},
			{CustomerID: "Steady Co", RiskTier: engine.RiskLow, TotalScore: 6.67, DaysInactive: 10},
		},
		Concentration: &engine.Concentration{
			Dependencies: []engine.Share{{Name: "Widget", SharePct: 78.57}},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(sampleAnalysis())

	assert.Contains(t, p, "PERIOD: 2024-01-10 to 2024-03-10")
	assert.Contains(t, p, "- Revenue: $2,800.00")
	assert.Contains(t, p, "- Unique customers: N/A")
	assert.Contains(t, p, "- Month-over-month growth: -50.0% (Mar-2024 vs Feb-2024)")
	assert.Contains(t, p, "- Top products: Widget (78.6%)")
	assert.Contains(t, p, "- [High] Revenue dropped 50.0%")
	assert.Contains(t, p, "CHURN RISK: 1 high, 0 medium, 1 low")
	assert.Contains(t, p, "- Lost Ltd: score 97, 90 days inactive")
	assert.NotContains(t, p, "Steady Co")
	assert.Contains(t, p, "PRODUCT DEPENDENCY:")
	assert.True(t, strings.HasSuffix(p, "Respond with plain text only.\n"))
}

func TestSummarizeWithoutKey(t *testing.T) {
	_, err := NewGemini(Config{}).Summarize(context.Background(), sampleAnalysis())
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}

func TestSummarize(t *testing.T) {
	var req geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Revenue halved in March.\n"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini(Config{APIKey: "secret", Model: "gemini-test", Endpoint: srv.URL})
	text, err := g.Summarize(context.Background(), sampleAnalysis())
	require.NoError(t, err)
	assert.Equal(t, "Revenue halved in March.", text)

	require.Len(t, req.Contents, 1)
	assert.Contains(t, req.Contents[0].Parts[0].Text, "KPIS:")
	assert.Equal(t, 0.2, req.GenerationConfig.Temperature)
}

func TestSummarizeErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"http status": {http.StatusTooManyRequests, `quota exceeded`, "429"},
		"api error":   {http.StatusOK, `{"error":{"code":400,"message":"bad model"}}`, "bad model"},
		"empty":       {http.StatusOK, `{"candidates":[]}`, "empty response"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewGemini(Config{APIKey: "k", Endpoint: srv.URL}).Summarize(context.Background(), sampleAnalysis())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDefaultGeminiConfig(t *testing.T) {
	cfg := DefaultGeminiConfig("k")
	assert.Equal(t, defaultModel, cfg.Model)
	assert.Equal(t, defaultEndpoint, cfg.Endpoint)
}

func TestParseResponse(t *testing.T) {
	text, err := parseResponse([]byte(`{"candidates":[{"content":{"parts":[{"text":"Revenue fell. "},{"text":"Call Lost Ltd."}]},"finishReason":"STOP"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Revenue fell. Call Lost Ltd.", text)

	_, err = parseResponse([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")

	_, err = parseResponse([]byte(`not json`))
	assert.Error(t, err)
}

func TestSummarizeSendsSystemInstruction(t *testing.T) {
	var req geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	_, err := NewGemini(Config{APIKey: "k", Endpoint: srv.URL + "/", MaxTokens: 128}).Summarize(context.Background(), sampleAnalysis())
	require.NoError(t, err)
	require.NotNil(t, req.SystemInstruction)
	assert.Contains(t, req.SystemInstruction.Parts[0].Text, "executive summaries")
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, 128, req.GenerationConfig.MaxOutputTokens)
}
