// Package notify pushes analysis alerts to chat webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spektr-org/pulse/engine"
)

// SlackNotifier posts alert digests to a Slack incoming webhook.
type SlackNotifier struct {
	webhook string
	client  *http.Client
}

// NewSlack creates a notifier. An empty webhook yields a notifier whose
// Notify is a no-op.
func NewSlack(webhook string) *SlackNotifier {
	return &SlackNotifier{
		webhook: webhook,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a webhook is configured.
func (s *SlackNotifier) Enabled() bool { return s != nil && s.webhook != "" }

type slackMessage struct {
	Text string `json:"text"`
}

// maxNamedChurn caps the high-risk customers named in one message.
const maxNamedChurn = 5

// Notify sends one message summarising the alerts and high-risk churn of a.
// Nothing is sent when there is neither, or no webhook.
func (s *SlackNotifier) Notify(ctx context.Context, a *engine.Analysis) error {
	if !s.Enabled() || a == nil {
		return nil
	}
	atRisk := highRisk(a)
	if len(a.Alerts) == 0 && len(atRisk) == 0 {
		return nil
	}

	body, err := json.Marshal(slackMessage{Text: FormatAlerts(a)})
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	log.Printf("📣 Pulse: sent %d alerts, %d high-risk customers to Slack", len(a.Alerts), len(atRisk))
	return nil
}

// FormatAlerts renders the alert digest text.
func FormatAlerts(a *engine.Analysis) string {
	var b strings.Builder
	high := 0
	for _, al := range a.Alerts {
		if al.Severity == engine.SeverityHigh {
			high++
		}
	}
	fmt.Fprintf(&b, "*Pulse alert*: %d revenue alert(s), %d high severity.", len(a.Alerts), high)
	if k := a.KPIs; k.PeriodFrom != nil && k.PeriodTo != nil {
		fmt.Fprintf(&b, " Period %s → %s.", k.PeriodFrom.Format("2006-01-02"), k.PeriodTo.Format("2006-01-02"))
	}
	if rev := a.KPIs.TotalRevenue; rev.Available {
		fmt.Fprintf(&b, " Revenue %s.", engine.FormatCurrency(rev.Value, a.Config.Currency))
	}
	for _, al := range a.Alerts {
		fmt.Fprintf(&b, "\n• [%s] %s", al.Severity, al.Message)
	}

	if atRisk := highRisk(a); len(atRisk) > 0 {
		names := make([]string, 0, maxNamedChurn)
		for _, r := range atRisk {
			if len(names) == maxNamedChurn {
				break
			}
			names = append(names, fmt.Sprintf("%s (%dd)", r.CustomerID, r.DaysInactive))
		}
		fmt.Fprintf(&b, "\n• [Churn] %d customer(s) at high risk: %s", len(atRisk), strings.Join(names, ", "))
		if extra := len(atRisk) - len(names); extra > 0 {
			fmt.Fprintf(&b, " +%d more", extra)
		}
	}
	return b.String()
}

// highRisk returns the High-tier churn records in score order.
func highRisk(a *engine.Analysis) []engine.ChurnRecord {
	var out []engine.ChurnRecord
	for _, r := range a.Churn {
		if r.RiskTier == engine.RiskHigh {
			out = append(out, r)
		}
	}
	return out
}
