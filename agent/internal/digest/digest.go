package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"mooncall/agent/database"
	"mooncall/shared/logger"
)

// Thresholds for what counts as a notable token in the digest: a 3x move or
// a peak market cap of 4.2M.
const (
	notableMultiple = 3
	notableMcapUSD  = 4_200_000
)

// Store is the slice of the token store the digest consumes.
type Store interface {
	TokenAlertRows(ctx context.Context, from, to time.Time) ([]database.AlertJoinRow, error)
}

// Analyzer aggregates the trailing 24 hours of token activity into a text
// report and delivers it to a chat-tool webhook.
type Analyzer struct {
	store      Store
	webhookURL string
	appLogger  *logger.Logger
	httpClient *http.Client
}

func NewAnalyzer(store Store, webhookURL string, appLogger *logger.Logger) *Analyzer {
	return &Analyzer{
		store:      store,
		webhookURL: webhookURL,
		appLogger:  appLogger,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Run builds and delivers one digest covering the 24 hours before now.
// All failures are logged; a missed digest never affects monitoring.
func (a *Analyzer) Run(ctx context.Context) {
	now := time.Now().UTC()
	rows, err := a.store.TokenAlertRows(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		a.appLogger.Error("Failed to load digest rows", "error", err)
		return
	}

	report := BuildReport(rows, now.Add(-24*time.Hour))
	a.appLogger.Info("Daily digest generated", "length", len(report))

	if a.webhookURL == "" {
		a.appLogger.Info("No digest webhook configured, report logged only")
		a.appLogger.Info(report)
		return
	}
	if err := a.sendToWebhook(ctx, report); err != nil {
		a.appLogger.Error("Failed to deliver daily digest", "error", err)
	}
}

type tokenSummary struct {
	token       string
	maxMultiple int
	maxMcap     float64
}

// BuildReport renders the hourly breakdown: tokens created per hour, the
// notable movers with their best multiple and peak market cap, then the top
// hours by total multiple yield and by count of large-cap tokens.
func BuildReport(rows []database.AlertJoinRow, reportDay time.Time) string {
	// One summary per token per hour; a token appears once per alert row,
	// zero-multiple rows mean it never crossed a tier.
	hours := make(map[int]map[string]*tokenSummary)
	for _, row := range rows {
		byCA, ok := hours[row.Hour]
		if !ok {
			byCA = make(map[string]*tokenSummary)
			hours[row.Hour] = byCA
		}
		summary, ok := byCA[row.CA]
		if !ok {
			summary = &tokenSummary{token: row.Token}
			byCA[row.CA] = summary
		}
		if row.Multiple > summary.maxMultiple {
			summary.maxMultiple = row.Multiple
		}
		if row.MaxMarketCap > summary.maxMcap {
			summary.maxMcap = row.MaxMarketCap
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Token call digest (%s, UTC) ===\n", reportDay.Format("2006-01-02")))

	hourlyProfits := make(map[int]int)
	hourlyBigCaps := make(map[int]int)

	for hour := 0; hour < 24; hour++ {
		byCA, ok := hours[hour]
		if !ok || len(byCA) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("\n%02d:00 - %d token(s) called", hour, len(byCA)))

		var notable []*tokenSummary
		profit := 0
		bigCaps := 0
		for _, summary := range byCA {
			if summary.maxMcap >= notableMcapUSD {
				bigCaps++
			}
			if summary.maxMultiple >= notableMultiple {
				profit += summary.maxMultiple
			}
			if summary.maxMultiple >= notableMultiple || summary.maxMcap >= notableMcapUSD {
				notable = append(notable, summary)
			}
		}

		if len(notable) == 0 {
			sb.WriteString(", none notable\n")
		} else {
			sb.WriteString("\n")
			sort.Slice(notable, func(i, j int) bool {
				if notable[i].maxMultiple != notable[j].maxMultiple {
					return notable[i].maxMultiple > notable[j].maxMultiple
				}
				return notable[i].token < notable[j].token
			})
			for _, summary := range notable {
				sb.WriteString(fmt.Sprintf(" - %s %dx, peak mcap %.1fM\n",
					summary.token, summary.maxMultiple, summary.maxMcap/1_000_000))
			}
		}

		if profit > 0 {
			hourlyProfits[hour] = profit
		}
		if bigCaps > 0 {
			hourlyBigCaps[hour] = bigCaps
		}
	}

	if len(hourlyProfits) > 0 {
		sb.WriteString("\nBest hours by total multiple yield: ")
		sb.WriteString(topHoursLine(hourlyProfits, "x"))
		sb.WriteString("\n")
	}
	if len(hourlyBigCaps) > 0 {
		sb.WriteString("\nHours with most large-cap tokens: ")
		sb.WriteString(topHoursLine(hourlyBigCaps, ""))
		sb.WriteString("\n")
	}

	return sb.String()
}

// topHoursLine renders the top five hours of a per-hour counter.
func topHoursLine(counts map[int]int, suffix string) string {
	type entry struct{ hour, value int }
	entries := make([]entry, 0, len(counts))
	for hour, value := range counts {
		entries = append(entries, entry{hour, value})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].value != entries[j].value {
			return entries[i].value > entries[j].value
		}
		return entries[i].hour < entries[j].hour
	})
	if len(entries) > 5 {
		entries = entries[:5]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%02d:00 (%d%s)", e.hour, e.value, suffix))
	}
	return strings.Join(parts, ", ")
}

type webhookPayload struct {
	MsgType string         `json:"msg_type"`
	Content webhookContent `json:"content"`
}

type webhookContent struct {
	Text string `json:"text"`
}

// sendToWebhook posts the report as a Feishu-style text message.
func (a *Analyzer) sendToWebhook(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Content: webhookContent{Text: text},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal digest payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build digest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("digest webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("digest webhook responded with status %d", resp.StatusCode)
	}
	a.appLogger.Info("Daily digest delivered to webhook")
	return nil
}
