package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mooncall/agent/internal/models"
	"mooncall/agent/internal/services"
)

// FormatNumber renders a value with K/M suffixes: 900 -> "900",
// 1500 -> "1.50K", 1500000 -> "1.50M".
func FormatNumber(num float64) string {
	switch {
	case num < 1000:
		return fmt.Sprintf("%.0f", num)
	case num < 1000000:
		return fmt.Sprintf("%.2fK", num/1000)
	default:
		return fmt.Sprintf("%.2fM", num/1000000)
	}
}

// ParseMarketCap parses a suffixed market-cap string ("900", "12.3K",
// "4.2M", "1B") into a plain float. Unparsable input yields 0; callers
// reject non-positive baselines.
func ParseMarketCap(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	multiplier := 1.0
	switch strings.ToUpper(s[len(s)-1:]) {
	case "K":
		multiplier = 1e3
		s = s[:len(s)-1]
	case "M":
		multiplier = 1e6
		s = s[:len(s)-1]
	case "B":
		multiplier = 1e9
		s = s[:len(s)-1]
	}
	number, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return number * multiplier
}

// tokenAge renders the time since pair creation as "Nd Nh".
func tokenAge(createdAt, now time.Time) string {
	if createdAt.IsZero() || now.Before(createdAt) {
		return "unknown"
	}
	diff := now.Sub(createdAt)
	days := int(diff.Hours()) / 24
	hours := int(diff.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatMultipleAlert builds the alert tweet for a crossed tier. The footer
// is operator-configured boilerplate appended verbatim.
func FormatMultipleAlert(token models.MonitoredToken, data *services.TokenMarketData, multiple float64, footer string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🚀 Callback on $%s\n", token.Token))
	if data.TwitterURL != "" {
		handle := strings.TrimPrefix(strings.TrimPrefix(data.TwitterURL, "https://x.com/"), "https://twitter.com/")
		sb.WriteString(fmt.Sprintf("𝕏 @%s\n", handle))
	}
	sb.WriteString(fmt.Sprintf("🔥 Up %.0f%% since the call 💹\n", (multiple-1)*100))
	sb.WriteString(fmt.Sprintf("⏱️ Called at: %s\n", token.ReceivedTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("💰 Market cap at call: %s\n", FormatNumber(token.InitialMcap)))
	sb.WriteString(fmt.Sprintf("💰 Current market cap: %s\n", FormatNumber(token.InitialMcap*multiple)))
	sb.WriteString(fmt.Sprintf("💵 Price: $%.8f\n", data.PriceUsd))
	sb.WriteString(fmt.Sprintf("\n📝 CA: %s\n", token.CA))
	sb.WriteString(fmt.Sprintf("\n⏰ Token created: %s ago\n", tokenAge(data.PairCreatedAt, now)))
	if footer != "" {
		sb.WriteString("\n")
		sb.WriteString(footer)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\n#SOLANA #MEMECOIN #%s", token.Token))

	return sb.String()
}
