package monitor

import (
	"context"
	"time"

	"mooncall/agent/internal/models"
	"mooncall/agent/internal/services"
	"mooncall/shared/config"
	"mooncall/shared/logger"
)

// Ledger is the persistence capability the loop consumes. The concrete
// implementation is the gorm-backed TokenStore; tests swap in fakes.
type Ledger interface {
	ActiveTokens(ctx context.Context, window time.Duration) ([]models.MonitoredToken, error)
	AddPriceSample(ctx context.Context, sample *models.PriceSample) error
	HasAlerted(ctx context.Context, ca string, multiple int) (bool, error)
	RecordAlert(ctx context.Context, ca string, multiple int, observedMcap float64) (bool, error)
	TouchLastAlert(ctx context.Context, ca string, t time.Time) error
}

// MarketData resolves a contract address to a current snapshot, or an error
// meaning "unavailable this cycle".
type MarketData interface {
	Fetch(ctx context.Context, ca string) (*services.TokenMarketData, error)
}

// MarketDataFunc adapts a plain fetch function to the MarketData interface.
type MarketDataFunc func(ctx context.Context, ca string) (*services.TokenMarketData, error)

func (f MarketDataFunc) Fetch(ctx context.Context, ca string) (*services.TokenMarketData, error) {
	return f(ctx, ca)
}

// TierNotifier is what the loop needs from the dispatcher.
type TierNotifier interface {
	TrySchedule(text string) bool
}

// Monitor is the polling orchestrator: every cycle it loads the active token
// set, fetches market data per token, evaluates growth tiers and hands newly
// crossed ones to the ledger and the dispatcher. Failures are isolated per
// token and per tier; nothing in a cycle is fatal.
type Monitor struct {
	ledger     Ledger
	market     MarketData
	dispatcher TierNotifier
	appLogger  *logger.Logger
	cfg        config.MonitorConfig
	footer     string
}

func New(ledger Ledger, market MarketData, dispatcher TierNotifier, cfg config.MonitorConfig, footer string, appLogger *logger.Logger) *Monitor {
	return &Monitor{
		ledger:     ledger,
		market:     market,
		dispatcher: dispatcher,
		appLogger:  appLogger,
		cfg:        cfg,
		footer:     footer,
	}
}

// Run executes polling cycles until the context is cancelled. One cycle runs
// immediately at startup; afterwards the cadence is fixed regardless of how
// long a cycle took.
func (m *Monitor) Run(ctx context.Context) {
	m.appLogger.Info("Price monitoring loop started",
		"pollInterval", m.cfg.PollInterval(),
		"window", m.cfg.Window(),
		"multiples", m.cfg.Multiples)

	ticker := time.NewTicker(m.cfg.PollInterval())
	defer ticker.Stop()

	m.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			m.appLogger.Info("Context cancelled, stopping price monitoring loop")
			return
		case <-ticker.C:
			m.RunCycle(ctx)
		}
	}
}

// RunCycle performs one full pass over the active token set. Exposed so
// tests can drive the loop synchronously.
func (m *Monitor) RunCycle(ctx context.Context) {
	tokens, err := m.ledger.ActiveTokens(ctx, m.cfg.Window())
	if err != nil {
		// Cycle-level failure: log and let the next tick retry the whole pass.
		m.appLogger.Error("Failed to load active token set", "error", err)
		return
	}
	m.appLogger.Info("Starting polling cycle", "tokenCount", len(tokens))

	for _, token := range tokens {
		if ctx.Err() != nil {
			return
		}
		m.checkToken(ctx, token)
	}
	m.appLogger.Debug("Polling cycle finished")
}

// checkToken handles a single token: fetch, persist sample, evaluate tiers.
// A panic here is confined to this token.
func (m *Monitor) checkToken(ctx context.Context, token models.MonitoredToken) {
	defer func() {
		if r := recover(); r != nil {
			m.appLogger.Error("Panic while checking token", "ca", token.CA, "panic", r)
		}
	}()

	data, err := m.market.Fetch(ctx, token.CA)
	if err != nil {
		m.appLogger.Warn("Market data unavailable, skipping token this cycle",
			"token", token.Token, "ca", token.CA, "error", err)
		return
	}

	sample := &models.PriceSample{
		CA:           token.CA,
		PriceUsd:     data.PriceUsd,
		PriceNative:  data.PriceNative,
		Volume24h:    data.Volume24h,
		FDV:          data.FDV,
		MarketCap:    data.MarketCap,
		LiquidityUsd: data.LiquidityUsd,
	}
	if err := m.ledger.AddPriceSample(ctx, sample); err != nil {
		m.appLogger.Error("Failed to persist price sample", "ca", token.CA, "error", err)
	}

	currentCap := data.GrowthCap()
	if currentCap <= 0 {
		m.appLogger.Debug("Current market cap is zero, skipping evaluation", "ca", token.CA)
		return
	}

	multiple := GrowthMultiple(token.InitialMcap, currentCap)
	m.appLogger.Info("Token checked",
		"token", token.Token, "currentMcap", currentCap, "multiple", multiple)

	alerted := make(map[int]bool, len(m.cfg.Multiples))
	for _, tier := range m.cfg.Multiples {
		if multiple < float64(tier) {
			continue
		}
		has, err := m.ledger.HasAlerted(ctx, token.CA, tier)
		if err != nil {
			m.appLogger.Error("Ledger check failed, skipping tier this cycle",
				"ca", token.CA, "tier", tier, "error", err)
			alerted[tier] = true
			continue
		}
		alerted[tier] = has
	}

	for _, tier := range NewlyCrossedTiers(token.InitialMcap, currentCap, alerted, m.cfg.Multiples) {
		if !m.alertTier(ctx, token, data, currentCap, multiple, tier) {
			// Spacing not met; later tiers would hit the same wall. The next
			// cycle re-evaluates everything still uncovered.
			return
		}
	}
}

// alertTier schedules the notification for one newly crossed tier and
// records it in the ledger. Returns false only when dispatch spacing forced
// a deferral; errors are logged and count as handled.
func (m *Monitor) alertTier(ctx context.Context, token models.MonitoredToken, data *services.TokenMarketData, currentCap, multiple float64, tier int) bool {
	defer func() {
		if r := recover(); r != nil {
			m.appLogger.Error("Panic while alerting tier", "ca", token.CA, "tier", tier, "panic", r)
		}
	}()

	text := FormatMultipleAlert(token, data, multiple, m.footer, time.Now())
	if !m.dispatcher.TrySchedule(text) {
		m.appLogger.Info("Tier alert deferred to next cycle", "ca", token.CA, "tier", tier)
		return false
	}

	// Ledger write happens at schedule time, before the delayed send fires.
	// A delivery failure later does not roll this back.
	created, err := m.ledger.RecordAlert(ctx, token.CA, tier, currentCap)
	if err != nil {
		m.appLogger.Error("Failed to record tier alert", "ca", token.CA, "tier", tier, "error", err)
		return true
	}
	if !created {
		m.appLogger.Info("Tier already recorded by a concurrent writer", "ca", token.CA, "tier", tier)
		return true
	}

	if err := m.ledger.TouchLastAlert(ctx, token.CA, time.Now()); err != nil {
		m.appLogger.Warn("Failed to update last-alert timestamp", "ca", token.CA, "error", err)
	}

	m.appLogger.Info("Tier alert scheduled",
		"token", token.Token, "ca", token.CA, "tier", tier, "observedMcap", currentCap)
	return true
}
