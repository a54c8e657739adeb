package database

import (
	"context"
	"time"

	"mooncall/agent/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenStore is the persistence surface for the monitoring loop and the
// ingestion API: monitored tokens, the multiple-alert ledger and the price
// sample series, all backed by one gorm connection.
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

// CreateTokenIfAbsent inserts the token unless its contract address is
// already monitored. Returns true when a new row was created; a duplicate
// sighting is a no-op, not an error.
func (s *TokenStore) CreateTokenIfAbsent(ctx context.Context, token *models.MonitoredToken) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "ca"}}, DoNothing: true}).
		Create(token)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ActiveTokens returns tokens first seen within the trailing window. Tokens
// with a non-positive baseline never enter the active set; the filter here is
// the last line of defense before the growth division.
func (s *TokenStore) ActiveTokens(ctx context.Context, window time.Duration) ([]models.MonitoredToken, error) {
	var tokens []models.MonitoredToken
	cutoff := time.Now().Add(-window)
	err := s.db.WithContext(ctx).
		Where("received_time > ?", cutoff).
		Where("initial_mcap > 0").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// AddPriceSample appends one poll observation. The series is append-only.
func (s *TokenStore) AddPriceSample(ctx context.Context, sample *models.PriceSample) error {
	return s.db.WithContext(ctx).Create(sample).Error
}

// HasAlerted reports whether the (ca, multiple) tier has already been
// announced.
func (s *TokenStore) HasAlerted(ctx context.Context, ca string, multiple int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.MultipleAlert{}).
		Where("ca = ? AND multiple = ?", ca, multiple).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordAlert writes the tier row. The unique index on (ca, multiple) makes
// concurrent duplicates collapse to a single row: a conflict comes back as
// (false, nil), the benign "already handled" signal.
func (s *TokenStore) RecordAlert(ctx context.Context, ca string, multiple int, observedMcap float64) (bool, error) {
	alert := models.MultipleAlert{
		CA:           ca,
		Multiple:     multiple,
		MaxMarketCap: observedMcap,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ca"}, {Name: "multiple"}},
			DoNothing: true,
		}).
		Create(&alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// TouchLastAlert advances the advisory last-alert timestamp on the token.
func (s *TokenStore) TouchLastAlert(ctx context.Context, ca string, t time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.MonitoredToken{}).
		Where("ca = ?", ca).
		Update("last_alert_time", t.Unix()).Error
}

// RecordPurchase stores the normalized aggregator quote for a token.
func (s *TokenStore) RecordPurchase(ctx context.Context, record *models.PurchaseRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// TokenStats is one row of the monitored-token overview.
type TokenStats struct {
	CA          string    `json:"ca"`
	Token       string    `json:"token"`
	InitialMcap float64   `json:"initialMcap"`
	CreatedAt   time.Time `json:"createdAt"`
	AlertCount  int       `json:"alertCount"`
}

// TokenStatsList returns every monitored token with its alert count.
func (s *TokenStore) TokenStatsList(ctx context.Context) ([]TokenStats, error) {
	var stats []TokenStats
	err := s.db.WithContext(ctx).Raw(`
        SELECT t.ca, t.token, t.initial_mcap, t.created_at,
               COUNT(DISTINCT a.multiple) AS alert_count
        FROM monitored_tokens t
        LEFT JOIN multiple_alerts a ON t.ca = a.ca
        GROUP BY t.ca, t.token, t.initial_mcap, t.created_at`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// AlertJoinRow is one (token, alert) pair used by the daily digest. Multiple
// and MaxMarketCap are zero for tokens that never crossed a tier.
type AlertJoinRow struct {
	Hour         int
	Token        string
	CA           string
	Multiple     int
	MaxMarketCap float64
}

// TokenAlertRows returns every token created inside [from, to) joined against
// its multiple alerts, keyed by UTC hour of creation.
func (s *TokenStore) TokenAlertRows(ctx context.Context, from, to time.Time) ([]AlertJoinRow, error) {
	var rows []AlertJoinRow
	err := s.db.WithContext(ctx).Raw(`
        SELECT EXTRACT(HOUR FROM t.created_at AT TIME ZONE 'UTC')::int AS hour,
               t.token, t.ca,
               COALESCE(a.multiple, 0) AS multiple,
               COALESCE(a.max_market_cap, 0) AS max_market_cap
        FROM monitored_tokens t
        LEFT JOIN multiple_alerts a ON t.ca = a.ca
        WHERE t.created_at >= ? AND t.created_at < ?
        ORDER BY hour`, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
