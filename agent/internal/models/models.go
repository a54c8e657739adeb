package models

import "time"

// MonitoredToken is one token under market-cap monitoring. The contract
// address is the identity; InitialMcap is the baseline recorded when the
// token was first received and is never updated afterwards.
type MonitoredToken struct {
	CA            string    `gorm:"primaryKey;column:ca"` // Contract address
	Token         string    `gorm:"not null"`             // Display symbol
	InitialMcap   float64   `gorm:"not null"`             // Baseline market cap (USD)
	ReceivedTime  time.Time `gorm:"not null;index"`       // First-seen timestamp, scopes the monitoring window
	SourceType    string    ``                            // Comma-joined source tags from the caller
	LastAlertTime int64     `gorm:"default:0"`            // Unix seconds of the latest alert, advisory only
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// MultipleAlert records that a growth tier has been announced for a token.
// The composite unique index is the idempotency guarantee: concurrent
// check-then-record sequences for the same (ca, multiple) collapse to a
// single row at the database level.
type MultipleAlert struct {
	ID           uint      `gorm:"primaryKey"`
	CA           string    `gorm:"column:ca;not null;uniqueIndex:idx_ca_multiple"`
	Multiple     int       `gorm:"not null;uniqueIndex:idx_ca_multiple"` // 5, 10, 20, 50, 100
	MaxMarketCap float64   ``                                            // Market cap observed when the tier was crossed
	AlertTime    time.Time `gorm:"autoCreateTime"`
}

// PriceSample is one row per poll per token. Append-only; nothing in this
// service mutates or prunes the series.
type PriceSample struct {
	ID           uint      `gorm:"primaryKey"`
	CA           string    `gorm:"column:ca;not null;index"`
	PriceUsd     float64   ``
	PriceNative  float64   ``
	Volume24h    float64   ``
	FDV          float64   ``
	MarketCap    float64   ``
	LiquidityUsd float64   ``
	Timestamp    time.Time `gorm:"autoCreateTime"`
}

// PurchaseRecord stores the normalized DEX aggregator quote captured when a
// token is first received.
type PurchaseRecord struct {
	ID              uint      `gorm:"primaryKey"`
	CA              string    `gorm:"column:ca;not null;index"`
	FromTokenSymbol string    `gorm:"not null"`
	FromTokenAmount float64   `gorm:"not null"`
	FromTokenPrice  float64   `gorm:"not null"`
	ToTokenSymbol   string    `gorm:"not null"`
	ToTokenAmount   float64   `gorm:"not null"`
	ToTokenPrice    float64   `gorm:"not null"`
	PriceImpact     float64   ``
	TradeFee        float64   ``
	DexName         string    ``
	Status          string    `gorm:"default:pending"` // pending/success/failed
	TxHash          string    ``
	Timestamp       time.Time `gorm:"autoCreateTime"`
}
