package database

import (
	"database/sql"
	"log"
	"os"

	"mooncall/agent/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// MigrateDatabase handles database migrations using GORM's AutoMigrate and
// raw SQL as a fallback. The raw pass exists mostly to guarantee the
// (ca, multiple) uniqueness constraint: alert idempotency depends on the
// database rejecting duplicate tier rows, not on application checks.
func MigrateDatabase(dsn string) {
	env := os.Getenv("APP_ENV")
	log.Printf("Running migrations for environment: %s", env)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to the database with GORM: %v", err)
	}

	log.Println("Running GORM migrations...")
	err = DB.AutoMigrate(
		&models.MonitoredToken{},
		&models.MultipleAlert{},
		&models.PriceSample{},
		&models.PurchaseRecord{},
	)
	if err != nil {
		log.Fatalf("Failed to perform GORM migrations: %v", err)
	}
	log.Println("GORM migrations executed successfully.")

	dbSQL, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to the database with SQL: %v", err)
	}
	defer dbSQL.Close()

	executeSQLMigrations(dbSQL)
}

// executeSQLMigrations performs raw SQL migrations as a fallback.
func executeSQLMigrations(db *sql.DB) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS monitored_tokens (
            ca TEXT PRIMARY KEY,
            token TEXT NOT NULL,
            initial_mcap DOUBLE PRECISION NOT NULL,
            received_time TIMESTAMPTZ NOT NULL,
            source_type TEXT,
            last_alert_time BIGINT DEFAULT 0,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS multiple_alerts (
            id SERIAL PRIMARY KEY,
            ca TEXT NOT NULL,
            multiple INT NOT NULL,
            max_market_cap DOUBLE PRECISION,
            alert_time TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ca_multiple ON multiple_alerts (ca, multiple);`,
		`CREATE TABLE IF NOT EXISTS price_samples (
            id SERIAL PRIMARY KEY,
            ca TEXT NOT NULL,
            price_usd DOUBLE PRECISION,
            price_native DOUBLE PRECISION,
            volume24h DOUBLE PRECISION,
            fdv DOUBLE PRECISION,
            market_cap DOUBLE PRECISION,
            liquidity_usd DOUBLE PRECISION,
            timestamp TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_price_samples_ca ON price_samples (ca);`,
	}

	for _, query := range queries {
		_, err := db.Exec(query)
		if err != nil {
			log.Fatalf("Failed to execute query: %s, error: %v", query, err)
		}
	}
	log.Println("Raw SQL migrations executed successfully.")
}
