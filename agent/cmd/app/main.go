package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"mooncall/agent/database"
	"mooncall/agent/internal/digest"
	"mooncall/agent/internal/handlers"
	"mooncall/agent/internal/monitor"
	"mooncall/agent/internal/services"
	"mooncall/shared/config"
	"mooncall/shared/env"
	"mooncall/shared/logger"
	"mooncall/shared/notifications"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func startHeartbeat(appLogger *logger.Logger) {
	go func() {
		ticker := time.NewTicker(8 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			appLogger.Info("Heartbeat: Program running...")
		}
	}()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Panicf("FATAL PANIC RECOVERY: %v", r)
		}
	}()

	if err := env.LoadEnv(); err != nil {
		log.Fatalf("FATAL: Failed to load environment variables: %v", err)
	}
	log.Println("INFO: Environment variables loaded via shared/env.")

	enableTelegramLogging := env.TelegramBotToken != "" && env.TelegramGroupID != 0
	loggerCfg := logger.Config{
		Level:          "info",
		Environment:    "production",
		EnableTelegram: enableTelegramLogging,
	}
	appLogger, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info("Application logger initialized successfully.")

	var dsn string
	if env.DATABASE_URL != "" {
		appLogger.Info("Using DATABASE_URL for database connection.")
		dsn = env.DATABASE_URL
	} else {
		appLogger.Warn("DATABASE_URL not set. Constructing DSN from PG* variables.")
		if env.PGHOST == "" || env.PGPORT == "" || env.PGUSER == "" || env.PGDATABASE == "" {
			appLogger.Fatal("Essential database connection variables are missing (DATABASE_URL or PG*)")
		}
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			env.PGHOST, env.PGUSER, env.PGPASSWORD, env.PGDATABASE, env.PGPORT,
		)
		appLogger.Info("Constructed Database DSN using individual variables (password hidden)")
	}

	appLogger.Info("Connecting to database...")
	db, errDb := database.ConnectToDatabase(dsn)
	if errDb != nil {
		appLogger.Fatal("Database connection failed", zap.Error(errDb))
	}
	appLogger.Info("Database connection established successfully.")

	appLogger.Info("Running database migrations...")
	database.MigrateDatabase(dsn)
	appLogger.Info("Database migrations completed.")

	if err := notifications.InitTelegramBot(); err != nil {
		appLogger.Warn("Telegram Bot unavailable, proceeding without Telegram mirroring", zap.Error(err))
	} else {
		appLogger.Info("Telegram notifications initialized.")
	}

	appLogger.Info("Loading application configuration...")
	cfg, errCfg := config.LoadConfig("agent/config.yaml")
	if errCfg != nil {
		appLogger.Fatal("Failed to load agent/config.yaml", zap.Error(errCfg))
	}
	config.SetGlobalConfig(cfg)
	appLogger.Info("Application configuration loaded.")

	store := database.NewTokenStore(db)

	twitterClient := services.NewTwitterClient(
		env.TwitterAPIKey,
		env.TwitterAPIKeySecret,
		env.TwitterAccessToken,
		env.TwitterAccessTokenSecret,
		appLogger,
	)

	dispatcher := monitor.NewDispatcher(
		twitterClient,
		cfg.Monitor.TweetInterval(),
		cfg.Monitor.TweetDelay(),
		appLogger,
	)
	defer dispatcher.Stop()

	quoteClient := services.NewOkxQuoteClient(cfg.Quote)

	marketData := monitor.MarketDataFunc(func(ctx context.Context, ca string) (*services.TokenMarketData, error) {
		return services.FetchTokenMarketData(ctx, ca, appLogger)
	})

	mon := monitor.New(store, marketData, dispatcher, cfg.Monitor, cfg.Digest.Footer, appLogger)

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	defer cancelMonitor()
	go mon.Run(monitorCtx)
	appLogger.Info("Market cap monitor started", zap.Duration("pollInterval", cfg.Monitor.PollInterval()))

	analyzer := digest.NewAnalyzer(store, env.DigestWebhookURL, appLogger)
	cronRunner := cron.New(cron.WithSeconds())
	if _, err := cronRunner.AddFunc(cfg.Digest.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		analyzer.Run(ctx)
	}); err != nil {
		appLogger.Fatal("Failed to schedule daily digest", zap.Error(err))
	}
	cronRunner.Start()
	defer cronRunner.Stop()
	appLogger.Info("Daily digest scheduled", zap.String("cron", cfg.Digest.CronSpec))

	appLogger.Info("Setting up web server...")
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router, appLogger)
	handlers.RegisterAPIRoutes(router, handlers.Deps{
		Store:  store,
		Quotes: quoteClient,
		Logger: appLogger,
	})
	appLogger.Info("Web server and API routes registered.")

	go func() {
		serverAddr := ":" + env.Port
		appLogger.Info("Starting web server", zap.String("address", serverAddr))
		if err := router.Run(serverAddr); err != nil {
			appLogger.Fatal("Could not start web server.", zap.Error(err))
		}
	}()

	startHeartbeat(appLogger)

	appLogger.Info("Application startup complete. Waiting for events...")
	select {}
}
