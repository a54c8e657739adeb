package handlers

import (
	"net/http"
	"strings"
	"time"

	"mooncall/agent/database"
	"mooncall/agent/internal/models"
	"mooncall/agent/internal/monitor"
	"mooncall/agent/internal/services"
	"mooncall/shared/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReceiveTokenRequest is the inbound call payload. MarketCap arrives as the
// caller formats it, e.g. "53.4K" or "1.2M".
type ReceiveTokenRequest struct {
	Token      string   `json:"token" binding:"required"`
	CA         string   `json:"ca" binding:"required"`
	MarketCap  string   `json:"marketCap" binding:"required"`
	Date       string   `json:"date"`
	SourceType []string `json:"sourceType"`
}

// Deps bundles what the API routes need.
type Deps struct {
	Store  *database.TokenStore
	Quotes *services.OkxQuoteClient
	Logger *logger.Logger
}

func RegisterRoutes(router *gin.Engine, appLogger *logger.Logger) {
	router.GET("/", func(c *gin.Context) {
		appLogger.Info("Root endpoint accessed")
		c.JSON(http.StatusOK, gin.H{"message": "API is running. Monitor active!"})
	})
}

func RegisterAPIRoutes(router *gin.Engine, deps Deps) {
	appLogger := deps.Logger

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API Service is running"})
		})
	}

	router.POST("/receive_token", handleReceiveToken(deps))
	router.GET("/monitored_tokens", handleMonitoredTokens(deps))

	appLogger.Info("API routes registered")
}

func handleReceiveToken(deps Deps) gin.HandlerFunc {
	appLogger := deps.Logger

	return func(c *gin.Context) {
		var req ReceiveTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appLogger.Warn("Invalid request to /receive_token", zap.Error(err), zap.String("remoteAddr", c.RemoteIP()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		ca := strings.TrimSpace(req.CA)
		if _, err := solana.PublicKeyFromBase58(ca); err != nil {
			appLogger.Warn("Rejected token with invalid contract address", zap.String("ca", ca), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract address"})
			return
		}

		initialMcap := monitor.ParseMarketCap(req.MarketCap)
		if initialMcap <= 0 {
			appLogger.Warn("Rejected token with unusable market cap", zap.String("ca", ca), zap.String("marketCap", req.MarketCap))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Market cap could not be parsed"})
			return
		}

		token := models.MonitoredToken{
			Token:        strings.TrimSpace(req.Token),
			CA:           ca,
			InitialMcap:  initialMcap,
			ReceivedTime: time.Now().UTC(),
			SourceType:   strings.Join(req.SourceType, ","),
		}

		created, err := deps.Store.CreateTokenIfAbsent(c.Request.Context(), &token)
		if err != nil {
			appLogger.Error("Failed to store monitored token", zap.Error(err), zap.String("ca", ca))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store token"})
			return
		}
		if !created {
			appLogger.Info("Token already monitored, ignoring duplicate call", zap.String("ca", ca))
			c.JSON(http.StatusOK, gin.H{"message": "Token already monitored", "ca": ca})
			return
		}

		appLogger.Info("New token registered for monitoring",
			zap.String("token", token.Token), zap.String("ca", ca), zap.Float64("initialMcap", initialMcap))

		// A reference quote at call time is nice to have, never a blocker.
		if deps.Quotes != nil {
			go recordCallQuote(deps, ca)
		}

		c.JSON(http.StatusOK, gin.H{"message": "Token registered", "ca": ca})
	}
}

func recordCallQuote(deps Deps, ca string) {
	appLogger := deps.Logger

	ctx, cancel := services.QuoteContext()
	defer cancel()

	record, err := deps.Quotes.GetQuote(ctx, ca)
	if err != nil {
		appLogger.Warn("Failed to fetch reference quote", zap.String("ca", ca), zap.Error(err))
		return
	}
	if err := deps.Store.RecordPurchase(ctx, record); err != nil {
		appLogger.Error("Failed to store reference quote", zap.String("ca", ca), zap.Error(err))
	}
}

func handleMonitoredTokens(deps Deps) gin.HandlerFunc {
	appLogger := deps.Logger

	return func(c *gin.Context) {
		stats, err := deps.Store.TokenStatsList(c.Request.Context())
		if err != nil {
			appLogger.Error("Failed to list monitored tokens", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tokens"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(stats), "tokens": stats})
	}
}
