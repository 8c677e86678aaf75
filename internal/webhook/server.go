package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betbot/copybet/internal/domain"
	"github.com/betbot/copybet/internal/events"
	"github.com/betbot/copybet/internal/ingest"
	"github.com/betbot/copybet/pkg/logger"
)

// BatchProcessor runs one authenticated webhook delivery.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, batch []events.IncomingEvent) ingest.Summary
}

// TradeReader serves the operational read endpoints.
type TradeReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.ExecutedTrade, error)
}

// SettingsReader serves the per-trader settings endpoint.
type SettingsReader interface {
	ListByTrader(ctx context.Context, wallet string) ([]domain.CopySetting, error)
}

// Server is the inbound HTTP surface: the webhook endpoint plus a couple
// of read-only operational routes. All rendering lives elsewhere.
type Server struct {
	secret    string
	processor BatchProcessor
	trades    TradeReader
	settings  SettingsReader
}

func NewServer(secret string, processor BatchProcessor, trades TradeReader, settings SettingsReader) *Server {
	if secret == "" {
		logger.Warn("webhook secret not configured: accepting unsigned deliveries (do not run this in production)")
	}
	return &Server{secret: secret, processor: processor, trades: trades, settings: settings}
}

// Router builds the gin handler.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/webhook/transactions", s.handleWebhook)

	api := r.Group("/api")
	api.GET("/trades", s.handleTradesList)
	api.GET("/settings/:trader", s.handleSettingsList)

	return r
}
