package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/betbot/copybet/internal/events"
	"github.com/betbot/copybet/internal/ingest"
)

// handleWebhook authenticates and processes one delivery. The body is
// either a single event object or an array of them; the signature covers
// the raw bytes, so it is verified before any JSON work.
func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 4<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !VerifySignature(s.secret, body, c.GetHeader(SignatureHeader)) {
		// whole batch rejected, nothing was processed
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	batch, err := decodeBatch(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	sum := s.processor.ProcessBatch(c.Request.Context(), batch)
	if sum.Trades == nil {
		sum.Trades = []ingest.TradeSummary{}
	}
	c.JSON(http.StatusOK, sum)
}

// decodeBatch accepts a single object or an array of objects.
func decodeBatch(body []byte) ([]events.IncomingEvent, error) {
	var batch []events.IncomingEvent
	if err := json.Unmarshal(body, &batch); err == nil {
		return batch, nil
	}
	var single events.IncomingEvent
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []events.IncomingEvent{single}, nil
}

func (s *Server) handleTradesList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	trades, err := s.trades.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleSettingsList(c *gin.Context) {
	trader := c.Param("trader")
	settings, err := s.settings.ListByTrader(c.Request.Context(), trader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
