package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stream-market/internal/blockchain"
	"stream-market/internal/events"
	"stream-market/internal/services"
)

// ChainReader reads vault state from the Solana cluster.
type ChainReader interface {
	VaultLamports(ctx context.Context, streamID uint64) (uint64, error)
	RunDiagnostics(ctx context.Context) *blockchain.DiagnosticResult
}

// EventHandler exposes the market event log and vault journals
type EventHandler struct {
	marketService *services.MarketService
	chain         ChainReader // nil when no RPC node is configured
	log           zerolog.Logger
}

// NewEventHandler creates a new event handler. chain may be nil.
func NewEventHandler(marketService *services.MarketService, chain ChainReader, log zerolog.Logger) *EventHandler {
	return &EventHandler{
		marketService: marketService,
		chain:         chain,
		log:           log,
	}
}

// ListEvents returns logged events newest first
// GET /api/events?name=SharesPurchased&stream_id=1&limit=50
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := events.Filter{Name: c.Query("name")}

	if idStr := c.Query("stream_id"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stream_id"})
			return
		}
		filter.StreamID = id
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = l
		}
	}

	logs, err := h.marketService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": logs,
		"total":  len(logs),
	})
}

// GetVault returns a stream's vault balance and custody journal
// GET /api/streams/:id/vault
func (h *EventHandler) GetVault(c *gin.Context) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}

	entries, err := h.marketService.VaultEntries(c.Request.Context(), streamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	balance, err := h.marketService.VaultBalance(c.Request.Context(), streamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := gin.H{
		"stream_id": streamID,
		"balance":   balance,
		"entries":   entries,
	}
	if h.chain != nil {
		lamports, err := h.chain.VaultLamports(c.Request.Context(), streamID)
		if err != nil {
			h.log.Warn().Err(err).Uint64("stream_id", streamID).Msg("failed to read vault from chain")
		} else {
			resp["chain_lamports"] = lamports
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetChainDiagnostics reports RPC connectivity and vault derivation
// GET /api/chain/diagnostics
func (h *EventHandler) GetChainDiagnostics(c *gin.Context) {
	if h.chain == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no solana rpc configured"})
		return
	}
	c.JSON(http.StatusOK, h.chain.RunDiagnostics(c.Request.Context()))
}
