package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stream-market/internal/amm"
	"stream-market/internal/auth"
	"stream-market/internal/models"
	"stream-market/internal/services"
)

// AddressDeriver derives the on-chain account addresses reported alongside
// streams and positions.
type AddressDeriver interface {
	StreamAddress(streamID uint64) (string, error)
	PositionAddress(streamID uint64, user string) (string, error)
}

type StreamHandler struct {
	marketService *services.MarketService
	addresses     AddressDeriver
	log           zerolog.Logger
}

func NewStreamHandler(marketService *services.MarketService, addresses AddressDeriver, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		marketService: marketService,
		addresses:     addresses,
		log:           log,
	}
}

func parseStreamID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stream id"})
		return 0, false
	}
	return id, true
}

func callerOf(c *gin.Context) (string, bool) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return wallet, true
}

func (h *StreamHandler) respondStream(c *gin.Context, status int, stream *models.Stream) {
	resp, err := h.marketService.ToStreamResponse(stream)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(status, resp)
}

// GetStreams lists streams
// GET /api/streams?status=ACTIVE&limit=20&offset=0
func (h *StreamHandler) GetStreams(c *gin.Context) {
	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	status := models.StreamStatus(c.Query("status"))
	if status != "" && status != models.StreamStatusActive && status != models.StreamStatusEnded {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be ACTIVE or ENDED"})
		return
	}

	streams, err := h.marketService.ListStreams(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	responses := make([]*models.StreamResponse, 0, len(streams))
	for i := range streams {
		resp, err := h.marketService.ToStreamResponse(&streams[i])
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, gin.H{
		"streams": responses,
		"total":   len(responses),
	})
}

// GetStream retrieves a stream by id
// GET /api/streams/:id
func (h *StreamHandler) GetStream(c *gin.Context) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}

	stream, err := h.marketService.GetStream(c.Request.Context(), streamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp, err := h.marketService.ToStreamResponse(stream)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if account, err := h.addresses.StreamAddress(streamID); err == nil {
		resp.Account = account
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuote previews a trade
// GET /api/streams/:id/quote?team_id=1&side=buy&amount=100
func (h *StreamHandler) GetQuote(c *gin.Context) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}

	team, err := strconv.ParseUint(c.Query("team_id"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team_id"})
		return
	}
	amount, err := strconv.ParseUint(c.Query("amount"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	side := c.DefaultQuery("side", services.SideBuy)
	if side != services.SideBuy && side != services.SideSell {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be buy or sell"})
		return
	}

	quote, err := h.marketService.Quote(c.Request.Context(), streamID, amm.Team(team), side, amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// InitializeStream opens a new stream owned by the caller
// POST /api/streams
func (h *StreamHandler) InitializeStream(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	var req models.InitializeStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stream, err := h.marketService.Initialize(c.Request.Context(), caller, services.InitializeParams{
		StreamID:         req.StreamID,
		TeamAName:        req.TeamAName,
		TeamBName:        req.TeamBName,
		InitialLiquidity: req.InitialLiquidity,
		Duration:         req.Duration,
		StreamLink:       req.StreamLink,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondStream(c, http.StatusCreated, stream)
}

// Buy purchases shares
// POST /api/streams/:id/buy
func (h *StreamHandler) Buy(c *gin.Context) {
	h.trade(c, h.marketService.Buy)
}

// Sell redeems shares
// POST /api/streams/:id/sell
func (h *StreamHandler) Sell(c *gin.Context) {
	h.trade(c, h.marketService.Sell)
}

type tradeFunc func(ctx context.Context, caller string, streamID uint64, team amm.Team, amount uint64) (*services.TradeResult, error)

func (h *StreamHandler) trade(c *gin.Context, fn tradeFunc) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := fn(c.Request.Context(), caller, streamID, req.TeamID, req.Amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	stream, err := h.marketService.ToStreamResponse(res.Stream)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trade":    res.Trade,
		"position": res.Position,
		"stream":   stream,
	})
}

// EndStream declares the winner
// POST /api/streams/:id/end
func (h *StreamHandler) EndStream(c *gin.Context) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	var req models.EndStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stream, err := h.marketService.End(c.Request.Context(), caller, streamID, req.WinningTeam)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondStream(c, http.StatusOK, stream)
}

// ClaimWinnings pays out the caller's winning shares
// POST /api/streams/:id/claim
func (h *StreamHandler) ClaimWinnings(c *gin.Context) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	res, err := h.marketService.Claim(c.Request.Context(), caller, streamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// EmergencyWithdraw drains an ended stream's vault to its authority
// POST /api/streams/:id/emergency-withdraw
func (h *StreamHandler) EmergencyWithdraw(c *gin.Context) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	amount, err := h.marketService.EmergencyWithdraw(c.Request.Context(), caller, streamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream_id": streamID, "amount": amount})
}

// GetPosition retrieves a user's position in a stream
// GET /api/streams/:id/positions/:user
func (h *StreamHandler) GetPosition(c *gin.Context) {
	streamID, ok := parseStreamID(c)
	if !ok {
		return
	}

	position, err := h.marketService.GetPosition(c.Request.Context(), streamID, c.Param("user"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	account, err := h.addresses.PositionAddress(streamID, position.User)
	if err != nil {
		h.log.Debug().Err(err).Str("user", position.User).Msg("position address not derivable")
	}
	c.JSON(http.StatusOK, gin.H{
		"position": position,
		"account":  account,
	})
}

// GetUserPositions retrieves all positions of a user
// GET /api/positions/:user
func (h *StreamHandler) GetUserPositions(c *gin.Context) {
	positions, err := h.marketService.ListUserPositions(c.Request.Context(), c.Param("user"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"positions": positions,
		"total":     len(positions),
	})
}
