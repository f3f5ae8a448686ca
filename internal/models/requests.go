package models

import (
	"github.com/shopspring/decimal"

	"stream-market/internal/amm"
)

// Numeric fields carry no "required" binding: zero values must reach the
// engine so it can report InvalidAmount, InvalidPrice or InvalidTeam.

// InitializeStreamRequest represents the request to open a new stream
type InitializeStreamRequest struct {
	StreamID         uint64 `json:"stream_id"`
	TeamAName        string `json:"team_a_name" binding:"required"`
	TeamBName        string `json:"team_b_name" binding:"required"`
	InitialLiquidity uint64 `json:"initial_liquidity"`
	Duration         int64  `json:"duration"` // seconds
	StreamLink       string `json:"stream_link"`
}

// TradeRequest is the body of a buy (amount in lamports) or a sell (amount in
// shares).
type TradeRequest struct {
	TeamID amm.Team `json:"team_id"`
	Amount uint64   `json:"amount"`
}

type EndStreamRequest struct {
	WinningTeam amm.Team `json:"winning_team"`
}

type AirdropRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

// StreamResponse represents the API response for a stream
type StreamResponse struct {
	Stream
	Account      string          `json:"account,omitempty"`
	IsActive     bool            `json:"is_active"`
	TeamAPrice   uint64          `json:"team_a_price"`
	TeamBPrice   uint64          `json:"team_b_price"`
	TeamAPriceUI decimal.Decimal `json:"team_a_price_ui"`
	TeamBPriceUI decimal.Decimal `json:"team_b_price_ui"`
	TotalPoolSOL decimal.Decimal `json:"total_pool_sol"`
}

// QuoteResponse previews a trade without executing it
type QuoteResponse struct {
	amm.Trade
	Side          string          `json:"side"` // buy or sell
	PriceBeforeUI decimal.Decimal `json:"price_before_ui"`
	PriceAfterUI  decimal.Decimal `json:"price_after_ui"`
}

// ClaimResponse reports a redeemed payout
type ClaimResponse struct {
	Position UserPosition `json:"position"`
	Payout   uint64       `json:"payout"`
}
