package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stream-market/internal/models"
	"stream-market/internal/services"
)

// WalletHandler handles wallet balance endpoints
type WalletHandler struct {
	walletService *services.WalletService
	log           zerolog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *services.WalletService, log zerolog.Logger) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		log:           log,
	}
}

// GetBalance returns the caller's spendable lamports
// GET /api/wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	wallet, ok := callerOf(c)
	if !ok {
		return
	}

	balance, err := h.walletService.Balance(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet_address": wallet, "balance": balance})
}

// Airdrop credits test lamports to the caller
// POST /api/wallet/airdrop
func (h *WalletHandler) Airdrop(c *gin.Context) {
	if !h.walletService.AirdropEnabled() {
		c.JSON(http.StatusForbidden, gin.H{"error": "airdrop disabled"})
		return
	}
	wallet, ok := callerOf(c)
	if !ok {
		return
	}

	var req models.AirdropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.walletService.Airdrop(c.Request.Context(), wallet, req.Amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet_address": account.Address, "balance": account.Balance})
}
