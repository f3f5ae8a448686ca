package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stream-market/internal/auth"
	"stream-market/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	walletService *services.WalletService
	marketService *services.MarketService
	log           zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(walletService *services.WalletService, marketService *services.MarketService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		walletService: walletService,
		marketService: marketService,
		log:           log,
	}
}

// WalletLogin authenticates a caller by their Solana wallet address and a
// signature of auth.LoginMessage.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := auth.VerifyLogin(req.WalletAddress, req.Signature); err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrInvalidAddress) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.GenerateToken(req.WalletAddress)
	if err != nil {
		h.log.Error().Err(err).Str("wallet", req.WalletAddress).Msg("failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	h.log.Info().Str("wallet", req.WalletAddress).Msg("wallet login")
	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"wallet_address": req.WalletAddress,
		"expires_in":     int(auth.TokenTTL.Seconds()),
	})
}

// Logout handles logout (stateless JWT, client-side only)
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}

// GetMe returns the caller's wallet, balance and positions
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	wallet, ok := callerOf(c)
	if !ok {
		return
	}

	balance, err := h.walletService.Balance(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	positions, err := h.marketService.ListUserPositions(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address": wallet,
		"balance":        balance,
		"positions":      positions,
	})
}
