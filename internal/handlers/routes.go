package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stream-market/internal/auth"
)

// Handlers groups every HTTP handler served by the API
type Handlers struct {
	Auth   *AuthHandler
	Stream *StreamHandler
	Event  *EventHandler
	Wallet *WalletHandler
}

// RegisterRoutes mounts the public and authenticated API on router
func RegisterRoutes(router *gin.Engine, h Handlers) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", h.Auth.WalletLogin)
		authRoutes.POST("/logout", h.Auth.Logout)
	}

	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", h.Auth.GetMe)
	}

	// Public read routes
	public := router.Group("/api")
	{
		public.GET("/streams", h.Stream.GetStreams)
		public.GET("/streams/:id", h.Stream.GetStream)
		public.GET("/streams/:id/quote", h.Stream.GetQuote)
		public.GET("/streams/:id/vault", h.Event.GetVault)
		public.GET("/streams/:id/positions/:user", h.Stream.GetPosition)
		public.GET("/positions/:user", h.Stream.GetUserPositions)
		public.GET("/events", h.Event.ListEvents)
		public.GET("/chain/diagnostics", h.Event.GetChainDiagnostics)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/streams", h.Stream.InitializeStream)
		api.POST("/streams/:id/buy", h.Stream.Buy)
		api.POST("/streams/:id/sell", h.Stream.Sell)
		api.POST("/streams/:id/end", h.Stream.EndStream)
		api.POST("/streams/:id/claim", h.Stream.ClaimWinnings)
		api.POST("/streams/:id/emergency-withdraw", h.Stream.EmergencyWithdraw)

		api.GET("/wallet", h.Wallet.GetBalance)
		api.POST("/wallet/airdrop", h.Wallet.Airdrop)
	}
}
