package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stream-market/internal/apperr"
	"stream-market/internal/auth"
	"stream-market/internal/clock"
	"stream-market/internal/database"
	"stream-market/internal/escrow"
	"stream-market/internal/services"
)

type testServer struct {
	router *gin.Engine
	clock  *clock.Fixed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWT("handler-test-secret")

	db := database.OpenTest(t)
	ledger := escrow.NewLedger(solana.MustPublicKeyFromBase58("11111111111111111111111111111111"), "controller")
	clk := clock.NewFixed(1_700_000_000)
	log := zerolog.Nop()

	marketService := services.NewMarketService(db, ledger, services.WithClock(clk), services.WithLogger(log))
	walletService := services.NewWalletService(db, true, log)

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Auth:   NewAuthHandler(walletService, marketService, log),
		Stream: NewStreamHandler(marketService, ledger, log),
		Event:  NewEventHandler(marketService, nil, log),
		Wallet: NewWalletHandler(walletService, log),
	})
	return &testServer{router: router, clock: clk}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, wallet string) string {
	t.Helper()
	token, err := auth.GenerateToken(wallet)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    apperr.Code
		status int
	}{
		{apperr.ErrInvalidAmount, http.StatusBadRequest},
		{apperr.ErrMathOverflow, http.StatusBadRequest},
		{apperr.ErrUnauthorized, http.StatusForbidden},
		{apperr.ErrStreamNotFound, http.StatusNotFound},
		{apperr.ErrStreamEnded, http.StatusConflict},
		{apperr.ErrInsufficientFunds, http.StatusConflict},
		{apperr.ErrStreamExists, http.StatusConflict},
		{apperr.ErrCorruptState, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Name(), func(t *testing.T) {
			if got := statusFor(tt.err.Kind()); got != tt.status {
				t.Errorf("statusFor(%s) = %d, want %d", tt.err.Name(), got, tt.status)
			}
		})
	}
}

func TestRespondErrorHidesUnknownErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/known", func(c *gin.Context) {
		respondError(c, zerolog.Nop(), fmt.Errorf("buy: %w", apperr.ErrInvalidTeam))
	})
	router.GET("/unknown", func(c *gin.Context) {
		respondError(c, zerolog.Nop(), errors.New("connection reset"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/known", nil))
	var body map[string]string
	decode(t, w, &body)
	if w.Code != http.StatusBadRequest || body["code"] != "InvalidTeam" {
		t.Errorf("known: status %d body %v", w.Code, body)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	decode(t, w, &body)
	if w.Code != http.StatusInternalServerError || body["error"] != "internal error" {
		t.Errorf("unknown: status %d body %v", w.Code, body)
	}
}

func TestTradingRoundTrip(t *testing.T) {
	s := newTestServer(t)
	authority := solana.NewWallet().PublicKey().String()
	trader := solana.NewWallet().PublicKey().String()
	authorityToken := tokenFor(t, authority)
	traderToken := tokenFor(t, trader)

	w := s.do(t, http.MethodPost, "/api/streams", authorityToken, map[string]any{
		"stream_id":         1,
		"team_a_name":       "Red",
		"team_b_name":       "Blue",
		"initial_liquidity": 1000,
		"duration":          3600,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("initialize: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/wallet/airdrop", traderToken, map[string]any{"amount": 1000})
	if w.Code != http.StatusOK {
		t.Fatalf("airdrop: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/streams/1/quote?team_id=1&side=buy&amount=100", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("quote: %d %s", w.Code, w.Body.String())
	}
	var quote struct {
		AmountOut uint64 `json:"amount_out"`
	}
	decode(t, w, &quote)
	if quote.AmountOut != 83 {
		t.Errorf("quoted shares = %d, want 83", quote.AmountOut)
	}

	w = s.do(t, http.MethodPost, "/api/streams/1/buy", traderToken, map[string]any{"team_id": 1, "amount": 100})
	if w.Code != http.StatusOK {
		t.Fatalf("buy: %d %s", w.Code, w.Body.String())
	}
	var bought struct {
		Trade struct {
			AmountOut uint64 `json:"amount_out"`
		} `json:"trade"`
		Position struct {
			TeamAShares uint64 `json:"team_a_shares"`
		} `json:"position"`
		Stream struct {
			TotalPool uint64 `json:"total_pool"`
		} `json:"stream"`
	}
	decode(t, w, &bought)
	if bought.Trade.AmountOut != 83 || bought.Position.TeamAShares != 83 || bought.Stream.TotalPool != 100 {
		t.Errorf("buy response = %+v", bought)
	}

	w = s.do(t, http.MethodGet, "/api/wallet", traderToken, nil)
	var wallet struct {
		Balance uint64 `json:"balance"`
	}
	decode(t, w, &wallet)
	if wallet.Balance != 900 {
		t.Errorf("wallet balance = %d, want 900", wallet.Balance)
	}

	w = s.do(t, http.MethodGet, "/api/streams/1/positions/"+trader, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("position: %d %s", w.Code, w.Body.String())
	}
	var position struct {
		Account string `json:"account"`
	}
	decode(t, w, &position)
	if position.Account == "" {
		t.Error("position account address missing")
	}

	// The trader is not the authority.
	w = s.do(t, http.MethodPost, "/api/streams/1/end", traderToken, map[string]any{"winning_team": 1})
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign end: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/streams/1/end", authorityToken, map[string]any{"winning_team": 1})
	if w.Code != http.StatusConflict {
		t.Errorf("early end: %d %s", w.Code, w.Body.String())
	}

	s.clock.Advance(3600)
	w = s.do(t, http.MethodPost, "/api/streams/1/end", authorityToken, map[string]any{"winning_team": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("end: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/streams/1/claim", traderToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("claim: %d %s", w.Code, w.Body.String())
	}
	var claim struct {
		Payout uint64 `json:"payout"`
	}
	decode(t, w, &claim)
	if claim.Payout != 100 {
		t.Errorf("payout = %d, want 100", claim.Payout)
	}

	w = s.do(t, http.MethodPost, "/api/streams/1/claim", traderToken, nil)
	var body map[string]string
	decode(t, w, &body)
	if w.Code != http.StatusConflict || body["code"] != "AlreadyClaimed" {
		t.Errorf("second claim: %d %v", w.Code, body)
	}

	w = s.do(t, http.MethodGet, "/api/events?stream_id=1", "", nil)
	var logged struct {
		Total int `json:"total"`
	}
	decode(t, w, &logged)
	if logged.Total != 4 {
		t.Errorf("logged events = %d, want 4", logged.Total)
	}
}

func TestStreamRequestErrors(t *testing.T) {
	s := newTestServer(t)
	token := tokenFor(t, solana.NewWallet().PublicKey().String())

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"missing stream", http.MethodGet, "/api/streams/99", "", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/streams/abc", "", nil, http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/api/streams?status=OPEN", "", nil, http.StatusBadRequest},
		{"unauthenticated buy", http.MethodPost, "/api/streams/1/buy", "", map[string]any{"team_id": 1, "amount": 1}, http.StatusUnauthorized},
		{"buy missing stream", http.MethodPost, "/api/streams/99/buy", token, map[string]any{"team_id": 1, "amount": 1}, http.StatusNotFound},
		{"odd liquidity", http.MethodPost, "/api/streams", token, map[string]any{
			"stream_id": 2, "team_a_name": "A", "team_b_name": "B", "initial_liquidity": 1001, "duration": 60,
		}, http.StatusBadRequest},
		{"no chain configured", http.MethodGet, "/api/chain/diagnostics", "", nil, http.StatusNotFound},
		{"quote bad side", http.MethodGet, "/api/streams/1/quote?team_id=1&side=hold&amount=1", "", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}
