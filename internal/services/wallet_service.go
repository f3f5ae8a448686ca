package services

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"stream-market/internal/escrow"
	"stream-market/internal/models"
)

// WalletService exposes user wallet balances and the development faucet
type WalletService struct {
	db           *gorm.DB
	allowAirdrop bool
	log          zerolog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(db *gorm.DB, allowAirdrop bool, log zerolog.Logger) *WalletService {
	return &WalletService{db: db, allowAirdrop: allowAirdrop, log: log}
}

func (s *WalletService) AirdropEnabled() bool {
	return s.allowAirdrop
}

// Balance returns the spendable lamports of a wallet
func (s *WalletService) Balance(ctx context.Context, address string) (uint64, error) {
	return escrow.WalletBalance(ctx, s.db, address)
}

// Airdrop credits amount lamports to a wallet. Callers must check
// AirdropEnabled first.
func (s *WalletService) Airdrop(ctx context.Context, address string, amount uint64) (*models.WalletAccount, error) {
	wallet, err := escrow.Fund(ctx, s.db, address, amount)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("wallet", address).Uint64("amount", amount).Msg("airdrop credited")
	return wallet, nil
}
