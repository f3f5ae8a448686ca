package escrow

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stream-market/internal/apperr"
	"stream-market/internal/fixedpoint"
	"stream-market/internal/models"
)

func findWallet(ctx context.Context, tx *gorm.DB, address string) (*models.WalletAccount, error) {
	var wallet models.WalletAccount
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", address).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// creditWallet adds amount to a wallet, creating it on first credit.
func creditWallet(ctx context.Context, tx *gorm.DB, address string, amount uint64) error {
	wallet, err := findWallet(ctx, tx, address)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = &models.WalletAccount{Address: address, Balance: amount}
		if err := tx.WithContext(ctx).Create(wallet).Error; err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}

	if wallet.Balance, err = fixedpoint.Add(wallet.Balance, amount); err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Save(wallet).Error; err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	return nil
}

// Fund mints amount into a wallet. It backs the development airdrop and has
// no vault counterpart.
func Fund(ctx context.Context, db *gorm.DB, address string, amount uint64) (*models.WalletAccount, error) {
	if amount == 0 {
		return nil, apperr.ErrInvalidAmount
	}
	var wallet *models.WalletAccount
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := creditWallet(ctx, tx, address, amount); err != nil {
			return err
		}
		var err error
		wallet, err = findWallet(ctx, tx, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// WalletBalance returns a wallet's balance; unknown wallets hold zero.
func WalletBalance(ctx context.Context, db *gorm.DB, address string) (uint64, error) {
	var wallet models.WalletAccount
	err := db.WithContext(ctx).Where("address = ?", address).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load wallet: %w", err)
	}
	return wallet.Balance, nil
}
