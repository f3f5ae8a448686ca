// Package escrow custodies the lamports behind each stream.
//
// Every stream has one vault whose address is the program-derived address of
// ["stream_vault", le64(stream_id)]. Movements run inside the caller's gorm
// transaction so custody commits or rolls back together with market state.
package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stream-market/internal/apperr"
	"stream-market/internal/fixedpoint"
	"stream-market/internal/models"
)

// Escrow moves value between user wallets and stream vaults.
type Escrow interface {
	// Open creates the vault of a new stream.
	Open(ctx context.Context, tx *gorm.DB, streamID uint64) (*models.VaultAccount, error)
	// Debit moves amount from a user's wallet into the vault.
	Debit(ctx context.Context, tx *gorm.DB, streamID uint64, from string, amount uint64) error
	// Credit moves amount from the vault to a user's wallet.
	Credit(ctx context.Context, tx *gorm.DB, streamID uint64, to string, amount uint64) error
	// Balance returns the value held by the vault.
	Balance(ctx context.Context, tx *gorm.DB, streamID uint64) (uint64, error)
	// DrainAll moves everything in the vault to a wallet and returns the amount.
	DrainAll(ctx context.Context, tx *gorm.DB, streamID uint64, to string) (uint64, error)
}

// Ledger is the database-backed Escrow. Only vaults opened under its
// controller identity can be moved by it.
type Ledger struct {
	programID  solana.PublicKey
	controller string
}

func NewLedger(programID solana.PublicKey, controller string) *Ledger {
	return &Ledger{programID: programID, controller: controller}
}

var _ Escrow = (*Ledger)(nil)

// VaultAddress returns the derived vault address for a stream.
func (l *Ledger) VaultAddress(streamID uint64) (string, error) {
	pda, _, err := VaultPDA(l.programID, streamID)
	if err != nil {
		return "", err
	}
	return pda.String(), nil
}

// StreamAddress returns the derived account address of a stream.
func (l *Ledger) StreamAddress(streamID uint64) (string, error) {
	pda, _, err := StreamPDA(l.programID, streamID)
	if err != nil {
		return "", err
	}
	return pda.String(), nil
}

// PositionAddress returns the derived account address of user's position.
func (l *Ledger) PositionAddress(streamID uint64, user string) (string, error) {
	owner, err := solana.PublicKeyFromBase58(user)
	if err != nil {
		return "", fmt.Errorf("invalid user address %q: %w", user, err)
	}
	pda, _, err := PositionPDA(l.programID, streamID, owner)
	if err != nil {
		return "", err
	}
	return pda.String(), nil
}

func (l *Ledger) Open(ctx context.Context, tx *gorm.DB, streamID uint64) (*models.VaultAccount, error) {
	pda, bump, err := VaultPDA(l.programID, streamID)
	if err != nil {
		return nil, err
	}
	vault := &models.VaultAccount{
		StreamID:   streamID,
		Address:    pda.String(),
		Controller: l.controller,
		Bump:       bump,
	}
	if err := tx.WithContext(ctx).Create(vault).Error; err != nil {
		return nil, fmt.Errorf("open vault %d: %w", streamID, err)
	}
	return vault, nil
}

func (l *Ledger) Debit(ctx context.Context, tx *gorm.DB, streamID uint64, from string, amount uint64) error {
	vault, err := l.vault(ctx, tx, streamID)
	if err != nil {
		return err
	}
	wallet, err := findWallet(ctx, tx, from)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrInsufficientFunds
	}
	if err != nil {
		return err
	}
	if wallet.Balance < amount {
		return apperr.ErrInsufficientFunds
	}

	if vault.Balance, err = fixedpoint.Add(vault.Balance, amount); err != nil {
		return err
	}
	wallet.Balance -= amount

	if err := tx.WithContext(ctx).Save(wallet).Error; err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}
	return l.commit(ctx, tx, vault, models.VaultEntryDebit, from, amount)
}

func (l *Ledger) Credit(ctx context.Context, tx *gorm.DB, streamID uint64, to string, amount uint64) error {
	vault, err := l.vault(ctx, tx, streamID)
	if err != nil {
		return err
	}
	if vault.Balance < amount {
		return apperr.ErrInsufficientFunds
	}
	vault.Balance -= amount

	if err := creditWallet(ctx, tx, to, amount); err != nil {
		return err
	}
	return l.commit(ctx, tx, vault, models.VaultEntryCredit, to, amount)
}

func (l *Ledger) Balance(ctx context.Context, tx *gorm.DB, streamID uint64) (uint64, error) {
	vault, err := l.vault(ctx, tx, streamID)
	if err != nil {
		return 0, err
	}
	return vault.Balance, nil
}

func (l *Ledger) DrainAll(ctx context.Context, tx *gorm.DB, streamID uint64, to string) (uint64, error) {
	vault, err := l.vault(ctx, tx, streamID)
	if err != nil {
		return 0, err
	}
	amount := vault.Balance
	vault.Balance = 0

	if err := creditWallet(ctx, tx, to, amount); err != nil {
		return 0, err
	}
	if err := l.commit(ctx, tx, vault, models.VaultEntryDrain, to, amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// vault loads and locks a vault, checking that this ledger controls it.
func (l *Ledger) vault(ctx context.Context, tx *gorm.DB, streamID uint64) (*models.VaultAccount, error) {
	var vault models.VaultAccount
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stream_id = ?", streamID).
		First(&vault).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrStreamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load vault %d: %w", streamID, err)
	}
	if vault.Controller != l.controller {
		return nil, apperr.ErrUnauthorized
	}
	return &vault, nil
}

func (l *Ledger) commit(ctx context.Context, tx *gorm.DB, vault *models.VaultAccount, kind models.VaultEntryKind, counterparty string, amount uint64) error {
	if err := tx.WithContext(ctx).Save(vault).Error; err != nil {
		return fmt.Errorf("update vault %d: %w", vault.StreamID, err)
	}
	entry := &models.VaultEntry{
		StreamID:     vault.StreamID,
		Kind:         kind,
		Counterparty: counterparty,
		Amount:       amount,
		BalanceAfter: vault.Balance,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("journal vault %d: %w", vault.StreamID, err)
	}
	return nil
}

// Entries returns the journal of a vault, oldest first.
func Entries(ctx context.Context, db *gorm.DB, streamID uint64) ([]models.VaultEntry, error) {
	var entries []models.VaultEntry
	err := db.WithContext(ctx).
		Where("stream_id = ?", streamID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list vault entries: %w", err)
	}
	return entries, nil
}
