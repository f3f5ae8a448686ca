package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VaultAccount custodies the lamports paid into one stream.
type VaultAccount struct {
	StreamID   uint64    `gorm:"primaryKey;autoIncrement:false" json:"stream_id"`
	Address    string    `gorm:"size:64;uniqueIndex;not null" json:"address"`
	Controller string    `gorm:"size:64;not null" json:"controller"`
	Bump       uint8     `gorm:"not null;default:0" json:"bump"`
	Balance    uint64    `gorm:"not null;default:0" json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (VaultAccount) TableName() string {
	return "vault_accounts"
}

// WalletAccount is a user's spendable balance. Buys draw from it and payouts
// land in it.
type WalletAccount struct {
	Address   string    `gorm:"primaryKey;size:64" json:"address"`
	Balance   uint64    `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

type VaultEntryKind string

const (
	VaultEntryDebit  VaultEntryKind = "DEBIT"  // wallet -> vault
	VaultEntryCredit VaultEntryKind = "CREDIT" // vault -> wallet
	VaultEntryDrain  VaultEntryKind = "DRAIN"
)

// VaultEntry is an append-only journal line for every custody movement.
type VaultEntry struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StreamID     uint64         `gorm:"not null;index" json:"stream_id"`
	Kind         VaultEntryKind `gorm:"size:16;not null" json:"kind"`
	Counterparty string         `gorm:"size:64;not null;index" json:"counterparty"`
	Amount       uint64         `gorm:"not null" json:"amount"`
	BalanceAfter uint64         `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (VaultEntry) TableName() string {
	return "vault_entries"
}

func (e *VaultEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
