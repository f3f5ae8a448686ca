package blockchain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"stream-market/internal/escrow"
)

// SolanaClient reads vault accounts from a Solana RPC node so the custody
// ledger can be compared with what the program holds on chain.
type SolanaClient struct {
	rpcClient *rpc.Client
	rpcURL    string
	programID solana.PublicKey
}

// NewSolanaClient creates a new Solana client
func NewSolanaClient(rpcURL string, programID solana.PublicKey) *SolanaClient {
	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		rpcURL:    rpcURL,
		programID: programID,
	}
}

// GetLamports returns the confirmed lamport balance of an account
func (s *SolanaClient) GetLamports(ctx context.Context, address string) (uint64, error) {
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid account address %q: %w", address, err)
	}

	balance, err := s.rpcClient.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance %s: %w", address, err)
	}
	return balance.Value, nil
}

// VaultLamports returns the on-chain balance of a stream's vault PDA
func (s *SolanaClient) VaultLamports(ctx context.Context, streamID uint64) (uint64, error) {
	pda, _, err := escrow.VaultPDA(s.programID, streamID)
	if err != nil {
		return 0, err
	}
	return s.GetLamports(ctx, pda.String())
}
