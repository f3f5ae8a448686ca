package blockchain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"stream-market/internal/escrow"
)

// DiagnosticResult holds the result of a Solana connectivity diagnostic
type DiagnosticResult struct {
	RPCConnected    bool   `json:"rpc_connected"`
	RPCURL          string `json:"rpc_url"`
	RPCError        string `json:"rpc_error,omitempty"`
	LatestBlockhash string `json:"latest_blockhash,omitempty"`
	ProgramID       string `json:"program_id"`
	TestVaultPDA    string `json:"test_vault_pda,omitempty"`
	PDAError        string `json:"pda_error,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// RunDiagnostics checks RPC connectivity and vault address derivation
func (s *SolanaClient) RunDiagnostics(ctx context.Context) *DiagnosticResult {
	result := &DiagnosticResult{
		Timestamp: time.Now().Format(time.RFC3339),
		RPCURL:    s.rpcURL,
		ProgramID: s.programID.String(),
	}

	blockhash, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		result.RPCError = err.Error()
	} else {
		result.RPCConnected = true
		result.LatestBlockhash = blockhash.Value.Blockhash.String()
	}

	pda, _, err := escrow.VaultPDA(s.programID, 0)
	if err != nil {
		result.PDAError = err.Error()
	} else {
		result.TestVaultPDA = pda.String()
	}

	return result
}
