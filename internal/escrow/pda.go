package escrow

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

func streamIDSeed(streamID uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, streamID)
	return b
}

// StreamPDA derives the address of a stream account
func StreamPDA(programID solana.PublicKey, streamID uint64) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress([][]byte{[]byte("stream"), streamIDSeed(streamID)}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive stream PDA: %w", err)
	}
	return pda, bump, nil
}

// VaultPDA derives the address of the vault that custodies a stream's lamports
func VaultPDA(programID solana.PublicKey, streamID uint64) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress([][]byte{[]byte("stream_vault"), streamIDSeed(streamID)}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive vault PDA: %w", err)
	}
	return pda, bump, nil
}

// PositionPDA derives the address of a user's position in a stream
func PositionPDA(programID solana.PublicKey, streamID uint64, user solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte("user_position"),
		streamIDSeed(streamID),
		user.Bytes(),
	}
	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive position PDA: %w", err)
	}
	return pda, bump, nil
}
