package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// LoginMessage is the text a wallet signs to obtain a token
const LoginMessage = "Sign this message to authenticate with Stream Market"

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// ValidateAddress checks that address is a base58 Solana public key.
func ValidateAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, ErrInvalidAddress
	}
	return pk, nil
}

// VerifyLogin checks that signature is address's ed25519 signature of
// LoginMessage. Signatures are accepted in base58 or hex.
func VerifyLogin(address, signature string) error {
	pk, err := ValidateAddress(address)
	if err != nil {
		return err
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		sig, err = hex.DecodeString(signature)
		if err != nil {
			return ErrInvalidSignature
		}
	}
	if len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}

	if !ed25519.Verify(ed25519.PublicKey(pk.Bytes()), []byte(LoginMessage), sig) {
		return ErrInvalidSignature
	}
	return nil
}
