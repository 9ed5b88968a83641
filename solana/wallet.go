package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	ErrMissingKey  = errors.New("wallet private key is empty")
	ErrKeyMismatch = errors.New("private key does not match its public key")
)

// PrivateKeyFromBase58 decodes a base58 encoded 64 byte ed25519 secret key,
// the format printed by wallets on export.
func PrivateKeyFromBase58(encoded string) (solana.PrivateKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMissingKey
	}
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("cannot decode private key: %w", err)
	}
	if len(raw) != solana.PrivateKeyLength {
		return nil, fmt.Errorf("invalid private key length: expected %d, got %d", solana.PrivateKeyLength, len(raw))
	}
	// The second half of the secret key must be the public key of the seed.
	if !bytes.Equal(ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize]), raw) {
		return nil, ErrKeyMismatch
	}
	return solana.PrivateKey(raw), nil
}
