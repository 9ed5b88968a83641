package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/scpcorp/nft-minter/common"
)

const (
	typeWallet      = "wallet"
	chainTypeSolana = "solana"
)

var ErrNoSolanaWallet = errors.New("no solana wallet in linked accounts")

// The export is not consistent about the chain type key.
type rawEntry struct {
	Type           *string `json:"type"`
	ChainType      *string `json:"chain_type"`
	ChainTypeCamel *string `json:"chainType"`
	Address        *string `json:"address"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseLinkedAccounts normalizes text and decodes it as a list of entries.
func ParseLinkedAccounts(text string) ([]common.LinkedAccountEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var raw []rawEntry
	if err := json.Unmarshal([]byte(Normalize(text)), &raw); err != nil {
		return nil, fmt.Errorf("decode linked accounts: %w", err)
	}
	entries := make([]common.LinkedAccountEntry, 0, len(raw))
	for _, r := range raw {
		chainType := deref(r.ChainType)
		if chainType == "" {
			chainType = deref(r.ChainTypeCamel)
		}
		entries = append(entries, common.LinkedAccountEntry{
			Type:      deref(r.Type),
			ChainType: chainType,
			Address:   deref(r.Address),
		})
	}
	return entries, nil
}

// SolanaAddress returns the address of the first Solana wallet entry.
func SolanaAddress(entries []common.LinkedAccountEntry) (string, bool) {
	for _, e := range entries {
		if e.Type == typeWallet && e.ChainType == chainTypeSolana && e.Address != "" {
			return e.Address, true
		}
	}
	return "", false
}

// ExtractSolanaAddress is ParseLinkedAccounts followed by SolanaAddress.
func ExtractSolanaAddress(text string) (string, error) {
	entries, err := ParseLinkedAccounts(text)
	if err != nil {
		return "", err
	}
	addr, ok := SolanaAddress(entries)
	if !ok {
		return "", ErrNoSolanaWallet
	}
	return addr, nil
}
