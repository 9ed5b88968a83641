package common

import (
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// MintKind tells standard Metaplex NFTs apart from Bubblegum compressed ones.
type MintKind string

const (
	Standard   MintKind = "standard"
	Compressed MintKind = "compressed"
)

// UserRecord is one CSV row that resolved to a Solana wallet.
type UserRecord struct {
	ID            string `json:"id"`
	SolanaAddress string `json:"solana_address"`
}

// LinkedAccountEntry is one element of the linked_accounts column.
type LinkedAccountEntry struct {
	Type      string `json:"type"`
	ChainType string `json:"chain_type"`
	Address   string `json:"address"`
}

const SolanaAddrLen = 32

type SolanaAddress [SolanaAddrLen]byte

func SolanaAddressFromString(addrStr string) (addr SolanaAddress, err error) {
	val, err := base58.Decode(addrStr)
	if err != nil {
		return addr, fmt.Errorf("decode: %w", err)
	}
	if len(val) != SolanaAddrLen {
		return addr, fmt.Errorf("invalid length, expected %v, got %d", SolanaAddrLen, len(val))
	}
	copy(addr[:], val)
	return
}

func (addr SolanaAddress) String() string {
	return base58.Encode(addr[:])
}

// MintRecord is what the checkpoint store remembers about a finished mint.
type MintRecord struct {
	Network     string    `json:"network"`
	Kind        MintKind  `json:"kind"`
	Address     string    `json:"address"`
	MintAddress string    `json:"mint_address"`
	Signature   string    `json:"signature"`
	MintedAt    time.Time `json:"minted_at"`
}

// MintFailure is a recipient that could not be minted to.
type MintFailure struct {
	Address string `json:"address"`
	Error   string `json:"error"`
}
