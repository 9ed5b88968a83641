package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// On-chain limits of the Token Metadata program.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxSellerFee    = 10000
)

// NFTMetadata is the on-chain part of NFT metadata. URI points to the
// off-chain JSON document.
type NFTMetadata struct {
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	URI                  string `json:"uri"`
	SellerFeeBasisPoints uint16 `json:"seller_fee_basis_points"`
}

func (m NFTMetadata) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidMetadata)
	case len(m.Name) > MaxNameLength:
		return fmt.Errorf("%w: name is longer than %d bytes", ErrInvalidMetadata, MaxNameLength)
	case len(m.Symbol) > MaxSymbolLength:
		return fmt.Errorf("%w: symbol is longer than %d bytes", ErrInvalidMetadata, MaxSymbolLength)
	case m.URI == "":
		return fmt.Errorf("%w: empty uri", ErrInvalidMetadata)
	case len(m.URI) > MaxURILength:
		return fmt.Errorf("%w: uri is longer than %d bytes", ErrInvalidMetadata, MaxURILength)
	case m.SellerFeeBasisPoints > MaxSellerFee:
		return fmt.Errorf("%w: seller fee %d exceeds %d basis points", ErrInvalidMetadata, m.SellerFeeBasisPoints, MaxSellerFee)
	}
	return nil
}

// The payer is the only creator and signs every mint, so it is verified.
func payerCreators(payer solana.PublicKey) []creator {
	return []creator{
		{
			Address:  payer,
			Verified: true,
			Share:    100,
		},
	}
}

func (m NFTMetadata) dataV2(payer solana.PublicKey) dataV2 {
	creators := payerCreators(payer)
	return dataV2{
		Name:                 m.Name,
		Symbol:               m.Symbol,
		Uri:                  m.URI,
		SellerFeeBasisPoints: m.SellerFeeBasisPoints,
		Creators:             &creators,
	}
}

func (m NFTMetadata) metadataArgs(payer solana.PublicKey) metadataArgs {
	standard := tokenStandardNonFungible
	return metadataArgs{
		Name:                 m.Name,
		Symbol:               m.Symbol,
		Uri:                  m.URI,
		SellerFeeBasisPoints: m.SellerFeeBasisPoints,
		IsMutable:            true,
		TokenStandard:        &standard,
		Creators:             payerCreators(payer),
	}
}
