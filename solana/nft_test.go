package solana

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNFTMetadataValidate(t *testing.T) {
	ok := NFTMetadata{Name: "Cat", Symbol: "CAT", URI: "https://arweave.net/abc", SellerFeeBasisPoints: 500}
	require.NoError(t, ok.Validate())

	bad := []NFTMetadata{
		{Symbol: "CAT", URI: "u"},
		{Name: strings.Repeat("n", MaxNameLength+1), URI: "u"},
		{Name: "Cat", Symbol: strings.Repeat("s", MaxSymbolLength+1), URI: "u"},
		{Name: "Cat"},
		{Name: "Cat", URI: strings.Repeat("u", MaxURILength+1)},
		{Name: "Cat", URI: "u", SellerFeeBasisPoints: 10001},
	}
	for _, m := range bad {
		require.ErrorIs(t, m.Validate(), ErrInvalidMetadata, "%+v", m)
	}
}
