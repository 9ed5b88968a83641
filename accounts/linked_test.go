package accounts

import (
	"fmt"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
	"gitlab.com/scpcorp/nft-minter/common"
)

func TestExtractSolanaAddress(t *testing.T) {
	cases := []struct {
		name string
		text string
		addr string
		err  error
	}{
		{
			name: "example row",
			text: `[{'type': 'wallet', 'chain_type': 'solana', 'address': 'AbC123'}, {'type': 'email'}]`,
			addr: "AbC123",
		},
		{
			name: "camel case chain type",
			text: `[{'type': 'wallet', 'chainType': 'solana', 'address': 'Xyz'}]`,
			addr: "Xyz",
		},
		{
			name: "first solana wallet wins",
			text: `[{'type': 'wallet', 'chain_type': 'ethereum', 'address': '0xabc'}, {'type': 'wallet', 'chain_type': 'solana', 'address': 'First'}, {'type': 'wallet', 'chain_type': 'solana', 'address': 'Second'}]`,
			addr: "First",
		},
		{
			name: "python literals",
			text: `[{'type': 'email', 'address': None, 'verified': True}, {'type': 'wallet', 'chain_type': 'solana', 'address': 'Sol1', 'imported': False}]`,
			addr: "Sol1",
		},
		{
			name: "no wallet",
			text: `[{'type': 'email', 'address': 'a@b.c'}]`,
			err:  ErrNoSolanaWallet,
		},
		{
			name: "ethereum only",
			text: `[{'type': 'wallet', 'chain_type': 'ethereum', 'address': '0xabc'}]`,
			err:  ErrNoSolanaWallet,
		},
		{
			name: "empty",
			text: ``,
			err:  ErrNoSolanaWallet,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := ExtractSolanaAddress(tc.text)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.addr, addr)
		})
	}
}

func TestExtractSolanaAddressMalformed(t *testing.T) {
	for _, text := range []string{
		`[{'type': 'wallet'`,
		`not json at all`,
		`{'type': 'wallet'}`,
		`[{'type': 5}]`,
	} {
		_, err := ExtractSolanaAddress(text)
		require.Error(t, err, text)
		require.NotErrorIs(t, err, ErrNoSolanaWallet, text)
	}
}

func TestExtractFuzzedAddresses(t *testing.T) {
	f := fuzz.New()
	for i := 0; i < 20; i++ {
		var addr common.SolanaAddress
		f.Fuzz(&addr)
		text := fmt.Sprintf(`[{'type': 'email', 'verified': True}, {'type': 'wallet', 'chain_type': 'solana', 'address': '%s', 'delegated': None}]`, addr)
		got, err := ExtractSolanaAddress(text)
		require.NoError(t, err)
		require.Equal(t, addr.String(), got)
	}
}
