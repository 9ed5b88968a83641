package accounts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{
			in:   `[{'type': 'wallet', 'verified': True}]`,
			want: `[{"type": "wallet", "verified": true}]`,
		},
		{
			in:   `[{'a': False, 'b': None}]`,
			want: `[{"a": false, "b": null}]`,
		},
		{
			in:   `[{'name': 'TrueName', 'note': 'None of it'}]`,
			want: `[{"name": "TrueName", "note": "None of it"}]`,
		},
		{
			in:   `[{'Truest': Truest}]`,
			want: `[{"Truest": Truest}]`,
		},
		{
			in:   `[]`,
			want: `[]`,
		},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Normalize(tc.in), tc.in)
	}
}

func TestNormalizeProducesJSON(t *testing.T) {
	in := `[{'type': 'wallet', 'chain_type': 'solana', 'address': 'AbC123', 'imported': False, 'recovery': None, 'delegated': True, 'verified_at': 1700000000}]`
	require.True(t, json.Valid([]byte(Normalize(in))))
}
