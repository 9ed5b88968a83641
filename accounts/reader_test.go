package accounts

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/scpcorp/nft-minter/common"
)

const usersCSV = `id,email,linked_accounts
42,a@b.c,"[{'type': 'wallet', 'chain_type': 'solana', 'address': 'AbC123'}, {'type': 'email'}]"
43,d@e.f,"[{'type': 'email', 'address': 'd@e.f', 'verified': True}]"
44,g@h.i,"[{'type': 'wallet', 'chain_type': 'solana'"
45,j@k.l,"[{'type': 'wallet', 'chain_type': 'solana', 'address': 'Def456', 'imported': False, 'recovery': None}]"
46,m@n.o,
`

func TestReaderExtractsSolanaWallets(t *testing.T) {
	r, err := NewReader(strings.NewReader(usersCSV))
	require.NoError(t, err)
	var dropped []*RowParseError
	r.OnRowError = func(err *RowParseError) {
		dropped = append(dropped, err)
	}

	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []common.UserRecord{
		{ID: "42", SolanaAddress: "AbC123"},
		{ID: "45", SolanaAddress: "Def456"},
	}, records)

	// Only the malformed row is reported, rows without wallets are silent.
	require.Len(t, dropped, 1)
	require.Equal(t, "44", dropped[0].ID)
	require.Equal(t, 4, dropped[0].Line)
}

func TestReaderIsLazy(t *testing.T) {
	r, err := NewReader(strings.NewReader(usersCSV))
	require.NoError(t, err)
	r.OnRowError = nil

	rec, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "42", rec.ID)

	rec, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "45", rec.ID)

	_, err = r.Next()
	require.Equal(t, io.EOF, err)
}

func TestReaderColumnOrder(t *testing.T) {
	in := "linked_accounts,id\n\"[{'type': 'wallet', 'chain_type': 'solana', 'address': 'Q1'}]\",7\n"
	r, err := NewReader(strings.NewReader(in))
	require.NoError(t, err)
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []common.UserRecord{{ID: "7", SolanaAddress: "Q1"}}, records)
}

func TestReaderShortRow(t *testing.T) {
	in := "id,linked_accounts\n1\n2,\"[{'type': 'wallet', 'chain_type': 'solana', 'address': 'Q2'}]\"\n"
	r, err := NewReader(strings.NewReader(in))
	require.NoError(t, err)
	var dropped int
	r.OnRowError = func(*RowParseError) { dropped++ }
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []common.UserRecord{{ID: "2", SolanaAddress: "Q2"}}, records)
	require.Equal(t, 1, dropped)
}

func TestReaderMissingColumns(t *testing.T) {
	_, err := NewReader(strings.NewReader("id,email\n1,a@b.c\n"))
	require.ErrorContains(t, err, "linked_accounts")

	_, err = NewReader(strings.NewReader("linked_accounts\n[]\n"))
	require.ErrorContains(t, err, `"id"`)

	_, err = NewReader(strings.NewReader(""))
	require.Error(t, err)
}

func TestReadFileAndAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(usersCSV), 0o600))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"AbC123", "Def456"}, Addresses(records))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
