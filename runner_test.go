package minter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"gitlab.com/scpcorp/nft-minter/batch"
	"gitlab.com/scpcorp/nft-minter/common"
	"gitlab.com/scpcorp/nft-minter/metadata"
	"gitlab.com/scpcorp/nft-minter/solana"
)

type fakeUploader struct {
	failures int
	images   []string
	docs     [][]byte
}

func (u *fakeUploader) UploadImage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if u.failures > 0 {
		u.failures--
		return "", fmt.Errorf("bundler is busy")
	}
	u.images = append(u.images, name+" "+contentType)
	return "https://arweave.net/image", nil
}

func (u *fakeUploader) UploadJSON(ctx context.Context, data []byte) (string, error) {
	u.docs = append(u.docs, data)
	return "https://arweave.net/meta", nil
}

type fakeSolana struct {
	mu    sync.Mutex
	payer solanago.PublicKey

	// failSend returns the error for the n-th SendAndConfirm call (0-based).
	failSend func(n int) error
	sends    int
	built    []string
	trees    int

	// status answers TxStatus, nil means not found.
	status      func(sig solanago.Signature) solana.Status
	statusCalls int
}

func newFakeSolana() *fakeSolana {
	return &fakeSolana{payer: solanago.NewWallet().PublicKey()}
}

func (s *fakeSolana) PublicKey() solanago.PublicKey {
	return s.payer
}

func (s *fakeSolana) MintNFTTx(ctx context.Context, owner solanago.PublicKey, meta solana.NFTMetadata) (solanago.PublicKey, solanago.Signature, *solanago.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.built = append(s.built, "nft "+owner.String())
	return solanago.NewWallet().PublicKey(), solanago.Signature{byte(len(s.built))}, &solanago.Transaction{}, nil
}

func (s *fakeSolana) CreateTreeTx(ctx context.Context, cfg solana.TreeConfig) (solanago.PublicKey, solanago.Signature, *solanago.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees++
	s.built = append(s.built, "tree")
	return solanago.NewWallet().PublicKey(), solanago.Signature{0xff}, &solanago.Transaction{}, nil
}

func (s *fakeSolana) MintCompressedTx(ctx context.Context, tree, leafOwner solanago.PublicKey, meta solana.NFTMetadata) (solanago.Signature, *solanago.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.built = append(s.built, "cnft "+leafOwner.String())
	return solanago.Signature{byte(len(s.built))}, &solanago.Transaction{}, nil
}

func (s *fakeSolana) SendAndConfirm(ctx context.Context, tx *solanago.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.sends
	s.sends++
	if s.failSend != nil {
		return s.failSend(n)
	}
	return nil
}

func (s *fakeSolana) TxStatus(ctx context.Context, sig solanago.Signature) (solana.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if s.status == nil {
		return solana.Status{}, nil
	}
	return s.status(sig), nil
}

type memCheckpoint struct {
	records map[string]common.MintRecord
}

func newMemCheckpoint() *memCheckpoint {
	return &memCheckpoint{records: map[string]common.MintRecord{}}
}

func checkpointKey(network string, kind common.MintKind, address string) string {
	return strings.Join([]string{network, string(kind), address}, "/")
}

func (c *memCheckpoint) IsMinted(ctx context.Context, network string, kind common.MintKind, address string) (bool, error) {
	_, ok := c.records[checkpointKey(network, kind, address)]
	return ok, nil
}

func (c *memCheckpoint) MarkMinted(ctx context.Context, record common.MintRecord) error {
	c.records[checkpointKey(record.Network, record.Kind, record.Address)] = record
	return nil
}

// ctxCheckpoint refuses writes on a done context, like a database
// transaction would.
type ctxCheckpoint struct {
	*memCheckpoint
}

func (c ctxCheckpoint) MarkMinted(ctx context.Context, record common.MintRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.memCheckpoint.MarkMinted(ctx, record)
}

var testSettings = Settings{
	Network: solana.NetworkDevnet,
	Retry:   common.RetryPolicy{Attempts: 3, Delay: time.Millisecond},
	Batch:   batch.Settings{Size: 5},
	Tree:    solana.DefaultTreeConfig,
}

var testMeta = solana.NFTMetadata{Name: "Cat", Symbol: "CAT", URI: "https://arweave.net/meta"}

func recipients(n int) []string {
	addrs := make([]string, n)
	for i := range addrs {
		addrs[i] = solanago.NewWallet().PublicKey().String()
	}
	return addrs
}

func TestNewValidatesSettings(t *testing.T) {
	settings := testSettings
	settings.Batch.Size = 0
	_, err := New(settings, &fakeUploader{}, newFakeSolana(), nil)
	require.Error(t, err)

	settings = testSettings
	settings.Tree = solana.TreeConfig{MaxDepth: 7, MaxBufferSize: 7}
	_, err = New(settings, &fakeUploader{}, newFakeSolana(), nil)
	require.ErrorIs(t, err, solana.ErrInvalidTree)
}

func TestPrepareAsset(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	uploader := &fakeUploader{failures: 2}
	r, err := New(testSettings, uploader, newFakeSolana(), nil)
	require.NoError(t, err)

	meta, err := r.PrepareAsset(context.Background(), imagePath, metadata.DefaultTemplate)
	require.NoError(t, err)
	require.Equal(t, metadata.DefaultTemplate.OnChain("https://arweave.net/meta"), meta)
	require.Equal(t, []string{"image.png image/png"}, uploader.images)
	require.Len(t, uploader.docs, 1)
	require.Contains(t, string(uploader.docs[0]), `"image":"https://arweave.net/image"`)
}

func TestPrepareAssetUploadGivesUp(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("img"), 0o644))

	uploader := &fakeUploader{failures: 3}
	r, err := New(testSettings, uploader, newFakeSolana(), nil)
	require.NoError(t, err)

	_, err = r.PrepareAsset(context.Background(), imagePath, metadata.DefaultTemplate)
	require.ErrorContains(t, err, "bundler is busy")
	require.Empty(t, uploader.docs)

	_, err = r.PrepareAsset(context.Background(), filepath.Join(t.TempDir(), "missing.png"), metadata.DefaultTemplate)
	require.Error(t, err)
}

func TestMintOneRetries(t *testing.T) {
	sol := newFakeSolana()
	sol.failSend = func(n int) error {
		if n < 2 {
			return solana.ErrBlockhashNotFound
		}
		return nil
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	owner := solanago.NewWallet().PublicKey()
	res, err := r.MintOne(context.Background(), owner, testMeta)
	require.NoError(t, err)
	require.Equal(t, owner, res.Owner)
	require.Equal(t, 3, sol.sends)
	// Every attempt builds a new transaction.
	require.Len(t, sol.built, 3)
	// Only confirmation timeouts are looked up.
	require.Zero(t, sol.statusCalls)
}

func TestMintOneTimeoutButLanded(t *testing.T) {
	sol := newFakeSolana()
	sol.failSend = func(n int) error {
		return fmt.Errorf("cannot wait: %w", solana.ErrTimeout)
	}
	sol.status = func(sig solanago.Signature) solana.Status {
		return solana.Status{Confirmed: true, Successful: true}
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	owner := solanago.NewWallet().PublicKey()
	res, err := r.MintOne(context.Background(), owner, testMeta)
	require.NoError(t, err)
	require.Equal(t, owner, res.Owner)
	require.Equal(t, 1, sol.sends)
	require.Equal(t, 1, sol.statusCalls)
	require.Len(t, sol.built, 1)
}

func TestMintOneTimeoutNotLanded(t *testing.T) {
	sol := newFakeSolana()
	sol.failSend = func(n int) error {
		if n == 0 {
			return fmt.Errorf("cannot wait: %w", solana.ErrTimeout)
		}
		return nil
	}
	// Executed but failed on chain: a fresh attempt is needed.
	sol.status = func(sig solanago.Signature) solana.Status {
		return solana.Status{Confirmed: true}
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	_, err = r.MintOne(context.Background(), solanago.NewWallet().PublicKey(), testMeta)
	require.NoError(t, err)
	require.Equal(t, 2, sol.sends)
	require.Equal(t, 1, sol.statusCalls)
	require.Len(t, sol.built, 2)
}

func TestCreateTreeTimeoutButLanded(t *testing.T) {
	sol := newFakeSolana()
	sol.failSend = func(n int) error {
		return solana.ErrTimeout
	}
	sol.status = func(sig solanago.Signature) solana.Status {
		return solana.Status{Confirmed: true, Successful: true}
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	_, err = r.CreateTree(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sol.trees)
}

func TestMintOneGivesUp(t *testing.T) {
	sol := newFakeSolana()
	sol.failSend = func(n int) error {
		return fmt.Errorf("send %d: %w", n, solana.ErrInsufficientFunds)
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	_, err = r.MintOne(context.Background(), solanago.NewWallet().PublicKey(), testMeta)
	require.ErrorIs(t, err, solana.ErrInsufficientFunds)
	require.ErrorContains(t, err, "send 2")
	require.Equal(t, 3, sol.sends)
}

func TestAirdrop(t *testing.T) {
	sol := newFakeSolana()
	checkpoint := newMemCheckpoint()
	r, err := New(testSettings, &fakeUploader{}, sol, checkpoint)
	require.NoError(t, err)

	addrs := recipients(12)
	addrs[4] = "not-a-wallet"
	report, err := r.Airdrop(context.Background(), addrs, testMeta)
	require.NoError(t, err)

	require.Equal(t, 12, report.Total)
	require.Equal(t, 11, report.Succeeded)
	require.Len(t, report.Failed, 1)
	require.Equal(t, "not-a-wallet", report.Failed[0].Address)
	require.Equal(t, []int{5, 5, 2}, report.Batches)
	require.Len(t, checkpoint.records, 11)

	var expected []string
	for i, addr := range addrs {
		if i != 4 {
			expected = append(expected, "nft "+addr)
		}
	}
	require.Equal(t, expected, sol.built)

	progress, err := r.Progress().Progress(context.Background(), &ProgressRequest{})
	require.NoError(t, err)
	require.False(t, progress.Running)
	require.Equal(t, 11, progress.Done)
	require.Equal(t, 1, progress.Failed)
	require.Equal(t, 3, progress.CurrentBatch)

	// A second run skips everybody already minted.
	report, err = r.Airdrop(context.Background(), addrs, testMeta)
	require.NoError(t, err)
	require.Equal(t, 11, report.Skipped)
	require.Len(t, report.Failed, 1)
	require.Len(t, sol.built, 11)
}

func TestAirdropPerRecipientFailureContinues(t *testing.T) {
	sol := newFakeSolana()
	// The second recipient fails all three attempts.
	sol.failSend = func(n int) error {
		if n >= 1 && n <= 3 {
			return fmt.Errorf("rpc down")
		}
		return nil
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	addrs := recipients(3)
	report, err := r.Airdrop(context.Background(), addrs, testMeta)
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Failed, 1)
	require.Equal(t, addrs[1], report.Failed[0].Address)
	require.Equal(t, 5, sol.sends)
}

func TestAirdropCompressed(t *testing.T) {
	sol := newFakeSolana()
	// The tree fails once, the first compressed mint fails once.
	sol.failSend = func(n int) error {
		if n == 0 || n == 2 {
			return fmt.Errorf("flaky")
		}
		return nil
	}
	checkpoint := newMemCheckpoint()
	r, err := New(testSettings, &fakeUploader{}, sol, checkpoint)
	require.NoError(t, err)

	addrs := recipients(4)
	tree, report, err := r.AirdropCompressed(context.Background(), addrs, testMeta)
	require.NoError(t, err)
	require.NotEqual(t, solanago.PublicKey{}, tree)
	require.Equal(t, 2, sol.trees)

	// Compressed mints are not retried.
	require.Equal(t, 3, report.Succeeded)
	require.Len(t, report.Failed, 1)
	require.Equal(t, addrs[0], report.Failed[0].Address)
	require.Len(t, checkpoint.records, 3)
	for _, rec := range checkpoint.records {
		require.Equal(t, common.Compressed, rec.Kind)
		require.Equal(t, tree.String(), rec.MintAddress)
	}
}

func TestAirdropCompressedTreeFails(t *testing.T) {
	sol := newFakeSolana()
	sol.failSend = func(n int) error {
		return fmt.Errorf("no funds")
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	_, _, err = r.AirdropCompressed(context.Background(), recipients(2), testMeta)
	require.ErrorContains(t, err, "failed to create tree")
	require.Equal(t, 3, sol.trees)
}

func TestAirdropCompressedCapacity(t *testing.T) {
	settings := testSettings
	settings.Tree = solana.TreeConfig{MaxDepth: 3, MaxBufferSize: 8}
	sol := newFakeSolana()
	r, err := New(settings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	_, _, err = r.AirdropCompressed(context.Background(), recipients(9), testMeta)
	require.Error(t, err)
	require.Zero(t, sol.trees)
}

func TestAirdropInterrupted(t *testing.T) {
	sol := newFakeSolana()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sol.failSend = func(n int) error {
		if n == 1 {
			cancel()
		}
		return nil
	}
	r, err := New(testSettings, &fakeUploader{}, sol, nil)
	require.NoError(t, err)

	report, err := r.Airdrop(ctx, recipients(5), testMeta)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, report.Interrupted)
	require.Equal(t, 2, report.Succeeded)
}

func TestAirdropInterruptedKeepsCheckpoint(t *testing.T) {
	sol := newFakeSolana()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The signal arrives while the first mint is being confirmed.
	sol.failSend = func(n int) error {
		if n == 0 {
			cancel()
		}
		return nil
	}
	checkpoint := ctxCheckpoint{newMemCheckpoint()}
	r, err := New(testSettings, &fakeUploader{}, sol, checkpoint)
	require.NoError(t, err)

	addrs := recipients(3)
	report, err := r.Airdrop(ctx, addrs, testMeta)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, report.Interrupted)
	require.Equal(t, 1, report.Succeeded)
	require.Len(t, checkpoint.records, 1)

	minted, err := checkpoint.IsMinted(context.Background(), solana.NetworkDevnet, common.Standard, addrs[0])
	require.NoError(t, err)
	require.True(t, minted)
}
