package minter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"gitlab.com/scpcorp/nft-minter/batch"
	"gitlab.com/scpcorp/nft-minter/common"
	"gitlab.com/scpcorp/nft-minter/metadata"
	"gitlab.com/scpcorp/nft-minter/solana"
)

type Settings struct {
	// Network name, used as checkpoint scope.
	Network string
	Retry   common.RetryPolicy
	Batch   batch.Settings
	Tree    solana.TreeConfig
}

var DefaultSettings = Settings{
	Network: solana.NetworkDevnet,
	Retry:   common.DefaultRetryPolicy,
	Batch:   batch.DefaultSettings,
	Tree:    solana.DefaultTreeConfig,
}

type Runner struct {
	settings   Settings
	uploader   Uploader
	solana     Solana
	checkpoint Checkpoint
	progress   *Progress

	now func() time.Time
}

// New creates a runner. checkpoint may be nil, then nothing is remembered
// between runs.
func New(settings Settings, uploader Uploader, solana Solana, checkpoint Checkpoint) (*Runner, error) {
	if err := settings.Batch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch settings: %w", err)
	}
	if err := settings.Tree.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		settings:   settings,
		uploader:   uploader,
		solana:     solana,
		checkpoint: checkpoint,
		progress:   NewProgress(),
		now:        time.Now,
	}, nil
}

func (r *Runner) Progress() *Progress {
	return r.progress
}

// PrepareAsset uploads the image and its metadata JSON and returns the
// on-chain metadata pointing to it.
func (r *Runner) PrepareAsset(ctx context.Context, imagePath string, tmpl metadata.Template) (solana.NFTMetadata, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return solana.NFTMetadata{}, fmt.Errorf("cannot read image: %w", err)
	}
	if len(data) > common.RecommendedImageSize {
		log.Printf("[asset]: warning: %s is %d bytes, images under %d bytes are recommended", imagePath, len(data), common.RecommendedImageSize)
	}
	name := filepath.Base(imagePath)
	contentType := imageContentType(name, data)

	imageURI, err := common.Retry(ctx, r.settings.Retry, "upload image", func(ctx context.Context) (string, error) {
		return r.uploader.UploadImage(ctx, name, contentType, data)
	})
	if err != nil {
		return solana.NFTMetadata{}, fmt.Errorf("failed to upload image: %w", err)
	}
	log.Printf("[asset]: image uploaded: %s", imageURI)

	doc, err := metadata.Build(tmpl, imageURI, contentType)
	if err != nil {
		return solana.NFTMetadata{}, fmt.Errorf("failed to build metadata: %w", err)
	}
	metadataURI, err := common.Retry(ctx, r.settings.Retry, "upload metadata", func(ctx context.Context) (string, error) {
		return r.uploader.UploadJSON(ctx, doc)
	})
	if err != nil {
		return solana.NFTMetadata{}, fmt.Errorf("failed to upload metadata: %w", err)
	}
	log.Printf("[asset]: metadata uploaded: %s", metadataURI)

	meta := tmpl.OnChain(metadataURI)
	if err := meta.Validate(); err != nil {
		return solana.NFTMetadata{}, err
	}
	return meta, nil
}

func imageContentType(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

// MintOne mints a standard NFT to owner. Building, sending and confirming
// the transaction is one attempt of the retry policy, so every attempt
// creates a fresh mint account.
func (r *Runner) MintOne(ctx context.Context, owner solanago.PublicKey, meta solana.NFTMetadata) (MintResult, error) {
	name := "mint to " + common.ShortAddr(owner.String())
	return common.Retry(ctx, r.settings.Retry, name, func(ctx context.Context) (MintResult, error) {
		mint, sig, tx, err := r.solana.MintNFTTx(ctx, owner, meta)
		if err != nil {
			return MintResult{}, fmt.Errorf("failed to build mint transaction: %w", err)
		}
		if err := r.solana.SendAndConfirm(ctx, tx); err != nil && !r.landed(ctx, sig, err) {
			return MintResult{}, fmt.Errorf("mint %s: %w", sig, err)
		}
		return MintResult{
			Owner:     owner,
			Mint:      mint,
			Signature: sig,
		}, nil
	})
}

// CreateTree creates a merkle tree for compressed mints, retried as a whole.
func (r *Runner) CreateTree(ctx context.Context) (solanago.PublicKey, error) {
	return common.Retry(ctx, r.settings.Retry, "create tree", func(ctx context.Context) (solanago.PublicKey, error) {
		tree, sig, tx, err := r.solana.CreateTreeTx(ctx, r.settings.Tree)
		if err != nil {
			return solanago.PublicKey{}, fmt.Errorf("failed to build tree transaction: %w", err)
		}
		if err := r.solana.SendAndConfirm(ctx, tx); err != nil && !r.landed(ctx, sig, err) {
			return solanago.PublicKey{}, fmt.Errorf("create tree %s: %w", sig, err)
		}
		log.Printf("[tree]: created %s (depth %d, buffer %d, capacity %d)", tree, r.settings.Tree.MaxDepth, r.settings.Tree.MaxBufferSize, r.settings.Tree.Capacity())
		return tree, nil
	})
}

// landed reports whether a transaction whose confirmation timed out was
// executed anyway. Only timeouts are checked, other errors mean the
// transaction did not land.
func (r *Runner) landed(ctx context.Context, sig solanago.Signature, sendErr error) bool {
	if !errors.Is(sendErr, solana.ErrTimeout) {
		return false
	}
	status, err := r.solana.TxStatus(ctx, sig)
	if err != nil {
		log.Printf("[status]: cannot check %s after timeout: %v", sig, err)
		return false
	}
	if status.Confirmed && status.Successful {
		log.Printf("[status]: %s landed after confirmation timeout", sig)
		return true
	}
	return false
}

// MintCompressed mints one compressed NFT into tree. It is not retried.
func (r *Runner) MintCompressed(ctx context.Context, tree, owner solanago.PublicKey, meta solana.NFTMetadata) (MintResult, error) {
	sig, tx, err := r.solana.MintCompressedTx(ctx, tree, owner, meta)
	if err != nil {
		return MintResult{}, fmt.Errorf("failed to build compressed mint transaction: %w", err)
	}
	if err := r.solana.SendAndConfirm(ctx, tx); err != nil {
		return MintResult{}, fmt.Errorf("compressed mint %s: %w", sig, err)
	}
	return MintResult{
		Owner:     owner,
		Mint:      tree,
		Signature: sig,
	}, nil
}

func parseRecipient(addr string) (solanago.PublicKey, error) {
	parsed, err := common.SolanaAddressFromString(addr)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("invalid recipient %q: %w", addr, err)
	}
	return solanago.PublicKey(parsed), nil
}
