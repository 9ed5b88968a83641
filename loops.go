package minter

import (
	"context"
	"fmt"
	"log"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"gitlab.com/scpcorp/nft-minter/batch"
	"gitlab.com/scpcorp/nft-minter/common"
	"gitlab.com/scpcorp/nft-minter/solana"
)

// scopedCheckpoint adapts Checkpoint to one network and mint kind.
type scopedCheckpoint struct {
	checkpoint Checkpoint
	network    string
	kind       common.MintKind
}

func (c scopedCheckpoint) IsMinted(ctx context.Context, address string) (bool, error) {
	return c.checkpoint.IsMinted(ctx, c.network, c.kind, address)
}

func (r *Runner) batchMinter(kind common.MintKind) *batch.Minter {
	var checkpoint batch.Checkpoint
	if r.checkpoint != nil {
		checkpoint = scopedCheckpoint{
			checkpoint: r.checkpoint,
			network:    r.settings.Network,
			kind:       kind,
		}
	}
	return batch.New(r.settings.Batch, checkpoint, r.progress)
}

// checkpointTimeout bounds a checkpoint write after the run was cancelled.
const checkpointTimeout = 10 * time.Second

func (r *Runner) remember(ctx context.Context, kind common.MintKind, res MintResult) {
	if r.checkpoint == nil {
		return
	}
	// The mint is already on chain, a shutdown signal must not lose it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), checkpointTimeout)
	defer cancel()
	err := r.checkpoint.MarkMinted(ctx, common.MintRecord{
		Network:     r.settings.Network,
		Kind:        kind,
		Address:     res.Owner.String(),
		MintAddress: res.Mint.String(),
		Signature:   res.Signature.String(),
		MintedAt:    r.now(),
	})
	if err != nil {
		// The NFT is minted anyway, only a resumed run would mint it again.
		log.Printf("[checkpoint]: failed to record %s: %v", res.Owner, err)
	}
}

func (r *Runner) run(ctx context.Context, kind common.MintKind, recipients []string, mintFn func(ctx context.Context, owner solanago.PublicKey) (MintResult, error)) (batch.Report, error) {
	runID := uuid.NewString()
	log.Printf("[airdrop]: %s run %s started: %d recipients, batch size %d", kind, runID, len(recipients), r.settings.Batch.Size)
	defer log.Printf("[airdrop]: %s run %s exited", kind, runID)

	r.progress.Start(kind, len(recipients))
	report := r.batchMinter(kind).Run(ctx, recipients, func(ctx context.Context, index int, addr string) error {
		owner, err := parseRecipient(addr)
		if err != nil {
			return err
		}
		res, err := mintFn(ctx, owner)
		if err != nil {
			return err
		}
		log.Printf("[airdrop]: %d/%d %s minted %s (%s)", index+1, len(recipients), kind, res.Mint, res.Signature)
		r.remember(ctx, kind, res)
		return nil
	})
	r.progress.Finish()

	log.Printf("[airdrop]: run %s: %d succeeded, %d failed, %d skipped of %d", runID, report.Succeeded, len(report.Failed), report.Skipped, report.Total)
	if report.Interrupted {
		return report, fmt.Errorf("airdrop interrupted: %w", ctx.Err())
	}
	return report, nil
}

// Airdrop mints a standard NFT to every recipient. Each mint is retried,
// a recipient that still fails is reported and skipped.
func (r *Runner) Airdrop(ctx context.Context, recipients []string, meta solana.NFTMetadata) (batch.Report, error) {
	return r.run(ctx, common.Standard, recipients, func(ctx context.Context, owner solanago.PublicKey) (MintResult, error) {
		return r.MintOne(ctx, owner, meta)
	})
}

// AirdropCompressed creates a new merkle tree and mints a compressed NFT to
// every recipient. Tree creation is retried, per recipient mints are not.
func (r *Runner) AirdropCompressed(ctx context.Context, recipients []string, meta solana.NFTMetadata) (solanago.PublicKey, batch.Report, error) {
	if capacity := r.settings.Tree.Capacity(); uint64(len(recipients)) > capacity {
		return solanago.PublicKey{}, batch.Report{}, fmt.Errorf("%d recipients do not fit into a tree of %d leaves", len(recipients), capacity)
	}
	tree, err := r.CreateTree(ctx)
	if err != nil {
		return solanago.PublicKey{}, batch.Report{}, fmt.Errorf("failed to create tree: %w", err)
	}
	report, err := r.run(ctx, common.Compressed, recipients, func(ctx context.Context, owner solanago.PublicKey) (MintResult, error) {
		return r.MintCompressed(ctx, tree, owner, meta)
	})
	return tree, report, err
}
