package minter

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"
	"gitlab.com/scpcorp/nft-minter/common"
	"gitlab.com/scpcorp/nft-minter/solana"
)

type Uploader interface {
	UploadImage(ctx context.Context, name, contentType string, data []byte) (string, error)
	UploadJSON(ctx context.Context, data []byte) (string, error)
}

type Solana interface {
	PublicKey() solanago.PublicKey
	MintNFTTx(ctx context.Context, owner solanago.PublicKey, meta solana.NFTMetadata) (solanago.PublicKey, solanago.Signature, *solanago.Transaction, error)
	CreateTreeTx(ctx context.Context, cfg solana.TreeConfig) (solanago.PublicKey, solanago.Signature, *solanago.Transaction, error)
	MintCompressedTx(ctx context.Context, tree, leafOwner solanago.PublicKey, meta solana.NFTMetadata) (solanago.Signature, *solanago.Transaction, error)
	SendAndConfirm(ctx context.Context, tx *solanago.Transaction) error
	TxStatus(ctx context.Context, sig solanago.Signature) (solana.Status, error)
}

// Checkpoint is an optional store of recipients that already got their NFT.
type Checkpoint interface {
	IsMinted(ctx context.Context, network string, kind common.MintKind, address string) (bool, error)
	MarkMinted(ctx context.Context, record common.MintRecord) error
}

// MintResult describes one confirmed mint. For compressed mints Mint is the
// merkle tree holding the leaf.
type MintResult struct {
	Owner     solanago.PublicKey
	Mint      solanago.PublicKey
	Signature solanago.Signature
}
