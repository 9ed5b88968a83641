package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// TreeConfig describes a concurrent merkle tree holding compressed NFTs.
// Capacity is 2^MaxDepth leaves.
type TreeConfig struct {
	MaxDepth      uint32 `toml:"max_depth"`
	MaxBufferSize uint32 `toml:"max_buffer_size"`
	CanopyDepth   uint32 `toml:"canopy_depth"`
	Public        bool   `toml:"public"`
}

var DefaultTreeConfig = TreeConfig{
	MaxDepth:      14,
	MaxBufferSize: 64,
}

type depthSizePair struct {
	depth, buffer uint32
}

// Pairs supported by the SPL account compression program.
var allowedDepthSizePairs = map[depthSizePair]bool{
	{3, 8}:     true,
	{5, 8}:     true,
	{14, 64}:   true,
	{14, 256}:  true,
	{14, 1024}: true,
	{14, 2048}: true,
	{15, 64}:   true,
	{16, 64}:   true,
	{17, 64}:   true,
	{18, 64}:   true,
	{19, 64}:   true,
	{20, 64}:   true,
	{20, 256}:  true,
	{20, 1024}: true,
	{20, 2048}: true,
	{24, 64}:   true,
	{24, 256}:  true,
	{24, 512}:  true,
	{24, 1024}: true,
	{24, 2048}: true,
	{26, 512}:  true,
	{26, 1024}: true,
	{26, 2048}: true,
	{30, 512}:  true,
	{30, 1024}: true,
	{30, 2048}: true,
}

// Layout of the account compression merkle tree account.
const (
	treeHeaderSize   = 56
	treeSequenceSize = 8
	hashSize         = 32
	// sequence number, active index, buffer size
	treeCountersSize = 24
)

func (c TreeConfig) Validate() error {
	if !allowedDepthSizePairs[depthSizePair{c.MaxDepth, c.MaxBufferSize}] {
		return fmt.Errorf("%w: unsupported depth %d with buffer %d", ErrInvalidTree, c.MaxDepth, c.MaxBufferSize)
	}
	if c.CanopyDepth >= c.MaxDepth {
		return fmt.Errorf("%w: canopy depth %d must be below max depth %d", ErrInvalidTree, c.CanopyDepth, c.MaxDepth)
	}
	return nil
}

// Capacity returns the number of leaves the tree can hold.
func (c TreeConfig) Capacity() uint64 {
	return uint64(1) << c.MaxDepth
}

// TreeAccountSize returns the size of the merkle tree account in bytes.
func TreeAccountSize(c TreeConfig) (uint64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	depth := uint64(c.MaxDepth)
	buffer := uint64(c.MaxBufferSize)

	// Each changelog entry stores the root, the path and the leaf index.
	changeLog := hashSize + hashSize*depth + treeSequenceSize
	// Rightmost proof, leaf and index.
	rightmostPath := hashSize*depth + hashSize + treeSequenceSize
	var canopy uint64
	if c.CanopyDepth > 0 {
		canopy = ((uint64(1) << (c.CanopyDepth + 1)) - 2) * hashSize
	}

	return treeHeaderSize + treeCountersSize + buffer*changeLog + rightmostPath + canopy, nil
}

// CreateTreeTx builds a transaction that allocates a new merkle tree account
// and initializes it with Bubblegum. The payer becomes the tree creator and
// delegate.
func (m *Minter) CreateTreeTx(ctx context.Context, cfg TreeConfig) (solana.PublicKey, solana.Signature, *solana.Transaction, error) {
	size, err := TreeAccountSize(cfg)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, err
	}

	treeKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, fmt.Errorf("cannot generate tree key: %w", err)
	}
	tree := treeKey.PublicKey()

	rent, err := m.rpc.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentFinalized)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, fmt.Errorf("cannot get tree rent: %w", err)
	}

	instructions, err := createTreeInstructions(m.key.PublicKey(), tree, rent, size, cfg)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, err
	}

	sig, tx, err := m.signTx(ctx, instructions, m.key, treeKey)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, err
	}
	return tree, sig, tx, nil
}

func createTreeInstructions(payer, tree solana.PublicKey, rent, size uint64, cfg TreeConfig) ([]solana.Instruction, error) {
	treeConfigAddr, err := treeConfigAddress(tree)
	if err != nil {
		return nil, err
	}

	public := cfg.Public
	data, err := instructionCreateTree{
		MaxDepth:      cfg.MaxDepth,
		MaxBufferSize: cfg.MaxBufferSize,
		Public:        &public,
	}.InstructionData()
	if err != nil {
		return nil, err
	}

	createTree := solana.NewInstruction(
		BubblegumProgramID,
		[]*solana.AccountMeta{
			{PublicKey: treeConfigAddr, IsSigner: false, IsWritable: true},
			{PublicKey: tree, IsSigner: false, IsWritable: true},
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: payer, IsSigner: true, IsWritable: false},
			{PublicKey: NoopProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: AccountCompressionProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		data,
	)

	return []solana.Instruction{
		system.NewCreateAccountInstruction(rent, size, AccountCompressionProgramID, payer, tree).Build(),
		createTree,
	}, nil
}

// MintCompressedTx builds a Bubblegum mint_v1 transaction appending a leaf
// owned by leafOwner to tree.
func (m *Minter) MintCompressedTx(ctx context.Context, tree, leafOwner solana.PublicKey, meta NFTMetadata) (solana.Signature, *solana.Transaction, error) {
	if err := meta.Validate(); err != nil {
		return solana.Signature{}, nil, err
	}
	instruction, err := mintCompressedInstruction(m.key.PublicKey(), tree, leafOwner, meta)
	if err != nil {
		return solana.Signature{}, nil, err
	}
	return m.signTx(ctx, []solana.Instruction{instruction}, m.key)
}

func mintCompressedInstruction(payer, tree, leafOwner solana.PublicKey, meta NFTMetadata) (solana.Instruction, error) {
	treeConfigAddr, err := treeConfigAddress(tree)
	if err != nil {
		return nil, err
	}
	data, err := instructionMintV1{
		Message: meta.metadataArgs(payer),
	}.InstructionData()
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(
		BubblegumProgramID,
		[]*solana.AccountMeta{
			{PublicKey: treeConfigAddr, IsSigner: false, IsWritable: true},
			{PublicKey: leafOwner, IsSigner: false, IsWritable: false},
			{PublicKey: leafOwner, IsSigner: false, IsWritable: false},
			{PublicKey: tree, IsSigner: false, IsWritable: true},
			{PublicKey: payer, IsSigner: true, IsWritable: false},
			{PublicKey: payer, IsSigner: true, IsWritable: false},
			{PublicKey: NoopProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: AccountCompressionProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		data,
	), nil
}
