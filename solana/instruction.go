package solana

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

var (
	TokenMetadataProgramID      = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	BubblegumProgramID          = solana.MustPublicKeyFromBase58("BGUMAp9Gq7iTEuizy4pqaxsTyUCBK68MDfK752saRPUY")
	AccountCompressionProgramID = solana.MustPublicKeyFromBase58("cmtDvXumGCrqC1Age74AVPhSRVXJMd8PJS91L8KbNCK")
	NoopProgramID               = solana.MustPublicKeyFromBase58("noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV")
)

// https://github.com/metaplex-foundation/mpl-token-metadata/blob/main/programs/token-metadata/program/src/instruction/mod.rs
const (
	instructionNumCreateMasterEditionV3   byte = 17
	instructionNumCreateMetadataAccountV3 byte = 33
)

const (
	metadataSeed = "metadata"
	editionSeed  = "edition"
)

// Bubblegum is an Anchor program: instructions are prefixed with the first
// 8 bytes of sha256("global:<name>").
var (
	discriminatorCreateTree = anchorDiscriminator("create_tree")
	discriminatorMintV1     = anchorDiscriminator("mint_v1")
)

func anchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

type creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

type collection struct {
	Verified bool
	Key      solana.PublicKey
}

type uses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

type collectionDetails struct {
	Enum borsh.Enum `borsh_enum:"true"`
	V1   collectionDetailsV1
}

type collectionDetailsV1 struct {
	Size uint64
}

type dataV2 struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]creator
	Collection           *collection
	Uses                 *uses
}

type instructionCreateMetadataAccountV3 struct {
	Data              dataV2
	IsMutable         bool
	CollectionDetails *collectionDetails
}

func (i instructionCreateMetadataAccountV3) InstructionData() ([]byte, error) {
	args, err := borsh.Serialize(i)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize metadata args: %w", err)
	}
	return append([]byte{instructionNumCreateMetadataAccountV3}, args...), nil
}

type instructionCreateMasterEditionV3 struct {
	MaxSupply *uint64
}

func (i instructionCreateMasterEditionV3) InstructionData() ([]byte, error) {
	args, err := borsh.Serialize(i)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize master edition args: %w", err)
	}
	return append([]byte{instructionNumCreateMasterEditionV3}, args...), nil
}

type instructionCreateTree struct {
	MaxDepth      uint32
	MaxBufferSize uint32
	Public        *bool
}

func (i instructionCreateTree) InstructionData() ([]byte, error) {
	args, err := borsh.Serialize(i)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize create_tree args: %w", err)
	}
	return append(discriminatorCreateTree[:], args...), nil
}

type metadataArgs struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	PrimarySaleHappened  bool
	IsMutable            bool
	EditionNonce         *uint8
	TokenStandard        *uint8
	Collection           *collection
	Uses                 *uses
	TokenProgramVersion  uint8
	Creators             []creator
}

type instructionMintV1 struct {
	Message metadataArgs
}

func (i instructionMintV1) InstructionData() ([]byte, error) {
	args, err := borsh.Serialize(i)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize mint_v1 args: %w", err)
	}
	return append(discriminatorMintV1[:], args...), nil
}

const tokenStandardNonFungible uint8 = 0

func metadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(metadataSeed), TokenMetadataProgramID[:], mint[:]},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("cannot derive metadata account: %w", err)
	}
	return addr, nil
}

func masterEditionAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(metadataSeed), TokenMetadataProgramID[:], mint[:], []byte(editionSeed)},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("cannot derive master edition account: %w", err)
	}
	return addr, nil
}

func treeConfigAddress(tree solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{tree[:]},
		BubblegumProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("cannot derive tree config: %w", err)
	}
	return addr, nil
}
