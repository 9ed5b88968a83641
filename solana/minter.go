package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// Size of an SPL token mint account.
const mintAccountSize = 82

const defaultConfirmTimeout = 2 * time.Minute

// Minter builds and sends mint transactions. It holds one RPC and one
// websocket connection for its whole lifetime.
type Minter struct {
	key solana.PrivateKey
	rpc *rpc.Client
	ws  *ws.Client

	confirmTimeout time.Duration
}

func NewMinter(ctx context.Context, config NetworkConfig, key solana.PrivateKey) (*Minter, error) {
	wsClient, err := ws.Connect(ctx, config.Cluster.WS)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to websocket: %w", err)
	}

	return &Minter{
		key:            key,
		rpc:            rpc.New(config.Cluster.RPC),
		ws:             wsClient,
		confirmTimeout: defaultConfirmTimeout,
	}, nil
}

func (m *Minter) Close() error {
	m.ws.Close()
	return m.rpc.Close()
}

// PublicKey returns the payer wallet address.
func (m *Minter) PublicKey() solana.PublicKey {
	return m.key.PublicKey()
}

// Balance returns payer balance in lamports.
func (m *Minter) Balance(ctx context.Context) (uint64, error) {
	res, err := m.rpc.GetBalance(ctx, m.key.PublicKey(), rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("cannot get balance: %w", err)
	}
	return res.Value, nil
}

// MintNFTTx builds a transaction that creates a new mint, its metadata and
// master edition, and mints the single token to owner's associated token
// account. The transaction is signed by the payer and the new mint key.
func (m *Minter) MintNFTTx(ctx context.Context, owner solana.PublicKey, meta NFTMetadata) (solana.PublicKey, solana.Signature, *solana.Transaction, error) {
	if err := meta.Validate(); err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, err
	}

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, fmt.Errorf("cannot generate mint key: %w", err)
	}
	mint := mintKey.PublicKey()
	payer := m.key.PublicKey()

	rent, err := m.rpc.GetMinimumBalanceForRentExemption(ctx, mintAccountSize, rpc.CommitmentFinalized)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, fmt.Errorf("cannot get mint rent: %w", err)
	}

	instructions, err := mintNFTInstructions(payer, owner, mint, rent, meta)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, err
	}

	sig, tx, err := m.signTx(ctx, instructions, m.key, mintKey)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, nil, err
	}
	return mint, sig, tx, nil
}

func mintNFTInstructions(payer, owner, mint solana.PublicKey, rent uint64, meta NFTMetadata) ([]solana.Instruction, error) {
	metadataAddr, err := metadataAddress(mint)
	if err != nil {
		return nil, err
	}
	editionAddr, err := masterEditionAddress(mint)
	if err != nil {
		return nil, err
	}
	ataAddr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("cannot find ata: %w", err)
	}

	metadataData, err := instructionCreateMetadataAccountV3{
		Data:      meta.dataV2(payer),
		IsMutable: true,
	}.InstructionData()
	if err != nil {
		return nil, err
	}
	var maxSupply uint64
	editionData, err := instructionCreateMasterEditionV3{
		MaxSupply: &maxSupply,
	}.InstructionData()
	if err != nil {
		return nil, err
	}

	createMetadata := solana.NewInstruction(
		TokenMetadataProgramID,
		[]*solana.AccountMeta{
			{PublicKey: metadataAddr, IsSigner: false, IsWritable: true},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: payer, IsSigner: true, IsWritable: false},
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: payer, IsSigner: true, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		metadataData,
	)

	createEdition := solana.NewInstruction(
		TokenMetadataProgramID,
		[]*solana.AccountMeta{
			{PublicKey: editionAddr, IsSigner: false, IsWritable: true},
			{PublicKey: mint, IsSigner: false, IsWritable: true},
			{PublicKey: payer, IsSigner: true, IsWritable: false},
			{PublicKey: payer, IsSigner: true, IsWritable: false},
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: metadataAddr, IsSigner: false, IsWritable: true},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		editionData,
	)

	return []solana.Instruction{
		system.NewCreateAccountInstruction(rent, mintAccountSize, solana.TokenProgramID, payer, mint).Build(),
		token.NewInitializeMintInstruction(0, payer, payer, mint, solana.SysVarRentPubkey).Build(),
		createMetadata,
		associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build(),
		token.NewMintToInstruction(1, mint, ataAddr, payer, nil).Build(),
		createEdition,
	}, nil
}

func (m *Minter) SendAndConfirm(ctx context.Context, tx *solana.Transaction) error {
	opts := rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentFinalized,
	}
	sig, err := m.rpc.SendTransactionWithOpts(ctx, tx, opts)
	if err != nil {
		err = parsePreflightError(err)
		return fmt.Errorf("cannot send: %w", err)
	}

	err = waitForConfirmation(ctx, m.ws, sig, m.confirmTimeout)
	if err != nil {
		err = parsePreflightError(err)
		return fmt.Errorf("cannot wait for %s: %w", sig, err)
	}

	return nil
}

func waitForConfirmation(
	ctx context.Context,
	wsClient *ws.Client,
	sig solana.Signature,
	timeout time.Duration,
) error {
	sub, err := wsClient.SignatureSubscribe(
		sig,
		rpc.CommitmentFinalized,
	)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrTimeout
		case resp, ok := <-sub.Response():
			if !ok {
				return fmt.Errorf("subscription closed")
			}
			if resp.Value.Err != nil {
				if err := parseErrorValue(resp.Value.Err); err != nil {
					return err
				}
				// Confirmed, but one of the instructions failed.
				return fmt.Errorf("confirmed transaction with execution error: %v", resp.Value.Err)
			}
			return nil
		case err := <-sub.Err():
			return err
		}
	}
}

type Status struct {
	Confirmed        bool
	Successful       bool
	ConfirmationTime time.Time
}

func (m *Minter) TxStatus(ctx context.Context, sig solana.Signature) (Status, error) {
	res, err := m.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return Status{}, nil
		}
		return Status{}, err
	}

	if res.Meta == nil {
		return Status{}, fmt.Errorf("nil meta")
	}
	if res.Meta.Err != nil {
		return Status{
			Confirmed: true,
		}, nil
	}
	if res.BlockTime == nil {
		return Status{}, fmt.Errorf("nil block time")
	}
	return Status{
		Confirmed:        true,
		Successful:       true,
		ConfirmationTime: res.BlockTime.Time(),
	}, nil
}

func (m *Minter) signTx(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, *solana.Transaction, error) {
	recent, err := m.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, nil, fmt.Errorf("cannot get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(m.key.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, nil, fmt.Errorf("cannot create transaction: %w", err)
	}

	if err := signWith(tx, signers); err != nil {
		return solana.Signature{}, nil, err
	}
	return tx.Signatures[0], tx, nil
}

func signWith(tx *solana.Transaction, signers []solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot sign: %w", err)
	}
	return nil
}
