package mintdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gitlab.com/scpcorp/nft-minter/common"
)

//go:embed schema.sql
var createMintedRecipientsTable string

const dropMintedRecipientsTable = `
DROP TABLE IF EXISTS minted_recipients
`

// ErrAlreadyMinted is returned when a recipient is recorded twice for the
// same network and mint kind.
var ErrAlreadyMinted = errors.New("recipient already minted")

func handleErrorWithRollback(err error, tx *sql.Tx) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		return rollbackErr
	}
	return err
}

func recordFromSql(r MintedRecipient) common.MintRecord {
	return common.MintRecord{
		Network:     r.Network,
		Kind:        common.MintKind(r.Kind),
		Address:     r.Address,
		MintAddress: r.MintAddress,
		Signature:   r.Signature,
		MintedAt:    r.MintedAt.UTC(),
	}
}

// MintDB remembers recipients that already got an NFT, so an interrupted
// airdrop can be resumed without minting twice.
type MintDB struct {
	db *sql.DB
}

func NewDB(db *sql.DB) (*MintDB, error) {
	mdb := &MintDB{db: db}
	if err := mdb.CreateSchemas(); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return mdb, nil
}

func (mdb *MintDB) CreateSchemas() error {
	lid := uuid.NewString()
	log.Printf("MintDB: CreateSchemas started (%s)\n", lid)
	defer log.Printf("MintDB: CreateSchemas exited (%s)\n", lid)
	if _, err := mdb.db.Exec(createMintedRecipientsTable); err != nil {
		return fmt.Errorf("failed to create minted recipients table: %w", err)
	}
	return nil
}

func (mdb *MintDB) DropSchemas() error {
	lid := uuid.NewString()
	log.Printf("MintDB: DropSchemas started (%s)\n", lid)
	defer log.Printf("MintDB: DropSchemas exited (%s)\n", lid)
	if _, err := mdb.db.Exec(dropMintedRecipientsTable); err != nil {
		return fmt.Errorf("failed to drop minted recipients table: %w", err)
	}
	return nil
}

func (mdb *MintDB) createDBObjects(ctx context.Context) (*sql.Tx, *Queries, error) {
	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	tq := newQueries(mdb.db).WithTx(tx)
	return tx, tq, nil
}

type mdbMethod func(ctx context.Context, tq *Queries) error

type txCommitError struct {
	msg string
}

func (txErr txCommitError) Error() string {
	return txErr.msg
}

func (mdb *MintDB) runRetryableTransaction(ctx context.Context, fn mdbMethod) error {
	return retry.Do(
		func() error {
			tx, tq, err := mdb.createDBObjects(ctx)
			if err != nil {
				return fmt.Errorf("failed to create db objects: %w", err)
			}
			if err := fn(ctx, tq); err != nil {
				return handleErrorWithRollback(err, tx)
			}
			if err := tx.Commit(); err != nil {
				return txCommitError{msg: err.Error()}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if errors.As(err, &txCommitError{}) {
				return true
			}
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return true
			}
			return false
		}),
	)
}

func (mdb *MintDB) IsMinted(ctx context.Context, network string, kind common.MintKind, address string) (bool, error) {
	var minted bool
	if err := mdb.runRetryableTransaction(ctx, func(innerCtx context.Context, tq *Queries) error {
		var err error
		minted, err = tq.IsMinted(innerCtx, IsMintedParams{
			Network: network,
			Kind:    string(kind),
			Address: address,
		})
		if err != nil {
			return fmt.Errorf("read minted: %w", err)
		}
		return nil
	}); err != nil {
		return false, err
	}
	return minted, nil
}

// MarkMinted stores a finished mint. Recording the same recipient twice
// returns ErrAlreadyMinted.
func (mdb *MintDB) MarkMinted(ctx context.Context, record common.MintRecord) error {
	lid := uuid.NewString()
	log.Printf("MintDB: MarkMinted %s started (%s)\n", record.Address, lid)
	defer log.Printf("MintDB: MarkMinted exited (%s)\n", lid)
	if record.MintedAt.IsZero() {
		record.MintedAt = time.Now()
	}
	return mdb.runRetryableTransaction(ctx, func(innerCtx context.Context, tq *Queries) error {
		key := IsMintedParams{
			Network: record.Network,
			Kind:    string(record.Kind),
			Address: record.Address,
		}
		existing, err := tq.ReadMinted(innerCtx, key)
		if err == nil {
			return fmt.Errorf("%w: %s with mint %s", ErrAlreadyMinted, existing.Address, existing.MintAddress)
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("read minted: %w", err)
		}
		if err := tq.InsertMinted(innerCtx, MintedRecipient{
			Network:     record.Network,
			Kind:        string(record.Kind),
			Address:     record.Address,
			MintAddress: record.MintAddress,
			Signature:   record.Signature,
			MintedAt:    record.MintedAt.UTC(),
		}); err != nil {
			return fmt.Errorf("failed to insert minted recipient: %w", err)
		}
		return nil
	})
}

// Minted lists recorded mints in the order they happened.
func (mdb *MintDB) Minted(ctx context.Context, network string, kind common.MintKind) ([]common.MintRecord, error) {
	var records []common.MintRecord
	if err := mdb.runRetryableTransaction(ctx, func(innerCtx context.Context, tq *Queries) error {
		rows, err := tq.ListMinted(innerCtx, ListMintedParams{
			Network: network,
			Kind:    string(kind),
		})
		if err != nil {
			return fmt.Errorf("list minted: %w", err)
		}
		records = make([]common.MintRecord, 0, len(rows))
		for _, r := range rows {
			records = append(records, recordFromSql(r))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return records, nil
}

func (mdb *MintDB) Close() error {
	return mdb.db.Close()
}
