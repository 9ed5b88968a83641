package mintdb

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func newQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type MintedRecipient struct {
	Network     string
	Kind        string
	Address     string
	MintAddress string
	Signature   string
	MintedAt    time.Time
}

const isMinted = `
SELECT EXISTS (
    SELECT 1 FROM minted_recipients
    WHERE network = $1 AND kind = $2 AND address = $3
)
`

type IsMintedParams struct {
	Network string
	Kind    string
	Address string
}

func (q *Queries) IsMinted(ctx context.Context, arg IsMintedParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, isMinted, arg.Network, arg.Kind, arg.Address)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const readMinted = `
SELECT network, kind, address, mint_address, signature, minted_at
FROM minted_recipients
WHERE network = $1 AND kind = $2 AND address = $3
`

func (q *Queries) ReadMinted(ctx context.Context, arg IsMintedParams) (MintedRecipient, error) {
	row := q.db.QueryRowContext(ctx, readMinted, arg.Network, arg.Kind, arg.Address)
	var i MintedRecipient
	err := row.Scan(
		&i.Network,
		&i.Kind,
		&i.Address,
		&i.MintAddress,
		&i.Signature,
		&i.MintedAt,
	)
	return i, err
}

const insertMinted = `
INSERT INTO minted_recipients (network, kind, address, mint_address, signature, minted_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (q *Queries) InsertMinted(ctx context.Context, arg MintedRecipient) error {
	_, err := q.db.ExecContext(ctx, insertMinted,
		arg.Network,
		arg.Kind,
		arg.Address,
		arg.MintAddress,
		arg.Signature,
		arg.MintedAt,
	)
	return err
}

const listMinted = `
SELECT network, kind, address, mint_address, signature, minted_at
FROM minted_recipients
WHERE network = $1 AND kind = $2
ORDER BY minted_at, address
`

type ListMintedParams struct {
	Network string
	Kind    string
}

func (q *Queries) ListMinted(ctx context.Context, arg ListMintedParams) ([]MintedRecipient, error) {
	rows, err := q.db.QueryContext(ctx, listMinted, arg.Network, arg.Kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MintedRecipient
	for rows.Next() {
		var i MintedRecipient
		if err := rows.Scan(
			&i.Network,
			&i.Kind,
			&i.Address,
			&i.MintAddress,
			&i.Signature,
			&i.MintedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
