package accounts

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gitlab.com/scpcorp/nft-minter/common"
)

const (
	columnID             = "id"
	columnLinkedAccounts = "linked_accounts"
)

// RowParseError is a CSV row whose linked accounts could not be decoded.
// It never aborts extraction: the row is logged and dropped.
type RowParseError struct {
	Line int
	ID   string
	Err  error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("line %d (id %q): %v", e.Line, e.ID, e.Err)
}

func (e *RowParseError) Unwrap() error {
	return e.Err
}

// Reader lazily extracts UserRecords from a users CSV export.
type Reader struct {
	r           *csv.Reader
	idCol       int
	accountsCol int
	width       int

	// OnRowError is called for every dropped malformed row. Defaults to logging.
	OnRowError func(err *RowParseError)
}

// NewReader consumes the header row and locates the id and
// linked_accounts columns.
func NewReader(in io.Reader) (*Reader, error) {
	r := csv.NewReader(bufio.NewReader(in))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("CSV is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("parse CSV header: %w", err)
	}
	idCol, accountsCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case columnID:
			idCol = i
		case columnLinkedAccounts:
			accountsCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("CSV header has no %q column", columnID)
	}
	if accountsCol < 0 {
		return nil, fmt.Errorf("CSV header has no %q column", columnLinkedAccounts)
	}
	return &Reader{
		r:           r,
		idCol:       idCol,
		accountsCol: accountsCol,
		width:       max(idCol, accountsCol) + 1,
		OnRowError:  logRowError,
	}, nil
}

func logRowError(err *RowParseError) {
	log.Printf("[accounts]: skipping row: %v", err)
}

// Next returns the next row that has a Solana wallet, or io.EOF.
func (r *Reader) Next() (common.UserRecord, error) {
	for {
		row, err := r.r.Read()
		if err == io.EOF {
			return common.UserRecord{}, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				r.rowError(&RowParseError{Line: parseErr.Line, Err: err})
				continue
			}
			return common.UserRecord{}, fmt.Errorf("read CSV: %w", err)
		}
		line, _ := r.r.FieldPos(0)
		if len(row) < r.width {
			r.rowError(&RowParseError{Line: line, Err: fmt.Errorf("expected at least %d fields, got %d", r.width, len(row))})
			continue
		}
		id := strings.TrimSpace(row[r.idCol])
		addr, err := ExtractSolanaAddress(row[r.accountsCol])
		if errors.Is(err, ErrNoSolanaWallet) {
			continue
		}
		if err != nil {
			r.rowError(&RowParseError{Line: line, ID: id, Err: err})
			continue
		}
		return common.UserRecord{ID: id, SolanaAddress: addr}, nil
	}
}

func (r *Reader) rowError(err *RowParseError) {
	if r.OnRowError != nil {
		r.OnRowError(err)
	}
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]common.UserRecord, error) {
	var records []common.UserRecord
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// ReadFile extracts every UserRecord from the CSV file at path.
func ReadFile(path string) ([]common.UserRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()
	r, err := NewReader(f)
	if err != nil {
		return nil, err
	}
	return r.ReadAll()
}

// Addresses lists the wallet addresses of records in their original order.
func Addresses(records []common.UserRecord) []string {
	addrs := make([]string, 0, len(records))
	for _, rec := range records {
		addrs = append(addrs, rec.SolanaAddress)
	}
	return addrs
}
