package solana

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

var (
	ErrTimeout = fmt.Errorf("timeout")

	// ErrInsufficientFunds indicates that the payer can not cover fees or rent.
	ErrInsufficientFunds = fmt.Errorf("insufficient funds")

	// ErrBlockhashNotFound indicates that the transaction blockhash expired
	// before it was processed. Rebuilding the transaction fixes it.
	ErrBlockhashNotFound = fmt.Errorf("blockhash not found")

	// ErrInvalidTree indicates unsupported merkle tree parameters.
	ErrInvalidTree = fmt.Errorf("invalid merkle tree config")

	// ErrInvalidMetadata indicates that NFT metadata breaks on-chain limits.
	ErrInvalidMetadata = fmt.Errorf("invalid nft metadata")
)

// ProgramError is a custom error returned by one of the transaction
// instructions.
type ProgramError struct {
	InstructionIndex int
	Code             int
}

func (e ProgramError) Error() string {
	return fmt.Sprintf("instruction %d failed with custom program error 0x%x", e.InstructionIndex, e.Code)
}

var transactionErrorMap = map[string]error{
	"BlockhashNotFound":       ErrBlockhashNotFound,
	"InsufficientFundsForFee": ErrInsufficientFunds,
	"AccountNotFound":         ErrInsufficientFunds,
}

func parsePreflightError(origErr error) error {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(origErr, &rpcErr) {
		return origErr
	}
	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return origErr
	}
	errVal, ok := dataMap["err"]
	if !ok {
		return origErr
	}
	if err := parseErrorValue(errVal); err != nil {
		return fmt.Errorf("%w: %s", err, rpcErr.Message)
	}
	return origErr
}

func parseErrorValue(errorValue interface{}) error {
	switch v := errorValue.(type) {
	case string:
		return transactionErrorMap[v]
	case map[string]interface{}:
		if _, ok := v["InsufficientFundsForRent"]; ok {
			return ErrInsufficientFunds
		}
		instructionErrorVal, ok := v["InstructionError"]
		if !ok {
			return nil
		}
		instructionErrorSlice, ok := instructionErrorVal.([]interface{})
		if !ok {
			return nil
		}
		if len(instructionErrorSlice) < 2 {
			return nil
		}
		return decodeCustomError(instructionErrorSlice)
	}
	return nil
}

func decodeCustomError(instructionErrorSlice []interface{}) error {
	index, ok := decodeNumber(instructionErrorSlice[0])
	if !ok {
		return nil
	}
	customErrorStructMap, ok := instructionErrorSlice[1].(map[string]interface{})
	if !ok {
		return nil
	}
	if len(customErrorStructMap) != 1 {
		return nil
	}
	errorCodeRaw, ok := customErrorStructMap["Custom"]
	if !ok {
		return nil
	}
	errorCode, ok := decodeNumber(errorCodeRaw)
	if !ok {
		return nil
	}
	return ProgramError{
		InstructionIndex: index,
		Code:             errorCode,
	}
}

func decodeNumber(raw interface{}) (int, bool) {
	switch num := raw.(type) {
	case json.Number: // This type comes from a Preflight error
		n, err := num.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case float64: // This type comes from a Transaction error
		return int(num), true
	}
	return 0, false
}
