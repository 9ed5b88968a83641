package solana

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/require"
)

func TestParseErrorValue(t *testing.T) {
	require.NoError(t, parseErrorValue(nil))
	require.NoError(t, parseErrorValue("SomethingElse"))
	require.ErrorIs(t, parseErrorValue("BlockhashNotFound"), ErrBlockhashNotFound)
	require.ErrorIs(t, parseErrorValue("InsufficientFundsForFee"), ErrInsufficientFunds)
	require.ErrorIs(t, parseErrorValue(map[string]interface{}{
		"InsufficientFundsForRent": map[string]interface{}{"account_index": float64(0)},
	}), ErrInsufficientFunds)

	// Transaction error coming from the websocket subscription.
	err := parseErrorValue(map[string]interface{}{
		"InstructionError": []interface{}{float64(2), map[string]interface{}{"Custom": float64(11)}},
	})
	require.Equal(t, ProgramError{InstructionIndex: 2, Code: 11}, err)
	require.Equal(t, "instruction 2 failed with custom program error 0xb", err.Error())

	// Not a custom error.
	require.NoError(t, parseErrorValue(map[string]interface{}{
		"InstructionError": []interface{}{float64(0), "InvalidAccountData"},
	}))
}

func TestParsePreflightError(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": map[string]interface{}{
				"InstructionError": []interface{}{json.Number("5"), map[string]interface{}{"Custom": json.Number("1")}},
			},
		},
	}
	err := parsePreflightError(fmt.Errorf("send: %w", rpcErr))
	var programErr ProgramError
	require.ErrorAs(t, err, &programErr)
	require.Equal(t, ProgramError{InstructionIndex: 5, Code: 1}, programErr)

	other := fmt.Errorf("connection refused")
	require.Equal(t, other, parsePreflightError(other))

	noData := &jsonrpc.RPCError{Code: -32000, Message: "boom"}
	require.Equal(t, error(noData), parsePreflightError(noData))
}
