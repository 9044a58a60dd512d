package errs

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// userRejectedCode is the EIP-1193 provider error for a declined signature.
	userRejectedCode = 4001
	// executionRevertedCode is what geth-compatible nodes return for eth_call/eth_estimateGas reverts.
	executionRevertedCode = 3
)

var (
	rejectedMarkers = []string{"user rejected", "user denied", "rejected by user", "action_rejected"}
	revertedMarkers = []string{"execution reverted", "insufficient funds", "out of gas", "invalid opcode", "gas required exceeds allowance", "intrinsic gas too low"}
)

// ClassifyTransaction maps a submission or settlement failure to one of
// ErrTransactionRejected, ErrTransactionReverted or ErrNetwork. Errors that
// already carry a kind keep it.
func ClassifyTransaction(err error) error {
	if err == nil {
		return nil
	}

	if kind := Kind(err); kind != nil {
		return kind
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case userRejectedCode:
			return ErrTransactionRejected
		case executionRevertedCode:
			return ErrTransactionReverted
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rejectedMarkers {
		if strings.Contains(msg, marker) {
			return ErrTransactionRejected
		}
	}
	for _, marker := range revertedMarkers {
		if strings.Contains(msg, marker) {
			return ErrTransactionReverted
		}
	}

	return ErrNetwork
}

// RevertReason extracts the Error(string) payload a node attached to a revert, if any.
func RevertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}

	var raw []byte
	switch data := dataErr.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return "", false
		}
		raw = decoded
	case []byte:
		raw = data
	default:
		return "", false
	}

	reason, unpackErr := abi.UnpackRevert(raw)
	if unpackErr != nil {
		return "", false
	}
	return reason, true
}

// Transaction classifies err and wraps it with the operation context. A decoded
// revert reason replaces the raw node message when one is available. An
// *OpError is returned unchanged.
func Transaction(op, contract string, err error) error {
	if err == nil {
		return nil
	}

	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(op, contract, ErrNetwork, err)
	}

	kind := ClassifyTransaction(err)
	if kind == ErrTransactionReverted {
		if reason, ok := RevertReason(err); ok {
			err = errors.New(reason)
		}
	}

	return Wrap(op, contract, kind, err)
}
