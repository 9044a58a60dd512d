// Package errs holds the error taxonomy shared by the deployer and the client.
// Every failure surfaced to a caller matches exactly one of the sentinel kinds
// with errors.Is, so user interfaces can branch on the kind and still show the
// underlying detail.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoWallet               = errors.New("no wallet provider detected")
	ErrNotConnected           = errors.New("wallet not connected")
	ErrWrongNetwork           = errors.New("wrong network")
	ErrNotInitialized         = errors.New("contracts not initialized")
	ErrUnknownContract        = errors.New("unknown contract")
	ErrInvalidAmount          = errors.New("invalid bet amount")
	ErrTransactionRejected    = errors.New("transaction rejected by user")
	ErrTransactionReverted    = errors.New("transaction reverted")
	ErrNetwork                = errors.New("network error")
	ErrDeploymentVerification = errors.New("deployment verification failed")
	ErrInsufficientBalance    = errors.New("insufficient balance")
)

var kinds = []error{
	ErrNoWallet,
	ErrNotConnected,
	ErrWrongNetwork,
	ErrNotInitialized,
	ErrUnknownContract,
	ErrInvalidAmount,
	ErrTransactionRejected,
	ErrTransactionReverted,
	ErrNetwork,
	ErrDeploymentVerification,
	ErrInsufficientBalance,
}

// OpError attaches the operation and contract name to a classified failure.
type OpError struct {
	Op       string
	Contract string
	Kind     error
	Err      error
}

func (e *OpError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Contract != "" {
		sb.WriteString(" on ")
		sb.WriteString(e.Contract)
	}
	if e.Kind != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Kind.Error())
	}
	if e.Err != nil && !errors.Is(e.Kind, e.Err) {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *OpError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap builds an OpError. A nil err yields nil.
func Wrap(op, contract string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Contract: contract, Kind: kind, Err: err}
}

// Kind returns the taxonomy sentinel err matches, or nil for unclassified errors.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Reason renders err for direct display: the classification first, then the detail.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var opErr *OpError
	if errors.As(err, &opErr) {
		detail := ""
		if opErr.Err != nil && !errors.Is(opErr.Kind, opErr.Err) {
			detail = opErr.Err.Error()
		}
		if opErr.Kind == nil {
			return detail
		}
		if detail == "" {
			return capitalize(opErr.Kind.Error())
		}
		return fmt.Sprintf("%s: %s", capitalize(opErr.Kind.Error()), detail)
	}

	if kind := Kind(err); kind != nil && kind != err {
		return fmt.Sprintf("%s (%s)", capitalize(kind.Error()), err.Error())
	}

	return capitalize(err.Error())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
