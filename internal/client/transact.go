package client

import (
	"context"
	"fmt"
	"math/big"

	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Outcome describes one submitted transaction. Failure is nil when the
// transaction settled, otherwise the taxonomy kind it failed with.
type Outcome struct {
	TxHash      common.Hash
	Settled     bool
	Failure     error
	BlockNumber uint64
	GasUsed     uint64
}

type sendFunc func(game registry.Game, opts *bind.TransactOpts) (*types.Transaction, error)

// PlaceBet stakes amount (a decimal string in whole units) on name, passing
// args through to placeBet, and waits for settlement.
func (c *Client) PlaceBet(ctx context.Context, name, amount string, args ...any) (Outcome, error) {
	const op = "place bet"

	value, err := parseStake(amount, c.limits.MinBet, c.limits.MaxBet)
	if err != nil {
		return Outcome{}, err
	}

	return c.transact(ctx, op, name, value, c.limits.BetGasLimit, func(game registry.Game, opts *bind.TransactOpts) (*types.Transaction, error) {
		return game.PlaceBet(opts, args...)
	})
}

// CashOut settles the caller's active game on name.
func (c *Client) CashOut(ctx context.Context, name string) (Outcome, error) {
	const op = "cash out"

	return c.transact(ctx, op, name, nil, c.limits.CashOutGasLimit, func(game registry.Game, opts *bind.TransactOpts) (*types.Transaction, error) {
		return game.CashOut(opts)
	})
}

// transact submits once and waits for the receipt. Nothing is retried; the wait
// is bounded only by ctx.
func (c *Client) transact(ctx context.Context, op, name string, value *big.Int, gasLimit uint64, send sendFunc) (Outcome, error) {
	binding, game, err := c.prepare(ctx, op, name)
	if err != nil {
		return Outcome{}, err
	}

	log := c.logger.
		With("op", op).
		With("contract", name).
		With("account", binding.Identity.Address.Hex())

	tx, err := send(game, binding.TransactOpts(ctx, value, gasLimit))
	if err != nil {
		err = errs.Transaction(op, name, err)
		log.With("err", err.Error()).Warn("transaction not submitted")
		return Outcome{Failure: errs.Kind(err)}, err
	}

	outcome := Outcome{TxHash: tx.Hash()}
	log = log.With("tx_hash", outcome.TxHash.Hex())
	log.Info("transaction submitted")

	receipt, err := bind.WaitMined(ctx, binding.Backend, tx)
	if err != nil {
		err = errs.Wrap(op, name, errs.ErrNetwork, fmt.Errorf("settlement of %s not observed: %w", outcome.TxHash.Hex(), err))
		outcome.Failure = errs.ErrNetwork
		log.With("err", err.Error()).Warn("transaction settlement not observed")
		return outcome, err
	}

	outcome.BlockNumber = receipt.BlockNumber.Uint64()
	outcome.GasUsed = receipt.GasUsed

	if receipt.Status != types.ReceiptStatusSuccessful {
		err = errs.Wrap(op, name, errs.ErrTransactionReverted, fmt.Errorf("transaction %s reverted in block %d", outcome.TxHash.Hex(), outcome.BlockNumber))
		outcome.Failure = errs.ErrTransactionReverted
		log.With("block", outcome.BlockNumber).Warn("transaction reverted")
		return outcome, err
	}

	outcome.Settled = true
	log.
		With("block", outcome.BlockNumber).
		With("gas_used", outcome.GasUsed).
		Info("transaction settled")

	return outcome, nil
}
