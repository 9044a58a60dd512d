// Package deploy provisions the game contracts: one sequential deployment per
// name, each verified on chain before its artifacts are stored.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/units"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

const opDeploy = "deploy"

type (
	// Compiled supplies compiled artifacts; *games.Source is one.
	Compiled interface {
		Load(name games.Name) (games.Artifact, error)
	}

	Options struct {
		GasLimit uint64
		// OnlyMissing reuses a stored address that still carries code instead
		// of deploying the contract again.
		OnlyMissing bool
	}

	Failure struct {
		Contract games.Name
		Err      error
	}

	Report struct {
		Record   artifacts.Record
		Balance  *big.Int
		Deployed []games.Name
		Reused   []games.Name
		Failures []Failure
	}

	Orchestrator struct {
		guard   *wallet.Guard
		source  Compiled
		store   *artifacts.Store
		target  network.Params
		options Options
		now     func() time.Time
		logger  *slog.Logger
	}
)

func NewOrchestrator(guard *wallet.Guard, source Compiled, store *artifacts.Store, target network.Params, options Options) *Orchestrator {
	return &Orchestrator{
		guard:   guard,
		source:  source,
		store:   store,
		target:  target,
		options: options,
		now:     time.Now,
		logger:  logger.Named("deploy_orchestrator"),
	}
}

// Run deploys names in order. Only a failed precondition (no identity, wrong
// network, zero balance) returns an error; per-contract failures are logged,
// reported and leave that contract out of the record.
func (o *Orchestrator) Run(ctx context.Context, names []games.Name) (Report, error) {
	identity, err := o.guard.EnsureNetwork(ctx, o.target)
	if err != nil {
		return Report{}, err
	}

	log := o.logger.
		With("network", identity.Network.Name).
		With("chain_id", identity.Network.ChainID).
		With("deployer", identity.Address.Hex())
	log.Info("deploying game contracts")

	balance, err := o.guard.RequireFunds(ctx, identity)
	if err != nil {
		log.With("err", err.Error()).Error("deployer account cannot pay for deployment")
		return Report{}, err
	}
	log.With("balance", units.FormatEther(balance)).Info("deployer balance checked")

	provider := o.guard.Provider()
	signer, err := provider.Transactor(identity.Address, identity.ChainIDBig())
	if err != nil {
		return Report{}, errs.Wrap(opDeploy, "", errs.ErrNotConnected, err)
	}
	backend := provider.Backend()

	report := Report{
		Record: artifacts.Record{
			Network:   identity.Network.Name,
			ChainID:   identity.Network.ChainID,
			Deployer:  identity.Address.Hex(),
			Timestamp: o.now().UTC(),
			RunID:     uuid.NewString(),
			Contracts: make(map[games.Name]string, len(names)),
		},
		Balance: balance,
	}

	for _, name := range names {
		address, reused, err := o.deployOne(ctx, backend, signer, name)
		if err != nil {
			log.With("contract", name).With("err", err.Error()).Error("contract deployment failed")
			report.Failures = append(report.Failures, Failure{Contract: name, Err: err})
			continue
		}

		report.Record.Contracts[name] = address.Hex()
		if reused {
			report.Reused = append(report.Reused, name)
		} else {
			report.Deployed = append(report.Deployed, name)
		}
	}

	log.
		With("deployed", len(report.Deployed)).
		With("reused", len(report.Reused)).
		With("failed", len(report.Failures)).
		Info("deployment run finished")

	return report, nil
}

func (o *Orchestrator) deployOne(ctx context.Context, backend chain.Backend, signer *bind.TransactOpts, name games.Name) (common.Address, bool, error) {
	log := o.logger.With("contract", name)

	artifact, err := o.source.Load(name)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("failed to load compiled %s: %w", name, err)
	}

	if o.options.OnlyMissing {
		if address, ok := o.existing(ctx, backend, name); ok {
			log.With("address", address.Hex()).Info("contract already deployed, reusing")
			return address, true, nil
		}
	}

	opts := &bind.TransactOpts{
		From:     signer.From,
		Signer:   signer.Signer,
		Context:  ctx,
		GasLimit: o.options.GasLimit,
	}

	log.Info("deploying contract")
	address, tx, _, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, backend)
	if err != nil {
		return common.Address{}, false, errs.Transaction(opDeploy, name.String(), err)
	}

	log.
		With("address", address.Hex()).
		With("tx_hash", tx.Hash().Hex()).
		Info("contract deployment transaction sent, waiting for confirmation")

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return common.Address{}, false, errs.Wrap(opDeploy, name.String(), errs.ErrNetwork, fmt.Errorf("failed to wait for transaction: %w", err))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, false, errs.Wrap(opDeploy, name.String(), errs.ErrTransactionReverted, fmt.Errorf("contract deployment failed with status %d", receipt.Status))
	}

	hasCode, err := chain.HasCode(ctx, backend, address)
	if err != nil {
		return common.Address{}, false, errs.Wrap(opDeploy, name.String(), errs.ErrNetwork, err)
	}
	if !hasCode {
		return common.Address{}, false, errs.Wrap(opDeploy, name.String(), errs.ErrDeploymentVerification, fmt.Errorf("no code at %s", address.Hex()))
	}

	if err := o.store.Save(name, address, artifact.Raw); err != nil {
		return common.Address{}, false, err
	}

	log.With("address", address.Hex()).With("block", receipt.BlockNumber).Info("contract deployed and verified")

	return address, false, nil
}

func (o *Orchestrator) existing(ctx context.Context, backend chain.Backend, name games.Name) (common.Address, bool) {
	desc, err := o.store.Load(name)
	if err != nil {
		return common.Address{}, false
	}

	hasCode, err := chain.HasCode(ctx, backend, desc.Address)
	if err != nil || !hasCode {
		return common.Address{}, false
	}

	return desc.Address, true
}

// Failed lists the names that did not deploy.
func (r Report) Failed() []games.Name {
	out := make([]games.Name, 0, len(r.Failures))
	for _, failure := range r.Failures {
		out = append(out, failure.Contract)
	}
	return out
}
