// Package registry turns stored contract descriptors into live handles bound
// to one signing identity. A binding is an immutable snapshot: rebinding
// replaces it whole, and callers holding the previous snapshot keep using it.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync/atomic"

	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

type State string

const (
	StateUnbound State = "unbound"
	StateBound   State = "bound"
)

type (
	Binding struct {
		Identity wallet.Identity
		Backend  chain.Backend
		signer   *bind.TransactOpts
		handles  map[games.Name]Game
	}

	Registry struct {
		current atomic.Pointer[Binding]
		binder  Binder
		logger  *slog.Logger
	}
)

func New() *Registry {
	return NewWithBinder(NewGame)
}

// NewWithBinder uses binder instead of NewGame to build handles.
func NewWithBinder(binder Binder) *Registry {
	return &Registry{
		binder: binder,
		logger: logger.Named("binding_registry"),
	}
}

// Bind builds a handle for every usable descriptor and publishes the result as
// the current binding. Descriptors that cannot be bound are logged and left out.
func (r *Registry) Bind(identity wallet.Identity, backend chain.Backend, signer *bind.TransactOpts, descriptors []artifacts.Descriptor) (*Binding, error) {
	const op = "bind contracts"

	if identity.IsZero() {
		return nil, errs.Wrap(op, "", errs.ErrNotConnected, errs.ErrNotConnected)
	}
	if backend == nil {
		return nil, errs.Wrap(op, "", errs.ErrNotConnected, errors.New("no backend"))
	}
	if signer == nil {
		return nil, errs.Wrap(op, "", errs.ErrNotConnected, errors.New("no signer"))
	}

	handles := make(map[games.Name]Game, len(descriptors))
	for _, desc := range descriptors {
		log := r.logger.With("contract", desc.Name).With("address", desc.Address.Hex())

		if !desc.Name.Valid() {
			log.Warn("skipping unknown contract")
			continue
		}

		game, err := r.binder(desc, backend)
		if err != nil {
			log.With("err", err.Error()).Warn("skipping contract that cannot be bound")
			continue
		}
		handles[desc.Name] = game
		log.Debug("contract bound")
	}

	binding := &Binding{
		Identity: identity,
		Backend:  backend,
		signer:   signer,
		handles:  handles,
	}
	r.current.Store(binding)

	r.logger.
		With("account", identity.Address.Hex()).
		With("chain_id", identity.Network.ChainID).
		With("contracts", len(handles)).
		Info("contracts bound")

	return binding, nil
}

// Handle returns the current handle for name.
func (r *Registry) Handle(name string) (Game, error) {
	const op = "get contract"

	gameName, err := games.Parse(name)
	if err != nil {
		return nil, errs.Wrap(op, name, errs.ErrUnknownContract, err)
	}

	binding := r.current.Load()
	if binding == nil {
		return nil, errs.Wrap(op, name, errs.ErrNotInitialized, errs.ErrNotInitialized)
	}

	return binding.Handle(gameName)
}

// Current returns the published binding, or nil before the first Bind.
func (r *Registry) Current() *Binding {
	return r.current.Load()
}

func (r *Registry) State() State {
	if r.current.Load() == nil {
		return StateUnbound
	}
	return StateBound
}

func (b *Binding) Handle(name games.Name) (Game, error) {
	game, ok := b.handles[name]
	if !ok {
		return nil, errs.Wrap("get contract", name.String(), errs.ErrNotInitialized, errs.ErrNotInitialized)
	}
	return game, nil
}

// Names lists bound contracts in deployment order.
func (b *Binding) Names() []games.Name {
	out := make([]games.Name, 0, len(b.handles))
	for _, name := range games.All {
		if _, ok := b.handles[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Handles returns the bound handles in deployment order.
func (b *Binding) Handles() []Game {
	names := b.Names()
	out := make([]Game, 0, len(names))
	for _, name := range names {
		out = append(out, b.handles[name])
	}
	return out
}

// TransactOpts returns a fresh signer for one transaction.
func (b *Binding) TransactOpts(ctx context.Context, value *big.Int, gasLimit uint64) *bind.TransactOpts {
	return &bind.TransactOpts{
		From:     b.signer.From,
		Signer:   b.signer.Signer,
		Context:  ctx,
		Value:    value,
		GasLimit: gasLimit,
	}
}

func (b *Binding) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{
		From:    b.Identity.Address,
		Context: ctx,
	}
}
