package client

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

type (
	Event struct {
		Contract games.Name
		Name     string
		Fields   map[string]any
		Log      types.Log
	}

	Handler func(Event)

	// Subscription delivers one contract event to one handler, in the order
	// the node reports the logs.
	Subscription struct {
		cancel context.CancelFunc
		watch  event.Subscription
		done   chan struct{}
		once   sync.Once
		err    error

		delivering atomic.Bool
	}
)

// Subscribe invokes handler for every eventName emitted by name until the
// subscription is closed or ctx ends. Subscriptions are independent of each
// other.
func (c *Client) Subscribe(ctx context.Context, name, eventName string, handler Handler) (*Subscription, error) {
	const op = "subscribe"

	gameName, err := games.Parse(name)
	if err != nil {
		return nil, errs.Wrap(op, name, errs.ErrUnknownContract, err)
	}

	binding := c.registry.Current()
	if binding == nil {
		return nil, errs.Wrap(op, name, errs.ErrNotInitialized, errs.ErrNotInitialized)
	}

	game, err := binding.Handle(gameName)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	logs, watch, err := game.WatchEvent(&bind.WatchOpts{Context: subCtx}, eventName)
	if err != nil {
		cancel()
		return nil, errs.Wrap(op, name, errs.ErrNetwork, err)
	}

	sub := &Subscription{
		cancel: cancel,
		watch:  watch,
		done:   make(chan struct{}),
	}

	log := c.logger.With("contract", name).With("event", eventName)
	log.Debug("subscribed to contract event")

	go sub.deliver(subCtx, game, eventName, logs, handler, log)

	return sub, nil
}

func (s *Subscription) deliver(ctx context.Context, game registry.Game, eventName string, logs <-chan types.Log, handler Handler, log *slog.Logger) {
	defer close(s.done)
	defer s.watch.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-s.watch.Err():
			if err != nil {
				log.With("err", err.Error()).Warn("event subscription dropped")
				s.err = errs.Wrap("subscribe", game.Name().String(), errs.ErrNetwork, err)
			}
			return
		case raw := <-logs:
			if ctx.Err() != nil {
				return
			}

			fields, err := game.ParseEvent(eventName, raw)
			if err != nil {
				log.With("err", err.Error()).Warn("skipping undecodable event")
				continue
			}

			s.delivering.Store(true)
			handler(Event{
				Contract: game.Name(),
				Name:     eventName,
				Fields:   fields,
				Log:      raw,
			})
			s.delivering.Store(false)
		}
	}
}

// Unsubscribe stops delivery. Once it returns no new handler invocation
// starts. It waits for delivery to stop unless a handler invocation is in
// progress, so it may be called from inside the handler; Done is closed once
// that invocation returns.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		if s.delivering.Load() {
			return
		}
		<-s.done
	})
}

// Done is closed when delivery has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why delivery stopped on its own; nil after Unsubscribe or ctx end.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
