// Package devnet runs a single anvil node in Docker for local deployments.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
)

const (
	stateDir    = "/tmp"
	stopTimeout = 10 * time.Second

	rpcAttempts = 60
	rpcInterval = 500 * time.Millisecond
)

var labels = map[string]string{"com.compose-network.arcade": "devnet"}

// Engine is the part of the Docker client the service drives.
type Engine interface {
	ImageExists(ctx context.Context, imageName string) (bool, error)
	PullImage(ctx context.Context, imageName string) error
	Lookup(ctx context.Context, name string) (Container, error)
	Create(ctx context.Context, name string, config *container.Config, hostConfig *container.HostConfig) (string, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string, timeout time.Duration) error
	Remove(ctx context.Context, id string) error
	CopyFileTo(ctx context.Context, id, hostPath, containerDir string) error
	CopyFileFrom(ctx context.Context, id, containerPath, hostDir string) error
}

type Service struct {
	engine  Engine
	cfg     configs.Devnet
	waitRPC func(ctx context.Context, rpcURL string) error
	logger  *slog.Logger
}

func NewService(engine Engine, cfg configs.Devnet) *Service {
	return &Service{
		engine: engine,
		cfg:    cfg,
		waitRPC: func(ctx context.Context, rpcURL string) error {
			return chain.WaitForRPC(ctx, rpcURL, rpcAttempts, rpcInterval)
		},
		logger: logger.Named("devnet").With("container", cfg.ContainerName),
	}
}

// RPCURL is where the node answers on the host.
func (s *Service) RPCURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.cfg.Port)
}

// Up starts the node unless it already runs, then waits for its RPC.
func (s *Service) Up(ctx context.Context) error {
	existing, err := s.engine.Lookup(ctx, s.cfg.ContainerName)
	switch {
	case err == nil && existing.Running:
		s.logger.Info("devnet already running")
		return s.waitRPC(ctx, s.RPCURL())
	case err == nil:
		s.logger.Info("removing stopped devnet container")
		if err := s.engine.Remove(ctx, existing.ID); err != nil {
			return err
		}
	case !errors.Is(err, ErrContainerNotFound):
		return err
	}

	if err := s.ensureImage(ctx); err != nil {
		return err
	}

	config, hostConfig, err := containerConfig(s.cfg)
	if err != nil {
		return err
	}

	id, err := s.engine.Create(ctx, s.cfg.ContainerName, config, hostConfig)
	if err != nil {
		return err
	}

	if err := s.start(ctx, id); err != nil {
		if rmErr := s.engine.Remove(ctx, id); rmErr != nil {
			s.logger.With("err", rmErr.Error()).Warn("failed to remove devnet container")
		}
		return err
	}

	if err := s.waitRPC(ctx, s.RPCURL()); err != nil {
		return fmt.Errorf("devnet did not become ready: %w", err)
	}

	s.logger.
		With("rpc_url", s.RPCURL()).
		With("chain_id", s.cfg.ChainID).
		Info("devnet is up")

	return nil
}

func (s *Service) start(ctx context.Context, id string) error {
	if s.cfg.StateFile != "" {
		_, err := os.Stat(s.cfg.StateFile)
		switch {
		case err == nil:
			s.logger.With("state_file", s.cfg.StateFile).Info("loading devnet state")
			if err := s.engine.CopyFileTo(ctx, id, s.cfg.StateFile, stateDir); err != nil {
				return err
			}
		case errors.Is(err, os.ErrNotExist):
			s.logger.With("state_file", s.cfg.StateFile).Info("no saved state, starting a fresh chain")
		default:
			return fmt.Errorf("failed to stat state file: %w", err)
		}
	}

	return s.engine.Start(ctx, id)
}

// Down removes the node. With a state file configured the node is stopped
// first so anvil dumps its state, which is then copied back to the host.
// A missing container is not an error.
func (s *Service) Down(ctx context.Context) error {
	existing, err := s.engine.Lookup(ctx, s.cfg.ContainerName)
	if errors.Is(err, ErrContainerNotFound) {
		s.logger.Info("devnet is not running")
		return nil
	}
	if err != nil {
		return err
	}

	if s.cfg.StateFile != "" && existing.Running {
		if err := s.engine.Stop(ctx, existing.ID, stopTimeout); err != nil {
			return err
		}

		err := s.engine.CopyFileFrom(ctx, existing.ID, containerStatePath(s.cfg.StateFile), filepath.Dir(s.cfg.StateFile))
		if err != nil {
			return fmt.Errorf("state not saved, container %s kept: %w", s.cfg.ContainerName, err)
		}
		s.logger.With("state_file", s.cfg.StateFile).Info("devnet state saved")
	}

	if err := s.engine.Remove(ctx, existing.ID); err != nil {
		return err
	}

	s.logger.Info("devnet removed")
	return nil
}

func (s *Service) ensureImage(ctx context.Context) error {
	exists, err := s.engine.ImageExists(ctx, s.cfg.Image)
	if err != nil {
		return fmt.Errorf("failed to check image %s: %w", s.cfg.Image, err)
	}
	if exists {
		return nil
	}
	return s.engine.PullImage(ctx, s.cfg.Image)
}

func containerConfig(cfg configs.Devnet) (*container.Config, *container.HostConfig, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(cfg.Port))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid devnet port: %w", err)
	}

	config := &container.Config{
		Image:        cfg.Image,
		Entrypoint:   []string{"anvil"},
		Cmd:          anvilArgs(cfg),
		ExposedPorts: nat.PortSet{port: struct{}{}},
		Labels:       labels,
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: port.Port()}},
		},
	}

	return config, hostConfig, nil
}

func anvilArgs(cfg configs.Devnet) []string {
	args := []string{
		"--host", "0.0.0.0",
		"--port", strconv.Itoa(cfg.Port),
		"--chain-id", strconv.FormatUint(cfg.ChainID, 10),
	}
	if cfg.StateFile != "" {
		args = append(args, "--state", containerStatePath(cfg.StateFile))
	}
	return args
}

func containerStatePath(stateFile string) string {
	return path.Join(stateDir, filepath.Base(stateFile))
}
