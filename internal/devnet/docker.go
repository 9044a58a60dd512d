package devnet

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/moby/go-archive"
)

// ErrContainerNotFound is returned by Lookup when no container has the name.
var ErrContainerNotFound = errors.New("devnet container not found")

// Container is what Lookup reports about an existing container.
type Container struct {
	ID      string
	Running bool
}

// Docker is the Docker Engine client the devnet runs on.
type Docker struct {
	cli    *client.Client
	logger *slog.Logger
}

// NewDocker creates a Docker client from the environment.
func NewDocker() (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate Docker client: %w", err)
	}

	return &Docker{cli: cli, logger: logger.Named("docker_client")}, nil
}

func (d *Docker) Close() error {
	return d.cli.Close()
}

// ImageExists checks if a Docker image exists locally.
func (d *Docker) ImageExists(ctx context.Context, imageName string) (bool, error) {
	_, err := d.cli.ImageInspect(ctx, imageName)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// PullImage pulls a Docker image and surfaces errors reported in the progress stream.
func (d *Docker) PullImage(ctx context.Context, imageName string) error {
	d.logger.With("image", imageName).Info("pulling docker image")

	resp, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer resp.Close()

	scanner := bufio.NewScanner(resp)
	var pullError error
	for scanner.Scan() {
		line := scanner.Text()
		d.logger.Debug(line)

		var msg struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &msg); err == nil && msg.Error != "" {
			pullError = fmt.Errorf("pull failed: %s", msg.Error)
			d.logger.Error("docker pull error", "error", msg.Error)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading pull output: %w", err)
	}

	if pullError != nil {
		return pullError
	}

	d.logger.With("image", imageName).Info("docker image pulled successfully")
	return nil
}

func (d *Docker) Lookup(ctx context.Context, name string) (Container, error) {
	info, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return Container{}, ErrContainerNotFound
		}
		return Container{}, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	running := info.State != nil && info.State.Running
	return Container{ID: info.ID, Running: running}, nil
}

func (d *Docker) Create(ctx context.Context, name string, config *container.Config, hostConfig *container.HostConfig) (string, error) {
	resp, err := d.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}
	for _, warning := range resp.Warnings {
		d.logger.With("container", name).Warn(warning)
	}
	return resp.ID, nil
}

func (d *Docker) Start(ctx context.Context, id string) error {
	if err := d.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// Stop sends the stop signal and kills the container after timeout.
func (d *Docker) Stop(ctx context.Context, id string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	if err := d.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &seconds}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

func (d *Docker) Remove(ctx context.Context, id string) error {
	err := d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// CopyFileTo copies one host file into containerDir, owned by the container user.
func (d *Docker) CopyFileTo(ctx context.Context, id, hostPath, containerDir string) error {
	content, err := archive.TarWithOptions(filepath.Dir(hostPath), &archive.TarOptions{
		IncludeFiles: []string{filepath.Base(hostPath)},
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", hostPath, err)
	}
	defer content.Close()

	err = d.cli.CopyToContainer(ctx, id, containerDir, content, container.CopyToContainerOptions{CopyUIDGID: true})
	if err != nil {
		return fmt.Errorf("failed to copy %s into container: %w", hostPath, err)
	}
	return nil
}

// CopyFileFrom extracts containerPath into hostDir, keeping its base name.
func (d *Docker) CopyFileFrom(ctx context.Context, id, containerPath, hostDir string) error {
	content, _, err := d.cli.CopyFromContainer(ctx, id, containerPath)
	if err != nil {
		return fmt.Errorf("failed to copy %s from container: %w", containerPath, err)
	}
	defer content.Close()

	if err := os.MkdirAll(hostDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", hostDir, err)
	}

	if err := archive.Untar(content, hostDir, &archive.TarOptions{NoLchown: true}); err != nil {
		return fmt.Errorf("failed to extract %s: %w", containerPath, err)
	}
	return nil
}
