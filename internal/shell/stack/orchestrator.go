// Package stack drives Docker to bring the two-container stack up and down.
// The pure description of the stack (manifest, naming, connection strings)
// lives in internal/core/stack.
package stack

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	corestack "github.com/artpar/mingle/internal/core/stack"
	"github.com/artpar/mingle/internal/shell/docker"
)

// =============================================================================
// Orchestrator - Manages Stack Lifecycle
// =============================================================================

// Orchestrator manages the lifecycle of a stack using Docker.
type Orchestrator struct {
	docker docker.Client
	logger *slog.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(dockerClient docker.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		docker: dockerClient,
		logger: logger,
	}
}

// ServiceStatus describes one container of the stack.
type ServiceStatus struct {
	Service string // "database" or "app"
	Name    string
	ID      string
	Image   string
	Status  string
	Ports   []docker.PortBinding
}

// StackStatus describes the whole stack.
type StackStatus struct {
	Network  string
	Services []ServiceStatus
}

// =============================================================================
// Up
// =============================================================================

// UpOptions tunes the Up sequence.
type UpOptions struct {
	// WaitForDatabase, when positive, polls the database container after it
	// starts and holds the app container back until the database reports
	// running. Zero starts both containers back to back.
	WaitForDatabase time.Duration
}

// Up brings the stack up: network, image build, database container, app
// container, in that order. Each step assumes the previous one succeeded and
// the first failure stops the sequence. Nothing is rolled back; resources
// already created stay around for inspection and are removed by Down.
func (o *Orchestrator) Up(ctx context.Context, m *corestack.Manifest, opts UpOptions) (*StackStatus, error) {
	o.logger.Info("bringing stack up",
		"network", m.Network,
		"image", m.Image.Tag,
		"database", m.Database.Name,
		"app", m.App.Name,
	)

	// 1. Create network
	networkID, err := o.docker.CreateNetwork(docker.NetworkSpec{
		Name:   m.Network,
		Driver: "bridge",
		Labels: o.stackLabels(m, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create network %s: %w", m.Network, err)
	}
	o.logger.Debug("created network", "network_id", networkID, "network_name", m.Network)

	// 2. Build application image
	o.logger.Info("building image", "tag", m.Image.Tag, "context", m.Image.Context)
	if err := o.docker.BuildImage(docker.BuildSpec{
		Tag:        m.Image.Tag,
		ContextDir: m.Image.Context,
		Labels:     o.stackLabels(m, ""),
	}); err != nil {
		return nil, fmt.Errorf("failed to build image %s: %w", m.Image.Tag, err)
	}
	o.logger.Debug("built image", "tag", m.Image.Tag)

	// 3. Run the database container
	exists, err := o.docker.ImageExists(m.Database.Image)
	if err != nil {
		o.logger.Warn("failed to check for image, will pull", "image", m.Database.Image, "error", err)
	}
	if !exists {
		o.logger.Info("pulling image", "image", m.Database.Image)
		if err := o.docker.PullImage(m.Database.Image, docker.PullOptions{}); err != nil {
			o.logger.Warn("failed to pull image, trying anyway", "image", m.Database.Image, "error", err)
		}
	}

	dbID, err := o.runContainer(docker.ContainerSpec{
		Name:  m.Database.Name,
		Image: m.Database.Image,
		Env: map[string]string{
			"POSTGRES_USER":     m.Database.User,
			"POSTGRES_PASSWORD": m.Database.Password,
			"POSTGRES_DB":       m.Database.Database,
		},
		Labels:   o.stackLabels(m, corestack.ServiceDatabase),
		Networks: []string{m.Network},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run database container %s: %w", m.Database.Name, err)
	}
	o.logger.Debug("started database container", "container_id", shortID(dbID), "name", m.Database.Name)

	if opts.WaitForDatabase > 0 {
		if err := o.WaitForDatabase(ctx, m, opts.WaitForDatabase); err != nil {
			return nil, err
		}
	}

	// 4. Run the app container
	appEnv := make(map[string]string, len(m.App.Env)+3)
	for k, v := range m.App.Env {
		appEnv[k] = v
	}
	appEnv["POSTGRES_CONN"] = m.DatabaseConnString()
	appEnv["SERVER_PORT"] = strconv.Itoa(m.App.ContainerPort)
	if m.Secret != "" {
		appEnv["RANDOM_SECRET"] = m.Secret
	}

	appID, err := o.runContainer(docker.ContainerSpec{
		Name:     m.App.Name,
		Image:    m.Image.Tag,
		Env:      appEnv,
		Labels:   o.stackLabels(m, corestack.ServiceApp),
		Networks: []string{m.Network},
		Ports: []docker.PortBinding{
			{
				ContainerPort: m.App.ContainerPort,
				HostPort:      m.App.HostPort,
				Protocol:      "tcp",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run app container %s: %w", m.App.Name, err)
	}
	o.logger.Debug("started app container", "container_id", shortID(appID), "name", m.App.Name)

	// 5. Report status
	status, err := o.Status(ctx, m)
	if err != nil {
		return nil, err
	}

	o.logger.Info("stack is up", "network", m.Network, "containers", len(status.Services))
	return status, nil
}

// runContainer creates and starts a container.
func (o *Orchestrator) runContainer(spec docker.ContainerSpec) (string, error) {
	id, err := o.docker.CreateContainer(spec)
	if err != nil {
		return "", err
	}
	if err := o.docker.StartContainer(id); err != nil {
		return "", err
	}
	return id, nil
}

// =============================================================================
// Wait for Database
// =============================================================================

// WaitForDatabase polls the database container until it is running or the
// timeout expires. A container that exits while waiting is reported as an
// error immediately.
func (o *Orchestrator) WaitForDatabase(ctx context.Context, m *corestack.Manifest, timeout time.Duration) error {
	o.logger.Info("waiting for database container", "name", m.Database.Name, "timeout", timeout)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	deadline := time.Now().Add(timeout)

	for {
		info, err := o.docker.InspectContainer(m.Database.Name)
		if err != nil {
			return fmt.Errorf("failed to inspect database container: %w", err)
		}
		switch info.Status {
		case docker.ContainerStatusRunning:
			o.logger.Info("database container is running", "name", m.Database.Name)
			return nil
		case docker.ContainerStatusExited, docker.ContainerStatusDead:
			return fmt.Errorf("database container %s exited with code %d", m.Database.Name, info.ExitCode)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for database container %s", m.Database.Name)
		}
		o.logger.Debug("database not yet running, waiting...", "status", info.Status)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// =============================================================================
// Status
// =============================================================================

// Status lists the stack's containers by label.
func (o *Orchestrator) Status(ctx context.Context, m *corestack.Manifest) (*StackStatus, error) {
	containers, err := o.docker.ListContainers(docker.ListOptions{
		All: true,
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", corestack.LabelStack, m.Network),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	status := &StackStatus{Network: m.Network}
	for _, c := range containers {
		status.Services = append(status.Services, ServiceStatus{
			Service: c.Labels[corestack.LabelService],
			Name:    c.Name,
			ID:      c.ID,
			Image:   c.Image,
			Status:  string(c.Status),
			Ports:   c.Ports,
		})
	}

	return status, nil
}

// =============================================================================
// Logs
// =============================================================================

// ServiceLogs streams logs from one of the stack's containers. service is
// "database" or "app"; the caller closes the returned reader.
func (o *Orchestrator) ServiceLogs(ctx context.Context, m *corestack.Manifest, service string, opts docker.LogOptions) (io.ReadCloser, error) {
	var name string
	switch service {
	case corestack.ServiceDatabase:
		name = m.Database.Name
	case corestack.ServiceApp:
		name = m.App.Name
	default:
		return nil, fmt.Errorf("unknown service %q, expected %q or %q", service, corestack.ServiceDatabase, corestack.ServiceApp)
	}
	return o.docker.ContainerLogs(name, opts)
}

// =============================================================================
// Down
// =============================================================================

// Down removes the stack's containers and network. Containers go first, the
// network last. Failures are logged and the teardown keeps going.
func (o *Orchestrator) Down(ctx context.Context, m *corestack.Manifest) error {
	o.logger.Info("tearing stack down", "network", m.Network)

	containers, err := o.docker.ListContainers(docker.ListOptions{
		All: true,
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", corestack.LabelStack, m.Network),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	timeout := 10 * time.Second
	for _, c := range containers {
		if c.Status == docker.ContainerStatusRunning {
			if err := o.docker.StopContainer(c.ID, &timeout); err != nil {
				o.logger.Warn("failed to stop container", "container_id", shortID(c.ID), "error", err)
			}
		}
		if err := o.docker.RemoveContainer(c.ID, docker.RemoveOptions{Force: true}); err != nil {
			o.logger.Warn("failed to remove container", "container_id", shortID(c.ID), "error", err)
		} else {
			o.logger.Debug("removed container", "container_id", shortID(c.ID), "name", c.Name)
		}
	}

	if err := o.docker.RemoveNetwork(m.Network); err != nil {
		o.logger.Warn("failed to remove network", "network", m.Network, "error", err)
	} else {
		o.logger.Debug("removed network", "network", m.Network)
	}

	o.logger.Info("stack is down", "network", m.Network, "containers_removed", len(containers))
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// stackLabels returns the labels for a stack resource. service is empty for
// resources that are not containers.
func (o *Orchestrator) stackLabels(m *corestack.Manifest, service string) map[string]string {
	labels := map[string]string{
		corestack.LabelManaged: "true",
		corestack.LabelStack:   m.Network,
	}
	if service != "" {
		labels[corestack.LabelService] = service
	}
	return labels
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
