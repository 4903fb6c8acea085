package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	corestack "github.com/artpar/mingle/internal/core/stack"
	"github.com/artpar/mingle/internal/shell/docker"
	"github.com/artpar/mingle/internal/shell/stack"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/spf13/viper"
)

// defaultManifestPath is where up/status/down look for the manifest when -f
// is not given. A missing file at the default path just means defaults.
const defaultManifestPath = "stack.yaml"

// databaseWaitTimeout bounds how long -wait polls the database container.
const databaseWaitTimeout = 60 * time.Second

// =============================================================================
// Commands
// =============================================================================

// upCmd handles the "up" command.
func upCmd(args []string) error {
	fs := flag.NewFlagSet("up", flag.ExitOnError)
	manifestPath := fs.String("f", defaultManifestPath, "Path to stack manifest")
	wait := fs.Bool("wait", false, "Wait for the database container before starting the app")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}

	orch, cleanup, err := newOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	// -wait holds the app container back until the database reports running.
	// Without it both containers start back to back and the app retries its
	// connection on its own.
	var opts stack.UpOptions
	if *wait {
		opts.WaitForDatabase = databaseWaitTimeout
	}

	status, err := orch.Up(context.Background(), m, opts)
	if err != nil {
		return err
	}

	printStatus(status)
	return nil
}

// logsCmd handles the "logs" command.
func logsCmd(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	manifestPath := fs.String("f", defaultManifestPath, "Path to stack manifest")
	follow := fs.Bool("follow", false, "Follow log output")
	tail := fs.String("tail", "all", "Number of lines to show from the end of the logs")
	timestamps := fs.Bool("timestamps", false, "Show timestamps")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: logs [flags] <%s|%s>", corestack.ServiceDatabase, corestack.ServiceApp)
	}
	service := fs.Arg(0)

	m, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}

	orch, cleanup, err := newOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	reader, err := orch.ServiceLogs(context.Background(), m, service, docker.LogOptions{
		Follow:     *follow,
		Tail:       *tail,
		Timestamps: *timestamps,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	// The daemon multiplexes stdout and stderr onto one stream.
	_, err = stdcopy.StdCopy(os.Stdout, os.Stderr, reader)
	return err
}

// statusCmd handles the "status" command.
func statusCmd(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	manifestPath := fs.String("f", defaultManifestPath, "Path to stack manifest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}

	orch, cleanup, err := newOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	status, err := orch.Status(context.Background(), m)
	if err != nil {
		return err
	}
	printStatus(status)

	// Exit non-zero unless everything is running, so scripts can probe
	// stack health.
	states := make([]corestack.ServiceState, 0, len(status.Services))
	for _, svc := range status.Services {
		states = append(states, corestack.ServiceState{
			Service: svc.Service,
			Running: svc.Status == string(docker.ContainerStatusRunning),
		})
	}
	if health := corestack.AggregateHealth(states); health != corestack.HealthHealthy {
		return fmt.Errorf("stack is %s", health)
	}
	return nil
}

// downCmd handles the "down" command.
func downCmd(args []string) error {
	fs := flag.NewFlagSet("down", flag.ExitOnError)
	manifestPath := fs.String("f", defaultManifestPath, "Path to stack manifest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}

	orch, cleanup, err := newOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	return orch.Down(context.Background(), m)
}

// =============================================================================
// Helpers
// =============================================================================

// loadManifest reads and parses the manifest file. A missing file at the
// default path yields the default manifest; an explicitly named file must
// exist. Env values in the manifest may reference host environment variables
// with ${VAR} or ${VAR:-default}.
func loadManifest(path string) (*corestack.Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == defaultManifestPath {
			content = nil
		} else {
			return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
		}
	}

	m, err := corestack.ParseManifest(string(content))
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	env := hostEnv()
	for k, v := range m.App.Env {
		m.App.Env[k] = corestack.SubstituteVariables(v, env)
	}
	m.Secret = corestack.SubstituteVariables(m.Secret, env)
	m.Database.Password = corestack.SubstituteVariables(m.Database.Password, env)

	return m, nil
}

// hostEnv returns the process environment as a map.
func hostEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// newOrchestrator connects to Docker and builds the orchestrator. The
// returned cleanup closes the Docker client.
func newOrchestrator() (*stack.Orchestrator, func(), error) {
	v := viper.New()
	v.SetDefault("docker_host", "")
	v.SetDefault("log_level", "info")
	v.SetEnvPrefix("MINGLE")
	v.AutomaticEnv()

	logger := setupLogger(v.GetString("log_level"))

	client, err := docker.NewDockerClient(v.GetString("docker_host"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Docker: %w", err)
	}
	if err := client.Ping(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("Docker is not reachable: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close Docker client", "error", err)
		}
	}
	return stack.NewOrchestrator(client, logger), cleanup, nil
}

// setupLogger builds the CLI logger. Output goes to stderr so stdout stays
// clean for status output.
func setupLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// printStatus renders the stack status as a table.
func printStatus(status *stack.StackStatus) {
	fmt.Printf("NETWORK: %s\n", status.Network)
	if len(status.Services) == 0 {
		fmt.Println("no containers found")
		return
	}
	fmt.Printf("%-10s %-20s %-14s %-24s %s\n", "SERVICE", "NAME", "ID", "IMAGE", "STATUS")
	for _, svc := range status.Services {
		id := svc.ID
		if len(id) > 12 {
			id = id[:12]
		}
		ports := ""
		for i, p := range svc.Ports {
			if i > 0 {
				ports += ","
			}
			ports += fmt.Sprintf("%d->%d", p.HostPort, p.ContainerPort)
		}
		line := fmt.Sprintf("%-10s %-20s %-14s %-24s %s", svc.Service, svc.Name, id, svc.Image, svc.Status)
		if ports != "" {
			line += " (" + ports + ")"
		}
		fmt.Println(line)
	}
}
