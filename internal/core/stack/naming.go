// Package stack holds the pure parts of stack orchestration: the manifest
// describing the two-container stack, resource naming, and connection-string
// assembly. Everything that talks to Docker lives in internal/shell/stack.
package stack

// =============================================================================
// Resource Labels
// =============================================================================

// Labels attached to every resource the orchestrator creates, so status and
// teardown can find them without any local state.
const (
	LabelManaged = "com.mingle.managed"
	LabelStack   = "com.mingle.stack"
	LabelService = "com.mingle.service"
)

// Service names used in the com.mingle.service label.
const (
	ServiceDatabase = "database"
	ServiceApp      = "app"
)

// =============================================================================
// Defaults
// =============================================================================

// Default resource names. The manifest may override any of them.
const (
	DefaultNetworkName   = "mingle-net"
	DefaultImageTag      = "mingle-api:latest"
	DefaultBuildContext  = "."
	DefaultDBName        = "mingle-db"
	DefaultDBImage       = "postgres:16-alpine"
	DefaultAppName       = "mingle-api"
	DefaultHostPort      = 8080
	DefaultContainerPort = 8080
	DefaultPostgresPort  = 5432
)
