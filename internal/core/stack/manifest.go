package stack

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrInvalidName  = errors.New("invalid resource name")
	ErrInvalidPort  = errors.New("port must be between 1 and 65535")
	ErrEmptyField   = errors.New("required field is empty")
	ErrInvalidImage = errors.New("invalid image reference")
)

// ManifestError wraps a validation error with the field that failed.
type ManifestError struct {
	Field   string // e.g., "database.user"
	Message string
	Err     error
}

func (e *ManifestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Manifest Types
// =============================================================================

// Manifest describes the stack: one network, one built image, a database
// container, and an application container.
type Manifest struct {
	Network  string       `yaml:"network"`
	Image    ImageSpec    `yaml:"image"`
	Database DatabaseSpec `yaml:"database"`
	App      AppSpec      `yaml:"app"`
	Secret   string       `yaml:"secret"`
}

// ImageSpec describes the application image to build.
type ImageSpec struct {
	Tag     string `yaml:"tag"`
	Context string `yaml:"context"`
}

// DatabaseSpec describes the PostgreSQL container.
type DatabaseSpec struct {
	Name     string `yaml:"name"`
	Image    string `yaml:"image"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// AppSpec describes the application container.
type AppSpec struct {
	Name          string            `yaml:"name"`
	HostPort      int               `yaml:"host_port"`
	ContainerPort int               `yaml:"container_port"`
	Env           map[string]string `yaml:"env"`
}

// =============================================================================
// Parsing
// =============================================================================

// nameRegex matches names Docker accepts for containers and networks.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// DefaultManifest returns a manifest with every field set to its default.
func DefaultManifest() Manifest {
	return Manifest{
		Network: DefaultNetworkName,
		Image: ImageSpec{
			Tag:     DefaultImageTag,
			Context: DefaultBuildContext,
		},
		Database: DatabaseSpec{
			Name:     DefaultDBName,
			Image:    DefaultDBImage,
			User:     "mingle",
			Password: "mingle",
			Database: "mingle",
		},
		App: AppSpec{
			Name:          DefaultAppName,
			HostPort:      DefaultHostPort,
			ContainerPort: DefaultContainerPort,
		},
	}
}

// ParseManifest parses YAML into a Manifest, filling defaults for absent
// fields and validating the result. This is a pure function - no I/O.
func ParseManifest(yamlContent string) (*Manifest, error) {
	m := DefaultManifest()

	if strings.TrimSpace(yamlContent) != "" {
		if err := yaml.Unmarshal([]byte(yamlContent), &m); err != nil {
			return nil, &ManifestError{Message: err.Error(), Err: ErrInvalidYAML}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks names, image references and ports.
func (m *Manifest) Validate() error {
	names := []struct {
		field string
		value string
	}{
		{"network", m.Network},
		{"database.name", m.Database.Name},
		{"app.name", m.App.Name},
	}
	for _, n := range names {
		if n.value == "" {
			return &ManifestError{Field: n.field, Message: "must not be empty", Err: ErrEmptyField}
		}
		if !nameRegex.MatchString(n.value) {
			return &ManifestError{Field: n.field, Message: fmt.Sprintf("%q is not a valid Docker name", n.value), Err: ErrInvalidName}
		}
	}

	if m.Database.Name == m.App.Name {
		return &ManifestError{Field: "app.name", Message: "must differ from database.name", Err: ErrInvalidName}
	}

	images := []struct {
		field string
		value string
	}{
		{"image.tag", m.Image.Tag},
		{"database.image", m.Database.Image},
	}
	for _, img := range images {
		if strings.TrimSpace(img.value) == "" {
			return &ManifestError{Field: img.field, Message: "must not be empty", Err: ErrInvalidImage}
		}
	}

	required := []struct {
		field string
		value string
	}{
		{"database.user", m.Database.User},
		{"database.password", m.Database.Password},
		{"database.database", m.Database.Database},
	}
	for _, r := range required {
		if r.value == "" {
			return &ManifestError{Field: r.field, Message: "must not be empty", Err: ErrEmptyField}
		}
	}

	ports := []struct {
		field string
		value int
	}{
		{"app.host_port", m.App.HostPort},
		{"app.container_port", m.App.ContainerPort},
	}
	for _, p := range ports {
		if p.value < 1 || p.value > 65535 {
			return &ManifestError{Field: p.field, Message: fmt.Sprintf("%d is out of range", p.value), Err: ErrInvalidPort}
		}
	}

	return nil
}

// DatabaseConnString builds the connection URI the app container receives,
// pointing at the database container by name.
func (m *Manifest) DatabaseConnString() string {
	return ConnString(m.Database.User, m.Database.Password, m.Database.Name, DefaultPostgresPort, m.Database.Database)
}
