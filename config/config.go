// Package config describes capability-source connections in a YAML file:
// which servers to spawn or dial, which of their tools to expose, and which
// tools require user confirmation before execution.
package config

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// TransportType selects how a capability source is reached.
type TransportType string

const (
	// TransportStdio spawns the server as a subprocess and speaks JSON-RPC
	// over its standard streams.
	TransportStdio TransportType = "stdio"
	// TransportSSE dials the server over HTTP+SSE.
	TransportSSE TransportType = "sse"
	// TransportLocal uses an in-process transport pair.
	TransportLocal TransportType = "local"
)

// Config lists the capability sources to bridge.
type Config struct {
	Servers []*ServerConfig `json:"servers" yaml:"servers" validate:"dive"`
}

// ServerConfig describes one capability source.
type ServerConfig struct {
	Name      string        `json:"name" yaml:"name" validate:"required"`
	Transport TransportType `json:"transport" yaml:"transport" validate:"required,oneof=stdio sse local"`

	// Command and Args apply to the stdio transport.
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	// Env holds additional environment for the child process, in KEY=VALUE form.
	Env []string `json:"env,omitempty" yaml:"env,omitempty"`

	// URL and Headers apply to the sse transport.
	URL     string            `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// AllowedTools restricts which discovered tools are exposed;
	// empty means all.
	AllowedTools []string `json:"allowed_tools,omitempty" yaml:"allowed_tools,omitempty"`

	// RequireConfirmation lists tools that must pass the confirmation gate.
	RequireConfirmation []string `json:"require_confirmation,omitempty" yaml:"require_confirmation,omitempty"`
}

var validate = validator.New()

// Load reads and validates the configuration from file, expanding
// environment variables.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	for _, srv := range c.Servers {
		switch srv.Transport {
		case TransportStdio:
			if srv.Command == "" {
				return errors.Errorf("server %q: stdio transport requires a command", srv.Name)
			}
		case TransportSSE:
			if srv.URL == "" {
				return errors.Errorf("server %q: sse transport requires a url", srv.Name)
			}
		}
	}
	return nil
}
