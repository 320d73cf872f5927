package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"

	"github.com/joss/agentchat/internal/domain"
)

// Connection is the process-wide connection configuration. Readers get an
// immutable snapshot; writers replace the whole value.
type Connection struct {
	current atomic.Pointer[domain.ConnectionConfig]
}

// NewConnection returns a Connection holding cfg.
func NewConnection(cfg domain.ConnectionConfig) *Connection {
	c := &Connection{}
	c.Replace(cfg)
	return c
}

// Current returns the configuration in effect right now.
func (c *Connection) Current() domain.ConnectionConfig {
	if p := c.current.Load(); p != nil {
		return *p
	}
	return domain.ConnectionConfig{}
}

// Replace swaps in cfg. Sends already in flight keep the value they read.
func (c *Connection) Replace(cfg domain.ConnectionConfig) {
	cfg.EndpointURL = strings.TrimSpace(cfg.EndpointURL)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.AgentID = strings.TrimSpace(cfg.AgentID)
	c.current.Store(&cfg)
}

// ConnectionFromEnv builds a connection configuration from Env.
func ConnectionFromEnv() domain.ConnectionConfig {
	e := Env()
	return domain.ConnectionConfig{
		EndpointURL: e.EndpointURL,
		APIKey:      e.APIKey,
		AgentID:     e.AgentID,
	}
}

// ApplyOverrides returns a copy of cfg with key=value assignments applied.
// Accepted keys: url (or endpoint), key, agent.
func ApplyOverrides(cfg domain.ConnectionConfig, args []string) (domain.ConnectionConfig, error) {
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return cfg, fmt.Errorf("expected key=value, got %q", arg)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "url", "endpoint":
			cfg.EndpointURL = value
		case "key":
			cfg.APIKey = value
		case "agent":
			cfg.AgentID = value
		default:
			return cfg, fmt.Errorf("unknown setting %q (want url, key or agent)", key)
		}
	}
	return cfg, nil
}

// SaveConnection writes the connection settings into the .env file at path,
// keeping any other variables already there.
func SaveConnection(path string, cfg domain.ConnectionConfig) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		vars = map[string]string{}
	}

	setOrDelete(vars, EnvEndpointURL, cfg.EndpointURL)
	setOrDelete(vars, EnvAPIKey, cfg.APIKey)
	setOrDelete(vars, EnvAgentID, cfg.AgentID)

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// The file holds an access key.
	return os.Chmod(path, 0o600)
}

func setOrDelete(vars map[string]string, key, value string) {
	if value == "" {
		delete(vars, key)
		return
	}
	vars[key] = value
}
