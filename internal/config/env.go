// Package config provides centralized configuration management.
// Every AGENTCHAT_* variable is read here and nowhere else.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/joss/agentchat/internal/session"
)

// Environment variable names.
const (
	EnvEndpointURL = "AGENTCHAT_ENDPOINT_URL"
	EnvAPIKey      = "AGENTCHAT_API_KEY"
	EnvAgentID     = "AGENTCHAT_AGENT_ID"
	EnvHome        = "AGENTCHAT_HOME"
	EnvLogLevel    = "AGENTCHAT_LOG_LEVEL"
	EnvHTTPTimeout = "AGENTCHAT_HTTP_TIMEOUT"
	EnvAuditDB     = "AGENTCHAT_AUDIT_DB"
	EnvWelcome     = "AGENTCHAT_WELCOME"
	EnvTitleLimit  = "AGENTCHAT_TITLE_LIMIT"
)

// Defaults.
const (
	DefaultEndpointURL = "https://agent-prod.studio.lyzr.ai/v3/inference/chat/"
	DefaultAgentID     = "692067259f8444041740065c"
	DefaultHTTPTimeout = 60 * time.Second
	DefaultTitleLimit  = 30
	DefaultLogLevel    = "info"
	DefaultWelcome     = session.DefaultWelcome
)

// AppEnv holds all agentchat environment variables.
type AppEnv struct {
	// EndpointURL is the agent inference endpoint (AGENTCHAT_ENDPOINT_URL)
	EndpointURL string

	// APIKey is sent as the access key header (AGENTCHAT_API_KEY)
	APIKey string

	// AgentID selects the remote agent (AGENTCHAT_AGENT_ID)
	AgentID string

	// Home overrides ~/.agentchat (AGENTCHAT_HOME)
	Home string

	// LogLevel is debug, info, warn or error (AGENTCHAT_LOG_LEVEL)
	LogLevel string

	// HTTPTimeout bounds one gateway call (AGENTCHAT_HTTP_TIMEOUT, Go duration or seconds)
	HTTPTimeout time.Duration

	// AuditDB overrides the audit database path (AGENTCHAT_AUDIT_DB)
	AuditDB string

	// Welcome replaces the seeded welcome message (AGENTCHAT_WELCOME)
	Welcome string

	// TitleLimit is the rune length kept in derived titles (AGENTCHAT_TITLE_LIMIT)
	TitleLimit int
}

var (
	env     *AppEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *AppEnv {
	envOnce.Do(func() {
		env = &AppEnv{
			EndpointURL: getEnvDefault(EnvEndpointURL, DefaultEndpointURL),
			APIKey:      os.Getenv(EnvAPIKey),
			AgentID:     getEnvDefault(EnvAgentID, DefaultAgentID),
			Home:        os.Getenv(EnvHome),
			LogLevel:    getEnvDefault(EnvLogLevel, DefaultLogLevel),
			HTTPTimeout: parseDuration(os.Getenv(EnvHTTPTimeout), DefaultHTTPTimeout),
			AuditDB:     os.Getenv(EnvAuditDB),
			Welcome:     getEnvDefault(EnvWelcome, DefaultWelcome),
			TitleLimit:  parsePositiveInt(os.Getenv(EnvTitleLimit), DefaultTitleLimit),
		}
	})
	return env
}

// ResetEnv resets the cached environment and paths (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
	pathsOnce = sync.Once{}
	paths = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDuration accepts "90s", "2m" or a bare number of seconds.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func parsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Paths holds standard agentchat file locations.
type Paths struct {
	// Home is the agentchat home directory (~/.agentchat)
	Home string

	// EnvFile holds saved connection settings (~/.agentchat/.env)
	EnvFile string

	// LogFile receives structured logs while the TUI owns the terminal
	LogFile string

	// AuditDB is the send attempt log (~/.agentchat/audit.db)
	AuditDB string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home := Env().Home
		if home == "" {
			userHome, err := os.UserHomeDir()
			if err != nil {
				userHome = "."
			}
			home = filepath.Join(userHome, ".agentchat")
		}

		auditDB := Env().AuditDB
		if auditDB == "" {
			auditDB = filepath.Join(home, "audit.db")
		}

		paths = &Paths{
			Home:    home,
			EnvFile: filepath.Join(home, ".env"),
			LogFile: filepath.Join(home, "agentchat.log"),
			AuditDB: auditDB,
		}
	})
	return paths
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// LoadEnvFile merges the variables of a .env file into the process
// environment. Variables already set win. A missing file is not an error.
// Call ResetEnv afterwards if Env was already read.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
