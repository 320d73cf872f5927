package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/domain"
)

func TestConnectionReplaceAndCurrent(t *testing.T) {
	conn := NewConnection(domain.ConnectionConfig{EndpointURL: " http://a ", APIKey: "k1", AgentID: "a1"})

	snap := conn.Current()
	assert.Equal(t, "http://a", snap.EndpointURL, "values are trimmed on replace")

	conn.Replace(domain.ConnectionConfig{EndpointURL: "http://b", APIKey: "k2"})

	assert.Equal(t, "http://a", snap.EndpointURL, "an earlier snapshot is unaffected")
	assert.Equal(t, domain.ConnectionConfig{EndpointURL: "http://b", APIKey: "k2"}, conn.Current(),
		"replace never merges with the previous value")
}

func TestConnectionZeroValue(t *testing.T) {
	var conn Connection
	assert.Equal(t, domain.ConnectionConfig{}, conn.Current())
}

func TestConnectionConcurrentAccess(t *testing.T) {
	conn := NewConnection(domain.ConnectionConfig{APIKey: "k"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			conn.Replace(domain.ConnectionConfig{APIKey: "k", AgentID: "x"})
		}()
		go func() {
			defer wg.Done()
			assert.Equal(t, "k", conn.Current().APIKey)
		}()
	}
	wg.Wait()
}

func TestConnectionFromEnv(t *testing.T) {
	t.Setenv(EnvEndpointURL, "http://env")
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvAgentID, "env-agent")
	ResetEnv()
	defer ResetEnv()

	assert.Equal(t, domain.ConnectionConfig{
		EndpointURL: "http://env",
		APIKey:      "env-key",
		AgentID:     "env-agent",
	}, ConnectionFromEnv())
}

func TestApplyOverrides(t *testing.T) {
	base := domain.ConnectionConfig{EndpointURL: "http://a", APIKey: "k", AgentID: "g"}

	got, err := ApplyOverrides(base, []string{"url=http://b", "KEY= new-key ", "agent=g2"})
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionConfig{EndpointURL: "http://b", APIKey: "new-key", AgentID: "g2"}, got)

	got, err = ApplyOverrides(base, []string{"endpoint=http://c"})
	require.NoError(t, err)
	assert.Equal(t, "http://c", got.EndpointURL)

	_, err = ApplyOverrides(base, []string{"url"})
	assert.Error(t, err)

	_, err = ApplyOverrides(base, []string{"model=x"})
	assert.ErrorContains(t, err, "unknown setting")
}

func TestSaveConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".env")

	cfg := domain.ConnectionConfig{EndpointURL: "http://a/chat", APIKey: "key with spaces", AgentID: "agent"}
	require.NoError(t, SaveConnection(path, cfg))

	vars, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "http://a/chat", vars[EnvEndpointURL])
	assert.Equal(t, "key with spaces", vars[EnvAPIKey])
	assert.Equal(t, "agent", vars[EnvAgentID])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveConnectionPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AGENTCHAT_LOG_LEVEL=debug\nAGENTCHAT_API_KEY=old\n"), 0o600))

	require.NoError(t, SaveConnection(path, domain.ConnectionConfig{EndpointURL: "http://x", AgentID: "a"}))

	vars, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", vars[EnvLogLevel])
	assert.Equal(t, "http://x", vars[EnvEndpointURL])
	assert.NotContains(t, vars, EnvAPIKey, "an empty field removes the saved key")
}
