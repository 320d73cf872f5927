package idgen

import (
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnique(t *testing.T) {
	const n = 2000
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/4; j++ {
				id := New()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestNewIsURLSafe(t *testing.T) {
	id := New()
	require.NotEmpty(t, id)
	assert.Equal(t, id, url.PathEscape(id))
	assert.Equal(t, strings.ToLower(id), id)
}

func TestPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(UserID(), "user_"))
	assert.True(t, strings.HasPrefix(SessionID(), "session_"))
	assert.NotEqual(t, SessionID(), SessionID())
}
