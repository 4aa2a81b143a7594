package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_ContextRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append("s1", core.NewUserMessage("A")))
	require.NoError(t, store.Append("s1", core.NewAgentMessage("OpenAI", "B")))
	require.NoError(t, store.Append("s1", core.NewUserMessage("C")))

	assert.Equal(t, "User: A\nOpenAI: B\nUser: C", store.Context("s1", 3))
	assert.Equal(t, "User: A\nOpenAI: B\nUser: C", store.Context("s1", 10))
	assert.Equal(t, "OpenAI: B\nUser: C", store.Context("s1", 2))
}

func TestInMemoryStore_ContextWindowIsLastK(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.Append("s1", core.NewUserMessage(fmt.Sprintf("m%d", i))))
	}

	for _, k := range []int{1, 5, 10, 25, 30} {
		lines := strings.Split(store.Context("s1", k), "\n")
		want := k
		if want > 25 {
			want = 25
		}
		require.Len(t, lines, want, "k=%d", k)
		assert.Equal(t, fmt.Sprintf("User: m%d", 25-want), lines[0])
		assert.Equal(t, "User: m24", lines[len(lines)-1])
	}
}

func TestInMemoryStore_UnknownSession(t *testing.T) {
	store := NewInMemoryStore()

	assert.Equal(t, "", store.Context("missing", 10))
	assert.Nil(t, store.History("missing"))
	assert.Equal(t, 0, store.Len(), "reads must not create sessions")
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append("s1", core.NewUserMessage("hi")))
	require.Equal(t, 1, store.Len())

	store.Delete("s1")
	store.Delete("never-existed")

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, "", store.Context("s1", 10))
}

func TestInMemoryStore_SessionsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", s)
			for i := 0; i < 100; i++ {
				_ = store.Append(id, core.NewUserMessage(fmt.Sprintf("%d", i)))
				_ = store.Context(id, 10)
			}
		}(s)
	}
	wg.Wait()

	require.Equal(t, 8, store.Len())
	for s := 0; s < 8; s++ {
		history := store.History(fmt.Sprintf("s%d", s))
		require.Len(t, history, 100)
		for i, m := range history {
			assert.Equal(t, fmt.Sprintf("%d", i), m.Text, "append order must be preserved")
		}
	}
}
