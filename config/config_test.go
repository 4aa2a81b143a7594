package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Orchestrator.ContextWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Orchestrator.Pacing)
	assert.Equal(t, 30*time.Second, cfg.Orchestrator.AgentTimeout)

	require.Len(t, cfg.Agents, 5)
	ids := []string{}
	for _, a := range cfg.Agents {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"OpenAI", "HuggingFace", "Gemini", "Ollama", "Stability"}, ids)
	assert.Equal(t, "sk-test", cfg.Agents[0].APIKey)
	assert.Empty(t, cfg.Agents[2].APIKey)
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("LAB_KEY", "abc")
	t.Setenv("LAB_WINDOW", "4")

	cfg, err := Parse([]byte(`
server:
  address: ${LAB_ADDR:-:9000}
orchestrator:
  context_window: ${LAB_WINDOW}
  pacing: 250ms
agents:
  - id: Claude
    personality: versatile_balanced
    backend: anthropic
    api_key: ${LAB_KEY}
    temperature: 0.2
`))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 4, cfg.Orchestrator.ContextWindow)
	assert.Equal(t, 250*time.Millisecond, cfg.Orchestrator.Pacing)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "abc", cfg.Agents[0].APIKey)
	require.NotNil(t, cfg.Agents[0].Temperature)
	assert.InDelta(t, 0.2, *cfg.Agents[0].Temperature, 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`
agents:
  - id: A
    personality: grumpy
    backend: openai
  - id: a
    personality: logical_analytical
    backend: carrier-pigeon
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown personality")
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestLoad_FileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	os.Unsetenv("LAB_DOTENV_KEY")
	t.Cleanup(func() { os.Unsetenv("LAB_DOTENV_KEY") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LAB_DOTENV_KEY=from-dotenv\n"), 0o600))

	path := filepath.Join(dir, "lab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agents:
  - id: Mock
    personality: logical_analytical
    backend: mock
    api_key: ${LAB_DOTENV_KEY}
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Agents[0].APIKey)
}

func TestUseMockBackends(t *testing.T) {
	cfg := Default()
	cfg.UseMockBackends()
	for _, a := range cfg.Agents {
		assert.Equal(t, BackendMock, a.Backend)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("LAB_X", "x")
	assert.Equal(t, "x-x-d", ExpandEnv("${LAB_X}-$LAB_X-${LAB_UNSET_VAR:-d}"))
	assert.Equal(t, "plain", ExpandEnv("plain"))
}

func TestParse_QuotedExpansionStaysString(t *testing.T) {
	t.Setenv("LAB_QUOTED_KEY", "00123")
	t.Setenv("LAB_QUOTED_ID", "1e3")
	t.Setenv("LAB_TOKENS", "256")

	cfg, err := Parse([]byte(`
agents:
  - id: "${LAB_QUOTED_ID}"
    personality: logical_analytical
    backend: mock
    api_key: '${LAB_QUOTED_KEY}'
    max_tokens: ${LAB_TOKENS}
`))
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "1e3", cfg.Agents[0].ID)
	assert.Equal(t, "00123", cfg.Agents[0].APIKey)
	assert.Equal(t, 256, cfg.Agents[0].MaxTokens)
}

func TestParse_ExplicitZeroOrchestration(t *testing.T) {
	cfg, err := Parse([]byte(`
orchestrator:
  context_window: 0
  pacing: 0s
`))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Orchestrator.ContextWindow)
	assert.Zero(t, cfg.Orchestrator.Pacing)
	assert.Equal(t, 30*time.Second, cfg.Orchestrator.AgentTimeout)

	cfg, err = Parse([]byte(`
orchestrator:
  agent_timeout: 5s
`))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Orchestrator.ContextWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Orchestrator.Pacing)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.AgentTimeout)
}
