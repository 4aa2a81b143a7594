package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/model"
)

var _ model.Model = (*Model)(nil)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int64   `json:"max_completion_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " Step one. "}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
}`

func TestModel_Generate(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, http.StatusOK, okBody, &captured)

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL
	})
	resp, err := m.Generate(context.Background(), model.Request{
		Instructions: "be logical",
		Prompt:       "hi",
		Context:      "User: earlier",
	})
	require.NoError(t, err)

	assert.Equal(t, "Step one.", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 13, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-9)
	assert.EqualValues(t, 500, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "be logical", captured.Messages[0].Content)
	assert.Equal(t, "Context: User: earlier\n\nUser: hi", captured.Messages[1].Content)
}

func TestModel_GenerateEmptyIsMalformed(t *testing.T) {
	body := `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  "}}]}`
	srv := newServer(t, http.StatusOK, body, nil)

	m := NewModel(func(o *Options) { o.APIKey = "test"; o.BaseURL = srv.URL })
	_, err := m.Generate(context.Background(), model.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, model.ErrEmptyResponse)
}

func TestModel_GenerateNon200IsError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `{"error":{"message":"down"}}`, nil)

	m := NewModel(func(o *Options) { o.APIKey = "test"; o.BaseURL = srv.URL })
	_, err := m.Generate(context.Background(), model.Request{Prompt: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrEmptyResponse)
}

func TestCompatibleConstructors(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, http.StatusOK, okBody, &captured)

	hf := NewHuggingFace("hf-key", func(o *Options) { o.BaseURL = srv.URL })
	assert.Equal(t, "huggingface", hf.Info().Provider)
	_, err := hf.Generate(context.Background(), model.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, captured.Temperature, 1e-9)
	assert.EqualValues(t, 300, captured.MaxTokens)
	require.Len(t, captured.Messages, 1, "no system message without instructions")

	ollama := NewOllama(func(o *Options) { o.BaseURL = srv.URL })
	assert.Equal(t, model.Info{Name: "llama2", Provider: "ollama"}, ollama.Info())
}
