// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API. Because HuggingFace's router and Ollama both expose
// OpenAI compatible endpoints, the same adapter backs those agents through
// NewHuggingFace and NewOllama.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentlab/model"
)

const (
	// HuggingFaceBaseURL is the OpenAI compatible inference router.
	HuggingFaceBaseURL = "https://router.huggingface.co/v1"
	// OllamaBaseURL is the default local Ollama endpoint.
	OllamaBaseURL = "http://localhost:11434/v1"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string // Falls back to the SDK default (OPENAI_API_KEY) when empty
	BaseURL             string
	Provider            string // Reported through Info, e.g. "openai", "huggingface", "ollama"
	MaxRetries          int
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	reqOpts := []option.RequestOption{option.WithMaxRetries(opts.MaxRetries)}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// NewHuggingFace targets the HuggingFace router with the creative defaults
// (higher temperature, shorter answers).
func NewHuggingFace(apiKey string, optFns ...func(o *Options)) *Model {
	return NewModel(append([]func(o *Options){func(o *Options) {
		o.Model = "meta-llama/Llama-3.1-8B-Instruct"
		o.Temperature = 0.8
		o.MaxCompletionTokens = 300
		o.APIKey = apiKey
		o.BaseURL = HuggingFaceBaseURL
		o.Provider = "huggingface"
	}}, optFns...)...)
}

// NewOllama targets a local Ollama server. Ollama ignores the API key but the
// SDK requires one to be set.
func NewOllama(optFns ...func(o *Options)) *Model {
	return NewModel(append([]func(o *Options){func(o *Options) {
		o.Model = "llama2"
		o.MaxCompletionTokens = 300
		o.APIKey = "ollama"
		o.BaseURL = OllamaBaseURL
		o.Provider = "ollama"
	}}, optFns...)...)
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 500,
		Provider:            "openai",
		MaxRetries:          0,
	}
}

// Generate implements model.Model with a single non-streaming completion.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
	if err != nil {
		return model.Response{}, fmt.Errorf("%s api error: %w", m.opts.Provider, err)
	}
	if len(resp.Choices) == 0 {
		return model.Response{}, fmt.Errorf("%s: no choices returned: %w", m.opts.Provider, model.ErrEmptyResponse)
	}
	ch0 := resp.Choices[0]
	text := strings.TrimSpace(ch0.Message.Content)
	if text == "" {
		return model.Response{}, fmt.Errorf("%s: %w", m.opts.Provider, model.ErrEmptyResponse)
	}
	return model.Response{
		Text:         text,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildParams assembles the OpenAI request parameters.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	messages = append(messages, openai.UserMessage(req.UserText()))
	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: m.opts.Provider,
	}
}
