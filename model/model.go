package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrEmptyResponse is returned by providers when the vendor answered
// successfully but produced no usable text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// ErrMalformedResponse is returned when the vendor payload cannot be decoded.
var ErrMalformedResponse = errors.New("model returned a malformed response")

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string `json:"instructions"` // System / persona prompt
	Prompt       string `json:"prompt"`       // The user's message
	Context      string `json:"context"`      // Rendered conversation window, may be empty
}

// UserText renders the user turn sent to the vendor. When a context window is
// present it is prepended so the model sees the recent conversation.
func (r Request) UserText() string {
	if r.Context == "" {
		return r.Prompt
	}
	return fmt.Sprintf("Context: %s\n\nUser: %s", r.Context, r.Prompt)
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion returned by a model.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "gemini", "ollama", "mock", etc.
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockOptions tune MockModel behaviour.
type MockOptions struct {
	Latency time.Duration // Simulated vendor latency, honours ctx cancellation
	Err     error         // When set every call fails with this error
}

// MockModel is a lightweight in-memory Model useful for tests, examples and
// running the lab without vendor credentials.
type MockModel struct {
	info Info
	opts MockOptions

	mu        sync.Mutex
	responses map[string]string
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string, optFns ...func(o *MockOptions)) *MockModel {
	opts := MockOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		opts:      opts,
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Requests returns a copy of every request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	full := m.responses[req.Prompt]
	m.mu.Unlock()

	if m.opts.Latency > 0 {
		timer := time.NewTimer(m.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-timer.C:
		}
	}
	if m.opts.Err != nil {
		return Response{}, m.opts.Err
	}
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}
	return Response{Text: full, FinishReason: "stop"}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// ImageRequest is the normalized input of a text-to-image generation.
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ImageResponse carries the decoded image bytes.
type ImageResponse struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
	Seed     int64  `json:"seed,omitempty"`
}

// ImageModel is implemented by text-to-image backends.
type ImageModel interface {
	GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error)
	Info() Info
}

// MockImageModel returns a fixed payload for every prompt.
type MockImageModel struct {
	Data []byte
	Err  error
}

// GenerateImage implements ImageModel.
func (m *MockImageModel) GenerateImage(ctx context.Context, _ ImageRequest) (ImageResponse, error) {
	if err := ctx.Err(); err != nil {
		return ImageResponse{}, err
	}
	if m.Err != nil {
		return ImageResponse{}, m.Err
	}
	data := m.Data
	if data == nil {
		data = []byte("mock-image")
	}
	return ImageResponse{Data: data, MIMEType: "image/png"}, nil
}

// Info implements ImageModel.
func (m *MockImageModel) Info() Info { return Info{Name: "mock-image", Provider: "mock"} }
