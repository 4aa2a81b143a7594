// Package gemini implements model.Model on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hupe1980/agentlab/model"
)

// Options configures the Gemini adapter.
type Options struct {
	Model       string
	APIKey      string
	BaseURL     string // Optional endpoint override
	Temperature float64
	MaxTokens   int
	TopK        int
	TopP        float64
}

// Model implements model.Model for Gemini.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a new Gemini model instance.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       "gemini-1.5-flash",
		Temperature: 0.7,
		MaxTokens:   500,
		TopK:        40,
		TopP:        0.95,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	// Constructors don't take a context; the client performs no I/O here.
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	contents := []*genai.Content{genai.NewContentFromText(req.UserText(), genai.RoleUser)}

	genResp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, m.buildConfig(req))
	if err != nil {
		return model.Response{}, fmt.Errorf("gemini api error: %w", err)
	}
	if len(genResp.Candidates) == 0 {
		return model.Response{}, fmt.Errorf("gemini: no candidates: %w", model.ErrEmptyResponse)
	}

	text := strings.TrimSpace(genResp.Text())
	if text == "" {
		return model.Response{}, fmt.Errorf("gemini: %w", model.ErrEmptyResponse)
	}

	resp := model.Response{
		Text:         text,
		FinishReason: strings.ToLower(string(genResp.Candidates[0].FinishReason)),
	}
	if u := genResp.UsageMetadata; u != nil {
		resp.Usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

func (m *Model) buildConfig(req model.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(m.opts.Temperature)),
		MaxOutputTokens: int32(m.opts.MaxTokens),
	}
	if m.opts.TopK > 0 {
		config.TopK = genai.Ptr(float32(m.opts.TopK))
	}
	if m.opts.TopP > 0 {
		config.TopP = genai.Ptr(float32(m.opts.TopP))
	}
	if req.Instructions != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.Instructions}},
		}
	}
	return config
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}
