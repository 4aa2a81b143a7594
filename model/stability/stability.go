// Package stability is a small client for the Stability AI v1 text-to-image
// REST API. It implements model.ImageModel.
package stability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hupe1980/agentlab/model"
)

// DefaultBaseURL is the public Stability API endpoint.
const DefaultBaseURL = "https://api.stability.ai"

// Options configures the Stability client.
type Options struct {
	APIKey     string
	BaseURL    string
	Engine     string
	Width      int
	Height     int
	CFGScale   float64
	Steps      int
	Samples    int
	HTTPClient *http.Client
}

// Client implements model.ImageModel.
type Client struct {
	opts Options
}

// APIError is returned for any non-200 answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stability api error: status %d: %s", e.StatusCode, e.Message)
}

// New creates a Stability client.
func New(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		Engine:     "stable-diffusion-xl-1024-v1-0",
		Width:      512,
		Height:     512,
		CFGScale:   7,
		Steps:      30,
		Samples:    1,
		HTTPClient: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &Client{opts: opts}, nil
}

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type generationRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CFGScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type generationResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int64  `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

// GenerateImage implements model.ImageModel.
func (c *Client) GenerateImage(ctx context.Context, req model.ImageRequest) (model.ImageResponse, error) {
	body, err := json.Marshal(generationRequest{
		TextPrompts: []textPrompt{{Text: req.Prompt, Weight: 1}},
		CFGScale:    c.opts.CFGScale,
		Height:      c.opts.Height,
		Width:       c.opts.Width,
		Samples:     c.opts.Samples,
		Steps:       c.opts.Steps,
	})
	if err != nil {
		return model.ImageResponse{}, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", strings.TrimRight(c.opts.BaseURL, "/"), c.opts.Engine)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.ImageResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return model.ImageResponse{}, fmt.Errorf("stability request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.ImageResponse{}, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var out generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.ImageResponse{}, fmt.Errorf("stability: decode response: %w: %w", model.ErrMalformedResponse, err)
	}
	if len(out.Artifacts) == 0 || out.Artifacts[0].Base64 == "" {
		return model.ImageResponse{}, fmt.Errorf("stability: no artifacts: %w", model.ErrEmptyResponse)
	}
	data, err := base64.StdEncoding.DecodeString(out.Artifacts[0].Base64)
	if err != nil {
		return model.ImageResponse{}, fmt.Errorf("stability: invalid artifact encoding: %w: %w", model.ErrMalformedResponse, err)
	}

	return model.ImageResponse{Data: data, MIMEType: "image/png", Seed: out.Artifacts[0].Seed}, nil
}

// Info returns metadata describing this backend.
func (c *Client) Info() model.Info {
	return model.Info{Name: c.opts.Engine, Provider: "stability"}
}
