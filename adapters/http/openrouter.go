// Package http provides HTTP clients for the upstream AI and speech
// providers.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxway/voxgate/domain/chat"
	"github.com/voxway/voxgate/domain/pricing"
	"github.com/voxway/voxgate/ports"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// readCap bounds how much of an error body is kept for logging.
const readCap = 4 << 10

// OpenRouterConfig contains configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	ProvisionKey string
	Model        string
	BaseURL      string
	Referer      string
	Title        string
}

// OpenRouterClient streams chat completions and provisions per-user keys.
type OpenRouterClient struct {
	cfg             OpenRouterConfig
	client          *http.Client // provisioning and other buffered calls
	streamingClient *http.Client // completions, no timeout
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}
	return &OpenRouterClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		// Streams can run indefinitely, so no client timeout. The
		// request context still cancels the connection.
		streamingClient: &http.Client{Transport: &http.Transport{DisableCompression: true}},
	}
}

type completionRequest struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

// Stream opens a streaming completion for the message list.
func (c *OpenRouterClient) Stream(ctx context.Context, msgs []chat.Message) (io.ReadCloser, error) {
	body, err := json.Marshal(completionRequest{
		Model:    c.cfg.Model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.streamingClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, readCap))
		resp.Body.Close()
		return nil, &ports.UpstreamStatusError{
			Provider: pricing.ProviderOpenRouter,
			Status:   resp.StatusCode,
			Body:     string(errBody),
		}
	}
	return resp.Body, nil
}

type createKeyRequest struct {
	Name       string  `json:"name"`
	Limit      float64 `json:"limit"`
	LimitReset string  `json:"limit_reset"`
}

type createKeyResponse struct {
	Data struct {
		Key string `json:"key"`
	} `json:"data"`
}

// ProvisionKey creates a monthly spend-limited API key named for the user.
func (c *OpenRouterClient) ProvisionKey(ctx context.Context, name string, limitUSD float64) (string, error) {
	body, err := json.Marshal(createKeyRequest{
		Name:       fmt.Sprintf("voxgate-%s-%d", name, time.Now().UnixMilli()),
		Limit:      limitUSD,
		LimitReset: "monthly",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/keys", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ProvisionKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, readCap))
		return "", &ports.UpstreamStatusError{
			Provider: pricing.ProviderOpenRouter,
			Status:   resp.StatusCode,
			Body:     string(errBody),
		}
	}

	var out createKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode key response: %w", err)
	}
	if out.Data.Key == "" {
		return "", fmt.Errorf("openrouter returned empty key")
	}
	return out.Data.Key, nil
}

var (
	_ ports.ChatUpstream   = (*OpenRouterClient)(nil)
	_ ports.KeyProvisioner = (*OpenRouterClient)(nil)
)
