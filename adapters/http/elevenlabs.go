package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxway/voxgate/domain/pricing"
	"github.com/voxway/voxgate/ports"
)

const defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

// ErrNoAPIKey is returned when a provider call is attempted without a
// configured key.
var ErrNoAPIKey = errors.New("api key not configured")

// ElevenLabsConfig contains configuration for the ElevenLabs client.
type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
}

// ElevenLabsClient issues single-use realtime transcription tokens.
// The token expires after 15 minutes and is consumed on first use.
type ElevenLabsClient struct {
	cfg    ElevenLabsConfig
	client *http.Client
}

// NewElevenLabsClient creates a new ElevenLabs client.
func NewElevenLabsClient(cfg ElevenLabsConfig) *ElevenLabsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultElevenLabsBaseURL
	}
	return &ElevenLabsClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider identifier.
func (c *ElevenLabsClient) Name() string {
	return pricing.ProviderElevenLabs
}

// IssueToken obtains a single-use realtime STT token.
func (c *ElevenLabsClient) IssueToken(ctx context.Context) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/single-use-token/realtime_scribe", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, readCap))
		return "", &ports.UpstreamStatusError{
			Provider: pricing.ProviderElevenLabs,
			Status:   resp.StatusCode,
			Body:     string(errBody),
		}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("elevenlabs returned empty token")
	}
	return out.Token, nil
}

var _ ports.STTTokenProvider = (*ElevenLabsClient)(nil)
