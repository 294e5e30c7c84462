package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxway/voxgate/domain/pricing"
	"github.com/voxway/voxgate/ports"
)

const defaultSpeechmaticsBaseURL = "https://mp.speechmatics.com"

// SpeechmaticsConfig contains configuration for the Speechmatics client.
type SpeechmaticsConfig struct {
	APIKey  string
	BaseURL string
	Region  string // "eu" or "us", must match the realtime WS host
	TTLSecs int
}

// SpeechmaticsClient issues temporary realtime keys. The temp key lets
// the client connect directly to the Speechmatics websocket.
type SpeechmaticsClient struct {
	cfg    SpeechmaticsConfig
	client *http.Client
}

// NewSpeechmaticsClient creates a new Speechmatics client.
func NewSpeechmaticsClient(cfg SpeechmaticsConfig) *SpeechmaticsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSpeechmaticsBaseURL
	}
	if cfg.Region == "" {
		cfg.Region = "eu"
	}
	if cfg.TTLSecs <= 0 {
		cfg.TTLSecs = 120
	}
	return &SpeechmaticsClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider identifier.
func (c *SpeechmaticsClient) Name() string {
	return pricing.ProviderSpeechmatics
}

// IssueToken obtains a short-lived realtime key.
func (c *SpeechmaticsClient) IssueToken(ctx context.Context) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(map[string]interface{}{
		"ttl":    c.cfg.TTLSecs,
		"region": c.cfg.Region,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/api_keys?type=rt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, readCap))
		return "", &ports.UpstreamStatusError{
			Provider: pricing.ProviderSpeechmatics,
			Status:   resp.StatusCode,
			Body:     string(errBody),
		}
	}

	var out struct {
		KeyValue string `json:"key_value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode key response: %w", err)
	}
	key := strings.TrimSpace(out.KeyValue)
	if key == "" {
		return "", fmt.Errorf("speechmatics returned empty key_value")
	}
	return key, nil
}

var _ ports.STTTokenProvider = (*SpeechmaticsClient)(nil)
