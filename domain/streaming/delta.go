package streaming

import "encoding/json"

// Delta is one parsed upstream chat-completion chunk.
type Delta struct {
	Content     string // content fragment, empty if the chunk carried none
	TotalTokens int    // authoritative total, valid only when HasUsage
	HasUsage    bool
}

// chunk mirrors the subset of the upstream chunk schema we consume.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ParseDelta parses an upstream chunk payload. Returns false for
// payloads that are not valid JSON; a single corrupt frame must not
// abort the stream, so callers skip those.
func ParseDelta(payload string) (Delta, bool) {
	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Delta{}, false
	}

	var d Delta
	if len(c.Choices) > 0 {
		d.Content = c.Choices[0].Delta.Content
	}
	if c.Usage != nil {
		d.HasUsage = true
		d.TotalTokens = c.Usage.TotalTokens
	}
	return d, true
}

// EstimateTokens estimates the token contribution of a content
// fragment: length in characters divided by 4, rounded up.
func EstimateTokens(content string) int {
	if content == "" {
		return 0
	}
	return (len(content) + 3) / 4
}

// FallbackTokens is charged when a stream produced no countable
// content, so every completed stream yields a non-zero usage record.
const FallbackTokens = 500

// Counter accumulates the token count for one stream. A running
// estimate is built from content fragments; an authoritative total
// reported by the provider (typically on the final frame) overrides it.
type Counter struct {
	estimated     int
	authoritative int
	hasTotal      bool
}

// AddContent adds a content fragment's estimated contribution.
func (c *Counter) AddContent(fragment string) {
	c.estimated += EstimateTokens(fragment)
}

// SetTotal records an authoritative total-token count. Zero totals are
// ignored so a degenerate usage frame cannot erase the estimate.
func (c *Counter) SetTotal(total int) {
	if total > 0 {
		c.authoritative = total
		c.hasTotal = true
	}
}

// HasTotal reports whether an authoritative total was observed.
func (c *Counter) HasTotal() bool {
	return c.hasTotal
}

// Total returns the best-known token count: the authoritative total if
// one was observed, otherwise the running estimate.
func (c *Counter) Total() int {
	if c.hasTotal {
		return c.authoritative
	}
	return c.estimated
}

// Billable returns the token count to account for. When nothing was
// observed it returns FallbackTokens, trading precision for a ledger
// that is never silently incomplete.
func (c *Counter) Billable() int {
	if t := c.Total(); t > 0 {
		return t
	}
	return FallbackTokens
}
