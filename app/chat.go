package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxway/voxgate/adapters/metrics"
	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/apierr"
	"github.com/voxway/voxgate/domain/chat"
	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/domain/pricing"
	"github.com/voxway/voxgate/domain/streaming"
	"github.com/voxway/voxgate/ports"
)

// finalizeTimeout bounds the post-stream accounting writes. They run
// on a background context so a client disconnect cannot abort them.
const finalizeTimeout = 10 * time.Second

// Sink receives relayed stream frames. net/http response writers
// satisfy it through a thin wrapper in the web layer.
type Sink interface {
	Write(p []byte) (int, error)
	Flush()
}

// ChatService proxies streaming chat completions and accounts for the
// tokens each stream consumed.
type ChatService struct {
	upstream      ports.ChatUpstream
	users         ports.UserStore
	ledger        ports.LedgerStore
	audit         ports.AuditStore
	rates         *pricing.Store
	clock         ports.Clock
	idGen         ports.IDGenerator
	metrics       *metrics.Collector
	logger        zerolog.Logger
	model         string
	keyConfigured bool
}

// ChatDeps contains dependencies for ChatService.
type ChatDeps struct {
	Upstream ports.ChatUpstream
	Users    ports.UserStore
	Ledger   ports.LedgerStore
	Audit    ports.AuditStore
	Rates    *pricing.Store
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  *metrics.Collector
	Logger   zerolog.Logger
	Model    string
	// KeyConfigured reports whether an upstream API key is present.
	// Without it every request would fail at the provider, so Open
	// rejects up front with a configuration error instead.
	KeyConfigured bool
}

// NewChatService creates a new chat service.
func NewChatService(deps ChatDeps) *ChatService {
	rates := deps.Rates
	if rates == nil {
		rates = pricing.NewStore(nil)
	}
	return &ChatService{
		upstream:      deps.Upstream,
		users:         deps.Users,
		ledger:        deps.Ledger,
		audit:         deps.Audit,
		rates:         rates,
		clock:         deps.Clock,
		idGen:         deps.IDGen,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		model:         deps.Model,
		keyConfigured: deps.KeyConfigured,
	}
}

// Stream is one open completion stream. Relay must be called exactly
// once; it consumes the upstream body and commits usage on return.
type Stream struct {
	svc     *ChatService
	user    account.User
	body    io.ReadCloser
	counter streaming.Counter
}

// Open validates the request and opens the upstream stream. Errors
// here happen before any bytes reach the client, so the handler can
// still return a proper status code.
func (s *ChatService) Open(ctx context.Context, user account.User, req chat.Request) (*Stream, error) {
	if !s.keyConfigured {
		s.logger.Error().Msg("chat upstream API key is not configured")
		return nil, apierr.NotConfigured
	}

	msgs, err := req.Build()
	if err != nil {
		return nil, apierr.Validation("Message is required")
	}

	body, err := s.upstream.Stream(ctx, msgs)
	if err != nil {
		var statusErr *ports.UpstreamStatusError
		if errors.As(err, &statusErr) {
			s.recordError(user.ID, statusErr)
			return nil, apierr.Upstream(statusErr.Status)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ActiveStreams.Inc()
	}
	return &Stream{svc: s, user: user, body: body}, nil
}

// contentFrame is the downstream frame shape. Upstream chunks are
// re-framed so the client sees a provider-independent stream.
type contentFrame struct {
	Content string `json:"content"`
}

// Relay forwards the stream to the sink and commits usage when it
// ends. The return covers only the relay; accounting failures are
// logged and swallowed so a committed stream is never double-billed
// by a retrying client.
func (st *Stream) Relay(sink Sink) {
	defer st.body.Close()
	defer st.svc.finalize(st.user.ID, &st.counter)
	if st.svc.metrics != nil {
		defer st.svc.metrics.ActiveStreams.Dec()
	}

	var buf streaming.LineBuffer
	chunk := make([]byte, 4096)
	writable := true

	for {
		n, err := st.body.Read(chunk)
		if n > 0 {
			for _, line := range buf.Append(chunk[:n]) {
				if done := st.handleLine(line, sink, &writable); done {
					return
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				st.svc.logger.Warn().Err(err).Msg("upstream stream read error")
			}
			return
		}
	}
}

// handleLine processes one reassembled line. Returns true when the
// stream is complete.
func (st *Stream) handleLine(line string, sink Sink, writable *bool) bool {
	payload, ok := streaming.Data(line)
	if !ok || payload == "" {
		return false
	}
	if payload == streaming.DoneSentinel {
		if *writable {
			st.write(sink, streaming.FrameDone(), writable)
		}
		return true
	}

	delta, ok := streaming.ParseDelta(payload)
	if !ok {
		// Corrupt frame; the stream goes on.
		return false
	}
	if delta.Content != "" {
		st.counter.AddContent(delta.Content)
		if *writable {
			out, err := json.Marshal(contentFrame{Content: delta.Content})
			if err == nil {
				st.write(sink, streaming.Frame(out), writable)
			}
		}
	}
	if delta.HasUsage {
		st.counter.SetTotal(delta.TotalTokens)
	}
	return false
}

// write pushes a frame to the sink. A failed write means the client is
// gone; relaying stops but reading goes on so the token count stays
// honest.
func (st *Stream) write(sink Sink, frame []byte, writable *bool) {
	if _, err := sink.Write(frame); err != nil {
		*writable = false
		return
	}
	sink.Flush()
}

// finalize commits quota and ledger exactly once per stream, on a
// background context. Failures are logged, counted and swallowed.
func (s *ChatService) finalize(userID string, counter *streaming.Counter) {
	tokens := counter.Billable()
	units := float64(tokens) / 1000
	cost := s.rates.Cost(pricing.ProviderOpenRouter, units)

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if _, err := s.users.IncrementAICredits(ctx, userID, cost); err != nil {
		s.commitFailed(ctx, userID, tokens, err)
		return
	}

	event := ledger.UsageEvent{
		ID:        s.idGen.New(),
		UserID:    userID,
		Provider:  pricing.ProviderOpenRouter,
		Type:      ledger.TypeAIChat,
		Units:     units,
		CostUSD:   cost,
		Metadata:  map[string]string{"model": s.model},
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.ledger.Record(ctx, event); err != nil {
		s.commitFailed(ctx, userID, tokens, err)
		return
	}

	if s.metrics != nil {
		source := "estimate"
		if counter.HasTotal() {
			source = "reported"
		}
		s.metrics.StreamTokens.WithLabelValues(pricing.ProviderOpenRouter, source).Add(float64(tokens))
		s.metrics.ProviderCost.WithLabelValues(pricing.ProviderOpenRouter, ledger.TypeAIChat).Add(cost)
	}
}

func (s *ChatService) commitFailed(ctx context.Context, userID string, tokens int, err error) {
	s.logger.Error().Err(err).Str("user_id", userID).Int("tokens", tokens).
		Msg("failed to commit stream usage")
	if s.metrics != nil {
		s.metrics.UsageCommitFailures.Inc()
	}
	entry := ledger.ErrorEntry{
		ID:        s.idGen.New(),
		UserID:    userID,
		Type:      ledger.ErrorUsageCommit,
		Provider:  pricing.ProviderOpenRouter,
		Message:   err.Error(),
		Metadata:  map[string]string{"tokens": strconv.Itoa(tokens)},
		CreatedAt: s.clock.Now().UTC(),
	}
	if auditErr := s.audit.RecordError(ctx, entry); auditErr != nil {
		s.logger.Error().Err(auditErr).Msg("failed to write error log")
	}
}

// recordError writes an upstream failure to the error log.
func (s *ChatService) recordError(userID string, statusErr *ports.UpstreamStatusError) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	body := statusErr.Body
	if len(body) > 200 {
		body = body[:200]
	}
	entry := ledger.ErrorEntry{
		ID:        s.idGen.New(),
		UserID:    userID,
		Type:      ledger.ErrorAIRequestFail,
		Provider:  statusErr.Provider,
		Message:   fmt.Sprintf("HTTP %d: %s", statusErr.Status, body),
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.audit.RecordError(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write error log")
	}
}
