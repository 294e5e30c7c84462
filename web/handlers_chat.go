package web

import (
	"net/http"

	"github.com/voxway/voxgate/app"
	"github.com/voxway/voxgate/domain/apierr"
	"github.com/voxway/voxgate/domain/chat"
)

// flusherSink adapts an http.ResponseWriter to the relay sink. Writes
// fail once the client is gone, which the relay uses to stop forwarding.
type flusherSink struct {
	w http.ResponseWriter
	f http.Flusher
}

func (s flusherSink) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s flusherSink) Flush() { s.f.Flush() }

// Chat proxies a streaming chat completion. Errors before the first
// byte get a JSON envelope; once streaming starts the connection is
// committed and usage is accounted when the stream ends, whether or
// not the client is still listening.
//
//	@Summary	Stream a chat completion
//	@Tags		AI
//	@Accept		json
//	@Produce	text/event-stream
//	@Security	Bearer
//	@Param		request	body	chat.Request	true	"Chat request"
//	@Success	200		"event stream of content frames, terminated by [DONE]"
//	@Failure	502		{object}	errorEnvelope	"AI provider error"
//	@Router		/api/ai/chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	user, _ := getUser(r.Context())

	var req chat.Request
	if err := h.decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.logger, apierr.Internal)
		return
	}

	stream, err := h.chat.Open(r.Context(), user, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream.Relay(flusherSink{w: w, f: flusher})
}

var _ app.Sink = flusherSink{}
