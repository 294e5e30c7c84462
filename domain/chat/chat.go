// Package chat defines the chat-completion request shape and the rules
// for assembling a provider message list from a client request.
package chat

import "errors"

// Roles recognized in the message list.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmpty is returned when a request carries neither history nor a
// user turn.
var ErrEmpty = errors.New("chat: request has no messages")

// Message is one turn in the provider message list. Content is either
// a plain string or, for multimodal turns, a []Part.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// Part is one fragment of a multimodal message.
type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef holds an image data URL.
type ImageRef struct {
	URL string `json:"url"`
}

// Request is the client-facing chat request body.
type Request struct {
	SystemPrompt string    `json:"systemPrompt"`
	Messages     []Message `json:"messages"`
	UserMessage  string    `json:"userMessage"`
	ImagesBase64 []string  `json:"imagesBase64"`
}

// Build assembles the provider message list: optional system prompt
// first, then prior history verbatim, then the current user turn. When
// images are attached the user turn becomes a multimodal part list with
// the text first and each image as a PNG data URL.
func (r Request) Build() ([]Message, error) {
	if len(r.Messages) == 0 && r.UserMessage == "" {
		return nil, ErrEmpty
	}

	msgs := make([]Message, 0, len(r.Messages)+2)
	if r.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: r.SystemPrompt})
	}
	msgs = append(msgs, r.Messages...)

	if r.UserMessage != "" || len(r.ImagesBase64) > 0 {
		msgs = append(msgs, r.userTurn())
	}
	return msgs, nil
}

func (r Request) userTurn() Message {
	if len(r.ImagesBase64) == 0 {
		return Message{Role: RoleUser, Content: r.UserMessage}
	}

	parts := make([]Part, 0, len(r.ImagesBase64)+1)
	parts = append(parts, Part{Type: "text", Text: r.UserMessage})
	for _, img := range r.ImagesBase64 {
		parts = append(parts, Part{
			Type:     "image_url",
			ImageURL: &ImageRef{URL: "data:image/png;base64," + img},
		})
	}
	return Message{Role: RoleUser, Content: parts}
}
