package chat

import "testing"

func TestBuild_Ordering(t *testing.T) {
	req := Request{
		SystemPrompt: "be brief",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
		UserMessage: "what next?",
	}

	msgs, err := req.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "be brief" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Content != "hi" || msgs[2].Content != "hello" {
		t.Errorf("history not preserved: %+v", msgs[1:3])
	}
	if msgs[3].Role != RoleUser || msgs[3].Content != "what next?" {
		t.Errorf("msgs[3] = %+v", msgs[3])
	}
}

func TestBuild_NoSystemPrompt(t *testing.T) {
	msgs, err := Request{UserMessage: "q"}.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Fatalf("msgs = %+v", msgs)
	}
}

func TestBuild_Empty(t *testing.T) {
	if _, err := (Request{SystemPrompt: "alone"}).Build(); err != ErrEmpty {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}

func TestBuild_HistoryOnly(t *testing.T) {
	req := Request{Messages: []Message{{Role: RoleUser, Content: "earlier"}}}
	msgs, err := req.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
}

func TestBuild_Images(t *testing.T) {
	req := Request{UserMessage: "describe", ImagesBase64: []string{"AAAA", "BBBB"}}
	msgs, err := req.Build()
	if err != nil {
		t.Fatal(err)
	}
	parts, ok := msgs[0].Content.([]Part)
	if !ok {
		t.Fatalf("content is %T, want []Part", msgs[0].Content)
	}
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "describe" {
		t.Errorf("parts[0] = %+v", parts[0])
	}
	if parts[1].ImageURL == nil || parts[1].ImageURL.URL != "data:image/png;base64,AAAA" {
		t.Errorf("parts[1] = %+v", parts[1])
	}
}
