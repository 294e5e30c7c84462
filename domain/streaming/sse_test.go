package streaming

import (
	"reflect"
	"testing"
)

func TestLineBuffer_SingleRead(t *testing.T) {
	var b LineBuffer
	lines := b.Append([]byte("data: {\"content\":\"ab\"}\n\ndata: [DONE]\n\n"))

	want := []string{`data: {"content":"ab"}`, "", "data: [DONE]", ""}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestLineBuffer_ByteByByte(t *testing.T) {
	// Feeding the stream one byte at a time must yield the same lines
	// as feeding it whole.
	input := "data: {\"content\":\"ab\"}\n\ndata: [DONE]\n\n"

	var whole LineBuffer
	want := whole.Append([]byte(input))

	var split LineBuffer
	var got []string
	for i := 0; i < len(input); i++ {
		got = append(got, split.Append([]byte{input[i]})...)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("split lines = %q, want %q", got, want)
	}
	if _, ok := split.Flush(); ok {
		t.Error("no partial line should remain")
	}
}

func TestLineBuffer_ArbitrarySplitPoints(t *testing.T) {
	input := "data: {\"content\":\"hello world\"}\ndata: {\"content\":\"!\"}\n"

	var whole LineBuffer
	want := whole.Append([]byte(input))

	for cut := 1; cut < len(input); cut++ {
		var b LineBuffer
		got := b.Append([]byte(input[:cut]))
		got = append(got, b.Append([]byte(input[cut:]))...)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("cut at %d: lines = %q, want %q", cut, got, want)
		}
	}
}

func TestLineBuffer_CarriesPartialLine(t *testing.T) {
	var b LineBuffer
	if lines := b.Append([]byte("data: par")); lines != nil {
		t.Errorf("incomplete line must not be emitted, got %q", lines)
	}
	lines := b.Append([]byte("tial\n"))
	if len(lines) != 1 || lines[0] != "data: partial" {
		t.Errorf("lines = %q", lines)
	}
}

func TestLineBuffer_Flush(t *testing.T) {
	var b LineBuffer
	b.Append([]byte("tail without newline"))
	line, ok := b.Flush()
	if !ok || line != "tail without newline" {
		t.Errorf("Flush = %q, %v", line, ok)
	}
	if _, ok := b.Flush(); ok {
		t.Error("second flush should be empty")
	}
}

func TestLineBuffer_CRLF(t *testing.T) {
	var b LineBuffer
	lines := b.Append([]byte("data: a\r\ndata: b\r\n"))
	want := []string{"data: a", "data: b"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestData(t *testing.T) {
	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{"data: payload", "payload", true},
		{"data:payload", "payload", true},
		{"data: [DONE]", "[DONE]", true},
		{"data: ", "", true},
		{"", "", false},
		{"event: message", "", false},
		{": comment", "", false},
	}
	for _, tt := range tests {
		got, ok := Data(tt.line)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Data(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFrame(t *testing.T) {
	if got := string(Frame([]byte(`{"content":"hi"}`))); got != "data: {\"content\":\"hi\"}\n\n" {
		t.Errorf("Frame = %q", got)
	}
	if got := string(FrameDone()); got != "data: [DONE]\n\n" {
		t.Errorf("FrameDone = %q", got)
	}
}
