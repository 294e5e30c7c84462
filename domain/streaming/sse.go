// Package streaming implements the line-framed event protocol used to
// relay provider token streams, and the token accounting derived from
// the relayed content.
package streaming

import "strings"

// DoneSentinel is the literal payload that marks normal end of stream.
const DoneSentinel = "[DONE]"

const dataPrefix = "data:"

// Frame wraps a payload in the wire framing: "data: <payload>\n\n".
// The same framing is used upstream and downstream so the client's
// parser is provider-agnostic.
func Frame(payload []byte) []byte {
	out := make([]byte, 0, len(dataPrefix)+1+len(payload)+2)
	out = append(out, dataPrefix...)
	out = append(out, ' ')
	out = append(out, payload...)
	out = append(out, '\n', '\n')
	return out
}

// FrameDone returns the framed termination sentinel.
func FrameDone() []byte {
	return Frame([]byte(DoneSentinel))
}

// Data extracts the payload from a "data:" line. The second return is
// false for any other line (blank separators, comments, other fields).
func Data(line string) (string, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(dataPrefix):]), true
}

// LineBuffer reassembles newline-delimited lines from arbitrarily split
// chunks. Append returns the complete lines found in the input; a
// trailing partial line is carried over into the next call, so feeding
// the same bytes in any chunking yields the same sequence of lines.
type LineBuffer struct {
	carry []byte
}

// Append adds a chunk and returns all complete lines now available.
func (b *LineBuffer) Append(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	b.carry = append(b.carry, chunk...)

	var lines []string
	start := 0
	for i, c := range b.carry {
		if c == '\n' {
			line := string(b.carry[start:i])
			lines = append(lines, strings.TrimSuffix(line, "\r"))
			start = i + 1
		}
	}
	if start > 0 {
		rest := b.carry[start:]
		b.carry = append(b.carry[:0], rest...)
	}
	return lines
}

// Flush returns the trailing partial line, if any, and resets the buffer.
func (b *LineBuffer) Flush() (string, bool) {
	if len(b.carry) == 0 {
		return "", false
	}
	line := string(b.carry)
	b.carry = b.carry[:0]
	return line, true
}
