package conversation

import (
	"reflect"
	"strings"
	"testing"
)

func msgs(pairs ...string) []Message {
	out := make([]Message, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Message{Role: Role(pairs[i]), Content: pairs[i+1]})
	}
	return out
}

func TestCompact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []Message
		maxTurns int
		expect   []Message
	}{
		{
			name:     "keeps system and last turns",
			input:    msgs("system", "SYS", "user", "A", "assistant", "B", "user", "C", "assistant", "D"),
			maxTurns: 2,
			expect:   msgs("system", "SYS", "user", "C", "assistant", "D"),
		},
		{
			name:     "no trimming under the bound",
			input:    msgs("system", "SYS", "user", "A", "assistant", "B", "user", "C"),
			maxTurns: 4,
			expect:   msgs("system", "SYS", "user", "A", "assistant", "B", "user", "C"),
		},
		{
			name:     "exactly at the bound",
			input:    msgs("system", "SYS", "user", "A", "assistant", "B"),
			maxTurns: 2,
			expect:   msgs("system", "SYS", "user", "A", "assistant", "B"),
		},
		{
			name:     "without system message",
			input:    msgs("user", "A", "assistant", "B", "user", "C", "assistant", "D", "user", "E"),
			maxTurns: 4,
			expect:   msgs("assistant", "B", "user", "C", "assistant", "D", "user", "E"),
		},
		{
			name:     "later system message counts as a turn",
			input:    msgs("user", "A", "system", "S2", "user", "C"),
			maxTurns: 2,
			expect:   msgs("system", "S2", "user", "C"),
		},
		{
			name:     "single turn bound keeps last message",
			input:    msgs("system", "SYS", "user", "A", "assistant", "B", "user", "C"),
			maxTurns: 1,
			expect:   msgs("system", "SYS", "user", "C"),
		},
		{
			name:     "non-positive bound disables trimming",
			input:    msgs("user", "A", "assistant", "B", "user", "C"),
			maxTurns: 0,
			expect:   msgs("user", "A", "assistant", "B", "user", "C"),
		},
		{
			name:     "empty transcript",
			input:    nil,
			maxTurns: 4,
			expect:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Compact(tt.input, tt.maxTurns)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %+v, got %+v", tt.expect, got)
			}
		})
	}
}

func TestCompactIsIdempotentAndPreservesEnds(t *testing.T) {
	input := msgs("system", "SYS")
	for i := 0; i < 20; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		input = append(input, Message{Role: Role(role), Content: strings.Repeat("x", i+1)})
	}

	once := Compact(input, 4)
	if len(once) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(once))
	}
	if once[0] != input[0] {
		t.Fatalf("system message removed: %+v", once[0])
	}
	if once[len(once)-1] != input[len(input)-1] {
		t.Fatalf("last message removed: %+v", once[len(once)-1])
	}

	twice := Compact(once, 4)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("compacting twice changed the transcript: %+v vs %+v", once, twice)
	}
}

func TestCompactDoesNotModifyInput(t *testing.T) {
	input := msgs("system", "SYS", "user", "A", "assistant", "B", "user", "C")
	snapshot := append([]Message(nil), input...)

	out := Compact(input, 1)
	out[0].Content = "changed"

	if !reflect.DeepEqual(input, snapshot) {
		t.Fatalf("input modified: %+v", input)
	}
}

func TestRenderTranscript(t *testing.T) {
	entries := []Entry{
		{Speaker: SpeakerInterviewer, Text: "What is X?"},
		{Speaker: SpeakerCandidate, Text: "X is ..."},
	}

	got := RenderTranscript(entries)
	expect := "Interviewer: What is X?\nCandidate: X is ..."
	if got != expect {
		t.Fatalf("expected %q, got %q", expect, got)
	}

	if empty := RenderTranscript(nil); empty != "" {
		t.Fatalf("expected empty rendering, got %q", empty)
	}
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "shorter than limit", input: "hello", limit: 10, expect: "hello"},
		{name: "cuts at limit", input: "hello world", limit: 5, expect: "hello"},
		{name: "counts characters not bytes", input: "привет мир", limit: 6, expect: "привет"},
		{name: "zero limit", input: "hello", limit: 0, expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Excerpt(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
