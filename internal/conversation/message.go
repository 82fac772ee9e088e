package conversation

import "strings"

// Role tags a message sent to the inference client.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Speaker labels a line of the human-readable transcript.
type Speaker string

const (
	SpeakerInterviewer Speaker = "Interviewer"
	SpeakerCandidate   Speaker = "Candidate"
)

// DefaultMaxTurns is the number of user/assistant messages kept after each candidate answer.
const DefaultMaxTurns = 4

// Message is a single role-tagged entry of the model transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Entry is a single line of the display transcript.
type Entry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Compact keeps a leading system message and the most recent maxTurns
// messages after it. The input slice is never modified. A non-positive
// maxTurns disables trimming.
func Compact(transcript []Message, maxTurns int) []Message {
	head := 0
	if len(transcript) > 0 && transcript[0].Role == RoleSystem {
		head = 1
	}

	turns := len(transcript) - head
	if maxTurns <= 0 || turns <= maxTurns {
		return cloneMessages(transcript)
	}

	out := make([]Message, 0, head+maxTurns)
	out = append(out, transcript[:head]...)
	out = append(out, transcript[len(transcript)-maxTurns:]...)
	return out
}

// RenderTranscript formats entries as "<speaker>: <text>" lines in display order.
func RenderTranscript(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, string(e.Speaker)+": "+e.Text)
	}
	return strings.Join(lines, "\n")
}

// Excerpt returns at most limit characters from the start of s.
func Excerpt(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func cloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}
