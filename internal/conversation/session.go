package conversation

import (
	"errors"
	"strings"
)

// ErrAlreadyStarted is returned when Initialize is called on a started session.
var ErrAlreadyStarted = errors.New("interview already started")

// Session holds the state of one candidate's interview: the transcript sent to
// the model, the full transcript shown to the user and the extracted documents.
// A Session is not safe for concurrent use; callers serialize actions on it.
type Session struct {
	id       string
	maxTurns int

	messages []Message
	display  []Entry

	resume         string
	jobDescription string
	started        bool
}

// NewSession creates an empty, not started session. maxTurns bounds the model
// transcript after every candidate answer; zero selects DefaultMaxTurns.
func NewSession(id string, maxTurns int) *Session {
	if maxTurns == 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Session{id: id, maxTurns: maxTurns}
}

func (s *Session) ID() string { return s.id }

func (s *Session) MaxTurns() int { return s.maxTurns }

func (s *Session) Started() bool { return s.started }

func (s *Session) Resume() string { return s.resume }

func (s *Session) JobDescription() string { return s.jobDescription }

// Messages returns a copy of the model transcript.
func (s *Session) Messages() []Message { return cloneMessages(s.messages) }

// Display returns a copy of the display transcript.
func (s *Session) Display() []Entry {
	out := make([]Entry, len(s.display))
	copy(out, s.display)
	return out
}

// InitialTranscript is the model transcript Initialize produces.
func InitialTranscript(systemInstruction, starterInstruction string) []Message {
	return []Message{
		{Role: RoleSystem, Content: systemInstruction},
		{Role: RoleUser, Content: starterInstruction},
	}
}

// Initialize resets the model transcript to the system and starter
// instructions, clears the display transcript and marks the session started.
func (s *Session) Initialize(systemInstruction, starterInstruction string) error {
	if s.started {
		return ErrAlreadyStarted
	}

	s.messages = InitialTranscript(systemInstruction, starterInstruction)
	s.display = nil
	s.started = true
	return nil
}

// SetDocuments stores the extracted resume and job description text.
func (s *Session) SetDocuments(resume, jobDescription string) {
	s.resume = resume
	s.jobDescription = jobDescription
}

// RecordAssistantTurn appends a model response to both transcripts.
func (s *Session) RecordAssistantTurn(text string) {
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: text})
	s.display = append(s.display, Entry{Speaker: SpeakerInterviewer, Text: text})
}

// RecordCandidateTurn appends the answer to both transcripts and compacts the
// model transcript. Blank answers are ignored and false is returned.
func (s *Session) RecordCandidateTurn(text string) bool {
	next, ok := s.PendingCandidateTurn(text)
	if !ok {
		return false
	}

	s.display = append(s.display, Entry{Speaker: SpeakerCandidate, Text: text})
	s.messages = next
	return true
}

// PendingCandidateTurn returns the model transcript RecordCandidateTurn would
// leave behind, without touching the session.
func (s *Session) PendingCandidateTurn(text string) ([]Message, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	next := make([]Message, 0, len(s.messages)+1)
	next = append(next, s.messages...)
	next = append(next, Message{Role: RoleUser, Content: text})
	return Compact(next, s.maxTurns), true
}

// RenderTranscript formats the display transcript for the judging prompt.
func (s *Session) RenderTranscript() string {
	return RenderTranscript(s.display)
}

// BuildEvaluationRequest returns the two-message request used to judge the
// interview. judgeInstruction is expected to embed RenderTranscript output.
func (s *Session) BuildEvaluationRequest(judgeSystemInstruction, judgeInstruction string) []Message {
	return []Message{
		{Role: RoleSystem, Content: judgeSystemInstruction},
		{Role: RoleUser, Content: judgeInstruction},
	}
}
