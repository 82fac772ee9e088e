package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-coach/internal/conversation"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/prompts"
)

type scriptedAssistant struct {
	replies []string
	errs    []error
}

func (s *scriptedAssistant) Complete(_ context.Context, _ []conversation.Message) (string, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(s.replies) == 0 {
		return "", errors.New("unexpected call")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedAssistant) Model() string { return "scripted" }

func scriptedAnswers(lines ...string) func() (string, error) {
	return func() (string, error) {
		if len(lines) == 0 {
			return "", promptui.ErrEOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
}

var terminalSetup = interview.Setup{
	Company:        "Startup",
	Designation:    "Engineering Manager",
	Round:          prompts.RoundProjects,
	Resume:         "Jane Doe",
	JobDescription: "Go developer",
}

func TestConverseEndsWithEvaluation(t *testing.T) {
	assistant := &scriptedAssistant{replies: []string{"Q1", "Q2", "Hire"}}
	service := interview.NewService(assistant, zap.NewNop(), 0)
	sess := conversation.NewSession("terminal", 4)

	var out bytes.Buffer
	err := converse(context.Background(), service, sess, terminalSetup,
		scriptedAnswers("   ", "I built a scheduler", CommandEnd), &out, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	printed := out.String()
	for _, want := range []string{"Interviewer: Q1", "Interviewer: Q2", "Evaluation:\nHire"} {
		if !strings.Contains(printed, want) {
			t.Fatalf("expected %q in output, got %q", want, printed)
		}
	}

	if len(sess.Display()) != 3 {
		t.Fatalf("blank answer must be skipped, display: %+v", sess.Display())
	}
}

func TestConverseRetriesFailedTurn(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)

	assistant := &scriptedAssistant{
		replies: []string{"Q1", "Q2"},
		errs:    []error{nil, errors.New("temporarily unavailable"), nil},
	}
	service := interview.NewService(assistant, zap.NewNop(), 0)
	sess := conversation.NewSession("terminal", 4)

	var out bytes.Buffer
	err := converse(context.Background(), service, sess, terminalSetup,
		scriptedAnswers("first try", "second try", CommandQuit), &out, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if observed.FilterMessage("answer was not accepted, try again").Len() != 1 {
		t.Fatalf("expected the failed turn to be logged, got %+v", observed.All())
	}

	display := sess.Display()
	if len(display) != 3 || display[1].Text != "second try" {
		t.Fatalf("unexpected display: %+v", display)
	}
}

func TestConverseStopsOnEOF(t *testing.T) {
	assistant := &scriptedAssistant{replies: []string{"Q1"}}
	service := interview.NewService(assistant, zap.NewNop(), 0)

	var out bytes.Buffer
	err := converse(context.Background(), service, conversation.NewSession("terminal", 4), terminalSetup,
		scriptedAnswers(), &out, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewAssistantRejectsUnknownProvider(t *testing.T) {
	_, err := newAssistant(context.Background(), &AIConfig{Provider: "openai"}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "unsupported ai provider") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}

func TestNewAssistantGroqFromConfig(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	temperature := 0.2
	assistant, err := newAssistant(context.Background(), &AIConfig{
		Provider:    "Groq",
		Temperature: &temperature,
		Groq:        &GroqConfig{APIKey: "key", Model: "llama-3.3-70b-versatile"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assistant.Model() != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected model: %s", assistant.Model())
	}

	if _, err := newAssistant(context.Background(), &AIConfig{Provider: "groq"}, zap.NewNop()); err == nil {
		t.Fatal("expected an error without api key")
	}
}
