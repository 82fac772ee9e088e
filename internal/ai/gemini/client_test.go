package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/interview-coach/internal/conversation"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []generateCall
	queue []fakeResponse
}

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	original := wait
	wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &waits
}

var interviewTranscript = []conversation.Message{
	{Role: conversation.RoleSystem, Content: "system"},
	{Role: conversation.RoleUser, Content: "start"},
	{Role: conversation.RoleAssistant, Content: "question"},
	{Role: conversation.RoleUser, Content: "answer"},
}

func TestGeneratorMapsTranscript(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("next question"), nil)

	g := newGenerator(models, "gemini-pro", 1, zap.NewNop())
	g.SetTemperature(0.4)

	output, err := g.Complete(context.Background(), interviewTranscript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "next question" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}
	call := models.calls[0]

	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatal("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if call.config.Temperature == nil || *call.config.Temperature != 0.4 {
		t.Fatalf("unexpected temperature: %v", call.config.Temperature)
	}

	expectRoles := []string{"user", "model", "user"}
	expectTexts := []string{"start", "question", "answer"}
	if len(call.contents) != len(expectRoles) {
		t.Fatalf("expected %d contents, got %d", len(expectRoles), len(call.contents))
	}
	for i, content := range call.contents {
		if string(content.Role) != expectRoles[i] {
			t.Fatalf("content %d: expected role %q, got %q", i, expectRoles[i], content.Role)
		}
		if content.Parts[0].Text != expectTexts[i] {
			t.Fatalf("content %d: expected text %q, got %q", i, expectTexts[i], content.Parts[0].Text)
		}
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	waits := stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g := newGenerator(models, "gemini-pro", 2, zap.NewNop())

	output, err := g.Complete(context.Background(), interviewTranscript)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
	if len(*waits) != 1 || (*waits)[0] != baseRetryDelay {
		t.Fatalf("unexpected waits: %v", *waits)
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := newGenerator(models, "gemini-pro", 2, zap.NewNop())

	_, err := g.Complete(context.Background(), interviewTranscript)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	waits := stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := newGenerator(models, "gemini-pro", 3, zap.NewNop())

	if _, err := g.Complete(context.Background(), interviewTranscript); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
	if len(*waits) != 0 {
		t.Fatalf("expected no waits, got %v", *waits)
	}
}

func TestGeneratorHonoursShortQuotaDelay(t *testing.T) {
	waits := stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Message: "Please retry in 1.5s.",
	})
	models.enqueue(textResponse("ok"), nil)

	g := newGenerator(models, "gemini-pro", 3, zap.NewNop())

	if _, err := g.Complete(context.Background(), interviewTranscript); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*waits) != 1 || (*waits)[0] != 1500*time.Millisecond {
		t.Fatalf("unexpected waits: %v", *waits)
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := newGenerator(models, "gemini-pro", 3, zap.NewNop())

	if _, err := g.Complete(context.Background(), interviewTranscript); err == nil {
		t.Fatal("expected error")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorRejectsEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{}, nil)

	g := newGenerator(models, "", 1, zap.NewNop())
	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}

	if _, err := g.Complete(context.Background(), interviewTranscript); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestGeneratorRequiresConversationTurns(t *testing.T) {
	g := newGenerator(&fakeModels{}, "gemini-pro", 1, zap.NewNop())

	_, err := g.Complete(context.Background(), []conversation.Message{{Role: conversation.RoleSystem, Content: "only system"}})
	if err == nil {
		t.Fatal("expected error without user messages")
	}
}
