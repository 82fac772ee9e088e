package ai

import (
	"context"

	"github.com/spigell/interview-coach/internal/conversation"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Assistant sends an ordered, role-tagged transcript to a hosted model and
// returns the generated reply.
type Assistant interface {
	Complete(ctx context.Context, messages []conversation.Message) (string, error)
	Model() string
}
