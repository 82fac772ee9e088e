package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/conversation"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/prompts"
	"github.com/spigell/interview-coach/internal/utils"
)

const (
	// StarterExcerptLimit is the number of resume and job description characters given to the starter prompt.
	StarterExcerptLimit = 2000
	// JudgeExcerptLimit is the number of resume and job description characters given to the judging prompt.
	JudgeExcerptLimit = 1500

	defaultMaxLogLength = 200
)

// Refused actions. They leave the session untouched and are not meant to be
// shown to the user as failures.
var (
	ErrMissingInput = errors.New("resume and job description are required")
	ErrBlankAnswer  = errors.New("answer is blank")
	ErrNotStarted   = errors.New("interview is not started")
)

// IsRefusal reports whether err is an input validation refusal rather than a failure.
func IsRefusal(err error) bool {
	return errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrBlankAnswer) ||
		errors.Is(err, ErrNotStarted) ||
		errors.Is(err, conversation.ErrAlreadyStarted)
}

// Setup is what the candidate fills in before the interview starts.
type Setup struct {
	Company        string            `mapstructure:"company"`
	Designation    string            `mapstructure:"designation"`
	Round          prompts.RoundType `mapstructure:"round"`
	JobDescription string            `mapstructure:"job_description"`
	// Resume is filled from the uploaded file, not from form values.
	Resume string
}

// Service drives interviews against an assistant. It keeps no per-user state;
// every call operates on the session passed in.
type Service struct {
	assistant ai.Assistant
	logger    *zap.Logger
	maxLogLen int
}

func NewService(assistant ai.Assistant, log *zap.Logger, maxLogLength int) *Service {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Service{
		assistant: assistant,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

// Start builds the starter prompt, asks the assistant for the first question
// and records it. The session is only modified once the question is received.
func (s *Service) Start(ctx context.Context, sess *conversation.Session, setup Setup) (string, error) {
	if sess.Started() {
		return "", conversation.ErrAlreadyStarted
	}

	if strings.TrimSpace(setup.Resume) == "" || strings.TrimSpace(setup.JobDescription) == "" {
		return "", ErrMissingInput
	}

	// An unselected round falls back to HR, like the last option of the form.
	if setup.Round == prompts.RoundUnknown {
		setup.Round = prompts.RoundHR
	}

	starter, err := prompts.Starter(setup.Round, prompts.StarterInput{
		Resume:         conversation.Excerpt(setup.Resume, StarterExcerptLimit),
		JobDescription: conversation.Excerpt(setup.JobDescription, StarterExcerptLimit),
		Designation:    setup.Designation,
		Company:        setup.Company,
	})
	if err != nil {
		return "", err
	}

	system := prompts.System()
	log := s.logger.With(logger.SessionFields(sess.ID(), setup.Round.Slug(), setup.Company)...)

	question, err := s.complete(ctx, log, conversation.InitialTranscript(system, starter))
	if err != nil {
		return "", fmt.Errorf("first question: %w", err)
	}

	if err := sess.Initialize(system, starter); err != nil {
		return "", err
	}
	sess.SetDocuments(setup.Resume, setup.JobDescription)
	sess.RecordAssistantTurn(question)

	log.Info("interview started", zap.String("designation", setup.Designation))

	return question, nil
}

// Answer records the candidate answer together with the next question.
// Blank answers are refused without touching the session.
func (s *Service) Answer(ctx context.Context, sess *conversation.Session, answer string) (string, error) {
	if !sess.Started() {
		return "", ErrNotStarted
	}

	pending, ok := sess.PendingCandidateTurn(answer)
	if !ok {
		return "", ErrBlankAnswer
	}

	log := s.logger.With(logger.SessionFields(sess.ID(), "", "")...)

	question, err := s.complete(ctx, log, pending)
	if err != nil {
		return "", fmt.Errorf("next question: %w", err)
	}

	sess.RecordCandidateTurn(answer)
	sess.RecordAssistantTurn(question)

	log.Debug("answer recorded",
		zap.Int("display_entries", len(sess.Display())),
		zap.Int("transcript_messages", len(sess.Messages())),
	)

	return question, nil
}

// Evaluate asks the assistant to judge the interview so far. The session is
// read but never modified.
func (s *Service) Evaluate(ctx context.Context, sess *conversation.Session) (string, error) {
	judge := prompts.Judge(
		conversation.Excerpt(sess.Resume(), JudgeExcerptLimit),
		conversation.Excerpt(sess.JobDescription(), JudgeExcerptLimit),
		sess.RenderTranscript(),
	)

	log := s.logger.With(logger.SessionFields(sess.ID(), "", "")...)

	evaluation, err := s.complete(ctx, log, sess.BuildEvaluationRequest(prompts.JudgeSystem, judge))
	if err != nil {
		return "", fmt.Errorf("evaluation: %w", err)
	}

	log.Info("interview evaluated", zap.Int("display_entries", len(sess.Display())))

	return evaluation, nil
}

func (s *Service) complete(ctx context.Context, log *zap.Logger, messages []conversation.Message) (string, error) {
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}

	log.Debug("assistant request",
		zap.Int("messages", len(messages)),
		zap.Int("prompt_length", utf8.RuneCountInString(last)),
		zap.String("prompt_preview", utils.TruncateForLog(last, s.maxLogLen)),
	)

	reply, err := s.assistant.Complete(ctx, messages)
	if err != nil {
		log.Warn("assistant request failed", zap.Error(err))
		return "", err
	}

	log.Debug("assistant response",
		zap.Int("response_length", utf8.RuneCountInString(reply)),
		zap.String("response_preview", utils.TruncateForLog(reply, s.maxLogLen)),
	)

	return reply, nil
}
