package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/conversation"
	"github.com/spigell/interview-coach/internal/document"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/prompts"
)

const (
	CommandEnd  = "/end"
	CommandQuit = "/quit"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runTerminalInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("resume", "r", "", "path to the resume (text, markdown or html)")
	interviewCmd.Flags().String("jd", "", "job description: a URL or a path to a file")
	interviewCmd.Flags().String("company", "", "company to interview for (asked when empty)")
	interviewCmd.Flags().String("designation", "", "interviewer designation (asked when empty)")
	interviewCmd.Flags().String("round", "", "interview round, e.g. dsa or system-design (asked when empty)")

	interviewCmd.MarkFlagRequired("resume")
	interviewCmd.MarkFlagRequired("jd")
}

func runTerminalInterview(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	config, logger, service := setup(ctx)

	resume, err := document.ReadResumeFile(cmd.Flag("resume").Value.String())
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err))
	}

	jd, err := document.FetchJobDescription(ctx, cmd.Flag("jd").Value.String())
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	interviewSetup, err := askSetup(cmd)
	if err != nil {
		logger.Fatal("choosing the interview", zap.Error(err))
	}
	interviewSetup.Resume = resume
	interviewSetup.JobDescription = jd

	sess := conversation.NewSession(uuid.NewString(), config.Memory.MaxTurns)

	answers := func() (string, error) {
		p := promptui.Prompt{
			Label: fmt.Sprintf("Your answer (%s to evaluate, %s to leave)", CommandEnd, CommandQuit),
		}
		return p.Run()
	}

	if err := converse(ctx, service, sess, interviewSetup, answers, os.Stdout, logger); err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// askSetup fills the interview persona from flags, prompting for whatever is missing.
func askSetup(cmd *cobra.Command) (interview.Setup, error) {
	var setup interview.Setup
	var err error

	setup.Company, err = flagOrSelect(cmd, "company", "Company", prompts.Companies)
	if err != nil {
		return setup, err
	}

	setup.Designation, err = flagOrSelect(cmd, "designation", "Interviewer", prompts.Designations)
	if err != nil {
		return setup, err
	}

	if value := cmd.Flag("round").Value.String(); value != "" {
		setup.Round, err = prompts.ParseRoundType(value)
		return setup, err
	}

	rounds := prompts.RoundTypes()
	labels := make([]string, 0, len(rounds))
	for _, r := range rounds {
		labels = append(labels, r.String())
	}

	roundPrompt := promptui.Select{
		Label: "Round",
		Items: labels,
	}

	i, _, err := roundPrompt.Run()
	if err != nil {
		return setup, err
	}
	setup.Round = rounds[i]

	return setup, nil
}

func flagOrSelect(cmd *cobra.Command, flag, label string, items []string) (string, error) {
	if value := strings.TrimSpace(cmd.Flag(flag).Value.String()); value != "" {
		return value, nil
	}

	p := promptui.Select{
		Label: label,
		Items: items,
	}

	_, selected, err := p.Run()
	return selected, err
}

// converse runs the question and answer loop until the candidate ends or
// leaves the interview. Failed turns are reported and may be retried.
func converse(
	ctx context.Context,
	service *interview.Service,
	sess *conversation.Session,
	setup interview.Setup,
	answers func() (string, error),
	out io.Writer,
	logger *zap.Logger,
) error {
	question, err := service.Start(ctx, sess, setup)
	if err != nil {
		return fmt.Errorf("starting the interview: %w", err)
	}
	fmt.Fprintf(out, "\n%s: %s\n\n", conversation.SpeakerInterviewer, question)

	for {
		answer, err := answers()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(answer) {
		case CommandQuit:
			logger.Info("exiting", zap.String("reason", "left the interview"))
			return nil
		case CommandEnd:
			evaluation, err := service.Evaluate(ctx, sess)
			if err != nil {
				logger.Warn("evaluation failed, try again", zap.Error(err))
				continue
			}
			fmt.Fprintf(out, "\nEvaluation:\n%s\n", evaluation)
			return nil
		}

		question, err := service.Answer(ctx, sess, answer)
		switch {
		case err == nil:
			fmt.Fprintf(out, "\n%s: %s\n\n", conversation.SpeakerInterviewer, question)
		case interview.IsRefusal(err):
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			logger.Warn("answer was not accepted, try again", zap.Error(err))
		}
	}
}
