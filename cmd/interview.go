package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/interview"
	"github.com/spigell/talentscout/internal/session"
	"github.com/spigell/talentscout/internal/store"
)

const assistantName = "TalentScout"

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Start a screening conversation in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("resume", "r", "", "continue a saved record by id")
	interviewCmd.Flags().StringP("language", "l", "", "conversation language code, e.g. en or hi (overrides a stored profile)")
	interviewCmd.Flags().String("difficulty", "", "preferred question difficulty: auto, beginner, intermediate or advanced")
	interviewCmd.Flags().Bool("no-save", false, "do not persist the record and profile at the end")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	logger.Info("starting the talentscout", zap.String("version", version))
	logger.Debug("starting with config", zap.String("config", describeConfig(config)))

	st, err := store.Open(ctx, config.Store, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err), zap.String("driver", config.Store.Driver))
	}
	defer st.Close()

	s := newSession(ctx, cmd, config, st, logger)

	engine := session.NewEngine(
		newValidators(config, logger),
		newOrchestrator(ctx, config, logger),
		st,
		logger,
	)

	converse(ctx, engine, s, linePrompt{}, cmd.OutOrStdout())

	if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
		logger.Info("exiting", zap.String("reason", "saving disabled"))
		return
	}
	persist(ctx, st, s, logger)
}

// newSession starts a fresh session or resumes a saved record, then applies
// the per-session overrides.
func newSession(ctx context.Context, cmd *cobra.Command, config *Config, st store.Store, logger *zap.Logger) *session.Session {
	var rec *candidate.Record

	id, _ := cmd.Flags().GetString("resume")
	if id = strings.TrimSpace(id); id != "" {
		loaded, err := st.LoadRecord(ctx, id)
		if err != nil {
			logger.Fatal("loading the record to resume", zap.String("id", id), zap.Error(err))
		}
		rec = loaded
		logger.Info("resuming record", zap.String("id", id))
	}

	s := session.New(id, rec)

	if rec == nil && session.ValidLanguage(config.Language) {
		s.Language = config.Language
		s.Record.Language = config.Language
	}

	if lang, _ := cmd.Flags().GetString("language"); lang != "" {
		if !s.SetLanguage(lang) {
			logger.Fatal("invalid language code", zap.String("language", lang))
		}
	}

	if d, _ := cmd.Flags().GetString("difficulty"); d != "" {
		if !s.SetDifficulty(strings.ToLower(d)) {
			logger.Fatal("invalid difficulty",
				zap.String("difficulty", d),
				zap.Strings("allowed", append([]string{interview.DifficultyAuto}, interview.Difficulties...)),
			)
		}
	}

	return s
}

// lineReader reads one candidate turn. io.EOF ends the conversation.
type lineReader interface {
	ReadLine() (string, error)
}

type linePrompt struct{}

func (linePrompt) ReadLine() (string, error) {
	p := promptui.Prompt{Label: "You"}
	line, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", io.EOF
	}
	return line, err
}

// converse runs the turn loop until the session ends or input runs out.
func converse(ctx context.Context, engine *session.Engine, s *session.Session, in lineReader, out io.Writer) {
	say(out, engine.Start(ctx, s))

	for !s.Ended() {
		line, err := in.ReadLine()
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		say(out, engine.Handle(ctx, s, line))
	}
}

func say(out io.Writer, replies []string) {
	for _, r := range replies {
		fmt.Fprintf(out, "%s: %s\n", assistantName, r)
	}
}

// persist saves the record when the candidate consented, and the profile
// when an email was collected.
func persist(ctx context.Context, st store.Store, s *session.Session, logger *zap.Logger) {
	if err := store.SaveConsented(ctx, st, s.ID, s.Record); err != nil {
		if errors.Is(err, store.ErrNoConsent) {
			logger.Info("record not saved", zap.String("reason", "no consent"))
			return
		}
		logger.Error("saving the record", zap.String("id", s.ID), zap.Error(err))
		return
	}
	logger.Info("record saved", zap.String("id", s.ID), zap.String("hint", "continue later with --resume "+s.ID))

	if s.Record.Email == "" {
		return
	}
	if err := st.SaveProfile(ctx, s.Record.Email, s.ProfileSnapshot()); err != nil {
		logger.Error("saving the profile", zap.Error(err))
	}
}
