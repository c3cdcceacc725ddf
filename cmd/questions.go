package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/interview"
	"github.com/spigell/talentscout/internal/session"
	"github.com/spigell/talentscout/internal/stack"
)

var questionsCmd = &cobra.Command{
	Use:   "questions [stack]",
	Short: "Generate interview questions for a tech stack without a conversation",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger, config := setup()

		text, err := inputText(cmd, args)
		if err != nil {
			logger.Fatal("reading the stack", zap.Error(err))
		}

		s := stack.NewClassifier(config.Validation.StackThreshold).Classify(text)

		lang, _ := cmd.Flags().GetString("language")
		if lang == "" {
			lang = config.Language
		}
		if !session.ValidLanguage(lang) {
			logger.Fatal("invalid language code", zap.String("language", lang))
		}

		difficulty, _ := cmd.Flags().GetString("difficulty")
		difficulty = strings.ToLower(strings.TrimSpace(difficulty))
		if !interview.ValidDifficulty(difficulty) {
			logger.Fatal("invalid difficulty", zap.String("difficulty", difficulty))
		}

		orchestrator := newOrchestrator(ctx, config, logger)
		questions, diag := orchestrator.Generate(ctx, interview.Request{
			Stack:               s,
			Language:            lang,
			PreferredDifficulty: difficulty,
		})
		if diag != "" {
			logger.Info("questions prepared from fallback", zap.String("diagnostic", diag))
		}

		if err := printQuestions(cmd.OutOrStdout(), questions, jsonOutput(cmd)); err != nil {
			logger.Fatal("printing questions", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().StringP("language", "l", "", "language of the questions (default from config)")
	questionsCmd.Flags().String("difficulty", interview.DifficultyAuto, "preferred difficulty: auto, beginner, intermediate or advanced")
	questionsCmd.Flags().Bool("output-json", false, "print questions as a JSON array")
}

func printQuestions(out io.Writer, questions []interview.Question, asJSON bool) error {
	if asJSON {
		pretty, err := json.MarshalIndent(questions, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(pretty))
		return err
	}
	for i, q := range questions {
		if _, err := fmt.Fprintf(out, "Q%d. [%s, %s] %s\n", i+1, q.Topic, q.Difficulty, q.Question); err != nil {
			return err
		}
	}
	return nil
}
