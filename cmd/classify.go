package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/stack"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Sort a free-form tech stack into languages, frameworks, databases and tools",
	Long:  "Sort a free-form tech stack into categories. Reads stdin when no text is given.",
	Run: func(cmd *cobra.Command, args []string) {
		logger, config := setup()

		text, err := inputText(cmd, args)
		if err != nil {
			logger.Fatal("reading the stack", zap.Error(err))
		}

		s := stack.NewClassifier(config.Validation.StackThreshold).Classify(text)
		if s.Empty() {
			logger.Warn("no technologies recognized", zap.String("input", text))
		}

		if err := printStack(cmd.OutOrStdout(), s, jsonOutput(cmd)); err != nil {
			logger.Fatal("printing the stack", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Bool("output-json", false, "print the stack as a JSON object")
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("output-json")
	return v
}

// inputText joins the arguments, or reads stdin when there are none.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func printStack(out io.Writer, s *candidate.TechStack, asJSON bool) error {
	if asJSON {
		pretty, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(pretty))
		return err
	}
	_, err := fmt.Fprintln(out, stack.Format(s))
	return err
}
