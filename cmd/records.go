package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage saved candidate records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved record ids",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withStore(func(ctx context.Context, st store.Store, logger *zap.Logger) {
			if err := listRecords(ctx, st, cmd.OutOrStdout()); err != nil {
				logger.Fatal("listing records", zap.Error(err))
			}
		})
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved record as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(func(ctx context.Context, st store.Store, logger *zap.Logger) {
			if err := showRecord(ctx, st, args[0], cmd.OutOrStdout()); err != nil {
				logger.Fatal("showing the record", zap.String("id", args[0]), zap.Error(err))
			}
		})
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(func(ctx context.Context, st store.Store, logger *zap.Logger) {
			id := args[0]

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				confirm := promptui.Select{
					Label: fmt.Sprintf("Delete record %s?", id),
					Items: []string{PromptNo, PromptYes},
				}
				_, answer, err := confirm.Run()
				if err != nil {
					logger.Fatal("exiting", zap.Error(err))
				}
				if answer != PromptYes {
					logger.Info("exiting", zap.String("reason", "got no from prompt"))
					return
				}
			}

			if err := st.DeleteRecord(ctx, id); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					logger.Fatal("record not found", zap.String("id", id))
				}
				logger.Fatal("deleting the record", zap.String("id", id), zap.Error(err))
			}
			logger.Info("record deleted", zap.String("id", id))
		})
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsDeleteCmd)

	recordsDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// withStore opens the configured store for the duration of fn.
func withStore(fn func(ctx context.Context, st store.Store, logger *zap.Logger)) {
	ctx := context.Background()
	logger, config := setup()

	st, err := store.Open(ctx, config.Store, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err), zap.String("driver", config.Store.Driver))
	}
	defer st.Close()

	fn(ctx, st, logger)
}

func listRecords(ctx context.Context, st store.Store, out io.Writer) error {
	ids, err := st.ListRecords(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(out, id); err != nil {
			return err
		}
	}
	return nil
}

func showRecord(ctx context.Context, st store.Store, id string, out io.Writer) error {
	rec, err := st.LoadRecord(ctx, id)
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(pretty))
	return err
}
