package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"edupoints/internal/bootstrap"
	"edupoints/internal/bootstrap/logging"
	"edupoints/internal/errs"
	"edupoints/internal/usecase/points"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show a participant's total points and badges",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *points.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID, _ := cmd.Flags().GetUint64("user")
		showLedger, _ := cmd.Flags().GetBool("ledger")
		limit, _ := cmd.Flags().GetInt("limit")

		summary, err := svc.GetUserScore(ctx, userID)
		if err != nil {
			logging.Error(ctx, "get user score failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "get user score")
		}

		badges := "-"
		if len(summary.Badges) > 0 {
			badges = strings.Join(summary.Badges, ",")
		}
		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"score: user=%d total=%d badges=%s\n",
			summary.UserID,
			summary.TotalPoints,
			badges,
		); err != nil {
			return errs.Wrap(err, "write score output")
		}

		if !showLedger {
			return nil
		}

		entries, err := svc.ListLedgerEntries(ctx, userID, limit)
		if err != nil {
			logging.Error(ctx, "list ledger entries failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list ledger entries")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "entry\tactivity\tsource\texternal_id\tpoints\tevent_time"); err != nil {
			return errs.Wrap(err, "write ledger header")
		}
		for _, entry := range entries {
			if _, err := fmt.Fprintf(
				w,
				"%d\t%s\t%s\t%s\t%d\t%s\n",
				entry.EntryID,
				entry.ActivityCode,
				entry.Source,
				orDash(entry.ExternalEventID),
				entry.DeltaPoints,
				orDash(entry.EventTime),
			); err != nil {
				return errs.Wrap(err, "write ledger row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush ledger output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Uint64("user", 0, "User id")
	scoreCmd.Flags().Bool("ledger", false, "Also print recent ledger entries")
	scoreCmd.Flags().Int("limit", 50, "Max ledger entries to list")
	_ = scoreCmd.MarkFlagRequired("user")
}
