package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"edupoints/internal/bootstrap"
	"edupoints/internal/bootstrap/logging"
	"edupoints/internal/errs"
	"edupoints/internal/usecase/points"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect ingested external events",
}

var eventsUnmatchedCmd = &cobra.Command{
	Use:   "unmatched",
	Short: "List events waiting for a user mapping",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *points.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		limit, _ := cmd.Flags().GetInt("limit")

		items, err := svc.ListUnmatchedEvents(ctx, limit)
		if err != nil {
			logging.Error(ctx, "list unmatched events failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list unmatched events")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "event_id\ttag\tcontact_id\temail\tevent_time\treceived_at"); err != nil {
			return errs.Wrap(err, "write unmatched events header")
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(
				w,
				"%s\t%s\t%s\t%s\t%s\t%s\n",
				item.ExternalEventID,
				item.Tag,
				orDash(item.ContactID),
				orDash(item.Email),
				orDash(item.EventTime),
				orDash(item.ReceivedAt),
			); err != nil {
				return errs.Wrap(err, "write unmatched events row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush unmatched events output")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", len(items)); err != nil {
			return errs.Wrap(err, "write unmatched events total")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsUnmatchedCmd)

	eventsUnmatchedCmd.Flags().Int("limit", 50, "Max events to list")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
