package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"edupoints/internal/bootstrap"
	"edupoints/internal/bootstrap/logging"
	"edupoints/internal/errs"
	"edupoints/internal/usecase/points"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a single submission",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *points.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		submissionID, _ := cmd.Flags().GetUint64("submission")
		reviewerID, _ := cmd.Flags().GetUint64("reviewer")
		action, _ := cmd.Flags().GetString("action")
		note, _ := cmd.Flags().GetString("note")
		adjustment, _ := cmd.Flags().GetInt("adjustment")

		out, err := svc.ReviewSubmission(ctx, points.ReviewInput{
			SubmissionID: submissionID,
			ReviewerID:   reviewerID,
			Action:       action,
			Note:         note,
			Adjustment:   adjustment,
		})
		if err != nil {
			logging.Error(ctx, "review submission failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "review submission")
		}

		awarded := "-"
		if out.PointsAwarded != nil {
			awarded = strconv.Itoa(*out.PointsAwarded)
		}
		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"review result: submission=%d status=%s points=%s already_reviewed=%t\n",
			out.SubmissionID,
			out.Status,
			awarded,
			out.AlreadyReviewed,
		); err != nil {
			return errs.Wrap(err, "write review output")
		}
		return nil
	}),
}

var bulkReviewCmd = &cobra.Command{
	Use:   "bulk-review",
	Short: "Apply one review action across many submissions",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *points.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		idsRaw, _ := cmd.Flags().GetString("submissions")
		reviewerID, _ := cmd.Flags().GetUint64("reviewer")
		action, _ := cmd.Flags().GetString("action")
		note, _ := cmd.Flags().GetString("note")

		ids, err := parseSubmissionIDs(idsRaw)
		if err != nil {
			return err
		}

		out, err := svc.BulkReview(ctx, points.BulkReviewInput{
			SubmissionIDs: ids,
			ReviewerID:    reviewerID,
			Action:        action,
			Note:          note,
		})
		if err != nil {
			logging.Error(ctx, "bulk review failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "bulk review")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"bulk review summary: total=%d processed=%d failed=%d\n",
			len(ids),
			out.Processed,
			out.Failed,
		); err != nil {
			return errs.Wrap(err, "write bulk review summary")
		}

		if len(out.Errors) == 0 {
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "submission\terror"); err != nil {
			return errs.Wrap(err, "write bulk review failure header")
		}
		for _, item := range out.Errors {
			if _, err := fmt.Fprintf(w, "%d\t%s\n", item.SubmissionID, item.Err); err != nil {
				return errs.Wrap(err, "write bulk review failure row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush bulk review output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(bulkReviewCmd)

	reviewCmd.Flags().Uint64("submission", 0, "Submission id")
	reviewCmd.Flags().Uint64("reviewer", 0, "Reviewer user id")
	reviewCmd.Flags().String("action", "", "Review action (approve/reject)")
	reviewCmd.Flags().String("note", "", "Optional review note")
	reviewCmd.Flags().Int("adjustment", 0, "Discretionary point adjustment (approve only)")
	_ = reviewCmd.MarkFlagRequired("submission")
	_ = reviewCmd.MarkFlagRequired("reviewer")
	_ = reviewCmd.MarkFlagRequired("action")

	bulkReviewCmd.Flags().String("submissions", "", "Comma-separated submission ids")
	bulkReviewCmd.Flags().Uint64("reviewer", 0, "Reviewer user id")
	bulkReviewCmd.Flags().String("action", "", "Review action (approve/reject)")
	bulkReviewCmd.Flags().String("note", "", "Optional review note")
	_ = bulkReviewCmd.MarkFlagRequired("submissions")
	_ = bulkReviewCmd.MarkFlagRequired("reviewer")
	_ = bulkReviewCmd.MarkFlagRequired("action")
}

func parseSubmissionIDs(raw string) ([]uint64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid submission id %q", trimmed)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("submissions is required")
	}
	return ids, nil
}
