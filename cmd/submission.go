package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"edupoints/internal/bootstrap"
	"edupoints/internal/bootstrap/logging"
	"edupoints/internal/errs"
	"edupoints/internal/usecase/points"
)

var submissionCmd = &cobra.Command{
	Use:   "submission",
	Short: "Manage activity submissions",
}

var submissionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a pending submission for review",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *points.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID, _ := cmd.Flags().GetUint64("user")
		activity, _ := cmd.Flags().GetString("activity")
		visibility, _ := cmd.Flags().GetString("visibility")
		peers, _ := cmd.Flags().GetInt("peers")
		students, _ := cmd.Flags().GetInt("students")

		submission, err := svc.SubmitEvidence(ctx, points.SubmitEvidenceInput{
			UserID:          userID,
			ActivityCode:    activity,
			Visibility:      visibility,
			PeersTrained:    peers,
			StudentsTrained: students,
		})
		if err != nil {
			logging.Error(ctx, "submit evidence failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "submit evidence")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"submission recorded: id=%d user=%d activity=%s status=%s\n",
			submission.SubmissionID,
			submission.UserID,
			submission.ActivityCode,
			submission.Status,
		); err != nil {
			return errs.Wrap(err, "write submission add output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(submissionCmd)
	submissionCmd.AddCommand(submissionAddCmd)

	submissionAddCmd.Flags().Uint64("user", 0, "Submitting user id")
	submissionAddCmd.Flags().String("activity", "", "Activity code (course_completion/lesson_plan/workshop/community_event/peer_training)")
	submissionAddCmd.Flags().String("visibility", "private", "Submission visibility")
	submissionAddCmd.Flags().Int("peers", 0, "Peers trained (peer_training only)")
	submissionAddCmd.Flags().Int("students", 0, "Students trained (peer_training only)")
	_ = submissionAddCmd.MarkFlagRequired("user")
	_ = submissionAddCmd.MarkFlagRequired("activity")
}
