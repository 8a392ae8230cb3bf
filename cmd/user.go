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

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage program participants",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a participant",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *points.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		email, _ := cmd.Flags().GetString("email")
		displayName, _ := cmd.Flags().GetString("name")
		contactID, _ := cmd.Flags().GetString("contact-id")
		accountType, _ := cmd.Flags().GetString("account-type")
		role, _ := cmd.Flags().GetString("role")

		user, err := svc.RegisterUser(ctx, points.RegisterUserInput{
			Email:             email,
			DisplayName:       displayName,
			ExternalContactID: contactID,
			AccountType:       accountType,
			Role:              role,
		})
		if err != nil {
			logging.Error(ctx, "register user failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "register user")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"user registered: id=%d email=%s account_type=%s role=%s\n",
			user.UserID,
			user.Email,
			user.AccountType,
			user.Role,
		); err != nil {
			return errs.Wrap(err, "write user add output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().String("email", "", "Participant email")
	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().String("contact-id", "", "External learning-platform contact id")
	userAddCmd.Flags().String("account-type", "educator", "Account type (educator/student)")
	userAddCmd.Flags().String("role", "member", "Role (member/reviewer/admin)")
	_ = userAddCmd.MarkFlagRequired("email")
}
