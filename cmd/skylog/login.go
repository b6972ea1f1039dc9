package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/errreport"
	"github.com/muurk/skylog/internal/logging"
	"github.com/muurk/skylog/internal/ui"
)

var (
	firstName  string
	lastName   string
	whoamiJSON bool
	logoutYes  bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an emailed link",
	Long: `Sign in without a password.

'login send' emails a one-time sign-in link. Open it, or paste it into
'login complete', on the same machine within an hour. The session is kept
in the state file next to the config file.`,
}

var loginSendCmd = &cobra.Command{
	Use:   "send <email>",
	Short: "Send a sign-in link",
	Example: `  skylog login send ada@example.com --first Ada --last Lovelace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.auth.SendMagicLink(cmd.Context(), args[0], firstName, lastName); err != nil {
			return userError(err)
		}
		ui.PrintSuccess(cmd.OutOrStdout(), "Sign-in link sent", []ui.Detail{
			{Key: "Email", Value: args[0]},
			{Key: "Next", Value: "skylog login complete '<link>'"},
		})
		return nil
	},
}

var loginCompleteCmd = &cobra.Command{
	Use:   "complete <link>",
	Short: "Finish signing in with the emailed link",
	Example: `  skylog login complete 'skylog://sign-in?token=eyJhbGciOi...'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.auth.CompleteMagicLink(cmd.Context(), args[0])
		if err != nil {
			return userError(err)
		}
		ui.PrintSuccess(cmd.OutOrStdout(), "Signed in", []ui.Detail{
			{Key: "Name", Value: displayOr(user.DisplayName(), "-")},
			{Key: "Email", Value: user.Email},
		})
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.auth.Restore(cmd.Context())
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		if !logoutYes && isInteractive() {
			warnings := []string{"You will need a new sign-in link to log flights again"}
			if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Sign out "+user.Email+"?", warnings) {
				return nil
			}
		}
		if err := a.auth.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.requireUser(cmd.Context())
		if errors.Is(err, errNotSignedIn) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		if err != nil {
			return err
		}
		if whoamiJSON {
			return writeJSON(cmd.OutOrStdout(), user)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:       %s\n", displayOr(user.DisplayName(), "-"))
		fmt.Fprintf(out, "Email:      %s\n", user.Email)
		fmt.Fprintf(out, "User ID:    %s\n", user.UID)
		if !user.LastLogin.IsZero() {
			fmt.Fprintf(out, "Last login: %s\n", user.LastLogin.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	loginSendCmd.Flags().StringVar(&firstName, "first", "", "First name, used to prefill the candidate name")
	loginSendCmd.Flags().StringVar(&lastName, "last", "", "Last name")
	logoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Do not ask for confirmation")
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Print the user as JSON")

	loginCmd.AddCommand(loginSendCmd)
	loginCmd.AddCommand(loginCompleteCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// userError logs err and returns the sentence a user should see.
func userError(err error) error {
	logging.Debug("Command failed", zap.Error(err))
	return errors.New(errreport.UserMessage(err))
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
