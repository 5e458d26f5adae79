package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Session and username commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthMeCmd())
	cmd.AddCommand(newAuthSuggestCmd())
	cmd.AddCommand(newAuthRenameCmd())
	cmd.AddCommand(newAuthCleanupCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Start a session with a generated username",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LoginResult
			if err := client.Post(cmd.Context(), "/api/v1/auth/login", nil, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.SessionID); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAuthMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MeResult
			if err := client.Get(cmd.Context(), "/api/v1/auth/me", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAuthSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest a free username without reserving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Username string `json:"username"`
			}
			if err := client.Get(cmd.Context(), "/api/v1/auth/suggest_username", &result); err != nil {
				return err
			}

			output(cmd).PrintMessage(result.Username)
			return nil
		},
	}
}

func newAuthRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <new-username>",
		Short: "Change the session's username",
		Long: `Change the session's username. A seat held in a room moves to the new
name along with its AI configuration and ready flag.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var me MeResult
			if err := client.Get(cmd.Context(), "/api/v1/auth/me", &me); err != nil {
				return err
			}

			req := map[string]string{"old_username": me.Username, "new_username": args[0]}
			var result struct {
				Username string `json:"username"`
				Message  string `json:"message"`
			}
			if err := client.Post(cmd.Context(), "/api/v1/auth/update_username", req, &result); err != nil {
				return err
			}

			msg := "Username is now " + result.Username
			if result.Message != "" {
				msg = result.Message
			}
			output(cmd).PrintMessage(msg)
			return nil
		},
	}
}

func newAuthCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Expire idle sessions now",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				SessionsRemoved  int `json:"sessions_removed"`
				UsernamesRemoved int `json:"usernames_removed"`
			}
			if err := client.Post(cmd.Context(), "/api/v1/auth/cleanup_users", nil, &result); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Removed %d sessions, released %d usernames",
				result.SessionsRemoved, result.UsernamesRemoved))
			return nil
		},
	}
}
