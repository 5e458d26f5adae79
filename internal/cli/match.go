package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "AI negotiation and move commands",
		Long: `Commands that drive a match inside a room.

Before the first move both players configure their AI, lock the
configuration and mark themselves ready. A step asks the AI whose turn it
is for a move; confirm commits it.`,
	}

	cmd.AddCommand(newMatchConfigCmd())
	cmd.AddCommand(newMatchLockCmd())
	cmd.AddCommand(newMatchReadyCmd())
	cmd.AddCommand(newMatchColorCmd())
	cmd.AddCommand(newMatchStepCmd())
	cmd.AddCommand(newMatchConfirmCmd())
	cmd.AddCommand(newMatchRematchCmd())
	cmd.AddCommand(newMatchAutostepCmd())
	cmd.AddCommand(newMatchJobCmd())
	cmd.AddCommand(newMatchCancelCmd())

	return cmd
}

func newMatchConfigCmd() *cobra.Command {
	var aiURL, key, model, prompt string

	cmd := &cobra.Command{
		Use:   "config <room>",
		Short: "Set your AI configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"ai_config": map[string]string{
					"url":           aiURL,
					"key":           key,
					"model":         model,
					"custom_prompt": prompt,
				},
			}
			if err := client.Post(cmd.Context(), roomPath(args[0], "ai_config"), req, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage("AI configuration saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&aiURL, "url", "", "OpenAI-compatible base URL")
	cmd.Flags().StringVar(&key, "key", "", "API key")
	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Extra instructions for the AI")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func newMatchLockCmd() *cobra.Command {
	var unlock, cancelUnlock bool

	cmd := &cobra.Command{
		Use:   "lock <room>",
		Short: "Lock or unlock your AI configuration",
		Long: `Lock your AI configuration. With --unlock the lock is released; once
the match has started an unlock costs one of the remaining configuration
changes, which --cancel-unlock refunds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]bool{"locked": !unlock, "cancel_unlock": cancelUnlock}
			if err := client.Post(cmd.Context(), roomPath(args[0], "lock_config"), req, nil); err != nil {
				return err
			}

			msg := "Configuration locked"
			if unlock {
				msg = "Configuration unlocked"
			}
			output(cmd).PrintMessage(msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unlock, "unlock", false, "Release the lock instead")
	cmd.Flags().BoolVar(&cancelUnlock, "cancel-unlock", false, "Relock without spending a change")

	return cmd
}

func newMatchReadyCmd() *cobra.Command {
	var notReady bool

	cmd := &cobra.Command{
		Use:   "ready <room>",
		Short: "Mark yourself ready",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]bool{"ready": !notReady}
			if err := client.Post(cmd.Context(), roomPath(args[0], "ready"), req, nil); err != nil {
				return err
			}

			msg := "Ready"
			if notReady {
				msg = "Not ready"
			}
			output(cmd).PrintMessage(msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&notReady, "not", false, "Clear the ready flag")

	return cmd
}

func newMatchColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "color <room> <black|white>",
		Short:     "Choose the owner's stone colour",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"black", "white"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"color": args[1]}
			if err := client.Post(cmd.Context(), roomPath(args[0], "color"), req, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage("Owner plays " + args[1])
			return nil
		},
	}
}

func newMatchStepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step <room>",
		Short: "Ask your AI for a move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				PendingMove Position `json:"pending_move"`
			}
			if err := client.Post(cmd.Context(), roomPath(args[0], "step"), nil, &result); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Proposed (%d,%d)", result.PendingMove.X, result.PendingMove.Y))
			return nil
		},
	}
}

func newMatchConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <room>",
		Short: "Commit the pending move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ConfirmResult
			if err := client.Post(cmd.Context(), roomPath(args[0], "confirm_move"), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newMatchRematchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rematch <room>",
		Short: "Clear the board after a finished match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), roomPath(args[0], "rematch"), nil, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage("Board cleared")
			return nil
		},
	}
}

type jobEnvelope struct {
	Job Job `json:"job"`
}

func newMatchAutostepCmd() *cobra.Command {
	var (
		autoConfirm bool
		maxAttempts int
		wait        bool
	)

	cmd := &cobra.Command{
		Use:   "autostep <room>",
		Short: "Step in the background, retrying failed AI calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"auto_confirm": autoConfirm}
			if maxAttempts > 0 {
				req["max_attempts"] = maxAttempts
			}

			var started jobEnvelope
			if err := client.Post(cmd.Context(), roomPath(args[0], "autostep"), req, &started); err != nil {
				return err
			}

			job := started.Job
			if wait {
				var err error
				job, err = waitForJob(cmd.Context(), args[0], job.ID)
				if err != nil {
					return err
				}
			}

			output(cmd).Print(job)
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoConfirm, "confirm", false, "Confirm the move once proposed")
	cmd.Flags().IntVar(&maxAttempts, "attempts", 0, "Maximum AI calls (server default when 0)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job finishes")

	return cmd
}

// waitForJob polls until the job leaves the running state
func waitForJob(ctx context.Context, roomID, jobID string) (Job, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		var result jobEnvelope
		if err := client.Get(ctx, roomPath(roomID, "autostep", jobID), &result); err != nil {
			return Job{}, err
		}
		if result.Job.State != "running" {
			return result.Job, nil
		}

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newMatchJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "job <room> <job>",
		Short: "Show an autostep job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result jobEnvelope
			if err := client.Get(cmd.Context(), roomPath(args[0], "autostep", args[1]), &result); err != nil {
				return err
			}

			output(cmd).Print(result.Job)
			return nil
		},
	}
}

func newMatchCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <room> <job>",
		Short: "Cancel a running autostep job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result jobEnvelope
			if err := client.Delete(cmd.Context(), roomPath(args[0], "autostep", args[1]), &result); err != nil {
				return err
			}

			output(cmd).Print(result.Job)
			return nil
		},
	}
}
