package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomLeaveCmd())
	cmd.AddCommand(newRoomDeleteCmd())
	cmd.AddCommand(newRoomSayCmd())

	return cmd
}

// roomPath builds an API path under a room
func roomPath(id string, suffix ...string) string {
	parts := append([]string{"/api/v1/rooms", url.PathEscape(id)}, suffix...)
	return strings.Join(parts, "/")
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList
			if err := client.Get(cmd.Context(), "/api/v1/rooms", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a room, or return the one you sit in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CreateRoomResult
			if err := client.Post(cmd.Context(), "/api/v1/rooms", nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room>",
		Short: "Show a room's board and negotiation state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Room Room `json:"room"`
			}
			if err := client.Get(cmd.Context(), roomPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result.Room)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <room>",
		Short: "Take the free seat in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), roomPath(args[0], "join"), nil, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Joined room %s", args[0]))
			return nil
		},
	}
}

func newRoomLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <room>",
		Short: "Leave a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), roomPath(args[0], "leave"), nil, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Left room %s", args[0]))
			return nil
		},
	}
}

func newRoomDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <room>",
		Short: "Delete a room you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), roomPath(args[0]), nil); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Deleted room %s", args[0]))
			return nil
		},
	}
}

func newRoomSayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "say <room> <message...>",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"message": strings.Join(args[1:], " ")}
			if err := client.Post(cmd.Context(), roomPath(args[0], "messages"), req, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage("Sent")
			return nil
		},
	}
}
