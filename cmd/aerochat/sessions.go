package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage chat sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions known to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.registry.Load(cmd.Context()); err != nil {
				return err
			}
			sessions := a.registry.Sessions()
			if len(sessions) == 0 {
				fmt.Println(faintStyle.Render("No sessions."))
				return nil
			}

			active := ""
			if s := a.registry.Active(); s != nil {
				active = s.SessionID
			}
			for _, s := range sessions {
				marker := "  "
				if s.SessionID == active {
					marker = promptStyle.Render("* ")
				}
				fmt.Printf("%s%s  %s  %d messages\n",
					marker, s.SessionID,
					s.UpdatedAt.Format("2006-01-02 15:04"),
					s.MessageCount)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.registry.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Deleted " + args[0]))
			return nil
		},
	})

	return cmd
}
