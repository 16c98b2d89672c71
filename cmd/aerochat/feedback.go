package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youruser/aerochat/internal/api"
	"github.com/youruser/aerochat/internal/chat"
)

func newFeedbackCmd(a *app) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:       "feedback <thumbs_up|thumbs_down>",
		Short:     "Rate the current conversation",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"thumbs_up", "thumbs_down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := a.transcript.SessionID()
			if sessionID == "" {
				return errors.New("no active session to rate")
			}

			hasUserMessage := false
			for _, msg := range a.transcript.Messages() {
				if msg.Role == chat.RoleUser {
					hasUserMessage = true
					break
				}
			}
			if !hasUserMessage {
				return errors.New("send a message before rating the conversation")
			}

			req := api.FeedbackRequest{
				SessionID: sessionID,
				Rating:    args[0],
			}
			if comment != "" {
				req.Comment = &comment
			}

			if err := a.client.SubmitFeedback(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Thanks for your feedback!"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "m", "", "optional comment")
	return cmd
}
