package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Health(cmd.Context())
			if err != nil {
				fmt.Println(errorStyle.Render("Backend unreachable: " + err.Error()))
				return err
			}
			fmt.Println(successStyle.Render("Backend status: " + resp.Status))
			return nil
		},
	}
}
