package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCollectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List available document collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections, err := a.client.Collections(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range collections {
				fmt.Println(c)
			}
			return nil
		},
	}
}
