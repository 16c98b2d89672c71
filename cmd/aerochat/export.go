package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youruser/aerochat/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.transcript.Len() == 0 {
				return errors.New("nothing to export")
			}

			exporter, err := export.NewExporter(format)
			if err != nil {
				return err
			}

			conv := export.Snapshot(a.transcript)

			if output == "" || output == "-" {
				return exporter.Export(conv, os.Stdout)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := exporter.Export(conv, f); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Exported to " + output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "export format (json, yaml, markdown)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (default: stdout)")
	return cmd
}
