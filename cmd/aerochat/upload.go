package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/youruser/aerochat/internal/upload"
)

func newUploadCmd(a *app) *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents into the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := upload.ValidateBatch(len(args)); err != nil {
				return err
			}

			sources := make([]upload.Source, 0, len(args))
			for _, path := range args {
				src, err := upload.FromPath(path)
				if err != nil {
					return err
				}
				if err := upload.Validate(src.Name(), src.Size()); err != nil {
					return fmt.Errorf("%s: %w", src.Name(), err)
				}
				sources = append(sources, src)
			}

			a.pipeline.SetTargetCollection(collection)
			a.pipeline.AddFiles(sources...)

			if err := a.pipeline.Upload(cmd.Context()); err != nil {
				return err
			}

			return a.watchUpload(cmd)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "target collection (default: auto-map)")
	return cmd
}

// watchUpload prints file statuses until every file settles.
func (a *app) watchUpload(cmd *cobra.Command) error {
	ticker := time.NewTicker(a.cfg.Upload.PollInterval)
	defer ticker.Stop()

	for {
		files := a.pipeline.Files()
		settled := true
		for _, f := range files {
			if f.Status != upload.StatusSuccess && f.Status != upload.StatusError {
				settled = false
				break
			}
		}
		if settled {
			break
		}

		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-ticker.C:
		}
	}

	failed := 0
	for _, f := range a.pipeline.Files() {
		switch f.Status {
		case upload.StatusSuccess:
			line := fmt.Sprintf("%s  %s", f.Source.Name(), upload.FormatFileSize(f.Source.Size()))
			if f.TargetCollection != "" {
				line += "  -> " + f.TargetCollection
			}
			if f.ChunksCount > 0 {
				line += fmt.Sprintf("  (%d chunks)", f.ChunksCount)
			}
			fmt.Println(successStyle.Render("✓ ") + line)
		case upload.StatusError:
			failed++
			fmt.Println(errorStyle.Render("✗ ") + f.Source.Name() + "  " + f.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}
