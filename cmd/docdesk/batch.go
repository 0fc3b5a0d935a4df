package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docdesk/internal/domain"
	"docdesk/internal/render"
	"docdesk/internal/service"
)

func (c *cli) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Submit and follow bulk uploads",
	}
	cmd.AddCommand(c.batchSubmitCmd(), c.batchWatchCmd(), c.batchExportCmd(), c.batchWorkbookCmd())
	return cmd
}

func (c *cli) batchSubmitCmd() *cobra.Command {
	var (
		name, clientID, docType string
		wait                    bool
	)
	cmd := &cobra.Command{
		Use:   "submit FILE...",
		Short: "Upload several documents as one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := service.SubmitBatchInput{Name: name, ClientID: clientID, DocType: docType}
			var opened []io.Closer
			defer func() {
				for _, f := range opened {
					_ = f.Close()
				}
			}()
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				opened = append(opened, f)
				input.Files = append(input.Files, service.BatchFileInput{Filename: filepath.Base(path), Content: f})
			}

			batch, err := c.app.Batches.Submit(cmd.Context(), &c.app.Client, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Submitted %d files as batch %s\n", len(args), batch.ID)
			if !wait {
				return nil
			}
			return c.waitBatch(cmd, batch.ID)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "batch name")
	cmd.Flags().StringVar(&clientID, "client", "", "client identifier")
	cmd.Flags().StringVar(&docType, "doc-type", "auto", "force a document type for every file")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the batch finishes")
	return cmd
}

func (c *cli) batchWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch BATCH_ID",
		Short: "Poll a batch until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.waitBatch(cmd, args[0])
		},
	}
}

func (c *cli) waitBatch(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	h := c.app.Batches.Poll(ctx, &c.app.Client, id, service.PollOptions{})
	batch, err := h.Wait(ctx)
	if batch == nil {
		batch = c.app.Batches.LoadCached(ctx, &c.app.Client, id)
	}
	render.Batch(c.out, batch)
	return err
}

func (c *cli) batchExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export BATCH_ID",
		Short: "Download a batch export rendered by the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.Batches.Export(cmd.Context(), &c.app.Client, args[0], domain.BatchExportFormat(format))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved %s\n", out.Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(domain.BatchExportJSON), "json, csv, tally_xml or tally_csv")
	return cmd
}

func (c *cli) batchWorkbookCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "workbook BATCH_ID",
		Short: "Write the cached batch progress as a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := c.app.Batches.LoadCached(cmd.Context(), &c.app.Client, args[0])
			if batch == nil {
				return fmt.Errorf("batch %s: %w", args[0], domain.ErrNotFound)
			}
			path := filepath.Join(dir, render.BatchWorkbookName(batch))
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := render.WriteBatchWorkbook(f, batch); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the workbook to")
	return cmd
}
