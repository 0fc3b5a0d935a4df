package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docdesk/internal/csvexport"
	"docdesk/internal/domain"
	"docdesk/internal/recon"
	"docdesk/internal/render"
	"docdesk/internal/service"
)

func (c *cli) submitCmd() *cobra.Command {
	var (
		docType string
		wait    bool
	)
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Upload one document for parsing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			job, err := c.app.Jobs.Submit(cmd.Context(), &c.app.Client, service.SubmitJobInput{
				Filename:    filepath.Base(args[0]),
				Content:     f,
				DocTypeHint: docType,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Submitted %s as job %s (%s)\n", filepath.Base(args[0]), job.ID, job.Status)
			if !wait {
				return nil
			}
			return c.waitJob(cmd, job.ID)
		},
	}
	cmd.Flags().StringVar(&docType, "doc-type", "auto", "force a document type instead of auto-detection")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job finishes")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	var cached bool
	cmd := &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show the latest snapshot of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				job *domain.Job
				err error
			)
			if cached {
				job = c.app.Jobs.LoadCached(ctx, &c.app.Client, args[0])
			} else {
				job, err = c.app.Jobs.Fetch(ctx, &c.app.Client, args[0])
				if err != nil {
					return err
				}
			}
			c.printJob(job)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "show the cached snapshot without contacting the service")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [JOB_ID]",
		Short: "Poll a job until it finishes; without an id, resume the last viewed job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			} else if id = c.app.Client.Cache.LastViewed(cmd.Context()); id == "" {
				return fmt.Errorf("%w: no job to resume", domain.ErrInvalidInput)
			}
			return c.waitJob(cmd, id)
		},
	}
}

// waitJob selects id, paints the cached snapshot and blocks until its poll ends.
func (c *cli) waitJob(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	view, h := c.app.Jobs.Select(ctx, &c.app.Client, id)
	if view.Job != nil && h.Active() {
		fmt.Fprintf(c.out, "Cached: %s\n", view.Job.Status)
	}

	job, err := h.Wait(ctx)
	if job == nil {
		job = view.Job
	}
	c.printJob(job)
	return err
}

func (c *cli) printJob(job *domain.Job) {
	render.Job(c.out, job)
	if job == nil {
		return
	}
	for _, r := range recon.FromMeta(job.Meta) {
		fmt.Fprintln(c.out)
		render.Reconciliation(c.out, r)
	}
}

func (c *cli) jobsCmd() *cobra.Command {
	var (
		limit   int
		csvPath string
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.app.Jobs.ListJobs(cmd.Context(), &c.app.Client, limit)
			if err != nil && list == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(c.out, "Could not reach the parsing service, showing cached jobs: %v\n\n", err)
			}
			if list.EnvironmentMismatch {
				fmt.Fprintln(c.out, "Cached jobs were not found on this parsing service; local data was cleared.")
			}
			render.JobList(c.out, list.Jobs, c.now())

			if csvPath == "" {
				return nil
			}
			if info, statErr := os.Stat(csvPath); statErr == nil && info.IsDir() {
				csvPath = filepath.Join(csvPath, csvexport.BuildFilename("jobs", c.now().UTC()))
			}
			f, err := os.Create(csvPath)
			if err != nil {
				return err
			}
			if err := writeJobsCSV(f, list.Jobs); err != nil {
				return fmt.Errorf("writing %s: %w", csvPath, err)
			}
			fmt.Fprintf(c.out, "\nWrote %s\n", csvPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of jobs to list (default from config)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the list as CSV to this file or directory")
	return cmd
}

// writeJobsCSV writes jobs to w and closes it. A failed close is reported like a failed write.
func writeJobsCSV(w io.WriteCloser, jobs []domain.Job) error {
	if err := csvexport.WriteAll(w, jobs); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
