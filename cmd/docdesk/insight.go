package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docdesk/internal/domain"
	"docdesk/internal/port"
	"docdesk/internal/render"
)

func (c *cli) exportCmd() *cobra.Command {
	var format, recon string
	cmd := &cobra.Command{
		Use:   "export JOB_ID",
		Short: "Download a job or reconciliation export rendered by the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.Exports.Download(cmd.Context(), &c.app.Client, port.ExportRequest{
				JobID:     args[0],
				Format:    domain.JobExportFormat(format),
				ReconKind: domain.ReconExportKind(recon),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved %s\n", out.Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(domain.ExportJSON), "json, sales-csv, purchase-csv, sales-zoho, tally-xml or tally-csv")
	cmd.Flags().StringVar(&recon, "recon", "", "reconciliation export instead: missing-invoices-gstr1, missing-invoices-sales, value-mismatches or itc-summary")
	return cmd
}

func (c *cli) reconcileCmd() *cobra.Command {
	var gstr2b, gstr3b string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare a GSTR-2B job against a GSTR-3B job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Insight.ITC(cmd.Context(), &c.app.Client, gstr2b, gstr3b)
			if err != nil {
				return err
			}
			render.Reconciliation(c.out, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&gstr2b, "gstr2b", "", "job id of the parsed GSTR-2B")
	cmd.Flags().StringVar(&gstr3b, "gstr3b", "", "job id of the parsed GSTR-3B")
	_ = cmd.MarkFlagRequired("gstr2b")
	_ = cmd.MarkFlagRequired("gstr3b")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate DOC_TYPE JOB_ID",
		Short: "Run the service's checks on a parsed sales_register, gstr2b or gstr3b",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Insight.Validate(cmd.Context(), &c.app.Client, domain.ValidationDocType(args[0]), args[1])
			if err != nil {
				return err
			}
			render.Validation(c.out, report)
			return nil
		},
	}
}

func (c *cli) usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show this month's usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.app.Insight.Usage(cmd.Context(), &c.app.Client)
			if err != nil {
				return err
			}
			render.Usage(c.out, u)
			return nil
		},
	}
}

func (c *cli) samplesCmd() *cobra.Command {
	var download string
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "List demo documents, or download one with --download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if download != "" {
				out, err := c.app.Exports.DownloadSample(cmd.Context(), &c.app.Client, download)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Saved %s\n", out.Location)
				return nil
			}
			samples, err := c.app.Insight.Samples(cmd.Context(), &c.app.Client)
			if err != nil {
				return err
			}
			render.Samples(c.out, samples)
			return nil
		},
	}
	cmd.Flags().StringVar(&download, "download", "", "sample file name to download")
	return cmd
}
