package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docdesk/internal/render"
)

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Switch between admin and normal credentials",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable TOKEN",
			Short: "Store an admin token and send it on every request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Client.Credentials.EnableAdminMode(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Admin mode enabled.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Forget the admin token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.app.Client.Credentials.DisableAdminMode(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Admin mode disabled.")
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key used in normal mode",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set API_KEY",
			Short: "Store the API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Client.Credentials.SetAPIKey(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "API key saved.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the stored API key and use the default",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.app.Client.Credentials.ClearAPIKey(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "API key cleared.")
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List and manage API keys on the service",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List API keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				keys, err := c.app.Keys.List(cmd.Context(), &c.app.Client)
				if err != nil {
					return err
				}
				render.APIKeys(c.out, keys, c.now())
				return nil
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create an API key; the secret is shown once",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				created, err := c.app.Keys.Create(cmd.Context(), &c.app.Client, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Created key %s (%s)\n%s\n", created.ID, created.Name, created.Key)
				return nil
			},
		},
		&cobra.Command{
			Use:   "revoke KEY_ID",
			Short: "Deactivate an API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Keys.Revoke(cmd.Context(), &c.app.Client, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Revoked %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "activate KEY_ID",
			Short: "Reactivate an API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Keys.Activate(cmd.Context(), &c.app.Client, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Activated %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached job and batch snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Jobs.StopAll()
			c.app.Batches.StopAll()
			c.app.Client.Cache.Invalidate(cmd.Context())
			fmt.Fprintln(c.out, "Cache cleared.")
			return nil
		},
	})
	return cmd
}

func (c *cli) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or reset the cache session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ep, err := c.app.Client.Endpoint(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Session:  %s\nService:  %s\nMode:     %s\n",
				c.app.SessionID, ep.BaseURL, c.app.Client.Credentials.Mode(ctx))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Start a new, empty cache session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := c.app.ResetSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Started session %s\n", id)
			return nil
		},
	})
	return cmd
}
