package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docdesk/internal/app"
	"docdesk/internal/config"
	"docdesk/internal/render"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ignoring .env: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd(openApp).ExecuteContext(ctx)
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.New(ctx, cfg, nil)
}

// cli carries the state shared by every command of one invocation.
type cli struct {
	open func(ctx context.Context) (*app.App, error)
	app  *app.App
	out  io.Writer
	now  func() time.Time
}

func newRootCmd(open func(ctx context.Context) (*app.App, error)) *cobra.Command {
	c := &cli{open: open, now: time.Now}

	root := &cobra.Command{
		Use:           "docdesk",
		Short:         "Submit GST documents to the parsing service and follow their progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if c.app == nil {
				return
			}
			if notices := c.app.Client.Notices.List(); len(notices) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr())
				render.Notices(cmd.ErrOrStderr(), notices)
			}
			c.app.Close()
		},
	}

	root.AddCommand(
		c.submitCmd(),
		c.statusCmd(),
		c.watchCmd(),
		c.jobsCmd(),
		c.batchCmd(),
		c.exportCmd(),
		c.reconcileCmd(),
		c.validateCmd(),
		c.usageCmd(),
		c.samplesCmd(),
		c.adminCmd(),
		c.keyCmd(),
		c.keysCmd(),
		c.cacheCmd(),
		c.sessionCmd(),
	)
	return root
}
