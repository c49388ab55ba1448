// Command tojs compiles XML component trees into qooxdoo classes.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("tojs", slog.Any("err", err))
		cancel()
		os.Exit(1)
	}
}

// cli holds state shared by all commands.
type cli struct {
	logLevel string
	log      *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "tojs",
		Short:         "Compile XML component trees into qooxdoo classes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
				return err
			}
			c.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(c.log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn",
		"log level (debug, info, warn, error)")

	root.AddCommand(
		c.newBuildCmd(),
		c.newWatchCmd(),
		c.newCheckCmd(),
		c.newInitCmd(),
	)
	return root
}

// appDir returns the application directory argument,
// defaulting to the working directory.
func appDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
