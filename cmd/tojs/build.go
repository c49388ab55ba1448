package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/romshark/tojs/config"
	"github.com/romshark/tojs/driver"
	"github.com/romshark/tojs/modules/msgbroker"
	"github.com/romshark/tojs/modules/msgbroker/inmem"
	"github.com/romshark/tojs/modules/msgbroker/natsjs"
)

// driverFlags are shared by build, watch and check.
type driverFlags struct {
	force   bool
	natsURL string
}

func (f *driverFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.natsURL, "nats-url", os.Getenv("NATS_URL"),
		"publish build events to NATS JetStream instead of in memory")
}

func (c *cli) newBuildCmd() *cobra.Command {
	var f driverFlags
	cmd := &cobra.Command{
		Use:   "build [app-dir]",
		Short: "Generate classes for stale component trees",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeBroker, err := c.openDriver(appDir(args), f)
			if err != nil {
				return err
			}
			defer closeBroker()
			_, err = d.Run(cmd.Context())
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVarP(&f.force, "force", "f", false,
		"regenerate files that are up to date")
	return cmd
}

func (c *cli) newWatchCmd() *cobra.Command {
	var (
		f        driverFlags
		debounce time.Duration
		listen   string
	)
	cmd := &cobra.Command{
		Use:   "watch [app-dir]",
		Short: "Rebuild whenever a component tree or the configuration changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeBroker, broker, err := c.openDriverBroker(appDir(args), f)
			if err != nil {
				return err
			}
			defer closeBroker()
			if listen != "" {
				srv := &http.Server{
					Addr:    listen,
					Handler: newEventsHandler(broker, c.log),
				}
				go func() {
					c.log.Info("serving build events", slog.String("addr", listen))
					err := srv.ListenAndServe()
					if err != nil && !errors.Is(err, http.ErrServerClosed) {
						c.log.Error("listening", slog.Any("err", err))
					}
				}()
				defer func() { _ = srv.Close() }()
			}
			return d.Watch(cmd.Context(), debounce)
		},
	}
	f.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", driver.DefaultDebounce,
		"wait this long for further changes before rebuilding")
	cmd.Flags().StringVar(&listen, "listen", "",
		"serve build events as server-sent events on this address")
	return cmd
}

func (c *cli) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [app-dir]",
		Short: "Fail if any generated class is out of date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.newDriver(appDir(args), driverFlags{}, nil)
			if err != nil {
				return err
			}
			sum, err := d.Check(cmd.Context())
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%d generated files up to date\n", sum.Checked)
			}
			return err
		},
	}
	return cmd
}

func (c *cli) openDriver(dir string, f driverFlags) (*driver.Driver, func(), error) {
	d, closeBroker, _, err := c.openDriverBroker(dir, f)
	return d, closeBroker, err
}

func (c *cli) openDriverBroker(
	dir string, f driverFlags,
) (*driver.Driver, func(), msgbroker.MessageBroker, error) {
	broker, closeBroker, err := c.newBroker(f.natsURL)
	if err != nil {
		return nil, nil, nil, err
	}
	d, err := c.newDriver(dir, f, broker)
	if err != nil {
		closeBroker()
		return nil, nil, nil, err
	}
	return d, closeBroker, broker, nil
}

func (c *cli) newDriver(
	dir string, f driverFlags, broker msgbroker.MessageBroker,
) (*driver.Driver, error) {
	conf, src, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if src.Legacy {
		c.log.Warn("using legacy configuration, run tojs init to migrate",
			slog.String("path", src.Path))
	}
	return driver.New(dir, *conf, src, driver.Options{
		Logger:   c.log,
		Reporter: driver.NewReporter(os.Stdout),
		Broker:   broker,
		Force:    f.force,
	})
}

// newBroker connects to NATS when url is set
// and falls back to an in-memory broker otherwise.
func (c *cli) newBroker(url string) (msgbroker.MessageBroker, func(), error) {
	if url == "" {
		b := inmem.New(0)
		return b, func() { _ = b.Close() }, nil
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, nil, fmt.Errorf("opening NATS connection: %w", err)
	}
	b, err := natsjs.New(conn, natsjs.Config{
		StreamConfig: &nats.StreamConfig{
			Name:    natsjs.DefaultStreamName,
			Storage: nats.MemoryStorage,
		},
	})
	if err == nil {
		err = b.InitStreams([]string{driver.SubjectGenerated})
	}
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	c.log.Info("using NATS message broker", slog.String("url", url))
	return b, conn.Close, nil
}
