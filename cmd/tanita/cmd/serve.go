package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/tanita/pkg/feed"
	"github.com/r3d91ll/tanita/pkg/reader"
)

type serveFlags struct {
	input   inputFlags
	addr    string
	poll    time.Duration
	origins []string
}

func newServeCmd(a *app) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve [files...]",
		Short: "Serve decoded measurements over HTTP and WebSocket",
		Long: `Serve the decoded input set as JSON and push new measurements to
WebSocket clients as the scale's files change.

The input set is re-read every --poll interval; when its content changes,
measurements not seen before are sent to clients subscribed to the
"measurements" channel and a reload event goes to "status".

Routes:
  GET /api/measurements[?source=FILE]   all measurements, oldest first
  GET /api/measurements/latest          latest measurement with tiers and gauges
  GET /api/measurements/{n}             n-th measurement, 1-based
  GET /api/profiles                     decoded profiles
  GET /api/compare                      latest two measurements compared
  GET /api/fields[?q=TEXT]              field dictionary
  GET /api/fields/{code}                one field code
  GET /api/dataset                      dataset fingerprint
  GET /healthz, /metrics, /ws

Example:
  tanita serve --data-dir /media/card/GRAPHV1/DATA --addr :8090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, f, args)
		},
	}
	f.input.register(cmd)
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default from serve.addr)")
	cmd.Flags().DurationVar(&f.poll, "poll", 0, "reload interval, 0 disables polling")
	cmd.Flags().StringSliceVar(&f.origins, "origin", nil, "allowed WebSocket origin (repeatable, * for any)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, f *serveFlags, args []string) error {
	sc := a.cfg.Serve
	sc.Addr = pick(cmd, "addr", f.addr, sc.Addr)
	if cmd.Flags().Changed("poll") {
		sc.PollInterval = f.poll
	}
	if cmd.Flags().Changed("origin") {
		sc.AllowedOrigins = f.origins
	}

	f.input.quiet = true
	load := func(ctx context.Context) (*reader.LoadResult, error) {
		return a.load(ctx, cmd, &f.input, args)
	}

	srv := feed.NewServer(feed.Config{
		Addr:           sc.Addr,
		PollInterval:   sc.PollInterval,
		AllowedOrigins: sc.AllowedOrigins,
		Logger:         a.logger,
		Metrics:        feed.NewMetrics(),
	}, load)

	a.logger.Info("starting feed", "addr", sc.Addr, "poll", sc.PollInterval)
	return srv.ListenAndServe(cmd.Context())
}
