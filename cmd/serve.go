package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/api"
	"github.com/fakeyudi/timerdeck/internal/clock"
)

var (
	serveAddr string
	serveFor  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Count down running timers and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ListenAddr
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := runContext(cmd, serveFor)
		defer cancel()

		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Handler:           api.NewRouter(s.engine, s.log),
			ReadHeaderTimeout: 5 * time.Second,
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		cmd.Printf("listening on http://%s\n", ln.Addr())

		serving := make(chan error, 1)
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serving <- err
				return
			}
			serving <- nil
		}()
		ticking := make(chan error, 1)
		go func() {
			ticking <- s.engine.Run(ctx, clock.NewDriver(clock.RealClock{}, clock.Interval))
		}()

		select {
		case <-ctx.Done():
		case err = <-serving:
			cancel()
		}

		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if shutdownErr := srv.Shutdown(shutdownCtx); err == nil && shutdownErr != nil {
			err = shutdownErr
		}
		if tickErr := <-ticking; err == nil {
			err = tickErr
		}
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().DurationVar(&serveFor, "for", 0, "stop after this long (default: until interrupted)")
	rootCmd.AddCommand(serveCmd)
}
