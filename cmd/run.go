package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/clock"
	"github.com/fakeyudi/timerdeck/internal/engine"
	"github.com/fakeyudi/timerdeck/internal/notify"
	"github.com/fakeyudi/timerdeck/internal/scheduler"
	"github.com/fakeyudi/timerdeck/internal/tui"
)

var (
	runPlain    bool
	runFor      time.Duration
	runInterval time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Count down running timers, with a dashboard on a terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := runContext(cmd, runFor)
		defer cancel()

		ticking := make(chan error, 1)
		go func() {
			ticking <- s.engine.Run(ctx, clock.NewDriver(clock.RealClock{}, runInterval))
		}()

		if !runPlain && term.IsTerminal(os.Stdout.Fd()) {
			err = tui.Run(s.engine)
			cancel()
			if tickErr := <-ticking; err == nil {
				err = tickErr
			}
			return err
		}

		err = printNotifications(ctx, cmd.OutOrStdout(), s.engine)
		cancel()
		if tickErr := <-ticking; err == nil {
			err = tickErr
		}
		// The last tick may have landed after the loop stopped.
		printPending(cmd.OutOrStdout(), s.engine.Notifications())
		return err
	},
}

// printNotifications writes one line per notification until ctx is done,
// and a line whenever the last running timer stops.
func printNotifications(ctx context.Context, w io.Writer, e *engine.Engine) error {
	updates := e.Subscribe(16)
	queue := e.Notifications()

	running := true
	report := func() {
		now := scheduler.Running(e.State())
		if running && !now {
			fmt.Fprintln(w, "no timers running")
		}
		running = now
	}
	report()

	for {
		printPending(w, queue)
		select {
		case <-ctx.Done():
			printPending(w, queue)
			return nil
		case _, ok := <-updates:
			printPending(w, queue)
			if !ok {
				return nil
			}
			report()
		}
	}
}

func printPending(w io.Writer, queue *notify.Queue) {
	for {
		n, ok := queue.Ack()
		if !ok {
			return
		}
		fmt.Fprintf(w, "%s  %s\n", n.At.Local().Format("15:04:05"), n.Message())
	}
}

func init() {
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "print notifications as lines instead of the dashboard")
	runCmd.Flags().DurationVar(&runFor, "for", 0, "stop after this long (default: until interrupted)")
	runCmd.Flags().DurationVar(&runInterval, "interval", clock.Interval, "tick period")
	_ = runCmd.Flags().MarkHidden("interval")
	rootCmd.AddCommand(runCmd)
}
