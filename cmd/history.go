package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/export"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

var (
	historyClear  bool
	historyYes    bool
	historyFollow bool
	historyFrom   string
	historyFor    time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show completed timers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyFrom != "" {
			data, err := os.ReadFile(historyFrom)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("file not found: %s", historyFrom)
				}
				return err
			}
			history, err := export.Parse(data)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), history)
			return nil
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if historyClear {
			if !historyYes {
				return errors.New("refusing to clear history without --yes")
			}
			n := len(s.engine.State().History)
			s.engine.ClearHistory()
			cmd.Printf("cleared %d entries\n", n)
			return nil
		}

		history := s.engine.State().History
		printHistory(cmd.OutOrStdout(), history)
		if !historyFollow {
			return nil
		}

		ctx, cancel := runContext(cmd, historyFor)
		defer cancel()
		seen := len(history)
		return s.bridge.Watch(ctx, func(snap timer.Snapshot) {
			if len(snap.History) < seen {
				// Cleared elsewhere.
				seen = 0
			}
			printHistory(cmd.OutOrStdout(), snap.History[seen:])
			seen = len(snap.History)
		})
	},
}

func printHistory(w io.Writer, history []timer.HistoryEntry) {
	for _, h := range history {
		fmt.Fprintf(w, "%s  %-20s %s\n", h.CompletionTimestamp.Local().Format("2006-01-02 15:04:05"), h.Name, h.Category)
	}
}

// runContext returns a context cancelled on SIGINT or SIGTERM, and after d
// when d is positive.
func runContext(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	if d <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return ctx, func() {
		cancel()
		stop()
	}
}

func init() {
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history entries")
	historyCmd.Flags().BoolVar(&historyYes, "yes", false, "confirm --clear")
	historyCmd.Flags().BoolVarP(&historyFollow, "follow", "f", false, "keep printing entries as timers complete")
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "print an exported history file instead of the store")
	historyCmd.Flags().DurationVar(&historyFor, "for", 0, "stop following after this long")
	rootCmd.AddCommand(historyCmd)
}
