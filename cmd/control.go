package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/engine"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

// timerCommand builds a command taking one timer id.
func timerCommand(use, short string, fn func(e *engine.Engine, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := resolveID(s.engine.State(), args[0])
			if err != nil {
				return err
			}
			if err := fn(s.engine, id); err != nil {
				return err
			}
			if t, ok := s.engine.State().Find(id); ok {
				cmd.Printf("%s  %s  %s\n", t.Name, t.Status, timer.FormatClock(t.Remaining))
			} else {
				cmd.Printf("removed %s\n", id)
			}
			return nil
		},
	}
}

var bulkCmd = &cobra.Command{
	Use:   "bulk <category> <start|pause|reset>",
	Short: "Start, pause or reset every unfinished timer in a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := timer.ParseOp(args[1])
		if err != nil {
			return err
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		category := strings.TrimSpace(args[0])
		if err := s.engine.Bulk(category, op); err != nil {
			return err
		}
		printTimers(cmd.OutOrStdout(), timer.Filter(s.engine.State().Timers, category))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(
		timerCommand("start", "Start a timer", (*engine.Engine).Start),
		timerCommand("pause", "Pause a running timer", (*engine.Engine).Pause),
		timerCommand("reset", "Reset a timer to its full duration", (*engine.Engine).Reset),
		timerCommand("remove", "Delete a timer, keeping its history", (*engine.Engine).Remove),
		bulkCmd,
	)
}
