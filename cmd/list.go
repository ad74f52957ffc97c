package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/timer"
)

var listCategory string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List timers grouped by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		timers := timer.Filter(s.engine.State().Timers, listCategory)
		if len(timers) == 0 {
			cmd.Println("no timers")
			return nil
		}
		printTimers(cmd.OutOrStdout(), timers)
		return nil
	},
}

// printTimers writes one block per category, categories sorted.
func printTimers(w io.Writer, timers []timer.Timer) {
	for i, cat := range timer.Categories(timers) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, cat)
		for _, t := range timer.Filter(timers, cat) {
			halfway := ""
			if t.HalfwayAlertEnabled {
				halfway = "  halfway"
			}
			fmt.Fprintf(w, "  %s  %-20s %s / %s  %s%s\n",
				t.ID, t.Name, timer.FormatClock(t.Remaining), timer.FormatClock(t.Duration), t.Status, halfway)
		}
	}
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		for _, c := range s.engine.Categories() {
			cmd.Println(c)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only show this category")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(categoriesCmd)
}
