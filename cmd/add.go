package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/timer"
)

var (
	addDuration string
	addCategory string
	addHalfway  bool
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an idle timer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := timer.ParseDuration(addDuration)
		if err != nil {
			return err
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.engine.AddTimer(timer.Input{
			Name:         args[0],
			Category:     addCategory,
			Duration:     seconds,
			HalfwayAlert: addHalfway,
		})
		if err != nil {
			return err
		}
		cmd.Println(t.ID)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDuration, "duration", "d", "", "length as seconds or a duration like 1m30s")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "category to group the timer under")
	addCmd.Flags().BoolVar(&addHalfway, "halfway", false, "notify when half the time has elapsed")
	rootCmd.AddCommand(addCmd)
}
