package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/export"
)

var (
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write completed-timer history to a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if format == "" {
			format = cfg.ExportFormat
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		dir := exportDir
		if dir == "" {
			dir = cfg.ExportDir
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		path, err := export.Write(dir, time.Now(), s.engine.State().History, f)
		if err != nil {
			return err
		}
		cmd.Println(path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "json or markdown (default from config)")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory (default from config)")
	rootCmd.AddCommand(exportCmd)
}
