package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/timerdeck/internal/config"
	"github.com/fakeyudi/timerdeck/internal/engine"
	"github.com/fakeyudi/timerdeck/internal/logging"
	"github.com/fakeyudi/timerdeck/internal/persist"
	"github.com/fakeyudi/timerdeck/internal/storage"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var (
	dataDirFlag  string
	backendFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "timerdeck",
	Short:         "Run named countdown timers grouped by category",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		// Flags win over config files.
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory holding timer state (default $XDG_DATA_HOME/timerdeck)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is an engine opened for the duration of one command.
type session struct {
	engine *engine.Engine
	bridge *persist.Bridge
	log    *log.Logger
	kv     storage.KV
}

func (s *session) Close() {
	s.engine.Close()
	if err := s.kv.Close(); err != nil {
		s.log.Warn("closing store", "err", err)
	}
}

// openSession opens the configured store and boots an engine from it.
func openSession(cmd *cobra.Command) (*session, error) {
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	dir := cfg.DataDir
	if dir == "" {
		if dir, err = storage.DataDir(); err != nil {
			return nil, fmt.Errorf("resolving data dir: %w", err)
		}
	}
	kv, err := storage.Open(cfg.Backend, dir)
	if err != nil {
		return nil, err
	}
	bridge := persist.NewBridge(kv, logger)
	e, err := engine.New(engine.Options{Bridge: bridge, Logger: logger})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	logger.Debug("store opened", "backend", cfg.Backend, "dir", dir)
	return &session{engine: e, bridge: bridge, log: logger, kv: kv}, nil
}

// resolveID accepts a full timer id or a unique prefix of one.
func resolveID(s timer.State, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if _, ok := s.Find(arg); ok {
		return arg, nil
	}
	var match string
	for _, t := range s.Timers {
		if arg != "" && strings.HasPrefix(t.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("timer id prefix %q is ambiguous", arg)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", engine.ErrNotFound, arg)
	}
	return match, nil
}
