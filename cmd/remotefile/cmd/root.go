package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/javi11/remotefile/internal/config"
	"github.com/javi11/remotefile/internal/endpoint"
	"github.com/javi11/remotefile/internal/slogutil"
	"github.com/javi11/remotefile/pkg/remotefile"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "remotefile",
	Short:         "Read and write files on remote storage endpoints",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml, then the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Default().Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// env is what every data command needs: the loaded configuration, a logger
// and the endpoint router.
type env struct {
	config *config.Manager
	router *endpoint.Router
	log    *slog.Logger
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}

	logger, leveler := slogutil.SetupLogRotation(cfg.Log)
	slog.SetDefault(logger)

	mgr := config.NewManager(cfg, config.GetConfigFilePath())
	mgr.OnConfigChange(slogutil.LevelUpdater(leveler))

	if logLevel != "" {
		next := cfg.DeepCopy()
		next.Log.Level = logLevel
		if err := mgr.UpdateConfig(next); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
	}

	router, err := endpoint.FromConfig(ctx, mgr.GetConfig().EndpointsWithTransfer(), logger)
	if err != nil {
		return nil, err
	}

	return &env{
		config: mgr,
		router: router,
		log:    logger,
	}, nil
}

// fileOptions configures RemoteFile handles opened by a command.
func (e *env) fileOptions(ctx context.Context) []remotefile.Option {
	return []remotefile.Option{
		remotefile.WithLogger(e.log.With("component", "remote-file")),
		remotefile.WithContext(ctx),
		remotefile.WithMaxChunkSize(e.config.GetConfig().Transfer.MaxChunkSize),
	}
}
