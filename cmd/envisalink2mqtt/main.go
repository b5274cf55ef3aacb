package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daemonp/envisalink2mqtt/internal/bus"
	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/homeassistant"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/daemonp/envisalink2mqtt/internal/metrics"
	"github.com/daemonp/envisalink2mqtt/internal/panel"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	// Version is set via ldflags during build.
	Version = "dev"

	configFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "envisalink2mqtt",
	Short: "Bridge an Envisalink alarm module to a message bus",
	Long: `envisalink2mqtt keeps a session open to an Envisalink TPI, publishes
every panel event to the configured events channels and sends commands
arriving on the commands channels to the panel.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge (default)",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yml", "Path to configuration file (.yml, .yaml or .toml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cliCmd)
	rootCmd.AddCommand(simulateCmd)
}

// setup loads the configuration and connects to the bus.
func setup(ctx context.Context) (*config.Config, *log.Logger, bus.Bus, *bus.Adapter, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewLogger(cfg.Log)

	transport, err := bus.New(&cfg.Bus, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	adapter := bus.NewAdapter(transport, cfg.Bus.Channels, cfg.Envisalink.CodeMaster, logger.With("bus"))
	if err := adapter.Connect(ctx); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to %s bus: %w", cfg.Bus.Driver, err)
	}
	return cfg, logger, transport, adapter, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, transport, adapter, err := setup(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	if cfg.HomeAssistant.Discovery {
		if retainer, ok := transport.(bus.Retainer); ok {
			ha := homeassistant.New(&cfg.HomeAssistant, retainer, cfg.Bus.Channels.Commands, cfg.Envisalink.Zones.Zones(), logger.With("homeassistant"))
			if err := ha.Start(); err != nil {
				logger.Error("Failed to publish Home Assistant discovery: %v", err)
			}
			adapter.OnEvent(ha.Observe)
		} else {
			logger.Warn("Home Assistant discovery needs the mqtt bus driver, not %s", cfg.Bus.Driver)
		}
	}

	commands, err := adapter.Commands(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to commands: %w", err)
	}

	p := panel.NewPanel(&cfg.Envisalink, adapter, logger.With("panel"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx, commands)
	})
	if cfg.Metrics.Address != "" {
		g.Go(func() error {
			logger.Info("Serving metrics on %s", cfg.Metrics.Address)
			return metrics.Serve(gctx, cfg.Metrics.Address)
		})
	}

	err = g.Wait()
	logger.Info("Shutting down...")
	p.Shutdown()
	return err
}
