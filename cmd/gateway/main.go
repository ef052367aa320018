// Command gateway runs the device-side gateway: it samples host utilisation,
// accepts device telemetry over MQTT and HTTP, and forwards records to
// whichever of MQTT, InfluxDB, SQLite and SMTP are enabled in config.yaml.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-gateway/internal/gateway"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/metrics"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnv         = "GATEWAY_CONFIG"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, loads configuration and runs the gateway until ctx is
// done. Only startup problems are returned: a component that fails to start
// is logged by the manager and the rest keep running.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", getConfigPath(), "path to config.yaml (env "+configEnv+")")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "gateway %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	boot := logging.Default()
	boot.Info("gateway starting", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", *configPath, err)
	}

	base, err := logging.New(cfg.Logging, version)
	if err != nil {
		return err
	}
	defer base.Close() //nolint:errcheck // exiting
	log := base.With("gateway_id", cfg.Gateway.ID)
	log.Info("configuration loaded", "path", *configPath, "log_level", cfg.Logging.Level)

	mgr := gateway.NewManager(cfg, gateway.Deps{
		Logger:    log,
		Metrics:   metrics.New(),
		Factories: gateway.DefaultFactories(),
		Version:   version,
	})
	if err := mgr.StartManager(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	log.Info("gateway running", "components", mgr.Status().Components)

	<-ctx.Done()
	log.Info("shutting down")

	if err := mgr.StopManager(); err != nil {
		log.Error("gateway did not stop cleanly", "error", err)
	}
	log.Info("gateway stopped")
	return nil
}

// getConfigPath is the default for -config: $GATEWAY_CONFIG, else
// configs/config.yaml.
func getConfigPath() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfigPath
}
