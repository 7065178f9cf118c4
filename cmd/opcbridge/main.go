// Command opcbridge runs the OPC-to-serial LED bridge: it accepts Open
// Pixel Control frames over TCP and re-emits them as AdaLight, AWA, or
// WLED serial frames to configured LED controllers.
//
// Usage mirrors doismellburning-samoyed's kissutil.go entry point
// (pflag-based flags plus a required config path), adapted from a
// TNC-attached utility to a long-running server process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bbulkow/OpenPixelControlSerial/internal/bridge"
	"github.com/bbulkow/OpenPixelControlSerial/internal/config"
	"github.com/bbulkow/OpenPixelControlSerial/internal/devprofile"
	"github.com/bbulkow/OpenPixelControlSerial/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("opcbridge", pflag.ContinueOnError)
	debug := flags.Bool("debug", false, "enable debug logging and the periodic stats ticker")
	listen := flags.String("listen", "", "override opc.host:opc.port from the config file, e.g. 0.0.0.0:7890")
	profilePath := flags.String("device-profiles", "", "optional YAML file of hardware_type defaults")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: opcbridge [flags] <config-path>")
		return 2
	}
	configPath := flags.Arg(0)

	logger := logging.New(os.Stderr, *debug)

	cfg, err := loadConfig(configPath, *profilePath)
	if err != nil {
		logger.Error("opcbridge: configuration error", "err", err)
		return 1
	}

	listenAddr := fmt.Sprintf("%s:%d", cfg.OPC.Host, cfg.OPC.Port)
	if *listen != "" {
		listenAddr = *listen
	}

	srv, err := bridge.New(cfg, logger, *debug)
	if err != nil {
		logger.Error("opcbridge: failed to build server", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, listenAddr); err != nil {
		logger.Error("opcbridge: server exited with error", "err", err)
		return 1
	}
	return 0
}

// loadConfig loads and validates configPath, applying optional
// hardware_type defaults from profilePath (or devprofile's default
// search locations) before validation runs (SPEC_FULL.md §9.2).
func loadConfig(configPath, profilePath string) (*config.Config, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", configPath, err)
	}
	defer f.Close()

	cfg, err := config.ParseUnvalidated(f)
	if err != nil {
		return nil, err
	}

	db, err := devprofile.Load(profilePath)
	if err != nil {
		return nil, err
	}
	for i := range cfg.Outputs {
		db.ApplyDefaults(&cfg.Outputs[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
