package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/deployctl/internal/api"
	"github.com/edvin/deployctl/internal/config"
	"github.com/edvin/deployctl/internal/deploy"
	"github.com/edvin/deployctl/internal/health"
	"github.com/edvin/deployctl/internal/logging"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "deploy":
		fs := flag.NewFlagSet("deploy", flag.ExitOnError)
		file := fs.String("f", "", "Path to deployment YAML file (optional; DEPLOY_* env vars override it)")
		timeout := fs.Duration("timeout", 0, "Override the deployment wait timeout")
		pretty := fs.Bool("pretty", false, "Human-readable log output")
		debug := fs.Bool("debug", false, "Log redacted API request/response bodies")
		fs.Parse(os.Args[2:])

		if err := runDeploy(*file, *timeout, *pretty, *debug); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version":
		fmt.Println(version)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runDeploy(file string, timeout time.Duration, pretty, debug bool) error {
	cfg, err := config.Load(file)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.WaitTimeout = timeout
	}
	if pretty {
		cfg.Pretty = true
	}
	if debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	logger := logging.New(level, cfg.Pretty)

	client := api.NewClient(cfg.APIURL, cfg.APIKey, logger)
	client.Debug = cfg.Debug

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := deploy.NewRunner(cfg, client, health.NewChecker(logger), logger)
	out, runErr := runner.Run(ctx)

	out.Log(logger)
	if cfg.OutputFile != "" {
		if err := out.WriteFile(cfg.OutputFile); err != nil {
			logger.Error().Err(err).Str("path", cfg.OutputFile).Msg("failed to write outputs")
		}
	}

	return runErr
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  deployctl deploy [-f <deploy.yaml>] [-timeout 10m] [-pretty] [-debug]
  deployctl version

Commands:
  deploy    Run one idempotent deployment against the platform API
  version   Print the deployctl version

Flags:
  -f string         Path to deployment YAML file (DEPLOY_* env vars override it)
  -timeout duration Override the deployment wait timeout
  -pretty           Human-readable log output
  -debug            Log redacted API request/response bodies`)
}
