package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rosterpull/internal/app"
	"github.com/ternarybob/rosterpull/internal/common"
	"github.com/ternarybob/rosterpull/internal/services/auth"
	"github.com/ternarybob/rosterpull/internal/services/roster"
)

// Exit codes per failure class so callers can distinguish what went wrong.
const (
	exitOK     = 0
	exitConfig = 1
	exitAuth   = 2
	exitFetch  = 3
	exitIO     = 4
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	outputPath   = flag.String("output", "", "Output file path (overrides config)")
	outputPathO  = flag.String("o", "", "Output file path (shorthand, overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Rosterpull version %s\n", common.GetFullVersion())
		return exitOK
	}

	finalOutput := *outputPath
	if *outputPathO != "" {
		finalOutput = *outputPathO
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("rosterpull.toml"); err == nil {
			configFiles = append(configFiles, "rosterpull.toml")
		}
	}

	// 1. Load configuration (default -> files in order -> env)
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		return exitConfig
	}

	// 2. Apply command-line flag overrides (highest priority)
	common.ApplyFlagOverrides(config, finalOutput)

	// 3. Initialize logger with final configuration
	logger := common.InitLogger(config)

	// 4. Print banner
	common.PrintBanner(common.GetVersion())

	runID := common.NewRunID()
	logger.Info().
		Str("run_id", runID).
		Str("portal", config.Portal.BaseURL).
		Str("output", config.Output.Path).
		Msg("Starting roster export")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Str("run_id", runID).Err(err).Msg("Failed to initialize application")
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error().Str("run_id", runID).Err(err).Msg("Roster export failed")
		return exitCode(err)
	}

	logger.Info().Str("run_id", runID).Msg("Roster export completed")
	return exitOK
}

// exitCode maps a run failure to its exit code class.
func exitCode(err error) int {
	var loginErr *auth.LoginError
	var fetchErr *roster.FetchError

	switch {
	case errors.Is(err, auth.ErrNonceNotFound), errors.As(err, &loginErr):
		return exitAuth
	case errors.As(err, &fetchErr):
		return exitFetch
	default:
		return exitIO
	}
}
