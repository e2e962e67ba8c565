package vibeguard

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/logging"
)

var (
	flagThreads         int
	flagMinConfidence   float64
	flagNoColor         bool
	flagNoCache         bool
	flagDefaultExcludes bool
	flagLogLevel        string
	flagLogFormat       string
	flagConfig          string

	version = "0.1.0"
)

// errThreshold is returned when findings reach the --fail-on severity. It
// maps to exit status 1; every other error exits with 2.
var errThreshold = errors.New("findings at or above the fail-on threshold")

// rootCmd is the base Cobra command for the VibeGuard CLI.
var rootCmd = &cobra.Command{
	Use:           "vibeguard",
	Short:         "Security audits for AI-built web apps",
	Long:          "VibeGuard scans a project's source files and package.json with static rules, a dependency advisory table and project-wide heuristics, and reports severity-ranked findings.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the VibeGuard CLI. It should be called by the main package.
func Execute() {
	err := rootCmd.Execute()
	logging.Sync()
	if err == nil {
		return
	}
	if errors.Is(err, errThreshold) {
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(2)
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Float64Var(&flagMinConfidence, "min-confidence", 0.0, "only report findings with confidence >= value (0-1)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable the static finding cache")
	rootCmd.PersistentFlags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, dist, images, etc.)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (default warn)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console|json")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .vibeguard.yml in the scanned path)")
}
