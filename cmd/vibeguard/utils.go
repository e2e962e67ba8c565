package vibeguard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/advisories"
	"github.com/varalys/vibeguard/internal/cache"
	"github.com/varalys/vibeguard/internal/config"
	"github.com/varalys/vibeguard/internal/engine"
	"github.com/varalys/vibeguard/internal/files"
	"github.com/varalys/vibeguard/internal/git"
	"github.com/varalys/vibeguard/internal/logging"
	"github.com/varalys/vibeguard/internal/report"
	"github.com/varalys/vibeguard/internal/rules"
)

// Source selection flags shared by every command that runs the engine.
var (
	flagPath          string
	flagRev           string
	flagInclude       string
	flagExclude       string
	flagMaxBytes      int64
	flagMaxLineLength int
	flagEnable        string
	flagDisable       string
	flagAdvisories    string
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "project path to scan")
	cmd.Flags().StringVar(&flagRev, "rev", "", "scan the tree of a git revision instead of the working tree")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (default 1MiB)")
	cmd.Flags().IntVar(&flagMaxLineLength, "max-line-length", 0, "truncate longer lines before rule evaluation (default 4096)")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only run these static rules (comma-separated IDs)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "disable these static rules (comma-separated IDs)")
	cmd.Flags().StringVar(&flagAdvisories, "advisories", "", "YAML file of extra advisories consulted before the built-in table")
}

// settings holds the resolved scan root and the config files that apply to it.
type settings struct {
	root   string
	local  config.FileConfig
	global config.FileConfig
}

// loadSettings resolves path, loads configs (CLI > local > global) and
// initialises logging.
func loadSettings(path string) (settings, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return settings{}, err
	}
	s := settings{root: abs}
	if flagConfig != "" {
		c, err := config.LoadFile(flagConfig)
		if err != nil {
			return s, fmt.Errorf("load config: %w", err)
		}
		s.local = c
	} else if c, err := config.LoadLocal(abs); err == nil {
		s.local = c
	} else if !errors.Is(err, config.ErrNoLocalConfig) {
		return s, fmt.Errorf("load config: %w", err)
	}
	if c, err := config.LoadGlobal(); err == nil {
		s.global = c
	}
	level := pickString(flagLogLevel, s.local.LogLevel, s.global.LogLevel)
	format := pickString(flagLogFormat, s.local.LogFormat, s.global.LogFormat)
	if err := logging.Init(level, format); err != nil {
		return s, err
	}
	return s, nil
}

func (s settings) filesConfig() files.Config {
	defaultExcludes := flagDefaultExcludes
	if !rootCmd.PersistentFlags().Changed("default-excludes") {
		defaultExcludes = pickBoolDefault(true, s.local.DefaultExcludes, s.global.DefaultExcludes)
	}
	return files.Config{
		Root:            s.root,
		IncludeGlobs:    pickString(flagInclude, s.local.Include, s.global.Include),
		ExcludeGlobs:    pickString(flagExclude, s.local.Exclude, s.global.Exclude),
		MaxBytes:        pickInt64(flagMaxBytes, s.local.MaxBytes, s.global.MaxBytes),
		DefaultExcludes: defaultExcludes,
	}
}

func (s settings) advisoryProvider() (advisories.Provider, error) {
	path := pickString(flagAdvisories, s.local.Advisories, s.global.Advisories)
	if path == "" {
		return advisories.Static(), nil
	}
	if !filepath.IsAbs(path) && flagAdvisories == "" {
		path = filepath.Join(s.root, path)
	}
	extra, err := advisories.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return advisories.Chain{extra, advisories.Static()}, nil
}

func (s settings) engineOptions() (engine.Options, error) {
	adv, err := s.advisoryProvider()
	if err != nil {
		return engine.Options{}, err
	}
	enable := pickString(flagEnable, s.local.EnableRules, s.global.EnableRules)
	disable := pickString(flagDisable, s.local.DisableRules, s.global.DisableRules)
	return engine.Options{
		Threads:       pickInt(flagThreads, s.local.Threads, s.global.Threads),
		Rules:         rules.Filter(rules.All(), enable, disable),
		Advisories:    adv,
		MinConfidence: pickFloat(flagMinConfidence, s.local.MinConfidence, s.global.MinConfidence),
		MaxLineLength: pickInt(flagMaxLineLength, s.local.MaxLineLength, s.global.MaxLineLength),
		Logger:        logging.Logger,
	}, nil
}

func (s settings) loadSource(ctx context.Context) (files.Source, error) {
	cfg := s.filesConfig()
	if flagRev != "" {
		return git.FilesAt(s.root, flagRev, cfg)
	}
	return files.Load(ctx, cfg)
}

// run loads the project and runs the engine over it. The static finding
// cache is used for working-tree scans unless disabled.
func (s settings) run(ctx context.Context) (engine.Result, error) {
	src, err := s.loadSource(ctx)
	if err != nil {
		return engine.Result{}, fmt.Errorf("load %s: %w", s.root, err)
	}
	opts, err := s.engineOptions()
	if err != nil {
		return engine.Result{}, err
	}
	var db *cache.DB
	if !flagNoCache && flagRev == "" {
		db, err = cache.Load(s.root)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Logger.Warnw("ignoring unreadable cache", "root", s.root, "error", err)
		}
		opts.Cache = db
	}
	logging.Logger.Infow("scanning", "root", s.root, "rev", flagRev, "files", len(src.Files), "manifest", src.Manifest != nil)
	res := engine.New(opts).Run(src.Files, src.Manifest)
	if db != nil && db.Dirty() {
		if err := cache.Save(s.root, db); err != nil {
			logging.Logger.Warnw("could not save cache", "root", s.root, "error", err)
		}
	}
	return res, nil
}

func (s settings) noColor() bool {
	return pickBool(flagNoColor, s.local.NoColor, s.global.NoColor)
}

// printOptions disables color unless w is a terminal.
func (s settings) printOptions(w io.Writer, res engine.Result) report.PrintOptions {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !report.ColorEnabled(f, s.noColor())
	}
	return report.PrintOptions{NoColor: noColor, Duration: res.Duration, FilesScanned: res.FilesScanned}
}

// resolve joins a relative path onto the scan root.
func (s settings) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

func failThreshold(cli string, local, global *string) string {
	return strings.ToLower(pickString(cli, local, global))
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickFloat(cli float64, local, global *float64) float64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

func pickBoolDefault(def bool, local, global *bool) bool {
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return def
}
