package vibeguard

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/engine"
	"github.com/varalys/vibeguard/internal/logging"
	"github.com/varalys/vibeguard/internal/metrics"
	"github.com/varalys/vibeguard/internal/server"
)

var flagServeAddr string

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (free scans, entitled full audits, metrics)",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default :8080 or server.addr from config)")
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "directory whose config file to load")
	cmd.Flags().StringVar(&flagAdvisories, "advisories", "", "YAML file of extra advisories consulted before the built-in table")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only run these static rules (comma-separated IDs)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "disable these static rules (comma-separated IDs)")
	rootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(flagPath)
	if err != nil {
		return err
	}
	opts, err := s.engineOptions()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	opts.Observer = m

	tokens := s.local.ServerTokens()
	if len(tokens) == 0 {
		tokens = s.global.ServerTokens()
	}
	if len(tokens) == 0 {
		logging.Logger.Warnw("no project tokens configured; full audits will be refused")
	}

	gin.SetMode(gin.ReleaseMode)
	handler := server.New(server.Config{
		Engine:       engine.New(opts),
		Entitlements: server.TokenEntitlements(tokens),
		Metrics:      m,
		Gatherer:     reg,
		Logger:       logging.Logger,
		MaxBodyBytes: s.local.ServerMaxBodyBytes(s.global.ServerMaxBodyBytes(server.DefaultMaxBodyBytes)),
	})

	addr := flagServeAddr
	if addr == "" {
		addr = s.local.ServerAddr(s.global.ServerAddr(":8080"))
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, addr, handler, logging.Logger)
}
