// Package server exposes the audit engine over HTTP.
//
// POST /v1/scan returns the free PartialScan view to anyone. POST /v1/audit
// and POST /v1/audit/markdown return the full audit only when the bearer
// token is entitled for the requested project. The engine never checks
// entitlement itself; this adapter does, through the Entitlements interface.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/engine"
	"github.com/varalys/vibeguard/internal/metrics"
	"github.com/varalys/vibeguard/internal/report"
	"github.com/varalys/vibeguard/internal/types"
)

// DefaultMaxBodyBytes caps request bodies when Config.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 10 << 20

var (
	// ErrNotEntitled is returned when a token does not unlock the project.
	ErrNotEntitled = errors.New("not entitled to a full audit for this project")
	// ErrMissingToken is returned when /v1/audit is called without a bearer token.
	ErrMissingToken = errors.New("missing bearer token")
)

// Entitlements decides whether a caller may see the full audit of a project.
type Entitlements interface {
	Entitled(ctx context.Context, projectID, token string) bool
}

// TokenEntitlements maps project IDs to the single token that unlocks them.
type TokenEntitlements map[string]string

// Entitled reports whether token matches the project's configured token.
func (t TokenEntitlements) Entitled(_ context.Context, projectID, token string) bool {
	want, ok := t[projectID]
	if !ok || want == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

// Request is the body accepted by every scan and audit endpoint.
type Request struct {
	ProjectID string       `json:"projectId"`
	Files     []types.File `json:"files"`
	Manifest  *string      `json:"manifest,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Config wires the handler dependencies. Engine is required.
type Config struct {
	Engine       *engine.Engine
	Entitlements Entitlements
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       *zap.SugaredLogger
	MaxBodyBytes int64
}

type handler struct {
	cfg Config
}

// New returns a gin router serving the audit API.
func New(cfg Config) *gin.Engine {
	if cfg.Entitlements == nil {
		cfg.Entitlements = TokenEntitlements{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	h := &handler{cfg: cfg}

	r := gin.New()
	r.Use(gin.Recovery(), h.observe())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	v1 := r.Group("/v1")
	v1.POST("/scan", h.scan)
	v1.POST("/audit", h.audit)
	v1.POST("/audit/markdown", h.auditMarkdown)
	return r
}

// observe logs each request and counts it by route and status.
func (h *handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if h.cfg.Metrics != nil {
			h.cfg.Metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
		h.cfg.Logger.Debugw("request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
		)
	}
}

func (h *handler) bind(c *gin.Context) (Request, bool) {
	var req Request
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes)
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return req, false
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request format"})
		return req, false
	}
	return req, true
}

func (h *handler) scan(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.cfg.Engine.Scan(req.Files, req.Manifest))
}

// fullAudit binds the request, checks entitlement and runs the engine. It
// writes the error response itself and reports whether to continue.
func (h *handler) fullAudit(c *gin.Context) (disclosure.FullAudit, bool) {
	req, ok := h.bind(c)
	if !ok {
		return disclosure.FullAudit{}, false
	}
	if req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "projectId is required"})
		return disclosure.FullAudit{}, false
	}
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: ErrMissingToken.Error()})
		return disclosure.FullAudit{}, false
	}
	if !h.cfg.Entitlements.Entitled(c.Request.Context(), req.ProjectID, token) {
		h.cfg.Logger.Infow("full audit refused", "project", req.ProjectID)
		c.JSON(http.StatusForbidden, errorResponse{Error: ErrNotEntitled.Error()})
		return disclosure.FullAudit{}, false
	}
	a, err := h.cfg.Engine.Audit(req.Files, req.Manifest, "", req.ProjectID)
	if err != nil {
		h.cfg.Logger.Errorw("audit failed", "project", req.ProjectID, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "audit failed"})
		return disclosure.FullAudit{}, false
	}
	return a, true
}

func (h *handler) audit(c *gin.Context) {
	if a, ok := h.fullAudit(c); ok {
		c.JSON(http.StatusOK, a)
	}
}

func (h *handler) auditMarkdown(c *gin.Context) {
	if a, ok := h.fullAudit(c); ok {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.ExportMarkdown(a)))
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Infow("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
