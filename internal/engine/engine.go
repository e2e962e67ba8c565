package engine

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/varalys/vibeguard/internal/advisories"
	"github.com/varalys/vibeguard/internal/aggregate"
	"github.com/varalys/vibeguard/internal/deps"
	"github.com/varalys/vibeguard/internal/detectors"
	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/heuristics"
	"github.com/varalys/vibeguard/internal/rules"
	"github.com/varalys/vibeguard/internal/types"
)

// StaticCache stores static findings per file keyed by a content hash. A
// hit skips line scanning for that file.
type StaticCache interface {
	Get(path, hash string) ([]types.Finding, bool)
	Put(path, hash string, findings []types.Finding)
}

// Observer receives per-run statistics, for example to export metrics.
type Observer interface {
	ObserveRun(res Result)
}

// Options control an Engine. Zero values select defaults.
type Options struct {
	Threads       int
	Rules         []rules.Rule
	Advisories    advisories.Provider
	Heuristics    []heuristics.Heuristic
	FileChecks    []detectors.FileCheck
	MinConfidence float64
	MaxLineLength int
	MaxFileBytes  int
	Logger        *zap.SugaredLogger
	Cache         StaticCache
	Observer      Observer
	NewID         func() string
	Clock         func() time.Time
}

// Result is the aggregated outcome of one run.
type Result struct {
	Summary      aggregate.Summary
	Findings     []types.Finding
	FilesScanned int
	FilesFailed  int
	CacheHits    int
	ScannedAt    time.Time
	Duration     time.Duration
}

// Engine runs the static, dependency and heuristic scanners and aggregates
// their output. It holds no state between runs and is safe for concurrent
// use (provided the configured cache is).
type Engine struct {
	opts       Options
	static     *detectors.Scanner
	deps       *deps.Scanner
	heuristics *heuristics.Scanner
	rulesetKey string
}

// New returns an Engine for opts.
func New(opts Options) *Engine {
	if opts.Threads <= 0 {
		opts.Threads = runtime.GOMAXPROCS(0)
	}
	if opts.Rules == nil {
		opts.Rules = rules.All()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	ids := make([]string, len(opts.Rules))
	for i, r := range opts.Rules {
		ids[i] = r.ID
	}
	return &Engine{
		opts: opts,
		static: detectors.New(detectors.Options{
			Rules:         opts.Rules,
			FileChecks:    opts.FileChecks,
			MaxLineLength: opts.MaxLineLength,
			MaxFileBytes:  opts.MaxFileBytes,
			NewID:         opts.NewID,
		}),
		deps:       deps.New(opts.Advisories, opts.NewID),
		heuristics: heuristics.New(opts.Heuristics, opts.NewID),
		rulesetKey: strings.Join(ids, ","),
	}
}

func determineBatchSize(threads int) int {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads < 2 {
		threads = 2
	}
	if threads > 32 {
		threads = 32
	}
	return threads * 4
}

type fileResult struct {
	findings []types.Finding
	failed   bool
	cached   bool
}

// Run scans files and, when manifest is non-nil, the dependency manifest.
// Files are scanned concurrently; the result does not depend on scheduling.
func (e *Engine) Run(files []types.File, manifest *string) Result {
	started := e.opts.Clock()
	perFile := e.scanFiles(files)

	var res Result
	var static []types.Finding
	for _, r := range perFile {
		if r.failed {
			res.FilesFailed++
			continue
		}
		res.FilesScanned++
		if r.cached {
			res.CacheHits++
		}
		static = append(static, r.findings...)
	}
	var dep []types.Finding
	if manifest != nil {
		dep = e.deps.Scan(*manifest)
	}
	heur := e.heuristics.Scan(files)

	static = filterByConfidence(static, e.opts.MinConfidence)
	dep = filterByConfidence(dep, e.opts.MinConfidence)
	heur = filterByConfidence(heur, e.opts.MinConfidence)

	res.Summary, res.Findings = aggregate.Aggregate(static, dep, heur)
	res.ScannedAt = started.UTC()
	res.Duration = e.opts.Clock().Sub(started)
	e.opts.Logger.Debugw("scan complete",
		"files", res.FilesScanned,
		"failed", res.FilesFailed,
		"cache_hits", res.CacheHits,
		"findings", res.Summary.Total,
		"duration", res.Duration,
	)
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveRun(res)
	}
	return res
}

// scanFiles fans files out to a fixed pool of workers. Results are written
// by input index so fan-in order matches input order.
func (e *Engine) scanFiles(files []types.File) []fileResult {
	out := make([]fileResult, len(files))
	jobs := make(chan int, determineBatchSize(e.opts.Threads))
	var wg sync.WaitGroup
	workers := e.opts.Threads
	if workers > len(files) {
		workers = len(files)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = e.scanFile(files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

func (e *Engine) scanFile(f types.File) fileResult {
	var key string
	if e.opts.Cache != nil {
		key = e.contentKey(f.Content)
		if cached, ok := e.opts.Cache.Get(f.Path, key); ok {
			return fileResult{findings: e.reissue(cached), cached: true}
		}
	}
	fs, err := e.static.ScanFile(f)
	if err != nil {
		e.opts.Logger.Warnw("file scan failed", "path", f.Path, "panic", err)
		return fileResult{failed: true}
	}
	if e.opts.Cache != nil {
		e.opts.Cache.Put(f.Path, key, fs)
	}
	return fileResult{findings: fs}
}

// contentKey hashes content together with the active rule set, so a
// changed rule selection invalidates cached findings.
func (e *Engine) contentKey(content string) string {
	h := xxhash.New()
	_, _ = h.WriteString(e.rulesetKey)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(content)
	return strconv.FormatUint(h.Sum64(), 16)
}

// reissue copies cached findings under fresh IDs.
func (e *Engine) reissue(cached []types.Finding) []types.Finding {
	out := make([]types.Finding, len(cached))
	for i, f := range cached {
		f.ID = e.opts.NewID()
		out[i] = f
	}
	return out
}

// Scan runs the engine and returns the free view.
func (e *Engine) Scan(files []types.File, manifest *string) disclosure.PartialScan {
	res := e.Run(files, manifest)
	return disclosure.ToPartialScan(res.Findings, res.ScannedAt)
}

// Audit runs the engine and returns the full view. A blank id is replaced
// by a generated one.
func (e *Engine) Audit(files []types.File, manifest *string, id, projectID string) (disclosure.FullAudit, error) {
	if id == "" {
		id = e.opts.NewID()
	}
	res := e.Run(files, manifest)
	return disclosure.ToFullAudit(res.Findings, id, projectID, res.ScannedAt, res.ScannedAt.Add(res.Duration))
}

func filterByConfidence(fs []types.Finding, min float64) []types.Finding {
	if min <= 0 {
		return fs
	}
	var out []types.Finding
	for _, f := range fs {
		if f.Confidence >= min {
			out = append(out, f)
		}
	}
	return out
}
