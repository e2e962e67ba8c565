// Package engine runs the static, dependency and heuristic scanners over a
// project and aggregates their findings. It performs no I/O of its own;
// callers supply file contents and read results. This package is internal;
// external consumers should use the stable facade in pkg/core.
package engine
