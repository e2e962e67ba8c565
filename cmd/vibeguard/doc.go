// Package vibeguard provides the command-line interface for the VibeGuard tool.
// It configures subcommands (scan, audit, export, etc.), parses flags, and
// executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/varalys/vibeguard/cmd/vibeguard"
//	func main() { vibeguard.Execute() }
package vibeguard
