// Package detectors implements the static scanner. Every line of every
// eligible file is evaluated against the rule library through one generic
// loop, and a small set of whole-file checks runs afterwards.
package detectors
