// Package app wires application dependencies for the two front ends.
//
// It resolves Config from defaults, an optional YAML file and flags, builds
// the logger, and constructs the concrete stores and services, exposing
// them via the Wire struct for commands to use.
package app
