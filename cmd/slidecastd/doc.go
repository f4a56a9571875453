// Package main hosts the slidecast CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground, lists
// sessions and health over the daemon's HTTP API, and scaffolds
// configuration files. It centralizes configuration resolution and API
// endpoint discovery so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
