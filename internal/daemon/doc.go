// Package daemon hosts the slidecast background process: it enforces
// single-instance execution with a file lock, runs the workflow manager, and
// serves the HTTP API the upload widget talks to.
package daemon
