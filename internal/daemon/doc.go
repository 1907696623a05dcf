// Package daemon assembles the duplicate-interception engine into a
// long-running process: single-instance locking, component lifecycle, and the
// operations surfaced to IPC clients.
package daemon
