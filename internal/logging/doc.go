// Package logging assembles the structured slog loggers used across the
// dupeguard daemon and CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so engine code tags log lines with
// acquisition ids and event types consistently. Prefer these constructors
// over hand-rolled slog setup so every component emits the same shape.
package logging
