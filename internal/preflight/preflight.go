package preflight

import (
	"context"

	"dupeguard/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	_ = ctx

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Watch.Enabled {
		results = append(results, CheckDirectoryAccess("Downloads directory", cfg.Paths.DownloadsDir))
		results = append(results, CheckDiskSpace("Downloads volume", cfg.Paths.DownloadsDir))
	}

	if cfg.Oracle.Command != "" {
		results = append(results, CheckCommand("Fingerprint helper", cfg.Oracle.Command))
	}

	return results
}
