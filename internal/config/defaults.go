package config

const (
	defaultDataDir             = "~/.local/share/dupeguard"
	defaultLogDir              = "~/.local/share/dupeguard/logs"
	defaultDownloadsDir        = "~/Downloads"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultOracleCommand       = "dupeguard-hash"
	defaultOracleTimeout       = 30
	defaultNameTimeout         = 3
	defaultFingerprintTimeout  = 15
	defaultSimilarityThreshold = 0.8
	defaultWatchSettleSeconds  = 2
	defaultNotifyTimeout       = 10
)

// defaultIgnoredExtensions are acquisition names that bypass interception.
// These are transient browser artifacts, not user downloads.
var defaultIgnoredExtensions = []string{".crdownload", ".part", ".tmp", ".download"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			DownloadsDir: defaultDownloadsDir,
		},
		Watch: Watch{
			Enabled:           true,
			IgnoredExtensions: append([]string{}, defaultIgnoredExtensions...),
			SettleSeconds:     defaultWatchSettleSeconds,
		},
		Oracle: Oracle{
			Command:        defaultOracleCommand,
			RequestTimeout: defaultOracleTimeout,
		},
		Intercept: Intercept{
			NameTimeout:         defaultNameTimeout,
			FingerprintTimeout:  defaultFingerprintTimeout,
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Blocked:        true,
			Overrides:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
