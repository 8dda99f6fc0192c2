package config

const (
	defaultBaseURL             = "http://localhost:5173"
	defaultAssetTimeoutSeconds = 60
	defaultServeBind           = "127.0.0.1:8080"
	defaultSnapshotOutput      = "preload.tar"
	defaultSnapshotCompression = "xz"
	defaultLogFormat           = "text"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Site: Site{
			BaseURL: defaultBaseURL,
		},
		Preload: Preload{
			AssetTimeoutSeconds: defaultAssetTimeoutSeconds,
		},
		Serve: Serve{
			Bind: defaultServeBind,
		},
		Snapshot: Snapshot{
			Output:      defaultSnapshotOutput,
			Compression: defaultSnapshotCompression,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
