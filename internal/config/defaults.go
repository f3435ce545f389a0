package config

const (
	defaultRequestTimeout  = 30
	defaultExtendedTimeout = 600
	defaultIntervalMS      = 3000
	defaultMaxAttempts     = 400
	defaultLogDir          = "~/.local/share/jobwatch/logs"
	defaultStateDir        = "~/.local/share/jobwatch/state"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			RequestTimeout:  defaultRequestTimeout,
			ExtendedTimeout: defaultExtendedTimeout,
		},
		Polling: Polling{
			IntervalMS:  defaultIntervalMS,
			MaxAttempts: defaultMaxAttempts,
		},
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
