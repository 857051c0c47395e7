package logging

// Config defines the logging section of the timesheets configuration.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the TIMESHEETS_LOG_LEVEL environment variable.
	Level string `yaml:"level" toml:"level"`

	// Format is "text" (default) or "json".
	Format string `yaml:"format" toml:"format"`
}
