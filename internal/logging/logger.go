package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	current = Config{Level: "info", Format: "text"}
	output  io.Writer = os.Stderr
)

// NewLogger returns the logger for a component, creating it on first use.
// Every entry carries a "component" field.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger, current, output)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure sets the level, format and output for all loggers, including
// ones already handed out. A nil writer keeps the current output.
func Configure(cfg Config, w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	current = cfg
	if w != nil {
		output = w
	}
	for _, entry := range loggers {
		apply(entry.Logger, current, output)
	}
}

func apply(logger *logrus.Logger, cfg Config, w io.Writer) {
	levelStr := "info"
	if env := os.Getenv("TIMESHEETS_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	logger.SetOutput(w)
}
