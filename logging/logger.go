package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/launchsync/config"
	"github.com/grovetools/launchsync/pkg/paths"
	"github.com/grovetools/launchsync/util/pathutil"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	// explicit is set by Configure; when nil the config is loaded from disk.
	explicit *Config
)

// Configure sets the logging configuration used by loggers created afterwards.
// The CLI calls it once after loading launchsync.yml.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	explicit = &cfg
	loggers = make(map[string]*logrus.Entry)
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logCfg := loadConfig()
	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("LAUNCHSYNC_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("LAUNCHSYNC_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(NewTextFormatter(logCfg.Format))
	}

	var writers []io.Writer
	if file := openLogFile(logger, logCfg.File, component); file != nil {
		writers = append(writers, file)
	}
	if shouldLogToStderr(logCfg.Format.StructuredToStderr, logger.GetLevel()) {
		writers = append(writers, GetGlobalOutput())
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

func loadConfig() Config {
	if explicit != nil {
		return *explicit
	}
	var logCfg Config
	cfg, err := config.LoadDefault()
	if err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}
	return logCfg
}

// shouldLogToStderr applies the auto|always|never policy.
func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		// auto: structured logs go to stderr when debugging or when stderr is not a terminal
		isDebug := os.Getenv("LAUNCHSYNC_DEBUG") == "1" || level >= logrus.DebugLevel
		fd := os.Stderr.Fd()
		isInteractive := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		return isDebug || !isInteractive
	}
}

// openLogFile opens the file sink when it is enabled. Failures are reported
// through the logger itself and the sink is skipped.
func openLogFile(logger *logrus.Logger, sink FileSinkConfig, component string) io.Writer {
	if !sink.Enabled {
		return nil
	}

	logFilePath := ""
	if sink.Path != "" {
		expanded, err := pathutil.Expand(sink.Path)
		if err != nil {
			logger.Warnf("Failed to expand log path %s: %v", sink.Path, err)
			return nil
		}
		logFilePath = expanded
	} else {
		dir := paths.LogDir()
		if dir == "" {
			return nil
		}
		logFilePath = filepath.Join(dir, fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		logger.Warnf("Failed to create log directory %s: %v", filepath.Dir(logFilePath), err)
		return nil
	}
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		logger.Warnf("Failed to open log file %s: %v", logFilePath, err)
		return nil
	}
	return file
}
