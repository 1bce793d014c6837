package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	Configure(Config{})

	logger := NewLogger("test-component")
	require.NotNil(t, logger)
	assert.Equal(t, "test-component", logger.Data["component"])

	// Same component returns the cached entry
	assert.Same(t, logger, NewLogger("test-component"))
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{}})

	entry := logger.WithField("component", "registry")
	entry.Info("Reconciled models")

	output := buf.String()
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "[registry]")
	assert.Contains(t, output, "Reconciled models")
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "temp content changed",
				Data: logrus.Fields{
					"component": "watcher",
					"uri":       "/tmp/launch.json",
				},
			},
			want: []string{"[INFO]", "[watcher]", "temp content changed", "uri=/tmp/launch.json"},
		},
		{
			name: "simple format",
			config: FormatConfig{
				DisableTimestamp: true,
				DisableComponent: true,
			},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "skipped",
				Data:    logrus.Fields{"component": "watcher"},
			},
			want:    []string{"[WARN]", "skipped"},
			notWant: []string{"[watcher]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &TextFormatter{Config: tt.config}
			out, err := f.Format(tt.entry)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, string(out), w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, string(out), nw)
			}
		})
	}
}

func TestTextFormatterSortsFields(t *testing.T) {
	f := &TextFormatter{Config: FormatConfig{DisableTimestamp: true}}
	out, err := f.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "m",
		Data:    logrus.Fields{"zeta": 1, "alpha": 2, "mid": 3},
	})
	require.NoError(t, err)

	line := string(out)
	assert.Less(t, strings.Index(line, "alpha="), strings.Index(line, "mid="))
	assert.Less(t, strings.Index(line, "mid="), strings.Index(line, "zeta="))
}

func TestLevelFromEnvironment(t *testing.T) {
	t.Setenv("LAUNCHSYNC_LOG_LEVEL", "debug")
	Configure(Config{Level: "error"})

	logger := NewLogger("env-level")
	assert.Equal(t, logrus.DebugLevel, logger.Logger.GetLevel())
}

func TestLevelFromConfig(t *testing.T) {
	t.Setenv("LAUNCHSYNC_LOG_LEVEL", "")
	Configure(Config{Level: "warn", ReportCaller: true})

	logger := NewLogger("cfg-level")
	assert.Equal(t, logrus.WarnLevel, logger.Logger.GetLevel())
	assert.True(t, logger.Logger.ReportCaller)
}

func TestGlobalOutputRedirect(t *testing.T) {
	t.Setenv("LAUNCHSYNC_LOG_LEVEL", "info")
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	defer SetGlobalOutput(os.Stderr)

	Configure(Config{Format: FormatConfig{StructuredToStderr: "always", Preset: "json"}})
	NewLogger("redirected").Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"redirected"`)
}

func TestFileSink(t *testing.T) {
	t.Setenv("LAUNCHSYNC_LOG_LEVEL", "info")
	path := filepath.Join(t.TempDir(), "logs", "sync.log")
	Configure(Config{
		File:   FileSinkConfig{Enabled: true, Path: path},
		Format: FormatConfig{StructuredToStderr: "never"},
	})

	NewLogger("file-sink").Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestPrettyLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrettyLogger().WithWriter(&buf)

	p.Success("project set")
	p.Path("launch.json", "/tmp/arduino-ide2-X/launch.json")
	p.Field("models", 2)

	out := buf.String()
	assert.Contains(t, out, "project set")
	assert.Contains(t, out, "/tmp/arduino-ide2-X/launch.json")
	assert.Contains(t, out, "models")
}
