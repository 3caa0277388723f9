package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

const logTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// InitLogger configures the global logger from the logging config.
// Output selects stdout, stderr or a file; file output is plain text
// without terminal colors.
func InitLogger(level, format, output, file string) error {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(logLevel)
	logger.SetFormatter(newLogFormatter(format, output == "file"))

	out, err := logOutput(output, file)
	if err != nil {
		return err
	}
	logger.SetOutput(out)

	Logger = logger
	return nil
}

func newLogFormatter(format string, toFile bool) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{TimestampFormat: logTimestampLayout}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: logTimestampLayout,
		DisableColors:   toFile,
	}
}

func logOutput(output, file string) (io.Writer, error) {
	switch {
	case output == "file" && file != "":
		return os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	case output == "stderr":
		return os.Stderr, nil
	default:
		return os.Stdout, nil
	}
}

// GetLogger returns the global logger, initializing a default text
// logger on stdout if InitLogger has not run.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger("info", "text", "stdout", "")
	}
	return Logger
}
