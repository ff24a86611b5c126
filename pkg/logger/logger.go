package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Interface is the logging contract used across the app.
type Interface interface {
	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(err error, message string, args ...interface{})
	Fatal(err error)
}

type Logger struct {
	logger *zerolog.Logger
}

var _ Interface = (*Logger)(nil)

func New(level string) *Logger {
	var l zerolog.Level

	switch strings.ToLower(level) {
	case "error":
		l = zerolog.ErrorLevel
	case "warn":
		l = zerolog.WarnLevel
	case "info":
		l = zerolog.InfoLevel
	case "debug":
		l = zerolog.DebugLevel
	default:
		l = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(l)

	skipFrameCount := 3
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + skipFrameCount).
		Logger()

	return &Logger{logger: &logger}
}

func (l *Logger) Debug(message string, args ...interface{}) {
	l.msg(l.logger.Debug(), message, args...)
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.msg(l.logger.Info(), message, args...)
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.msg(l.logger.Warn(), message, args...)
}

func (l *Logger) Error(err error, message string, args ...interface{}) {
	l.msg(l.logger.Error().Err(err), message, args...)
}

func (l *Logger) Fatal(err error) {
	l.logger.Fatal().Err(err).Msg(err.Error())

	os.Exit(1)
}

func (l *Logger) msg(event *zerolog.Event, message string, args ...interface{}) {
	if len(args) == 0 {
		event.Msg(message)

		return
	}

	event.Msgf(message, args...)
}
