package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Logger is the shared application logger. Commands call Setup once the
// flag/config values are resolved; until then it discards everything.
var Logger zerolog.Logger

type Options struct {
	Verbose bool
	Debug   bool
	// File receives a copy of every event. Empty means the default
	// location under XDG_STATE_HOME.
	File string
}

func Setup(opts Options) {
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: zerolog.TimeFormatUnix,
		// No color when stderr is redirected
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	}

	var fileWriter io.Writer = io.Discard
	if path := logFilePath(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			zlog.Err(err).Str("path", path).Msg("Failed to create log directory.")
		} else if f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err != nil {
			zlog.Err(err).Str("path", path).Msg("Failed to open log file.")
		} else {
			fileWriter = f
		}
	}

	Logger = zerolog.New(io.MultiWriter(console, fileWriter)).With().Timestamp().Logger()

	level := zerolog.WarnLevel
	switch {
	case opts.Debug:
		level = zerolog.DebugLevel
	case opts.Verbose:
		level = zerolog.InfoLevel
	}
	Logger = Logger.Level(level)
	zerolog.SetGlobalLevel(level)
	zlog.Logger = Logger
}

// logFilePath resolves the explicit path, falling back to the XDG state home
// per https://specifications.freedesktop.org/basedir-spec/latest/#variables
func logFilePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "cellgen", "cellgen.log")
}
