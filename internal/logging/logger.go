package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
)

// Log file rotation settings.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28
)

// Format values accepted by Options.Format.
const (
	FormatAuto    = "auto"
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configure New.
type Options struct {
	Level  string
	Format string
	// File, when set, receives JSON logs with rotation.
	File string
	// Out defaults to os.Stderr.
	Out io.Writer
}

// Logger is a configured logger and the resources behind it.
type Logger struct {
	zerolog.Logger
	file io.Closer
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	default:
		return zerolog.InfoLevel, cwerrors.Wrapf(cwerrors.ErrConfig, "unknown log level %q", level)
	}
}

// New builds a logger. The console writer is used on a terminal or when the
// format asks for it; JSON otherwise.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	console := selectOutput(out, opts.Format)

	writer := io.Writer(NewFilteringWriter(console))
	var file io.Closer
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    LogMaxSizeMB,
			MaxBackups: LogMaxBackups,
			MaxAge:     LogMaxAgeDays,
		}
		file = lj
		writer = zerolog.MultiLevelWriter(writer, NewFilteringWriter(lj))
	}

	logger := zerolog.New(writer).Level(level).Hook(SensitiveDataHook{}).With().Timestamp().Logger()
	return &Logger{Logger: logger, file: file}, nil
}

func selectOutput(out io.Writer, format string) io.Writer {
	switch strings.ToLower(format) {
	case FormatJSON:
		return out
	case FormatText, FormatConsole:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: !isTerminal(out)}
	}
	if isTerminal(out) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
