package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ColorNone = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
)

// Ctx is the logging context.
type Ctx logrus.Fields

// Log is the logger used by the library. It discards everything until Setup
// is called.
var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetOutput(io.Discard)
}

// Options configures Setup.
type Options struct {
	Output  io.Writer
	Verbose bool
	Debug   bool
	Color   bool
}

// Setup configures Log for the command line: warnings and errors always,
// info with Verbose, everything with Debug.
func Setup(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	Log.SetOutput(out)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: opts.Color, DisableColors: !opts.Color})

	switch {
	case opts.Debug:
		Log.SetLevel(logrus.DebugLevel)
	case opts.Verbose:
		Log.SetLevel(logrus.InfoLevel)
	default:
		Log.SetLevel(logrus.WarnLevel)
	}
}

// AddContext returns a new logger with the context added.
func AddContext(logger logrus.FieldLogger, ctx Ctx) *logrus.Entry {
	return logger.WithFields(logrus.Fields(ctx))
}

// Logger prints command output: plain info lines, errors and timestamped
// events.
type Logger struct {
	infoLogger  *logrus.Logger
	errorLogger *logrus.Logger
	eventLogger *logrus.Logger
	debug       bool
}

func NewLogger(debug bool) *Logger {
	return &Logger{
		infoLogger:  newPlainLogger(os.Stdout, false),
		errorLogger: newPlainLogger(os.Stderr, false),
		eventLogger: newPlainLogger(os.Stdout, true),
		debug:       debug,
	}
}

// Infof writes an info message to stdout
func (l *Logger) Infof(format string, v ...interface{}) {
	l.infoLogger.Infof(format, v...)
}

// Errorf writes an error message to stderr. Messages flagged as debug are
// only written when the logger was created in debug mode.
func (l *Logger) Errorf(debug bool, format string, v ...interface{}) {
	if debug && !l.debug {
		return
	}
	l.errorLogger.Errorf(format, v...)
}

// Eventf writes an event with timestamp to stdout
func (l *Logger) Eventf(color int, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)

	switch color {
	case ColorRed:
		msg = fmt.Sprintf("\x1b[31;1m%s\x1b[0m", msg)
	case ColorGreen:
		msg = fmt.Sprintf("\x1b[32;1m%s\x1b[0m", msg)
	case ColorYellow:
		msg = fmt.Sprintf("\x1b[33;1m%s\x1b[0m", msg)
	case ColorBlue:
		msg = fmt.Sprintf("\x1b[34;1m%s\x1b[0m", msg)
	default:
	}

	l.eventLogger.Info(msg)
}

func newPlainLogger(out io.Writer, timestamp bool) *logrus.Logger {
	return &logrus.Logger{
		Out:       out,
		Formatter: &plainFormatter{timestamp: timestamp},
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.InfoLevel,
	}
}

// plainFormatter prints the message only, optionally prefixed with the
// date and time the way the standard log package does.
type plainFormatter struct {
	timestamp bool
}

func (f *plainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if f.timestamp {
		t := entry.Time
		if t.IsZero() {
			t = time.Now()
		}
		buf.WriteString(t.Format("2006/01/02 15:04:05 "))
	}
	buf.WriteString(entry.Message)
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
