// ABOUTME: Tagged, leveled logger shared by all HAL components
// ABOUTME: Each component logs under its own tag; levels can be overridden per tag
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// sink is shared by a logger and everything derived from it, so that
// redirecting output or changing the default level affects all tags.
type sink struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

// Logger writes messages under a tag. Derived loggers share the destination.
type Logger struct {
	Tag  string
	sink *sink
}

// DefaultLogger writes to stderr.
var DefaultLogger = &Logger{sink: &sink{out: os.Stderr, level: Info}}

// WithTag derives a logger for a component from DefaultLogger.
func WithTag(tag string) *Logger {
	return DefaultLogger.WithTag(tag)
}

// WithTag derives a new logger with the given tag.
func (log *Logger) WithTag(tag string) *Logger {
	return &Logger{Tag: tag, sink: log.sink}
}

// SetOutput redirects this logger and all loggers derived from the same root.
func (log *Logger) SetOutput(out io.Writer) {
	log.sink.mu.Lock()
	log.sink.out = out
	log.sink.mu.Unlock()
}

// SetLevel changes the level used by tags without an explicit override.
func (log *Logger) SetLevel(level Level) {
	log.sink.mu.Lock()
	log.sink.level = level
	log.sink.mu.Unlock()
}

// Level returns the effective level for this logger's tag.
func (log *Logger) Level() Level {
	if level, ok := tagLevel(log.Tag); ok {
		return level
	}
	log.sink.mu.Lock()
	defer log.sink.mu.Unlock()
	return log.sink.level
}

// Enabled reports whether a message at level would be written.
func (log *Logger) Enabled(level Level) bool {
	return level <= log.Level()
}

// Log writes a message at the given level, annotated with the file and line
// 'calldepth' frames above the caller.
func (log *Logger) Log(level Level, calldepth int, format string, a ...interface{}) {
	if !log.Enabled(level) {
		return
	}

	buf := make([]byte, 0, 256)
	buf = time.Now().AppendFormat(buf, timestampFormat)

	tag := log.Tag
	if tag == "" {
		tag = "-"
	}
	buf = append(buf, ' ')
	buf = append(buf, level.color().Sprintf("%c/%s", level.letter(), tag)...)

	_, file, line, ok := runtime.Caller(calldepth + 1)
	if !ok {
		file = "?"
	}
	buf = fmt.Appendf(buf, "[%s:%d] ", filepath.Base(file), line)
	buf = fmt.Appendf(buf, format, a...)

	if n := len(buf); n == 0 || buf[n-1] != '\n' {
		buf = append(buf, '\n')
	}

	log.sink.mu.Lock()
	defer log.sink.mu.Unlock()
	// Nowhere left to report a failed log write.
	_, _ = log.sink.out.Write(buf)
}

func (log *Logger) Error(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
}

func (log *Logger) Warn(format string, a ...interface{}) {
	log.Log(Warn, 1, format, a...)
}

func (log *Logger) Info(format string, a ...interface{}) {
	log.Log(Info, 1, format, a...)
}

func (log *Logger) Debug(format string, a ...interface{}) {
	log.Log(Debug, 1, format, a...)
}

func (log *Logger) Verbose(format string, a ...interface{}) {
	log.Log(Verbose, 1, format, a...)
}

// Printf logs at Info, easing use as a drop-in for the standard log package.
func (log *Logger) Printf(format string, a ...interface{}) {
	log.Log(Info, 1, format, a...)
}

// Fatalf logs at Error and exits. Only commands should call it.
func (log *Logger) Fatalf(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
	os.Exit(1)
}
