// ABOUTME: Logging levels and level parsing
// ABOUTME: Maps names like "warn" or "V" and numeric levels to Level values
package logging

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Level is a logging level. Higher values are more verbose.
type Level int

const (
	Error Level = iota - 2
	Warn
	Info
	Debug
	Verbose

	// Numeric levels up to 9 are allowed for trace output.
	MaxLevel Level = 9
)

// ParseLevel parses a level name, its first letter, or a number.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "E", "ERROR":
		return Error, nil
	case "W", "WARN", "WARNING":
		return Warn, nil
	case "I", "INFO":
		return Info, nil
	case "D", "DEBUG":
		return Debug, nil
	case "V", "VERBOSE":
		return Verbose, nil
	case "T", "TRACE":
		return MaxLevel, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return Info, fmt.Errorf("invalid logging level: %q", s)
	}
	level := Level(n)
	if level < Error || level > MaxLevel {
		return Info, fmt.Errorf("numeric level out of range: %q", s)
	}
	return level, nil
}

func (l Level) String() string {
	switch l {
	case Error:
		return "Error"
	case Warn:
		return "Warn"
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	case Verbose:
		return "Verbose"
	default:
		return strconv.Itoa(int(l))
	}
}

func (l Level) letter() byte {
	if l <= Verbose {
		return "EWIDV"[l-Error]
	}
	return byte('0' + l)
}

func (l Level) color() *color.Color {
	switch l {
	case Error:
		return color.New(color.FgRed, color.Bold)
	case Warn:
		return color.New(color.FgRed)
	case Info:
		return color.New(color.Reset)
	case Debug:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgYellow)
	}
}
