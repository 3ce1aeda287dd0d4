// Package log provides colored console logging for sockchan.
package log

import (
	"os"

	"github.com/fatih/color"
)

var red = color.New(color.FgRed).FprintfFunc()
var blue = color.New(color.FgBlue).FprintfFunc()
var yellow = color.New(color.FgYellow).FprintfFunc()

// Logger prints to stderr. Verbose messages are suppressed unless the logger
// was created with verbose enabled.
type Logger struct {
	verbose bool
}

// NewLogger creates a Logger. Pass verbose=true to enable VerboseMsg output.
func NewLogger(verbose bool) *Logger {
	return &Logger{verbose: verbose}
}

// ErrorMsg prints an error message to stderr in red color.
func (l *Logger) ErrorMsg(format string, a ...interface{}) {
	red(os.Stderr, "[!] Error: "+format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func (l *Logger) InfoMsg(format string, a ...interface{}) {
	blue(os.Stderr, "[+] "+format, a...)
}

// VerboseMsg prints a debug message to stderr in yellow color. It is a no-op
// unless the logger is verbose. A trailing newline is added.
func (l *Logger) VerboseMsg(format string, a ...interface{}) {
	if !l.verbose {
		return
	}
	yellow(os.Stderr, "[*] "+format+"\n", a...)
}

var defaultLogger = NewLogger(false)

// ErrorMsg prints an error message using the default logger.
func ErrorMsg(format string, a ...interface{}) {
	defaultLogger.ErrorMsg(format, a...)
}

// InfoMsg prints an informational message using the default logger.
func InfoMsg(format string, a ...interface{}) {
	defaultLogger.InfoMsg(format, a...)
}
