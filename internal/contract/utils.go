package contract

import (
	"fmt"
	"os"

	"github.com/dmarten/relval/schema"
	"github.com/fatih/color"
)

// Color variables for console output, one per severity.
var (
	GoodColor      = color.New(color.FgGreen)
	WarningColor   = color.New(color.FgYellow)
	NoncritNCColor = color.New(color.FgCyan)
	CritNCColor    = color.New(color.FgBlue, color.Bold)
	BadColor       = color.New(color.FgRed, color.Bold)
)

// severityColors maps each severity to its console color.
var severityColors = map[schema.Severity]*color.Color{
	schema.SeverityGood:      GoodColor,
	schema.SeverityWarning:   WarningColor,
	schema.SeverityNoncritNC: NoncritNCColor,
	schema.SeverityCritNC:    CritNCColor,
	schema.SeverityBad:       BadColor,
}

// GetSeverityLabel returns the severity as a console label, colored when
// requested and the severity is known.
func GetSeverityLabel(s schema.Severity, useColors bool) string {
	c, ok := severityColors[s]
	if !useColors || !ok {
		return string(s)
	}
	return c.Sprint(string(s))
}

// SelectOutputFile returns the appropriate file handle for output based on
// the provided file path. An empty path selects stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s\n", msg)
}

// TruncatePath shortens a path for table display, keeping the tail which is
// usually the discriminating part.
func TruncatePath(path string, maxLen int) string {
	if maxLen <= 3 || len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
