package model

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

// Reporter receives progress notes from the executor
type Reporter interface {
	Printf(format string, args ...interface{})
}

// SilentReporter does not output anything
type SilentReporter struct{}

func (r *SilentReporter) Printf(format string, args ...interface{}) {}

// ColorReporter writes dimmed progress notes to a writer (typically stderr)
type ColorReporter struct {
	Writer io.Writer
}

func (r *ColorReporter) Printf(format string, args ...interface{}) {
	fmt.Fprint(r.Writer, color.Gray.Sprintf(format, args...))
}
