package driver

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Reporter prints human-readable progress.
type Reporter struct {
	w io.Writer

	heading *color.Color
	class   *color.Color
	mixin   *color.Color
	dim     *color.Color
	fail    *color.Color
	insert  *color.Color
	delete  *color.Color
}

// NewReporter creates a reporter writing to w. Colors are enabled
// only when w is a terminal.
func NewReporter(w io.Writer) *Reporter {
	r := &Reporter{
		w:       w,
		heading: color.New(color.Bold),
		class:   color.New(color.FgGreen),
		mixin:   color.New(color.FgCyan),
		dim:     color.New(color.Faint),
		fail:    color.New(color.FgRed, color.Bold),
		insert:  color.New(color.FgGreen),
		delete:  color.New(color.FgRed),
	}
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		for _, c := range []*color.Color{
			r.heading, r.class, r.mixin, r.dim, r.fail, r.insert, r.delete,
		} {
			c.DisableColor()
		}
	}
	return r
}

// Start prints the configuration in use.
func (r *Reporter) Start(configPath string) {
	r.heading.Fprintln(r.w, ">>> Reading configuration")
	fmt.Fprintf(r.w, "  - %s\n\n", configPath)
	r.heading.Fprintln(r.w, ">>> Generate code")
}

// Generated prints one generated file.
func (r *Reporter) Generated(e Event) {
	c, label := r.class, "Class"
	if e.Kind == KindMixin {
		c, label = r.mixin, "Mixin"
	}
	fmt.Fprint(r.w, "  - ")
	c.Fprintf(r.w, "%s %s", label, e.Class)
	r.dim.Fprintf(r.w, " (%s)\n", humanize.Bytes(uint64(e.Size)))
}

// Skipped prints a file that could not be compiled.
func (r *Reporter) Skipped(source string, err error) {
	fmt.Fprint(r.w, "  - ")
	r.fail.Fprint(r.w, "ERROR")
	fmt.Fprintf(r.w, " %s: %v\n", source, err)
}

// Summary prints the totals of a run.
func (r *Reporter) Summary(s Summary, took time.Duration) {
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "%d generated (%s), %d up to date",
		s.Generated, humanize.Bytes(uint64(s.Bytes)), s.UpToDate)
	if s.Skipped > 0 {
		fmt.Fprint(r.w, ", ")
		r.fail.Fprintf(r.w, "%d skipped", s.Skipped)
	}
	r.dim.Fprintf(r.w, " in %s\n", took.Round(time.Millisecond))
}

// OutOfDate prints a line diff between the file on disk and the
// freshly generated code.
func (r *Reporter) OutOfDate(output, onDisk, generated string) {
	r.fail.Fprint(r.w, "out of date: ")
	fmt.Fprintln(r.w, output)

	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(onDisk, generated)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		var (
			c    *color.Color
			sign string
		)
		switch d.Type {
		case diffpatch.DiffInsert:
			c, sign = r.insert, "+"
		case diffpatch.DiffDelete:
			c, sign = r.delete, "-"
		default:
			continue
		}
		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			c.Fprintf(r.w, "%s %s\n", sign, strings.TrimSuffix(line, "\r"))
		}
	}
}
