package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type outcome int

const (
	outcomeInfo outcome = iota
	outcomeOK
	outcomeFailed
)

func (o outcome) tag() string {
	switch o {
	case outcomeOK:
		return "[OK]"
	case outcomeFailed:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}

func (o outcome) colors() text.Colors {
	switch o {
	case outcomeOK:
		return text.Colors{text.FgGreen}
	case outcomeFailed:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgBlue}
	}
}

// report prints a titled block of "label: [TAG] detail" lines, colored when
// the destination is a terminal.
type report struct {
	w     io.Writer
	color bool
}

const reportLabelWidth = 20

func newReport(w io.Writer, title string) *report {
	r := &report{w: w, color: isTerminal(w)}
	heading := "== " + strings.TrimSpace(title) + " =="
	r.println(text.Colors{text.FgBlue, text.Bold}, heading)
	r.println(text.Colors{text.FgBlue}, strings.Repeat("-", len(heading)))
	return r
}

func (r *report) line(label string, o outcome, detail string) {
	body := o.tag()
	if detail != "" {
		body += " " + detail
	}
	r.println(o.colors(), fmt.Sprintf("  %-*s %s", reportLabelWidth, label+":", body))
}

func (r *report) println(colors text.Colors, s string) {
	if r.color {
		s = colors.Sprint(s)
	}
	fmt.Fprintln(r.w, s)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
