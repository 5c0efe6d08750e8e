package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// tone is an ANSI SGR sequence.
type tone string

const (
	toneReset   tone = "\033[0m"
	toneBold    tone = "\033[1m"
	toneDim     tone = "\033[2m"
	toneRed     tone = "\033[31m"
	toneYellow  tone = "\033[33m"
	toneBlue    tone = "\033[34m"
	toneMagenta tone = "\033[35m"
	toneCyan    tone = "\033[36m"
)

var colorEnabled = true

// DisableColors turns off ANSI sequences in formatted output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors turns ANSI sequences back on.
func EnableColors() {
	colorEnabled = true
}

func paint(t tone, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return string(t) + text + string(toneReset)
}

// categoryTone colors the header by the part of the system that failed.
var categoryTone = map[Category]tone{
	CategoryConfig:   toneYellow,
	CategoryRuntime:  toneRed,
	CategorySnapshot: toneMagenta,
	CategoryDevtools: toneBlue,
	CategoryCLI:      toneCyan,
}

// detailWidth is the wrap width of the explanation paragraph.
const detailWidth = 72

// note is one "= label: text" line under the body of a formatted error.
type note struct {
	label string
	text  string
}

func (e *Error) notes() []note {
	var notes []note
	if e.Wrapped != nil {
		notes = append(notes, note{"cause", e.Wrapped.Error()})
	}
	if e.Suggestion != "" {
		notes = append(notes, note{"hint", e.Suggestion})
	}
	if e.Example != "" {
		notes = append(notes, note{"example", e.Example})
	}
	if e.DocURL != "" {
		notes = append(notes, note{"docs", e.DocURL})
	}
	return notes
}

func (e *Error) header() string {
	t, ok := categoryTone[e.Category]
	if !ok {
		t = toneRed
	}
	label := "error"
	if e.Code != "" {
		label += "[" + e.Code + "]"
	}
	h := paint(t, paint(toneBold, label))
	if e.Category != "" {
		h += " " + paint(toneDim, string(e.Category)+":")
	}
	return h + " " + paint(toneBold, e.Message)
}

// Format renders the error for a terminal:
//
//	error[E102] config: Invalid devtools port
//	  --> observable.json:4:13
//	   |
//	 2 |   "devtools": {
//	 3 |     "host": "localhost",
//	 4 |     "port": 0,
//	   |             ^
//	 5 |     "readOnly": false
//	 6 |   },
//	   |
//	  devtools.port must be between 1 and 65535.
//
//	  = hint: Use a port between 1 and 65535
//	  = docs: https://observable.vango.dev/docs/errors/E102
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(e.header())
	b.WriteString("\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s %s\n", paint(toneBlue, "-->"), e.Location)
		e.writeExcerpt(&b)
	}

	for _, line := range wrapText(e.Detail, detailWidth) {
		b.WriteString("  " + line + "\n")
	}

	if notes := e.notes(); len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			prefix := "  " + paint(toneBlue, "=") + " " + paint(toneBold, n.label+":")
			if n.label != "example" && !strings.Contains(n.text, "\n") {
				b.WriteString(prefix + " " + n.text + "\n")
				continue
			}
			b.WriteString(prefix + "\n")
			for _, line := range strings.Split(n.text, "\n") {
				b.WriteString("      " + line + "\n")
			}
		}
	}
	return b.String()
}

// writeExcerpt prints the context lines with a numbered gutter and a caret
// under the reported column. Context is symmetric around Location.Line.
func (e *Error) writeExcerpt(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	first := e.Location.Line - len(e.Context)/2
	width := len(strconv.Itoa(first + len(e.Context) - 1))
	blank := strings.Repeat(" ", width+1)
	bar := paint(toneBlue, "|")

	b.WriteString(blank + " " + bar + "\n")
	for i, line := range e.Context {
		n := first + i
		num := fmt.Sprintf("%*d", width, n)
		if n == e.Location.Line {
			num = paint(toneBold, num)
		}
		fmt.Fprintf(b, " %s %s %s\n", num, bar, line)
		if n == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "%s %s %s%s\n", blank, bar, strings.Repeat(" ", e.Location.Column-1), paint(toneRed, "^"))
		}
	}
	b.WriteString(blank + " " + bar + "\n")
}

// FormatCompact renders the error on one line for logs and command output:
// location, code, message and cause.
func (e *Error) FormatCompact() string {
	s := e.Message
	if e.Code != "" {
		s = e.Code + " " + s
	}
	if e.Location != nil {
		s = e.Location.String() + ": " + s
	}
	if e.Wrapped != nil {
		s += " (" + e.Wrapped.Error() + ")"
	}
	return s
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	type jsonLocation struct {
		File   string `json:"file"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
	}
	out := struct {
		Code       string        `json:"code,omitempty"`
		Category   Category      `json:"category"`
		Message    string        `json:"message"`
		Detail     string        `json:"detail,omitempty"`
		Location   *jsonLocation `json:"location,omitempty"`
		Suggestion string        `json:"suggestion,omitempty"`
		Cause      string        `json:"cause,omitempty"`
		DocURL     string        `json:"docUrl,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, _ := json.Marshal(out)
	return string(data)
}

// wrapText breaks text on whitespace into lines of at most width bytes. A
// word longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintError writes err to w, using Format when err wraps an *Error.
func PrintError(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", paint(toneRed, paint(toneBold, "error:")), err)
}
