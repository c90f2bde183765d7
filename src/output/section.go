package output

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	indent       = "    "
	sectionWidth = 61 // rule length after the corner character
)

// SGR parameters for the stage frame and status glyphs.
const (
	sgrHeader = "2;36"
	sgrMarker = "1;36"
	sgrDim    = "90"
	sgrBanner = "1;32"
)

// paint wraps text in an ANSI SGR sequence when color is on.
func paint(sgr, text string, color bool) string {
	if !color {
		return text
	}
	return "\033[" + sgr + "m" + text + "\033[0m"
}

type glyph struct{ icon, sgr string }

// statusGlyphs covers stage, artifact and build statuses. Anything else
// renders as skipped.
var statusGlyphs = map[string]glyph{
	"success": {"✓", "32"},
	"failed":  {"✗", "31"},
	"skipped": {"⊘", "33"},
}

// StatusIcon returns the icon for a stage or build status.
func StatusIcon(status string, color bool) string {
	g, ok := statusGlyphs[status]
	if !ok {
		g = statusGlyphs["skipped"]
	}
	return paint(g.sgr, g.icon, color)
}

// Dimmed returns text in gray when color is on.
func Dimmed(text string, color bool) string { return paint(sgrDim, text, color) }

// StageStart announces a stage before its Gradle calls run, so long
// builds show which stage is busy.
func StageStart(w io.Writer, name string, color bool) {
	fmt.Fprintf(w, "\n%s%s %s\n", indent, paint(sgrMarker, "▸", color), name)
}

// Section is one framed block of stage output:
//
//	── Compilation ─────────────────────────── 4.2s ──
//	│ task       compileDebugKotlin
//	└──────────────────────────────────────────────────
type Section struct {
	w io.Writer
}

// NewSection writes the header for title and returns the open section.
// A zero elapsed leaves the timing out of the header.
func NewSection(w io.Writer, title string, elapsed time.Duration, color bool) *Section {
	head := "── " + title + " "
	tail := "──"
	if elapsed > 0 {
		tail = " " + FormatElapsed(elapsed) + " ──"
	}
	fill := max(1, sectionWidth+len(indent)-utf8.RuneCountInString(head)-utf8.RuneCountInString(tail))
	fmt.Fprintf(w, "\n%s%s\n", indent, paint(sgrHeader, head+strings.Repeat("─", fill)+tail, color))
	return &Section{w: w}
}

// Row writes one formatted line inside the frame.
func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "%s│ %s\n", indent, fmt.Sprintf(format, args...))
}

// Lines writes captured tool output, one row per line, without trailing
// blank lines.
func (s *Section) Lines(text string) {
	for line := range strings.Lines(strings.TrimRight(text, "\n")) {
		s.Row("%s", strings.TrimRight(line, "\r\n"))
	}
}

// Separator splits a section, e.g. task rows from the status row.
func (s *Section) Separator() { s.rule("├") }

// Close writes the footer.
func (s *Section) Close() { s.rule("└") }

func (s *Section) rule(corner string) {
	fmt.Fprintf(s.w, "%s%s%s\n", indent, corner, strings.Repeat("─", sectionWidth))
}

// KV is one entry of the run context block.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints the run context two entries per line in aligned
// columns.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	fmt.Fprintln(w)
	for pair := range slices.Chunk(kv, 2) {
		line := fmt.Sprintf("%s%-12s", indent, pair[0].Key)
		if len(pair) == 1 {
			line += pair[0].Value
		} else {
			line += fmt.Sprintf("%-18s%-12s%s", pair[0].Value, pair[1].Key, pair[1].Value)
		}
		fmt.Fprintln(w, line)
	}
}

// FormatElapsed renders a stage or build duration: <1ms, 250ms, 4.2s or
// 1m30.0s.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	whole := d.Truncate(time.Minute)
	return fmt.Sprintf("%dm%.1fs", int(whole.Minutes()), (d - whole).Seconds())
}

// SummaryRow writes one line of the end-of-run stage summary.
func SummaryRow(w io.Writer, name, status, detail string, color bool) {
	fmt.Fprintf(w, "%s│ %-24s%s  %s\n", indent, name, StatusIcon(status, color), detail)
}

// SummaryTotal writes the closing total line of the summary.
func SummaryTotal(w io.Writer, elapsed time.Duration, status string, color bool) {
	SummaryRow(w, "total", status, FormatElapsed(elapsed), color)
}
