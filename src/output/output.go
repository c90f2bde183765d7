package output

import (
	"cmp"
	"os"
	"slices"
	"strconv"

	"github.com/supernova/pipboy-build/src/lint"
)

// UseColor reports whether stage output gets ANSI colors: on a terminal
// or a CI log, unless NO_COLOR is set or TERM is dumb.
func UseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "", os.Getenv("TERM") == "dumb":
		return false
	case IsCI():
		return true
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// RowStatus writes a stage row: label, status icon, then detail if any.
func RowStatus(sec *Section, label, detail, status string, color bool) {
	if detail == "" {
		sec.Row("%-44s %s", label, StatusIcon(status, color))
		return
	}
	sec.Row("%-44s %s %s", label, StatusIcon(status, color), detail)
}

// SectionFindings lists repository check findings under their file path.
// Files sort by path; a file's findings by line, module, then message.
func SectionFindings(sec *Section, findings []lint.Finding, color bool) {
	sorted := slices.Clone(findings)
	slices.SortFunc(sorted, func(a, b lint.Finding) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Module, b.Module),
			cmp.Compare(a.Message, b.Message),
		)
	})

	file := ""
	for i, f := range sorted {
		if i == 0 || f.File != file {
			file = f.File
			sec.Row("%s", paint("1", file, color))
		}
		line := "-"
		if f.Line > 0 {
			line = strconv.Itoa(f.Line)
		}
		sec.Row("  %-6s %-4s  %-9s %s", line, severityTag(f.Severity, color), f.Module, f.Message)
	}
}

var severityTags = map[lint.Severity]glyph{
	lint.SeverityCritical: {"CRIT", "31"},
	lint.SeverityWarning:  {"WARN", "33"},
	lint.SeverityInfo:     {"INFO", sgrDim},
}

// severityTag returns a four-letter severity label.
func severityTag(s lint.Severity, color bool) string {
	g, ok := severityTags[s]
	if !ok {
		return s.String()
	}
	return paint(g.sgr, g.icon, color)
}
