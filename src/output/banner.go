package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// BannerInfo holds the identity fields displayed in the run banner.
type BannerInfo struct {
	Title   string
	Version string
	Commit  string
	Branch  string
	Date    string
}

// NewBannerInfo creates a BannerInfo with today's date.
// Commit and Branch describe the project being built, not this tool.
func NewBannerInfo(title, version, commit, branch string) BannerInfo {
	return BannerInfo{
		Title:   title,
		Version: version,
		Commit:  commit,
		Branch:  branch,
		Date:    time.Now().UTC().Format("2006-01-02"),
	}
}

// Banner prints the pipeline title framed by a double rule, followed by
// the identity line.
func Banner(w io.Writer, info BannerInfo, color bool) {
	title := strings.ToUpper(info.Title)
	rule := paint(sgrBanner, strings.Repeat("═", sectionWidth+len(indent)), color)

	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, paint(sgrBanner, "  "+title, color), rule)

	if line := identityLine(info); line != "" {
		fmt.Fprintf(w, "  %s\n", Dimmed(line, color))
	}
}

// identityLine joins the non-empty identity fields with a middle dot.
func identityLine(info BannerInfo) string {
	var parts []string
	if info.Version != "" {
		parts = append(parts, info.Version)
	}
	switch {
	case info.Commit != "" && info.Branch != "":
		parts = append(parts, info.Commit+" @ "+info.Branch)
	case info.Commit != "":
		parts = append(parts, info.Commit)
	}
	if info.Date != "" {
		parts = append(parts, info.Date)
	}
	return strings.Join(parts, " · ")
}

// Failure prints the final failure line of a run.
func Failure(w io.Writer, err error, color bool) {
	fmt.Fprintf(w, "\n  %s\n\n", paint("1;31", "✗ BUILD FAILED: "+err.Error(), color))
}

// Success prints the final success line of a run.
func Success(w io.Writer, msg string, color bool) {
	fmt.Fprintf(w, "\n  %s\n\n", paint(sgrBanner, "✓ "+msg, color))
}
