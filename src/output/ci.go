package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// IsCI reports whether the build runs under a CI agent. GitLab, GitHub
// Actions and Bitrise set CI; Jenkins only sets JENKINS_URL.
func IsCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("JENKINS_URL") != ""
}

// Fold is a GitLab CI collapsible log section around one stage. Outside
// GitLab CI it writes nothing.
type Fold struct {
	w  io.Writer
	id string
}

// OpenFold starts a fold named after the stage. Fold ids may not contain
// spaces, so stage ids are used rather than titles.
func OpenFold(w io.Writer, stage, title string) *Fold {
	if os.Getenv("GITLAB_CI") != "true" {
		return &Fold{}
	}
	f := &Fold{w: w, id: "pipboy_" + stage}
	fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", time.Now().Unix(), f.id, title)
	return f
}

// Close ends the fold.
func (f *Fold) Close() {
	if f.w == nil {
		return
	}
	fmt.Fprintf(f.w, "\033[0Ksection_end:%d:%s\r\033[0K\n", time.Now().Unix(), f.id)
}
