package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// JUnit XML types for CI test reporting.

type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Skipped  int              `xml:"skipped,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnit converts the stage log into one suite with a test case per stage.
func JUnit(variant string, stages []Stage, total time.Duration) JUnitTestSuites {
	suite := JUnitTestSuite{
		Name: "pipboy-build/" + variant,
		Time: seconds(total),
	}
	for _, s := range stages {
		tc := JUnitTestCase{
			Name:      s.Name,
			Classname: "pipboy-build.stage",
			Time:      seconds(s.Elapsed),
		}
		switch s.Status {
		case StatusFailed:
			msg := "stage failed"
			if s.Err != nil {
				msg = s.Err.Error()
			}
			tc.Failure = &JUnitFailure{Message: msg, Type: fmt.Sprintf("%T", s.Err), Body: msg}
			suite.Failures++
		case StatusSkipped:
			tc.Skipped = &JUnitSkipped{Message: "disabled for this build"}
			suite.Skipped++
		}
		suite.Cases = append(suite.Cases, tc)
		suite.Tests++
	}
	return JUnitTestSuites{
		Name:     "pipboy-build",
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Skipped:  suite.Skipped,
		Time:     suite.Time,
		Suites:   []JUnitTestSuite{suite},
	}
}

// WriteJUnit writes the stage log as JUnit XML to path.
func WriteJUnit(path, variant string, stages []Stage, total time.Duration) error {
	data, err := xml.MarshalIndent(JUnit(variant, stages, total), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding junit: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	return os.WriteFile(path, append([]byte(xml.Header), data...), 0o644)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
