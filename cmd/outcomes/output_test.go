package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yungbote/outcomes-backend/internal/modules/reporting"
)

func TestWriteOutputFormats(t *testing.T) {
	p := 50.0
	rep := &reporting.CourseReport{
		CourseID: 3,
		SetID:    1,
		Users:    2,
		Rows: []reporting.CourseReportRow{{
			OutcomeID:  7,
			IDNumber:   "M.1",
			Completion: reporting.CompletionResult{OutcomeID: 7, Complete: 1, Total: 2, Percent: &p},
		}},
	}

	var y bytes.Buffer
	if err := writeOutput(&y, "yaml", rep); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(y.String(), "idnumber: M.1") || !strings.Contains(y.String(), "percent: 50") {
		t.Fatalf("yaml output: got=%s", y.String())
	}

	var j bytes.Buffer
	if err := writeOutput(&j, "JSON", rep); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(j.String(), `"idnumber": "M.1"`) {
		t.Fatalf("json output: got=%s", j.String())
	}

	if err := writeOutput(&j, "xml", rep); err == nil {
		t.Fatalf("xml: want error")
	}
}

func TestCommandTree(t *testing.T) {
	want := []string{"migrate", "prune-history", "repair-sortorder", "report course", "report user"}
	for _, path := range want {
		c, _, err := rootCmd.Find(strings.Fields(path))
		if err != nil || c == nil || c.Name() != strings.Fields(path)[len(strings.Fields(path))-1] {
			t.Fatalf("command %q: got=%v err=%v", path, c, err)
		}
	}
	if f := reportCourseCmd.Flags().Lookup("output"); f == nil || f.Shorthand != "o" || f.DefValue != "yaml" {
		t.Fatalf("report course --output flag: got=%+v", f)
	}
}
