// Package cli holds the terminal helpers of the walltodo command.
package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/walltodo/walltodo"
	"github.com/walltodo/walltodo/ingest"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

// PrintSummary writes a short human-readable account of one pipeline run.
func PrintSummary(w io.Writer, res walltodo.Result) {
	PrintIngest(w, res.Ingest)
	if res.IngestErr != nil {
		failColor.Fprintf(w, "ingest failed: %v\n", res.IngestErr)
	}

	if res.FetchErr != nil {
		warnColor.Fprintf(w, "tasks unavailable: %v\n", res.FetchErr)
	} else {
		fmt.Fprintf(w, "tasks: %d\n", res.Tasks)
	}

	switch {
	case !res.Changed:
		dimColor.Fprintln(w, "unchanged, nothing rendered")
	case res.Fallback != "":
		okColor.Fprintf(w, "showing %s\n", filepath.Base(res.Fallback))
	case res.Rendered:
		okColor.Fprintln(w, "board rendered")
	}

	switch {
	case !res.DisplayAttempted:
	case res.Displayed:
		okColor.Fprintln(w, "panel updated")
	default:
		failColor.Fprintln(w, "panel update failed")
	}
}

// PrintIngest lists the files of an ingest pass. An empty pass prints nothing.
func PrintIngest(w io.Writer, r ingest.Report) {
	for _, res := range r.Results {
		name := filepath.Base(res.Source)
		if res.OK() {
			okColor.Fprintf(w, "ingested %s -> %s\n", name, filepath.Base(res.Output))
		} else {
			failColor.Fprintf(w, "ingest %s: %v\n", name, res.Err)
		}
	}
}

// PrintPreview lists the fallback image of each upcoming day.
func PrintPreview(w io.Writer, days []string) {
	for i, path := range days {
		if path == "" {
			dimColor.Fprintf(w, "+%d\t(empty library)\n", i)
			continue
		}
		fmt.Fprintf(w, "+%d\t%s\n", i, filepath.Base(path))
	}
}
