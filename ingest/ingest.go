// Package ingest moves uploaded images from an inbox directory into the
// content library, normalizing each one on the way.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/walltodo/walltodo/normalize"
)

// Converter turns one source image file into a library image file.
// *normalize.Normalizer implements it.
type Converter interface {
	ConvertFile(in, out string) error
}

// Result is the outcome for a single inbox file.
type Result struct {
	Source string // path in the inbox
	Output string // path in the library
	Err    error  // nil on success
}

// OK reports whether the file was converted and removed from the inbox.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report lists the results of one IngestAll pass in processing order.
type Report struct {
	Results []Result
}

// Processed returns the number of files successfully ingested.
func (r Report) Processed() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Ingestor converts inbox images into the library.
type Ingestor struct {
	Inbox     string
	Library   string
	Converter Converter    // nil means a 480×800 normalize.Normalizer
	Logger    *slog.Logger // nil means slog.Default()
}

// IngestAll processes every recognized image in the inbox, in name order.
//
// Each file is written to the library as <stem>.png, or <stem>-N.png when
// that name is taken, and removed from the
// inbox only once that write succeeded. A failing file is recorded in the
// report and left in place for the next pass; the remaining files are still
// processed. A missing inbox is created and yields an empty report.
//
// The returned error is only set when the directories themselves cannot be
// created or listed.
func (g *Ingestor) IngestAll() (Report, error) {
	log := g.logger()

	entries, err := os.ReadDir(g.Inbox)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(g.Inbox, 0o755); err != nil {
			return Report{}, fmt.Errorf("creating inbox: %w", err)
		}
		log.LogAttrs(context.Background(), slog.LevelInfo, "Ingestor.createInbox", slog.String("path", g.Inbox))
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("reading inbox: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !normalize.IsImage(e.Name()) {
			continue
		}
		// Stat follows symlinked uploads.
		fi, err := os.Stat(filepath.Join(g.Inbox, e.Name()))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return Report{}, nil
	}
	sort.Strings(names)

	if err := os.MkdirAll(g.Library, 0o755); err != nil {
		return Report{}, fmt.Errorf("creating library: %w", err)
	}

	conv := g.Converter
	if conv == nil {
		conv = normalize.New(normalize.Width, normalize.Height)
	}

	report := Report{Results: make([]Result, 0, len(names))}
	claimed := make(map[string]bool, len(names))
	for _, name := range names {
		res := g.ingest(conv, name, claimed)
		attrs := []slog.Attr{slog.String("source", res.Source), slog.String("output", res.Output)}
		if res.Err != nil {
			attrs = append(attrs, slog.String("err", res.Err.Error()))
			log.LogAttrs(context.Background(), slog.LevelError, "Ingestor.convert", attrs...)
		} else {
			log.LogAttrs(context.Background(), slog.LevelInfo, "Ingestor.convert", attrs...)
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (g *Ingestor) ingest(conv Converter, name string, claimed map[string]bool) Result {
	res := Result{Source: filepath.Join(g.Inbox, name)}
	out, err := g.outputPath(strings.TrimSuffix(name, filepath.Ext(name)), claimed)
	if err != nil {
		res.Err = err
		return res
	}
	res.Output = out
	if err := conv.ConvertFile(res.Source, res.Output); err != nil {
		res.Err = err
		return res
	}
	if err := os.Remove(res.Source); err != nil {
		res.Err = fmt.Errorf("removing source: %w", err)
	}
	return res
}

// outputPath returns the first free library path among <stem>.png,
// <stem>-1.png, <stem>-2.png and so on. Library members are never
// overwritten and a path is handed out at most once per pass.
func (g *Ingestor) outputPath(stem string, claimed map[string]bool) (string, error) {
	for i := 0; ; i++ {
		name := stem + ".png"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.png", stem, i)
		}
		path := filepath.Join(g.Library, name)
		if claimed[path] {
			continue
		}
		_, err := os.Lstat(path)
		if os.IsNotExist(err) {
			claimed[path] = true
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking library: %w", err)
		}
	}
}

func (g *Ingestor) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
