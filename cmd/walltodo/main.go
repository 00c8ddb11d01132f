// Command walltodo runs one refresh cycle of the wall task board: it ingests
// uploaded images, fetches today's Todoist tasks and, when they changed,
// renders them (or the day's library image) onto the e-paper panel.
//
// It is meant to be run from cron every minute or so. API_KEY is read from
// the environment or from a .env file in the working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"

	"github.com/walltodo/walltodo"
	"github.com/walltodo/walltodo/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		root, inbox, library, output, cache string
		filter, tz, fonts                   string
		spiBus, dc, rst, busy               string
		limit, preview                      int
		fontSize                            float64
		noDisplay, full, ghost              bool
		clear, ingestOnly                   bool
		verbose, noColor                    bool
	)

	flag.StringVar(&root, "root", ".", "working directory holding uploads/, images/, cache/ and output.png")
	flag.StringVar(&inbox, "inbox", "", "inbox of uploaded images (default ROOT/uploads)")
	flag.StringVar(&library, "library", "", "normalized image library (default ROOT/images)")
	flag.StringVar(&output, "output", "", "output image (default ROOT/output.png)")
	flag.StringVar(&cache, "cache", "", "task snapshot file (default ROOT/cache/tasks.json)")
	flag.StringVar(&filter, "filter", "today", "Todoist filter query")
	flag.IntVar(&limit, "limit", 10, "maximum number of tasks, 0 for all")
	flag.StringVar(&tz, "tz", "", "IANA time zone for dates (default local)")
	flag.StringVar(&fonts, "font", "", "comma separated font names or paths, tried in order")
	flag.Float64Var(&fontSize, "font-size", 28, "task font size in points")
	flag.BoolVar(&noDisplay, "no-display", false, "render the output image but leave the panel alone")
	flag.BoolVar(&full, "full", false, "force a full refresh of the panel")
	flag.BoolVar(&ghost, "ghost-refresh", false, "rewrite an unchanged board when a full refresh is due")
	flag.BoolVar(&clear, "clear", false, "wipe the panel and exit")
	flag.BoolVar(&ingestOnly, "ingest", false, "only convert inbox images and exit")
	flag.IntVar(&preview, "fallback-preview", 0, "print the fallback image of the next N days and exit")
	flag.StringVar(&spiBus, "spi", "", "SPI port name (empty for the first port)")
	flag.StringVar(&dc, "dc", "", "data/command GPIO (default GPIO25)")
	flag.StringVar(&rst, "rst", "", "reset GPIO (default GPIO17)")
	flag.StringVar(&busy, "busy", "", "busy GPIO (default GPIO24)")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.BoolVar(&noColor, "no-color", false, "disable colored output")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "wall task board refresher\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cli.SupportsColor(noColor)

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("reading .env", "err", err)
	}

	cfg := walltodo.DefaultConfig(root)
	setIf(&cfg.Inbox, inbox)
	setIf(&cfg.Library, library)
	setIf(&cfg.OutputPath, output)
	setIf(&cfg.SnapshotPath, cache)
	cfg.Filter = filter
	cfg.Limit = limit
	cfg.FontSize = fontSize
	cfg.APIToken = os.Getenv("API_KEY")
	cfg.NoDisplay = noDisplay
	cfg.ForceFull = full
	cfg.GhostRefresh = ghost
	cfg.Probe.SPI = spiBus
	cfg.Probe.DC = dc
	cfg.Probe.RST = rst
	cfg.Probe.BUSY = busy
	if fonts != "" {
		cfg.FontNames = strings.Split(fonts, ",")
	}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -tz: %v\n", err)
			return 1
		}
		cfg.Location = loc
	}

	p, err := walltodo.New(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	switch {
	case clear:
		if !p.Clear() {
			fmt.Fprintln(os.Stderr, "clearing the panel failed")
		}
		return 0
	case ingestOnly:
		report, err := p.IngestOnly()
		cli.PrintIngest(os.Stdout, report)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	case preview > 0:
		cli.PrintPreview(os.Stdout, p.PreviewFallback(preview))
		return 0
	}

	if cfg.APIToken == "" {
		logger.Warn("API_KEY not set, showing the fallback image")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Run(ctx)
	cli.PrintSummary(os.Stdout, res)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
