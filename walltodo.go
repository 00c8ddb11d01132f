package walltodo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/walltodo/walltodo/fallback"
	"github.com/walltodo/walltodo/ingest"
	"github.com/walltodo/walltodo/internal/fsutil"
	"github.com/walltodo/walltodo/normalize"
	"github.com/walltodo/walltodo/refresh"
	"github.com/walltodo/walltodo/render"
	"github.com/walltodo/walltodo/taskcache"
	"github.com/walltodo/walltodo/todoist"
)

// TaskSource fetches the current task list.
type TaskSource interface {
	Fetch(ctx context.Context, filter string, limit int) ([]todoist.Task, error)
}

// Renderer draws tasks into an image file.
type Renderer interface {
	RenderFile(tasks []todoist.Task, path string) error
}

// Fallback picks a library image for a day.
type Fallback interface {
	Select(day time.Time) (path string, ok bool)
}

// Display writes image files to the panel.
type Display interface {
	WriteFile(path string, force bool) bool
	Clear() bool
}

// Pipeline runs refresh cycles.
type Pipeline struct {
	Config   Config
	Ingestor *ingest.Ingestor
	Tasks    TaskSource
	Cache    *taskcache.Store
	Renderer Renderer
	Fallback Fallback
	Display  Display
	Now      func() time.Time
	Logger   *slog.Logger
}

// New validates cfg and wires the production components: the Todoist
// client, the board renderer with system fonts and a refresh controller
// for whatever panel the hardware probe finds.
func New(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	capability := refresh.Probe(cfg.Probe)
	if !capability.IsAvailable() {
		logger.LogAttrs(context.Background(), slog.LevelDebug, "Pipeline.probe",
			slog.String("panel", "unavailable"), slog.String("reason", capability.Reason()))
	}

	return &Pipeline{
		Config: cfg,
		Ingestor: &ingest.Ingestor{
			Inbox:     cfg.Inbox,
			Library:   cfg.Library,
			Converter: normalize.New(cfg.Width, cfg.Height),
			Logger:    logger,
		},
		Tasks: &todoist.Client{
			BaseURL: cfg.APIBaseURL,
			Token:   cfg.APIToken,
			Logger:  logger,
		},
		Cache: &taskcache.Store{Path: cfg.SnapshotPath, Logger: logger},
		Renderer: &render.Renderer{
			Width:     cfg.Width,
			Height:    cfg.Height,
			FontNames: render.AppendFallbackFonts(cfg.FontNames),
			FontSize:  cfg.FontSize,
			Location:  cfg.Location,
			Logger:    logger,
		},
		Fallback: &fallback.Selector{Library: cfg.Library},
		Display:  &refresh.Controller{Capability: capability, Logger: logger},
		Logger:   logger,
	}, nil
}

// Result describes what one Run did.
type Result struct {
	Ingest    ingest.Report
	IngestErr error

	Tasks    int
	FetchErr error // set when the task source failed; Tasks is then 0

	Changed  bool
	Fallback string // library image shown instead of a board, if any
	Rendered bool

	DisplayAttempted bool
	Displayed        bool
}

// Run performs one refresh cycle.
//
// Ingest and fetch failures do not stop the cycle: a failed fetch counts as
// an empty task list. When the list equals the cached snapshot nothing is
// rendered, persisted or written, except for an optional ghost refresh.
// Panel failures are reported in Result, not as an error, and leave the
// snapshot as it was so the next run writes again. The returned
// error is set only when the output image could not be produced, in which
// case the snapshot is left untouched.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result
	log := p.logger()
	cfg := p.Config

	res.Ingest, res.IngestErr = p.Ingestor.IngestAll()
	if res.IngestErr != nil {
		log.LogAttrs(ctx, slog.LevelError, "Pipeline.ingest", slog.String("err", res.IngestErr.Error()))
	}

	tasks, err := p.Tasks.Fetch(ctx, cfg.Filter, cfg.Limit)
	if err != nil {
		res.FetchErr = err
		tasks = nil
		log.LogAttrs(ctx, slog.LevelWarn, "Pipeline.fetch", slog.String("err", err.Error()))
	}
	res.Tasks = len(tasks)

	if !taskcache.Changed(tasks, p.Cache.Load()) {
		log.LogAttrs(ctx, slog.LevelInfo, "Pipeline.unchanged", slog.Int("tasks", len(tasks)))
		p.ghostRefresh(ctx, &res)
		return res, nil
	}
	res.Changed = true

	if err := p.produce(ctx, tasks, &res); err != nil {
		return res, err
	}

	if !cfg.NoDisplay {
		res.DisplayAttempted = true
		res.Displayed = p.Display.WriteFile(cfg.OutputPath, cfg.ForceFull)
		if !res.Displayed {
			// Without a snapshot update the next run sees a change and retries.
			log.LogAttrs(ctx, slog.LevelWarn, "Pipeline.persist", slog.String("skipped", "panel write failed"))
			return res, nil
		}
	}

	if err := p.Cache.Persist(tasks); err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "Pipeline.persist", slog.String("err", err.Error()))
	}
	return res, nil
}

// produce writes the output image: the task board, or the day's library
// image when there are no tasks and the library has one.
func (p *Pipeline) produce(ctx context.Context, tasks []todoist.Task, res *Result) error {
	out := p.Config.OutputPath
	if len(tasks) == 0 {
		if path, ok := p.Fallback.Select(p.now()); ok {
			if err := p.copyFallback(path, out); err != nil {
				return fmt.Errorf("fallback image %s: %w", filepath.Base(path), err)
			}
			res.Fallback = path
			p.logger().LogAttrs(ctx, slog.LevelInfo, "Pipeline.fallback",
				slog.String("image", path), slog.String("output", out))
			return nil
		}
	}

	if err := p.Renderer.RenderFile(tasks, out); err != nil {
		return fmt.Errorf("rendering board: %w", err)
	}
	res.Rendered = true
	p.logger().LogAttrs(ctx, slog.LevelInfo, "Pipeline.render",
		slog.Int("tasks", len(tasks)), slog.String("output", out))
	return nil
}

// copyFallback places a library image at out. PNG files are copied as is;
// other formats go through the normalizer so out is always a PNG.
func (p *Pipeline) copyFallback(path, out string) error {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return fsutil.CopyFile(path, out)
	}
	return normalize.New(p.Config.Width, p.Config.Height).ConvertFile(path, out)
}

// ghostRefresh rewrites the current output on an unchanged run when
// GhostRefresh is set and a full refresh is due.
func (p *Pipeline) ghostRefresh(ctx context.Context, res *Result) {
	cfg := p.Config
	if !cfg.GhostRefresh || cfg.NoDisplay {
		return
	}
	if refresh.Decide(p.now(), cfg.ForceFull) != refresh.Full {
		return
	}
	if _, err := os.Stat(cfg.OutputPath); err != nil {
		return
	}
	p.logger().LogAttrs(ctx, slog.LevelInfo, "Pipeline.ghostRefresh", slog.String("output", cfg.OutputPath))
	res.DisplayAttempted = true
	res.Displayed = p.Display.WriteFile(cfg.OutputPath, true)
}

// Clear wipes the panel.
func (p *Pipeline) Clear() bool {
	return p.Display.Clear()
}

// IngestOnly runs only the inbox conversion.
func (p *Pipeline) IngestOnly() (ingest.Report, error) {
	return p.Ingestor.IngestAll()
}

// PreviewFallback returns the fallback image for each of the next days
// days, starting today; entries are "" when the library is empty.
func (p *Pipeline) PreviewFallback(days int) []string {
	out := make([]string, days)
	today := p.now()
	for i := range out {
		out[i], _ = p.Fallback.Select(today.AddDate(0, 0, i))
	}
	return out
}

func (p *Pipeline) now() time.Time {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	if p.Config.Location != nil {
		now = now.In(p.Config.Location)
	}
	return now
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
