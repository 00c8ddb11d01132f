package walltodo

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/walltodo/walltodo/image2bit"
	"github.com/walltodo/walltodo/refresh"
	"github.com/walltodo/walltodo/render"
	"github.com/walltodo/walltodo/todoist"
)

// Config holds every setting of a pipeline run.
type Config struct {
	// Directories and files
	Inbox        string // uploaded images waiting for conversion
	Library      string // normalized images
	SnapshotPath string // last rendered task list
	OutputPath   string // image written to the panel

	// Image geometry
	Width  int // default 480
	Height int // default 800
	Levels int // gray levels, must be 4

	// Task source
	Filter     string // Todoist filter, default "today"
	Limit      int    // max tasks, 0 for no limit
	APIBaseURL string
	APIToken   string

	// Rendering
	Location  *time.Location // for dates on the board and fallback selection
	FontNames []string
	FontSize  float64

	// Hardware
	Probe refresh.ProbeConfig

	NoDisplay    bool // render but skip the panel write
	ForceFull    bool // always clear the panel before writing
	GhostRefresh bool // on unchanged runs, rewrite the panel when a full refresh is due
}

// DefaultConfig lays out the working files under root:
//
//	root/uploads/          inbox
//	root/images/           library
//	root/cache/tasks.json  snapshot
//	root/output.png        output
func DefaultConfig(root string) Config {
	return Config{
		Inbox:        filepath.Join(root, "uploads"),
		Library:      filepath.Join(root, "images"),
		SnapshotPath: filepath.Join(root, "cache", "tasks.json"),
		OutputPath:   filepath.Join(root, "output.png"),
		Width:        render.Width,
		Height:       render.Height,
		Levels:       len(image2bit.Levels),
		Filter:       "today",
		Limit:        10,
		APIBaseURL:   todoist.DefaultBaseURL,
		Location:     time.Local,
		FontSize:     render.DefaultFontSize,
	}
}

// Validate reports settings the pipeline cannot work with.
func (c Config) Validate() error {
	var errs []error
	for _, f := range []struct{ name, v string }{
		{"inbox", c.Inbox},
		{"library", c.Library},
		{"snapshot path", c.SnapshotPath},
		{"output path", c.OutputPath},
	} {
		if f.v == "" {
			errs = append(errs, fmt.Errorf("%s is empty", f.name))
		}
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", c.Width, c.Height))
	}
	if c.Levels != len(image2bit.Levels) {
		errs = append(errs, fmt.Errorf("unsupported gray level count %d, want %d", c.Levels, len(image2bit.Levels)))
	}
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("negative task limit %d", c.Limit))
	}
	if c.FontSize < 0 {
		errs = append(errs, fmt.Errorf("negative font size %g", c.FontSize))
	}
	return errors.Join(errs...)
}
