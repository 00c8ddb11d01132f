// Package refresh drives panel writes: it picks full or partial refresh,
// rotates the portrait image for the landscape mounted panel and keeps
// hardware failures from escaping as anything but a false result.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/walltodo/walltodo/normalize"
)

// Decision is the refresh kind of one panel write.
type Decision int

const (
	Partial Decision = iota
	Full             // clear the panel before writing, removing ghosting
)

func (d Decision) String() string {
	if d == Full {
		return "full"
	}
	return "partial"
}

// FullEvery is the minute cadence of forced full refreshes.
const FullEvery = 5

// Decide returns Full when force is set or the minute of now is a multiple
// of FullEvery, and Partial otherwise.
func Decide(now time.Time, force bool) Decision {
	if force || now.Minute()%FullEvery == 0 {
		return Full
	}
	return Partial
}

// Panel is an initialized-on-demand handle to the physical display.
type Panel interface {
	Init() error
	Clear() error
	// Display writes img, which is already in panel orientation.
	Display(img image.Image) error
	Sleep() error
	Close() error
}

// Opener acquires the panel.
type Opener func() (Panel, error)

// Capability tells whether a panel can be driven in this process.
// It is either Available with an Opener or Unavailable with a reason.
type Capability struct {
	open   Opener
	reason string
}

// Available returns a capability that acquires the panel through open.
func Available(open Opener) Capability {
	return Capability{open: open}
}

// Unavailable returns a capability without hardware.
func Unavailable(reason string) Capability {
	return Capability{reason: reason}
}

// IsAvailable reports whether a panel is present.
func (c Capability) IsAvailable() bool {
	return c.open != nil
}

// Reason explains an Unavailable capability.
func (c Capability) Reason() string {
	return c.reason
}

// Open acquires the panel.
func (c Capability) Open() (Panel, error) {
	if c.open == nil {
		return nil, errors.New("refresh: no panel: " + c.reason)
	}
	return c.open()
}

// Controller performs panel writes. Without hardware it only logs what it
// would have done and reports success.
type Controller struct {
	Capability Capability
	Now        func() time.Time // default time.Now
	Logger     *slog.Logger     // nil means slog.Default()
}

// Write shows img, a portrait image, on the panel. name identifies the image
// in logs. The image is rotated 90° counter-clockwise with its canvas
// expanded, so a 480×800 image becomes 800×480. A Full decision clears the
// panel first. Any hardware error or panic yields false.
func (c *Controller) Write(img image.Image, name string, force bool) bool {
	decision := Decide(c.now(), force)
	attrs := []slog.Attr{slog.String("image", name), slog.String("refresh", decision.String())}

	if !c.Capability.IsAvailable() {
		c.logger().LogAttrs(context.Background(), slog.LevelInfo, "Controller.Write.simulate",
			append(attrs, slog.String("reason", c.Capability.Reason()))...)
		return true
	}

	return c.withPanel("Controller.Write", attrs, func(p Panel) error {
		if decision == Full {
			if err := p.Clear(); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
		}
		if err := p.Display(imaging.Rotate90(img)); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		return nil
	})
}

// WriteFile loads the image at path and writes it like Write.
// An unreadable image yields false.
func (c *Controller) WriteFile(path string, force bool) bool {
	img, err := normalize.Decode(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("image not found: %s", path)
		}
		c.logger().LogAttrs(context.Background(), slog.LevelError, "Controller.WriteFile",
			slog.String("image", path), slog.String("err", err.Error()))
		return false
	}
	return c.Write(img, path, force)
}

// Clear wipes the panel with a full refresh and puts it back to sleep.
func (c *Controller) Clear() bool {
	if !c.Capability.IsAvailable() {
		c.logger().LogAttrs(context.Background(), slog.LevelInfo, "Controller.Clear.simulate",
			slog.String("reason", c.Capability.Reason()))
		return true
	}
	return c.withPanel("Controller.Clear", nil, func(p Panel) error {
		return p.Clear()
	})
}

// withPanel opens and initializes the panel, runs fn, then always sleeps
// the initialized panel and closes it.
func (c *Controller) withPanel(op string, attrs []slog.Attr, fn func(Panel) error) (ok bool) {
	log := c.logger()
	fail := func(err error) {
		log.LogAttrs(context.Background(), slog.LevelError, op, append(attrs, slog.String("err", err.Error()))...)
		ok = false
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
		}
	}()

	p, err := c.Capability.Open()
	if err != nil {
		fail(fmt.Errorf("open: %w", err))
		return false
	}
	defer func() {
		if err := p.Close(); err != nil {
			fail(fmt.Errorf("close: %w", err))
		}
	}()

	if err := p.Init(); err != nil {
		fail(fmt.Errorf("init: %w", err))
		return false
	}
	defer func() {
		if err := p.Sleep(); err != nil {
			fail(fmt.Errorf("sleep: %w", err))
		}
	}()

	if err := fn(p); err != nil {
		fail(err)
		return false
	}
	log.LogAttrs(context.Background(), slog.LevelInfo, op, attrs...)
	return true
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
