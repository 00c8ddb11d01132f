package refresh

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/walltodo/walltodo/epd7in5v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// ProbeConfig locates the hardware. Empty fields take the Waveshare
// e-Paper HAT defaults.
type ProbeConfig struct {
	ModelPath string // device-tree model file, default /proc/device-tree/model
	SPI       string // SPI port name, "" for the first port
	DC        string // default GPIO25
	RST       string // default GPIO17
	BUSY      string // default GPIO24
}

const (
	DefaultModelPath = "/proc/device-tree/model"
	DefaultDC        = "GPIO25"
	DefaultRST       = "GPIO17"
	DefaultBUSY      = "GPIO24"
)

func (c ProbeConfig) withDefaults() ProbeConfig {
	if c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	if c.DC == "" {
		c.DC = DefaultDC
	}
	if c.RST == "" {
		c.RST = DefaultRST
	}
	if c.BUSY == "" {
		c.BUSY = DefaultBUSY
	}
	return c
}

// Probe checks the board model and returns Available with an opener for the
// e-paper HAT on a Raspberry Pi, and Unavailable anywhere else. It performs
// no hardware I/O itself.
func Probe(cfg ProbeConfig) Capability {
	cfg = cfg.withDefaults()
	data, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Unavailable("no board model at " + cfg.ModelPath)
		}
		return Unavailable(err.Error())
	}
	model := strings.TrimRight(string(data), "\x00\n")
	if !strings.Contains(model, "Raspberry Pi") {
		return Unavailable("not a Raspberry Pi: " + model)
	}
	return Available(func() (Panel, error) {
		return openHAT(cfg)
	})
}

func openHAT(cfg ProbeConfig) (Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph: %w", err)
	}

	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, fmt.Errorf("opening SPI port: %w", err)
	}

	pins := make(map[string]gpio.PinIO, 3)
	for _, name := range []string{cfg.DC, cfg.RST, cfg.BUSY} {
		p := gpioreg.ByName(name)
		if p == nil {
			port.Close()
			return nil, fmt.Errorf("GPIO pin %s not found", name)
		}
		pins[name] = p
	}

	dev, err := epd7in5v2.NewSPI(port, pins[cfg.DC], pins[cfg.BUSY], &epd7in5v2.Opts{
		W:   800,
		H:   480,
		RST: pins[cfg.RST],
	})
	if err != nil {
		port.Close()
		return nil, err
	}
	return &hatPanel{dev: dev, port: port}, nil
}

// hatPanel adapts the driver to Panel and owns the SPI port.
type hatPanel struct {
	dev  *epd7in5v2.Dev
	port spi.PortCloser
}

func (h *hatPanel) Init() error  { return h.dev.Init() }
func (h *hatPanel) Clear() error { return h.dev.Clear() }
func (h *hatPanel) Sleep() error { return h.dev.Sleep() }

func (h *hatPanel) Display(img image.Image) error {
	if img.Bounds().Dx() != h.dev.Bounds().Dx() || img.Bounds().Dy() != h.dev.Bounds().Dy() {
		return errors.New("image is " + img.Bounds().Size().String() + ", panel is " + h.dev.Bounds().Size().String())
	}
	return h.dev.Draw(h.dev.Bounds(), img, img.Bounds().Min)
}

func (h *hatPanel) Close() error {
	return h.port.Close()
}
