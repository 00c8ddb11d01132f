// Package epd7in5v2 controls a Waveshare 7.5" V2 e-paper panel (UC8179 controller) via SPI.
//
// The panel is 800x480 pixels, black and white. Frames are sent as 1 bit per pixel,
// 8 pixels per byte, most significant bit first, where a set bit is white.
//
// See the examples for how to use this package.
package epd7in5v2

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// UC8179 commands used by this driver.
const (
	cmdPanelSetting     byte = 0x00
	cmdPowerSetting     byte = 0x01
	cmdPowerOff         byte = 0x02
	cmdPowerOn          byte = 0x04
	cmdBoosterSoftStart byte = 0x06
	cmdDeepSleep        byte = 0x07
	cmdOldData          byte = 0x10
	cmdDisplayRefresh   byte = 0x12
	cmdNewData          byte = 0x13
	cmdDualSPI          byte = 0x15
	cmdVCOMInterval     byte = 0x50
	cmdTCON             byte = 0x60
	cmdResolution       byte = 0x61
	cmdGetStatus        byte = 0x71
)

const (
	deepSleepCheck   byte = 0xA5
	busyPollInterval      = 20 * time.Millisecond
	defaultMaxTxSize      = 4096
)

var (
	errNotReady    = errors.New("epd7in5v2: not initialized")
	errBusyTimeout = errors.New("epd7in5v2: busy timeout")
	errBufferSize  = errors.New("epd7in5v2: invalid buffer size")
)

// Opts is the configuration for the panel.
type Opts struct {
	// Panel dimensions in pixels
	W int // Width (default: 800, must be a multiple of 8 and ≤800)
	H int // Height (default: 480, must be ≤600)

	// Optional hardware reset pin
	RST gpio.PinOut

	// BusyTimeout bounds each wait on the BUSY line (default: 30s).
	BusyTimeout time.Duration
}

// Dev is the device handle for the panel.
type Dev struct {
	// Communication
	c    conn.Conn   // SPI connection
	dc   gpio.PinOut // Data/Command pin
	busy gpio.PinIn  // Low while the controller is busy
	rst  gpio.PinOut // Reset pin (optional)

	rect        image.Rectangle
	busyTimeout time.Duration
	maxTxSize   int

	// Last frame sent to the panel, used as the base for Draw.
	buffer []byte

	// ready is true between Init and Sleep.
	ready bool
}

// checkOpts applies defaults and validates options.
func checkOpts(opts *Opts) (*Opts, error) {
	o := Opts{W: 800, H: 480}
	if opts != nil {
		o = *opts
	}
	if o.W <= 0 || o.W%8 != 0 || o.W > 800 {
		return nil, errors.New("epd7in5v2: width must be a multiple of 8 and between 8 and 800")
	}
	if o.H <= 0 || o.H > 600 {
		return nil, errors.New("epd7in5v2: height must be between 1 and 600")
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = 30 * time.Second
	}
	return &o, nil
}

// NewSPI creates a new panel device connected via SPI.
//
// The SPI port is configured for 4MHz, Mode0, 8-bit transfers. dc selects
// command or data bytes and busy is the controller's BUSY output.
//
// opts can be nil to use defaults (800x480 panel). The panel is not touched
// until Init is called.
func NewSPI(p spi.Port, dc gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	o, err := checkOpts(opts)
	if err != nil {
		return nil, err
	}

	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("epd7in5v2: failed to connect SPI: %w", err)
	}
	if err := busy.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epd7in5v2: failed to configure BUSY: %w", err)
	}

	maxTx := defaultMaxTxSize
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		maxTx = l.MaxTxSize()
	}

	return newDev(c, dc, busy, o, maxTx), nil
}

func newDev(c conn.Conn, dc gpio.PinOut, busy gpio.PinIn, o *Opts, maxTx int) *Dev {
	rect := image.Rect(0, 0, o.W, o.H)
	d := &Dev{
		c:           c,
		dc:          dc,
		busy:        busy,
		rst:         o.RST,
		rect:        rect,
		busyTimeout: o.BusyTimeout,
		maxTxSize:   maxTx,
		buffer:      make([]byte, o.W*o.H/8),
	}
	fill(d.buffer, 0xFF)
	return d
}

// Init wakes the panel (hardware reset) and sends the power-up sequence.
// It must be called before any drawing and again after Sleep.
func (d *Dev) Init() error {
	if err := d.reset(); err != nil {
		return err
	}

	if err := d.command(cmdBoosterSoftStart, 0x17, 0x17, 0x28, 0x17); err != nil {
		return err
	}
	// VGH=20V, VGL=-20V, VDH=15V, VDL=-15V
	if err := d.command(cmdPowerSetting, 0x07, 0x07, 0x28, 0x17); err != nil {
		return err
	}
	if err := d.sendCommand(cmdPowerOn); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	if err := d.waitIdle(); err != nil {
		return err
	}

	w, h := d.rect.Dx(), d.rect.Dy()
	cmds := []struct {
		cmd  byte
		data []byte
	}{
		{cmdPanelSetting, []byte{0x1F}}, // KW mode, LUT from OTP
		{cmdResolution, []byte{byte(w >> 8), byte(w), byte(h >> 8), byte(h)}},
		{cmdDualSPI, []byte{0x00}},
		{cmdVCOMInterval, []byte{0x10, 0x07}},
		{cmdTCON, []byte{0x22}},
	}
	for _, c := range cmds {
		if err := d.command(c.cmd, c.data...); err != nil {
			return err
		}
	}

	d.ready = true
	return nil
}

// reset pulses the reset line, if one is wired.
func (d *Dev) reset() error {
	if d.rst == nil {
		return nil
	}
	for _, step := range []struct {
		l gpio.Level
		t time.Duration
	}{
		{gpio.High, 20 * time.Millisecond},
		{gpio.Low, 2 * time.Millisecond},
		{gpio.High, 20 * time.Millisecond},
	} {
		if err := d.rst.Out(step.l); err != nil {
			return fmt.Errorf("epd7in5v2: failed to drive RST: %w", err)
		}
		time.Sleep(step.t)
	}
	return nil
}

// command sends a command byte followed by its parameters.
func (d *Dev) command(cmd byte, data ...byte) error {
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.sendData(data)
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx([]byte{cmd}, nil)
}

// sendData sends data bytes, split to the connection's transfer limit.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := min(len(data), d.maxTxSize)
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// waitIdle polls the controller status until BUSY goes high.
func (d *Dev) waitIdle() error {
	deadline := time.Now().Add(d.busyTimeout)
	for {
		if err := d.sendCommand(cmdGetStatus); err != nil {
			return err
		}
		if d.busy.Read() == gpio.High {
			return nil
		}
		if time.Now().After(deadline) {
			return errBusyTimeout
		}
		time.Sleep(busyPollInterval)
	}
}

// refresh latches both data planes onto the panel.
func (d *Dev) refresh() error {
	if err := d.sendCommand(cmdDisplayRefresh); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return d.waitIdle()
}

// ColorModel returns the color model of the panel.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds of the panel.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Clear wipes the panel to white with a full refresh cycle.
func (d *Dev) Clear() error {
	if !d.ready {
		return errNotReady
	}
	white := make([]byte, len(d.buffer))
	fill(white, 0xFF)
	if err := d.command(cmdOldData, white...); err != nil {
		return err
	}
	if err := d.command(cmdNewData, make([]byte, len(d.buffer))...); err != nil {
		return err
	}
	if err := d.refresh(); err != nil {
		return err
	}
	copy(d.buffer, white)
	return nil
}

// Display sends a raw frame and refreshes the panel.
// The frame must be exactly W*H/8 bytes, MSB first, set bits white.
func (d *Dev) Display(frame []byte) error {
	if !d.ready {
		return errNotReady
	}
	if len(frame) != len(d.buffer) {
		return errBufferSize
	}
	inverted := make([]byte, len(frame))
	for i, b := range frame {
		inverted[i] = ^b
	}
	if err := d.command(cmdOldData, frame...); err != nil {
		return err
	}
	if err := d.command(cmdNewData, inverted...); err != nil {
		return err
	}
	if err := d.refresh(); err != nil {
		return err
	}
	copy(d.buffer, frame)
	return nil
}

// Draw draws an image onto the panel.
// The dst rectangle specifies the destination region on the panel; pixels outside
// it keep the previously displayed content. Gray content is Floyd-Steinberg dithered.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if !d.ready {
		return errNotReady
	}

	// Clip to panel bounds
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	next := NewFrame(d.rect)
	copy(next.Pix, d.buffer)
	draw.FloydSteinberg.Draw(next, dst, src, sp)
	return d.Display(next.Pix)
}

// Sleep powers the panel off and puts the controller into deep sleep.
// The panel keeps its image; call Init before drawing again.
func (d *Dev) Sleep() error {
	if !d.ready {
		return nil
	}
	if err := d.sendCommand(cmdPowerOff); err != nil {
		return err
	}
	if err := d.waitIdle(); err != nil {
		return err
	}
	if err := d.command(cmdDeepSleep, deepSleepCheck); err != nil {
		return err
	}
	d.ready = false
	return nil
}

// Halt puts the panel to sleep. It implements periph's display.Drawer.
func (d *Dev) Halt() error {
	return d.Sleep()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("epd7in5v2.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
