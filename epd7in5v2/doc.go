// Package epd7in5v2 controls a Waveshare 7.5" V2 e-paper panel via SPI.
//
// The panel uses a UC8179 controller driving 800×480 black and white pixels.
// Unlike an OLED, the panel keeps its image without power: every write is a
// complete refresh cycle that takes several seconds, after which the
// controller should be put back to sleep.
//
// # Hardware Connection
//
// The Waveshare e-Paper HAT wires the panel to a Raspberry Pi as follows:
//
//	Panel Pin → System Pin
//	VCC       → 3.3V
//	GND       → GND
//	DIN       → SPI0 MOSI (GPIO10)
//	CLK       → SPI0 SCLK (GPIO11)
//	CS        → SPI0 CE0 (GPIO8)
//	DC        → GPIO25
//	RST       → GPIO17
//	BUSY      → GPIO24
//
// # Basic Usage
//
//	package main
//
//	import (
//		"image"
//
//		"github.com/walltodo/walltodo/epd7in5v2"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		p, _ := spireg.Open("")
//		defer p.Close()
//
//		dev, _ := epd7in5v2.NewSPI(p, gpioreg.ByName("GPIO25"), gpioreg.ByName("GPIO24"), &epd7in5v2.Opts{
//			RST: gpioreg.ByName("GPIO17"),
//		})
//		dev.Init()
//		defer dev.Sleep()
//
//		dev.Draw(dev.Bounds(), img, image.Point{})
//	}
//
// # Refresh Modes
//
// Clear drives the whole panel white through a full refresh cycle. It removes
// ghosting left behind by previous images at the cost of a visible flash.
// Display and Draw write a new frame without the preceding wipe.
//
// # Frame Format
//
// Display takes raw frames of W*H/8 bytes, 8 horizontal pixels per byte, MSB
// first, set bits white. Frame builds such buffers and implements draw.Image,
// so any Go image can be converted:
//
//	f := epd7in5v2.NewFrame(dev.Bounds())
//	draw.FloydSteinberg.Draw(f, f.Bounds(), img, image.Point{})
//	dev.Display(f.Pix)
//
// Draw performs the same Floyd-Steinberg conversion internally.
//
// # Sleep
//
// After Sleep the controller is in deep sleep and ignores the bus; Clear,
// Display and Draw return an error until Init is called again.
//
// # Compatibility with periph.io
//
// Dev provides Bounds, ColorModel, Draw and Halt, matching the display.Drawer
// interface from periph.io.
package epd7in5v2
