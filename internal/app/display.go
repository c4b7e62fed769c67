// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_monitor/internal/motion"
)

const (
	displayWidth  = 128
	displayHeight = 64
	// Log lines kept under the indicator row.
	displayLines = 3
	// Characters per line with basicfont 7x13.
	displayCols = displayWidth / 7
)

// panel is the part of ssd1306.Dev the display sink draws on.
type panel interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Bounds() image.Rectangle
}

// Display shows the indicator and the latest log lines on an SSD1306 OLED.
// The panel is shared by all sources; it shows whichever spoke last.
type Display struct {
	mu      sync.Mutex
	dev     panel
	close   func() error
	palette motion.Palette

	source string
	color  motion.Color
	lines  []string
}

// OpenDisplay opens the default I2C bus and the SSD1306 at addr.
func OpenDisplay(addr uint16) (*Display, error) {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(&addrBus{Bus: bus, addr: addr}, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", addr)

	d := newDisplay(dev, closeBus(dev, bus))
	if err := d.redraw(); err != nil {
		log.Printf("display: error drawing splash: %v", err)
	}
	return d, nil
}

// addrBus sends every transaction to addr; the ssd1306 driver always
// addresses the panel at its default 0x3C.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

func closeBus(dev *ssd1306.Dev, bus i2c.BusCloser) func() error {
	return func() error {
		if err := dev.Halt(); err != nil {
			log.Printf("display: halt error: %v", err)
		}
		return bus.Close()
	}
}

func newDisplay(dev panel, closeFn func() error) *Display {
	return &Display{dev: dev, close: closeFn, palette: motion.DefaultPalette()}
}

// Close halts the panel and releases the I2C bus.
func (d *Display) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// Sinks returns a factory whose sinks all draw on this display.
func (d *Display) Sinks() SinkFactory {
	return func(source string) motion.FeedbackSink {
		return displaySink{d: d, source: source}
	}
}

type displaySink struct {
	d      *Display
	source string
}

func (s displaySink) SetIndicator(c motion.Color) {
	s.d.update(s.source, func() bool {
		if s.d.color == c && s.d.source == s.source {
			return false
		}
		s.d.color = c
		return true
	})
}

func (s displaySink) AppendLogMessage(msg string) {
	s.d.update(s.source, func() bool {
		s.d.lines = append(s.d.lines, msg)
		if len(s.d.lines) > displayLines {
			s.d.lines = slices.Delete(s.d.lines, 0, len(s.d.lines)-displayLines)
		}
		return true
	})
}

// update applies change under the lock and redraws when it reports a change.
func (d *Display) update(source string, change func() bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := change()
	if d.source != source {
		d.source = source
		changed = true
	}
	if !changed {
		return
	}
	if err := d.redrawLocked(); err != nil {
		log.Printf("display: error updating display: %v", err)
	}
}

func (d *Display) redraw() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.redrawLocked()
}

func (d *Display) redrawLocked() error {
	img := renderIndicator(d.source, d.palette.Name(d.color), d.color, d.lines)
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

// renderIndicator draws the indicator row and the log lines. A positive
// indicator is a filled square, a negative one an outline, neutral nothing.
func renderIndicator(source, name string, c motion.Color, lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	box := image.Rect(displayWidth-12, 2, displayWidth-2, 12)
	switch c {
	case motion.ColorPositive:
		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				img.SetBit(x, y, image1bit.On)
			}
		}
	case motion.ColorNegative:
		for x := box.Min.X; x < box.Max.X; x++ {
			img.SetBit(x, box.Min.Y, image1bit.On)
			img.SetBit(x, box.Max.Y-1, image1bit.On)
		}
		for y := box.Min.Y; y < box.Max.Y; y++ {
			img.SetBit(box.Min.X, y, image1bit.On)
			img.SetBit(box.Max.X-1, y, image1bit.On)
		}
	}

	if source == "" {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Motion Pi"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return img
	}

	drawer.Dot = fixed.P(0, 11)
	drawer.DrawBytes([]byte(clip(fmt.Sprintf("%s %s", name, source), displayCols-2)))

	for i, line := range lines {
		drawer.Dot = fixed.P(0, 26+13*i)
		drawer.DrawBytes([]byte(clip(line, displayCols)))
	}
	return img
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
