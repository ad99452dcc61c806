// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"testing"

	"go.viam.com/test"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func litPixels(img *image1bit.VerticalLSB) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.BitAt(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func TestRenderReadingsWaiting(t *testing.T) {
	img := renderReadings(sampleSnapshot, false)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, displayWidth)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, displayHeight)
	test.That(t, litPixels(img), test.ShouldBeGreaterThan, 0)
}

func TestRenderReadingsDrawsData(t *testing.T) {
	waiting := renderReadings(sampleSnapshot, false)
	live := renderReadings(sampleSnapshot, true)
	test.That(t, litPixels(live), test.ShouldBeGreaterThan, 0)
	test.That(t, bytes.Equal(waiting.Pix, live.Pix), test.ShouldBeFalse)

	// Top row holds the range line only.
	other := sampleSnapshot
	other.Range.Front = 40
	changed := renderReadings(other, true)
	test.That(t, bytes.Equal(live.Pix[:displayWidth*2], changed.Pix[:displayWidth*2]), test.ShouldBeFalse)
	test.That(t, bytes.Equal(live.Pix[displayWidth*2:], changed.Pix[displayWidth*2:]), test.ShouldBeTrue)
}

func TestRangeLabel(t *testing.T) {
	test.That(t, rangeLabel(-1), test.ShouldEqual, "--")
	test.That(t, rangeLabel(12.3), test.ShouldEqual, "12")
}

func TestAddressedBusRewritesAddress(t *testing.T) {
	rec := &i2ctest.Record{}
	bus := &addressedBus{Bus: rec, addr: 0x3D}

	test.That(t, bus.Tx(0x3C, []byte{0x00, 0xAF}, nil), test.ShouldBeNil)
	test.That(t, len(rec.Ops), test.ShouldEqual, 1)
	test.That(t, rec.Ops[0].Addr, test.ShouldEqual, uint16(0x3D))
	test.That(t, rec.Ops[0].W, test.ShouldResemble, []byte{0x00, 0xAF})
}
