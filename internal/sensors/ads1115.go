// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"log"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

// Sharp sensors top out just above 3 V; the ±4.096 V gain covers them.
const (
	irMaxVoltage = 4096 * physic.MilliVolt
	irSampleRate = 860 * physic.Hertz
)

var adcChannels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// IRChannel describes one range finder wired to an ADC input.
type IRChannel struct {
	Pin   int // ADC input 0-3
	Model ranging.Model
}

// IRPair is the front and rear range finder sharing one ADS1115.
type IRPair struct {
	Front *SharpIR
	Rear  *SharpIR

	bus  i2c.BusCloser
	pins []ads1x15.PinADC
}

// OpenIRPair brings up the ADS1115 at addr on busName and binds both range finders.
func OpenIRPair(busName string, addr uint16, front, rear IRChannel, samples int) (*IRPair, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "ads1115: periph host init")
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrapf(err, "ads1115: open I2C bus %q", busName)
	}
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: addr})
	if err != nil {
		bus.Close()
		return nil, errors.Wrapf(err, "ads1115: init at 0x%02X", addr)
	}

	p := &IRPair{bus: bus}
	p.Front, err = p.bind(adc, "front", front, samples)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.Rear, err = p.bind(adc, "rear", rear, samples)
	if err != nil {
		p.Close()
		return nil, err
	}
	log.Printf("ads1115: front IR %s on A%d, rear IR %s on A%d", front.Model, front.Pin, rear.Model, rear.Pin)
	return p, nil
}

func (p *IRPair) bind(adc *ads1x15.Dev, name string, ch IRChannel, samples int) (*SharpIR, error) {
	if ch.Pin < 0 || ch.Pin >= len(adcChannels) {
		return nil, errors.Errorf("ads1115: %s IR pin %d out of range", name, ch.Pin)
	}
	pin, err := adc.PinForChannel(adcChannels[ch.Pin], irMaxVoltage, irSampleRate, ads1x15.BestQuality)
	if err != nil {
		return nil, errors.Wrapf(err, "ads1115: %s IR pin A%d", name, ch.Pin)
	}
	p.pins = append(p.pins, pin)
	return NewSharpIR(name, pin, ch.Model, samples)
}

// Close halts the ADC pins and releases the bus.
func (p *IRPair) Close() error {
	for _, pin := range p.pins {
		if err := pin.Halt(); err != nil {
			log.Printf("ads1115: halt: %v", err)
		}
	}
	return p.bus.Close()
}
