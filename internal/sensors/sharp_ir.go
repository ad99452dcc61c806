// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sort"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

// voltageReader is the part of analog.PinADC the range finder uses.
type voltageReader interface {
	Read() (analog.Sample, error)
}

// SharpIR is a Sharp GP2Y analog distance sensor. Each Distance call takes
// several samples and converts their median voltage with the model's curve.
type SharpIR struct {
	name    string
	pin     voltageReader
	model   ranging.Model
	curve   ranging.Curve
	samples int
}

// NewSharpIR wraps an analog input. samples below 1 are treated as 1.
func NewSharpIR(name string, pin voltageReader, model ranging.Model, samples int) (*SharpIR, error) {
	curve, err := model.Curve()
	if err != nil {
		return nil, errors.Wrapf(err, "%s IR", name)
	}
	if samples < 1 {
		samples = 1
	}
	return &SharpIR{name: name, pin: pin, model: model, curve: curve, samples: samples}, nil
}

// Distance returns centimeters, or ranging.NoEcho when the median voltage is outside
// the model's usable range.
func (s *SharpIR) Distance() (float64, error) {
	volts := make([]float64, 0, s.samples)
	for i := 0; i < s.samples; i++ {
		smp, err := s.pin.Read()
		if err != nil {
			return 0, errors.Wrapf(err, "%s IR sample %d", s.name, i)
		}
		volts = append(volts, float64(smp.V)/float64(physic.Volt))
	}
	sort.Float64s(volts)
	return s.curve.Distance(volts[len(volts)/2]), nil
}

// Model reports the configured sensor model.
func (s *SharpIR) Model() ranging.Model { return s.model }
