// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ranging

import (
	"fmt"
	"math"
	"strings"
)

// NoEcho is what a range finder reports when nothing reflects back.
// Callers receive it untouched; it is not an error.
const NoEcho = -1.0

// Reading holds the latest front and rear distances in centimeters.
type Reading struct {
	Front float64 `json:"front"`
	Rear  float64 `json:"rear"`
}

// Finder is a single range-finder unit.
type Finder interface {
	Distance() (float64, error)
}

// Model selects the calibration curve of a Sharp GP2Y infrared sensor.
type Model string

const (
	GP2Y0A41SK Model = "GP2Y0A41SK" // 4-30 cm
	GP2Y0A21YK Model = "GP2Y0A21YK" // 10-80 cm
	GP2Y0A02YK Model = "GP2Y0A02YK" // 20-150 cm
)

// Curve is the power-law fit distance = Coeff * volts^Exp, valid in [MinCM, MaxCM].
type Curve struct {
	Coeff float64
	Exp   float64
	MinCM float64
	MaxCM float64
}

var curves = map[Model]Curve{
	GP2Y0A41SK: {Coeff: 12.08, Exp: -1.058, MinCM: 4, MaxCM: 30},
	GP2Y0A21YK: {Coeff: 29.988, Exp: -1.173, MinCM: 10, MaxCM: 80},
	GP2Y0A02YK: {Coeff: 60.374, Exp: -1.16, MinCM: 20, MaxCM: 150},
}

// ParseModel accepts a model name case-insensitively.
func ParseModel(s string) (Model, error) {
	m := Model(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := curves[m]; !ok {
		return "", fmt.Errorf("unknown range finder model %q", s)
	}
	return m, nil
}

// Curve returns the calibration curve for m.
func (m Model) Curve() (Curve, error) {
	c, ok := curves[m]
	if !ok {
		return Curve{}, fmt.Errorf("unknown range finder model %q", string(m))
	}
	return c, nil
}

// Distance converts a sensor output voltage to centimeters.
// Voltages that map outside [MinCM, MaxCM] yield NoEcho.
func (c Curve) Distance(volts float64) float64 {
	if volts <= 0 {
		return NoEcho
	}
	cm := c.Coeff * math.Pow(volts, c.Exp)
	if cm < c.MinCM || cm > c.MaxCM {
		return NoEcho
	}
	return cm
}
