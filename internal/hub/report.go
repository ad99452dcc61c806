// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hub

import (
	"fmt"
	"strings"
)

// FormatReadableReport renders the current readings for a console: IR distances,
// then acceleration axes, then gyro axes, one value per line with a blank line
// after each group.
func (h *SensorHub) FormatReadableReport() (string, error) {
	s, err := h.Snapshot()
	if err != nil {
		return "", err
	}
	return FormatReport(s), nil
}

// FormatReport renders s in the FormatReadableReport layout.
func FormatReport(s Snapshot) string {
	var b strings.Builder
	group := func(title string, values ...float64) {
		fmt.Fprintf(&b, "%s:\n", title)
		for _, v := range values {
			fmt.Fprintf(&b, "%.2f\n", v)
		}
		b.WriteString("\n")
	}
	group("IR_FRONT", s.Range.Front)
	group("IR_REAR", s.Range.Rear)
	group("ACCELXYZ", s.Inertial.Ax, s.Inertial.Ay, s.Inertial.Az)
	group("GYROXYZ", s.Inertial.Gx, s.Inertial.Gy, s.Inertial.Gz)
	return b.String()
}
