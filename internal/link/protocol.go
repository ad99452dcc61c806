// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package link speaks the serial protocol of the rover's remote console.
//
// The remote sends requests framed as '~', one length byte, then the payload.
// The first payload byte is the command: 'r' asks for a reading, 'm' carries a
// motor command. Readings go back either as newline-terminated decimal lines
// (text framing) or as a COBS-encoded binary frame (cobs framing).
package link

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dgryski/go-cobs"

	"github.com/relabs-tech/rover_sensors/internal/hub"
)

// Greeting is written once when the link opens; the remote waits for it.
const Greeting = "Hello, World!"

const (
	frameHeader = '~'

	CmdRead  = 'r'
	CmdMotor = 'm'

	// frameReadings tags a binary readings frame.
	frameReadings = 0x80 | CmdRead
)

// Framing selects how readings are written back.
type Framing string

const (
	FramingText Framing = "text"
	FramingCOBS Framing = "cobs"
)

// ErrBadFrame marks a frame that arrived intact but cannot be a request.
// The stream is still in sync after it.
var ErrBadFrame = errors.New("link: bad frame")

// Request is one framed request from the remote.
type Request struct {
	Cmd     byte
	Payload []byte // bytes after the command byte
}

// ReadRequest reads the next framed request, skipping anything before the header.
func ReadRequest(r *bufio.Reader) (Request, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return Request{}, err
		}
		if b == frameHeader {
			break
		}
	}
	n, err := r.ReadByte()
	if err != nil {
		return Request{}, err
	}
	if n == 0 {
		return Request{}, fmt.Errorf("%w: empty request", ErrBadFrame)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Request{}, fmt.Errorf("link: short request: %w", err)
	}
	return Request{Cmd: buf[0], Payload: buf[1:]}, nil
}

// FormatReadings renders s the way the remote parses it: accel X Y Z, gyro X Y Z,
// compass X Y Z, IR front, IR rear, one value per line. This hub has no compass,
// so those three lines are always zero.
func FormatReadings(s hub.Snapshot) string {
	var b bytes.Buffer
	for _, v := range []float64{
		s.Inertial.Ax, s.Inertial.Ay, s.Inertial.Az,
		s.Inertial.Gx, s.Inertial.Gy, s.Inertial.Gz,
		0, 0, 0,
		s.Range.Front, s.Range.Rear,
	} {
		fmt.Fprintf(&b, "%.2f\n", v)
	}
	return b.String()
}

// readingsFrame is the little-endian payload of a binary readings frame.
type readingsFrame struct {
	Ax, Ay, Az  float32
	Gx, Gy, Gz  float32
	Front, Rear float32
}

// EncodeReadings builds a zero-terminated COBS frame holding s.
func EncodeReadings(s hub.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(frameReadings)
	f := readingsFrame{
		Ax: float32(s.Inertial.Ax), Ay: float32(s.Inertial.Ay), Az: float32(s.Inertial.Az),
		Gx: float32(s.Inertial.Gx), Gy: float32(s.Inertial.Gy), Gz: float32(s.Inertial.Gz),
		Front: float32(s.Range.Front), Rear: float32(s.Range.Rear),
	}
	if err := binary.Write(&buf, binary.LittleEndian, f); err != nil {
		return nil, fmt.Errorf("link: encode readings: %w", err)
	}
	encoded := cobs.Encode(buf.Bytes())
	return append(encoded, 0x00), nil
}
