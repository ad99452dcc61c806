// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/rover_sensors/internal/hub"
)

// OpenSerial opens port at baud, 8N1.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	options := serial.OpenOptions{
		PortName:        port,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	p, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", port, err)
	}
	return p, nil
}

// Link reads requests on its own goroutine and hands them to the poller through
// Requests. Only the poller touches the hub, and it answers with SendReadings.
type Link struct {
	w        io.Writer
	r        *bufio.Reader
	framing  Framing
	requests chan Request
}

// New wraps rw. Call Greet, then start Listen on its own goroutine.
func New(rw io.ReadWriter, framing Framing) *Link {
	return &Link{
		w:        rw,
		r:        bufio.NewReader(rw),
		framing:  framing,
		requests: make(chan Request, 8),
	}
}

// Greet writes the greeting line the remote waits for after connecting.
func (l *Link) Greet() error {
	_, err := io.WriteString(l.w, Greeting+"\n")
	return err
}

// Requests delivers read requests. It is closed when Listen returns.
func (l *Link) Requests() <-chan Request { return l.requests }

// Listen reads requests until the port fails. Bad frames and motor commands are
// logged and dropped; read requests are queued for the poller.
func (l *Link) Listen() error {
	defer close(l.requests)
	for {
		req, err := ReadRequest(l.r)
		if err != nil {
			if errors.Is(err, ErrBadFrame) {
				log.Printf("link: %v", err)
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch req.Cmd {
		case CmdRead:
			l.requests <- req
		case CmdMotor:
			log.Printf("link: ignoring motor command (%d bytes)", len(req.Payload))
		default:
			log.Printf("link: unknown command %q", req.Cmd)
		}
	}
}

// SendReadings answers a read request with s.
func (l *Link) SendReadings(s hub.Snapshot) error {
	if l.framing == FramingCOBS {
		frame, err := EncodeReadings(s)
		if err != nil {
			return err
		}
		_, err = l.w.Write(frame)
		return err
	}
	_, err := io.WriteString(l.w, FormatReadings(s))
	return err
}
