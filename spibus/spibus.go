// Copyright 2026 Cascalio Studio
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package spibus implements the st25r bus and interrupt line contracts
// on top of periph.io. The chip select is driven by the kernel per
// transfer, so Select and Deselect are no-ops here; each Exchange or
// Transmit call is one framed transaction.
package spibus

import (
	"fmt"
	"sync/atomic"
	"time"

	st25r "github.com/Cascalio-Studio/spool-key"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPI parameters for the ST25R3911B: mode 1 (CPOL=0, CPHA=1), MSB first,
// up to 6 MHz on the datasheet; 2 MHz default for wiring headroom.
const (
	defaultFreq = 2 * physic.MegaHertz
	busMode     = spi.Mode1
)

// Bus drives the chip over a Linux spidev port.
type Bus struct {
	port   spi.PortCloser
	conn   spi.Conn
	name   string
	closed atomic.Bool
}

// New opens the named SPI port (empty string picks the first one) and
// connects at the default speed. host.Init is performed here; calling it
// more than once is harmless.
func New(portName string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("opening SPI port %q: %w", portName, err)
	}

	conn, err := port.Connect(defaultFreq, busMode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connecting SPI port %q: %w", portName, err)
	}

	return &Bus{port: port, conn: conn, name: portName}, nil
}

// Select is a no-op; the kernel asserts chip select per transfer.
func (b *Bus) Select() {}

// Deselect is a no-op; see Select.
func (b *Bus) Deselect() {}

// Exchange clocks tx out while reading len(tx) bytes into rx.
func (b *Bus) Exchange(tx, rx []byte, timeout time.Duration) error {
	return b.transfer(tx, rx, timeout)
}

// Transmit clocks tx out, discarding the returned bytes.
func (b *Bus) Transmit(tx []byte, timeout time.Duration) error {
	return b.transfer(tx, nil, timeout)
}

func (b *Bus) transfer(tx, rx []byte, timeout time.Duration) error {
	if b.closed.Load() {
		return st25r.ErrBusClosed
	}
	if len(tx) == 0 {
		return fmt.Errorf("%w: empty transfer", st25r.ErrBusInvalidParam)
	}
	if rx != nil && len(rx) != len(tx) {
		return fmt.Errorf("%w: rx length %d != tx length %d", st25r.ErrBusInvalidParam, len(rx), len(tx))
	}
	if timeout <= 0 {
		timeout = st25r.DefaultBusTimeout
	}

	done := make(chan error, 1)
	go func() { done <- b.conn.Tx(tx, rx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("spi transfer on %q: %w", b.name, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: transfer on %q exceeded %v", st25r.ErrBusTimeout, b.name, timeout)
	}
}

// Close releases the SPI port.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := b.port.Close(); err != nil {
		return fmt.Errorf("closing SPI port %q: %w", b.name, err)
	}

	return nil
}

// IRQLine watches a GPIO pin for the chip's rising interrupt edge.
type IRQLine struct {
	pin    gpio.PinIO
	closed atomic.Bool
}

// NewIRQLine configures the named GPIO pin for rising edge detection.
func NewIRQLine(pinName string) (*IRQLine, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph host: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("%w: no GPIO pin %q", st25r.ErrBusInvalidParam, pinName)
	}
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("configuring GPIO pin %q: %w", pinName, err)
	}

	return &IRQLine{pin: pin}, nil
}

// Arm starts a goroutine invoking fn on every rising edge until Close.
func (l *IRQLine) Arm(fn func()) error {
	if fn == nil {
		return fmt.Errorf("%w: nil interrupt callback", st25r.ErrBusInvalidParam)
	}
	if l.closed.Load() {
		return st25r.ErrBusClosed
	}

	go func() {
		for {
			// The periodic timeout lets the goroutine observe Close.
			if !l.pin.WaitForEdge(time.Second) {
				if l.closed.Load() {
					return
				}
				continue
			}
			if l.closed.Load() {
				return
			}
			fn()
		}
	}()

	return nil
}

// Close stops edge delivery and releases the pin.
func (l *IRQLine) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := l.pin.Halt(); err != nil {
		return fmt.Errorf("halting GPIO pin %q: %w", l.pin.Name(), err)
	}

	return nil
}
