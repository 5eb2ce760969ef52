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

// Package chiptest simulates an ST25R3911B behind the bus contract so
// driver tests run without hardware. The simulator keeps a register
// file, a FIFO and a script of tag responses; it deliberately imports
// nothing from the driver so tests in any package can use it.
package chiptest

import (
	"sync"
	"time"
)

// Local mirror of the chip addresses the simulator reacts to.
const (
	regICIdentity    = 0x27
	regFIFOStatus1   = 0x28
	regFIFOStatus2   = 0x29
	regIRQMain       = 0x36
	regIRQTimerNFC   = 0x37
	regIRQErrorWup   = 0x38
	regFIFOLoad      = 0x3E
	regFIFOData      = 0x3F
	regCount         = 0x40
	spiReadBit       = 0x40
	cmdSetDefault    = 0xC1
	cmdClearFIFO     = 0xC2
	cmdTransmitCRC   = 0xC4
	cmdTransmitNoCRC = 0xC5
	irqRxComplete    = 0x10
	irqCollision     = 0x04
)

// DefaultIdentity is the identity register value after a reset: type
// code 0x09, revision 1.
const DefaultIdentity = 0x29

// script is one queued reaction to a transmit command.
type script struct {
	response  []byte
	collision bool
	silent    bool
}

// Bus is the simulated chip. It satisfies the driver's bus contract.
type Bus struct {
	mu sync.Mutex

	regs   [regCount]byte
	rxFIFO []byte
	txFIFO []byte

	scripts []script

	// FailNext, when set, fails the next transfer with this error and
	// clears itself.
	FailNext error

	// Transactions counts framed transfers, including failed ones.
	Transactions int

	// Commands records every direct command byte in order.
	Commands []byte

	// Frames records the FIFO content at each transmit command, in
	// order. Each entry is one frame the driver sent to a tag.
	Frames [][]byte

	// irqFn is invoked when a scripted response lands in the FIFO.
	irqFn func()

	identity byte
	closed   bool
}

// NewBus builds a simulator in its post-reset state.
func NewBus() *Bus {
	b := &Bus{identity: DefaultIdentity}
	b.reset()

	return b
}

func (b *Bus) reset() {
	b.regs = [regCount]byte{}
	b.regs[regICIdentity] = b.identity
	b.rxFIFO = nil
	b.txFIFO = nil
}

// SetIdentity overrides the identity register value, surviving resets.
func (b *Bus) SetIdentity(value byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.identity = value
	b.regs[regICIdentity] = value
}

// LoadRxFIFO preloads receive data without raising an interrupt.
func (b *Bus) LoadRxFIFO(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rxFIFO = append([]byte(nil), data...)
	b.syncFIFOStatusLocked()
}

// OnIRQ registers the callback fired when a scripted response arrives.
// Wire it to the controller's HandleInterrupt.
func (b *Bus) OnIRQ(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.irqFn = fn
}

// ScriptResponse queues a tag response for the next transmit command.
func (b *Bus) ScriptResponse(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts = append(b.scripts, script{response: data})
}

// ScriptCollision queues a collision for the next transmit command.
func (b *Bus) ScriptCollision() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts = append(b.scripts, script{collision: true})
}

// ScriptSilence queues a transmit that gets no answer at all.
func (b *Bus) ScriptSilence() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts = append(b.scripts, script{silent: true})
}

// SetRegister pokes a register directly.
func (b *Bus) SetRegister(reg, value byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs[reg] = value
}

// Register peeks a register directly.
func (b *Bus) Register(reg byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.regs[reg]
}

// TxFIFO returns the bytes loaded for transmission since the last clear.
func (b *Bus) TxFIFO() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, len(b.txFIFO))
	copy(out, b.txFIFO)

	return out
}

// RxFIFOLen reports how many scripted bytes are still undrained.
func (b *Bus) RxFIFOLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.rxFIFO)
}

// Select is part of the bus contract; the simulator needs no framing.
func (b *Bus) Select() {}

// Deselect is part of the bus contract.
func (b *Bus) Deselect() {}

// Exchange handles a register read: the address byte with the read bit,
// one dummy byte, and the value comes back in the second rx byte.
func (b *Bus) Exchange(tx, rx []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Transactions++
	if err := b.takeFailure(); err != nil {
		return err
	}

	if len(tx) >= 2 && tx[0]&spiReadBit != 0 && rx != nil && len(rx) >= 2 {
		addr := tx[0] &^ spiReadBit
		rx[1] = b.readRegLocked(addr)
	}

	return nil
}

// Transmit handles register writes and direct commands.
func (b *Bus) Transmit(tx []byte, _ time.Duration) error {
	b.mu.Lock()

	b.Transactions++
	if err := b.takeFailure(); err != nil {
		b.mu.Unlock()
		return err
	}

	var irq func()
	switch {
	case len(tx) == 1 && tx[0] >= 0xC0:
		irq = b.commandLocked(tx[0])
	case len(tx) >= 2:
		b.writeRegLocked(tx[0], tx[1])
	}
	b.mu.Unlock()

	// The interrupt callback runs unlocked, like a real edge would.
	if irq != nil {
		irq()
	}

	return nil
}

func (b *Bus) takeFailure() error {
	if b.FailNext != nil {
		err := b.FailNext
		b.FailNext = nil
		return err
	}
	if b.closed {
		return errClosed
	}

	return nil
}

func (b *Bus) readRegLocked(addr byte) byte {
	if addr == regFIFOData {
		if len(b.rxFIFO) == 0 {
			return 0
		}
		value := b.rxFIFO[0]
		b.rxFIFO = b.rxFIFO[1:]
		b.syncFIFOStatusLocked()

		return value
	}

	return b.regs[addr]
}

func (b *Bus) writeRegLocked(addr, value byte) {
	switch addr {
	case regFIFOLoad:
		b.txFIFO = append(b.txFIFO, value)
	case regIRQMain, regIRQTimerNFC, regIRQErrorWup:
		// Write-to-clear semantics.
		b.regs[addr] &^= value
	default:
		if addr < regCount {
			b.regs[addr] = value
		}
	}
}

// commandLocked applies a direct command and returns the interrupt
// callback to fire after the lock is released, if any.
func (b *Bus) commandLocked(cmd byte) func() {
	b.Commands = append(b.Commands, cmd)

	switch cmd {
	case cmdSetDefault:
		b.reset()
	case cmdClearFIFO:
		b.rxFIFO = nil
		b.txFIFO = nil
		b.syncFIFOStatusLocked()
	case cmdTransmitCRC, cmdTransmitNoCRC:
		return b.transmitLocked()
	}

	return nil
}

// transmitLocked snapshots the outgoing frame and consumes the next
// script entry.
func (b *Bus) transmitLocked() func() {
	b.Frames = append(b.Frames, append([]byte(nil), b.txFIFO...))

	if len(b.scripts) == 0 {
		return nil
	}
	entry := b.scripts[0]
	b.scripts = b.scripts[1:]

	switch {
	case entry.silent:
		return nil
	case entry.collision:
		b.regs[regIRQMain] |= irqCollision
	default:
		b.rxFIFO = append([]byte(nil), entry.response...)
		b.syncFIFOStatusLocked()
		b.regs[regIRQMain] |= irqRxComplete
	}

	return b.irqFn
}

// syncFIFOStatusLocked mirrors the FIFO length into the status registers
// using the split 7-bit plus overflow encoding.
func (b *Bus) syncFIFOStatusLocked() {
	n := len(b.rxFIFO)
	b.regs[regFIFOStatus1] = byte(n & 0x7F)
	if n >= 0x80 {
		b.regs[regFIFOStatus2] |= 0x80
	} else {
		b.regs[regFIFOStatus2] &^= 0x80
	}
}

// Close marks the bus closed; later transfers fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true

	return nil
}

// errClosed mirrors the driver's closed-bus failure without importing it.
var errClosed = errorString("chiptest: bus closed")

type errorString string

func (e errorString) Error() string { return string(e) }
