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

package st25r

import "time"

// Bus is the serial bus master the controller drives the chip over.
// Implementations frame nothing themselves; the controller builds the
// address/command bytes and the bus only moves them. The spibus package
// provides a periph.io-backed implementation; tests use a simulated bus.
//
// Select and Deselect bracket one framed transaction (assert and release
// the slave-select line). Exchange clocks len(tx) bytes out while reading
// the same number back into rx when rx is non-nil; Transmit is write-only.
// Both fail with ErrBusTimeout when the transfer does not complete within
// the given budget.
type Bus interface {
	Select()
	Deselect()
	Exchange(tx, rx []byte, timeout time.Duration) error
	Transmit(tx []byte, timeout time.Duration) error
	Close() error
}

// IRQLine is the edge-triggered interrupt pin the chip raises on events.
// Arm registers a callback invoked from interrupt context on each rising
// edge; the callback must not touch the bus. Close disarms the line.
type IRQLine interface {
	Arm(fn func()) error
	Close() error
}

// Clock abstracts the time source used by busy-wait loops so tests can
// drive them deterministically.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// realClock is the default Clock backed by the time package.
type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
