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

import (
	"errors"
	"fmt"
)

// The flat status set shared by every layer of the driver. Multi-step
// operations abort on the first failure and return it unchanged; no layer
// retries on its own.
var (
	// ErrTimeout indicates an operation exceeded its time budget.
	ErrTimeout = errors.New("st25r: operation timed out")
	// ErrInvalidParam indicates a parameter was rejected before any bus
	// transaction took place.
	ErrInvalidParam = errors.New("st25r: invalid parameter")
	// ErrNotInitialized indicates the controller or scheduler has not been
	// initialized.
	ErrNotInitialized = errors.New("st25r: not initialized")
	// ErrFIFOOverflow indicates the chip reported a FIFO overflow.
	ErrFIFOOverflow = errors.New("st25r: FIFO overflow")
	// ErrFIFOUnderflow indicates a FIFO read was attempted with no data.
	ErrFIFOUnderflow = errors.New("st25r: FIFO underflow")
	// ErrCRC indicates a CRC failure on a received frame.
	ErrCRC = errors.New("st25r: CRC error")
	// ErrCollision indicates a bit collision during reception.
	ErrCollision = errors.New("st25r: collision detected")
	// ErrNoTagFound indicates no tag responded in the field.
	ErrNoTagFound = errors.New("st25r: no tag found")
	// ErrUnsupportedTag indicates the tag family has no read/write support.
	ErrUnsupportedTag = errors.New("st25r: unsupported tag type")
	// ErrCommunication indicates an unclassified bus-level failure.
	ErrCommunication = errors.New("st25r: communication error")
	// ErrIdentityMismatch indicates the chip did not report the expected
	// IC identity during initialization.
	ErrIdentityMismatch = errors.New("st25r: unexpected IC identity")
	// ErrReadOnlyTag indicates a write was attempted on a read-only tag.
	ErrReadOnlyTag = errors.New("st25r: tag is read only")
	// ErrNoCapability indicates the tag's capability header is missing or
	// carries a bad magic byte.
	ErrNoCapability = errors.New("st25r: no NDEF capability container")
)

// Bus-level sentinel errors. Bus implementations report failures through
// these so the controller can translate them into the NFC status set.
var (
	// ErrBusTimeout is returned by a Bus when an exchange exceeds its
	// per-call timeout.
	ErrBusTimeout = errors.New("st25r: bus timeout")
	// ErrBusInvalidParam is returned by a Bus for malformed transfers.
	ErrBusInvalidParam = errors.New("st25r: bus invalid parameter")
	// ErrBusClosed is returned by a Bus after Close.
	ErrBusClosed = errors.New("st25r: bus closed")
)

// busError maps a bus-level failure to the nearest NFC-layer status.
// Timeouts and parameter errors keep their identity; everything else is a
// communication error carrying the cause.
func busError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBusTimeout):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, ErrBusInvalidParam):
		return fmt.Errorf("%w: %w", ErrInvalidParam, err)
	default:
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
}
