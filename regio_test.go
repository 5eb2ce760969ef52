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
	"testing"

	"github.com/Cascalio-Studio/spool-key/internal/chiptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestController wires a controller to a simulated chip with a
// virtual clock.
func newTestController(t *testing.T) (*Controller, *chiptest.Bus) {
	t.Helper()

	sim := chiptest.NewBus()
	ctrl, err := New(Config{Bus: sim, Clock: chiptest.NewClock()})
	require.NoError(t, err)
	sim.OnIRQ(ctrl.HandleInterrupt)

	return ctrl, sim
}

func TestRegisterRoundTrip(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)

	require.NoError(t, ctrl.WriteRegister(RegBitRate, 0xA5))

	value, err := ctrl.ReadRegister(RegBitRate)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA5), value)
}

func TestRegisterOutOfRangeRejectedBeforeBus(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)

	_, err := ctrl.ReadRegister(0x40)
	require.ErrorIs(t, err, ErrInvalidParam)

	err = ctrl.WriteRegister(0xFF, 0x00)
	require.ErrorIs(t, err, ErrInvalidParam)

	err = ctrl.ExecuteCommand(0x50)
	require.ErrorIs(t, err, ErrInvalidParam)

	assert.Zero(t, sim.Transactions, "invalid parameters must not reach the bus")
}

func TestReadWriteRegistersRange(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)

	want := []byte{0x11, 0x22, 0x33}
	require.NoError(t, ctrl.WriteRegisters(RegRxConf1, want))

	got, err := ctrl.ReadRegisters(RegRxConf1, len(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ctrl.ReadRegisters(RegFIFOData, 2)
	require.ErrorIs(t, err, ErrInvalidParam)

	err = ctrl.WriteRegisters(RegFIFOLoad, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestModifyRegister(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	sim.SetRegister(RegOpControl, 0b1010_0001)

	require.NoError(t, ctrl.ModifyRegister(RegOpControl, 0b0000_1111, 0b0000_0110))

	assert.Equal(t, byte(0b1010_0110), sim.Register(RegOpControl))
}

func TestFIFOStatusReconstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status1   byte
		status2   byte
		wantCount int
		wantFull  bool
	}{
		{"overflow bit extends count", 0x7F, 0x80, 0xFF, true},
		{"small count", 0x05, 0x00, 0x05, false},
		{"empty", 0x00, 0x00, 0x00, false},
		{"exactly full", 0x60, 0x00, 96, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl, sim := newTestController(t)
			sim.SetRegister(RegFIFORxStatus1, tt.status1)
			sim.SetRegister(RegFIFORxStatus2, tt.status2)

			count, full, err := ctrl.FIFOStatus()
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantFull, full)
		})
	}
}

func TestWriteFIFOBounds(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)

	err := ctrl.WriteFIFO(nil)
	require.ErrorIs(t, err, ErrInvalidParam)

	err = ctrl.WriteFIFO(make([]byte, FIFOSize+1))
	require.ErrorIs(t, err, ErrFIFOOverflow)
	assert.Zero(t, sim.Transactions)

	require.NoError(t, ctrl.WriteFIFO([]byte{0x26}))
	assert.Equal(t, []byte{0x26}, sim.TxFIFO())
}

func TestBusFailureMapping(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)

	sim.FailNext = ErrBusTimeout
	_, err := ctrl.ReadRegister(RegMode)
	require.ErrorIs(t, err, ErrTimeout)

	sim.FailNext = ErrBusInvalidParam
	err = ctrl.WriteRegister(RegMode, 0)
	require.ErrorIs(t, err, ErrInvalidParam)

	sim.FailNext = assert.AnError
	err = ctrl.ExecuteCommand(CmdClearFIFO)
	require.ErrorIs(t, err, ErrCommunication)
}
