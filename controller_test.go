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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBus(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())

	assert.True(t, ctrl.IsInitialized())
	assert.Contains(t, sim.Commands, CmdSetDefault)
	assert.Contains(t, sim.Commands, CmdClearFIFO)
	assert.Equal(t, OpControlRxEn|OpControlRxMan|OpControlTxCRC, sim.Register(RegOpControl))
	assert.Equal(t, byte(FIFOWaterLevel), sim.Register(RegIOConf1))
	assert.Equal(t, ModeOMISO14443A, sim.Register(RegMode)&ModeOMMask)
}

func TestInitializeIdentityMismatch(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	sim.SetIdentity(0x12)

	err := ctrl.Initialize()
	require.ErrorIs(t, err, ErrIdentityMismatch)
	assert.False(t, ctrl.IsInitialized())
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)

	icType, revision, err := ctrl.Identity()
	require.NoError(t, err)
	assert.Equal(t, ICIdentityValue, icType)
	assert.Equal(t, byte(1), revision)
}

func TestSetField(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())

	require.NoError(t, ctrl.SetField(FieldOn))
	assert.Equal(t, FieldOn, ctrl.GetField())
	assert.NotZero(t, sim.Register(RegOpControl)&OpControlEn)
	assert.NotZero(t, sim.Register(RegMode)&ModeTREn)

	require.NoError(t, ctrl.SetField(FieldOff))
	assert.Equal(t, FieldOff, ctrl.GetField())
	assert.Zero(t, sim.Register(RegMode)&ModeTREn)
	assert.Zero(t, sim.Register(RegOpControl)&OpControlEn, "oscillator disabled with the field")
}

func TestSetFieldRequiresInit(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)

	require.ErrorIs(t, ctrl.SetField(FieldOn), ErrNotInitialized)
}

func TestSetProtocol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		protocol     Protocol
		wantMode     byte
		settingsReg  byte
		wantSettings byte
	}{
		{ProtocolISO14443A, ModeOMISO14443A, RegISO14443ANFC, 0x88},
		{ProtocolMIFAREClassic, ModeOMISO14443A, RegISO14443ANFC, 0x88},
		{ProtocolISO14443B, ModeOMISO14443B, RegISO14443B, 0x00},
		{ProtocolFeliCa, ModeOMFeliCa, RegBitRate, 0x00},
		{ProtocolISO15693, ModeOMSubcarrier, RegStreamMode, 0x00},
		{ProtocolNFCIP1, ModeOMNFC, RegP2PRxConf, 0x00},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.protocol.String(), func(t *testing.T) {
			t.Parallel()

			ctrl, sim := newTestController(t)
			// Dirty the settings register so the write is observable.
			sim.SetRegister(tt.settingsReg, 0xFF)

			require.NoError(t, ctrl.SetProtocol(tt.protocol))
			assert.Equal(t, tt.wantMode, sim.Register(RegMode)&ModeOMMask)
			assert.Equal(t, tt.wantSettings, sim.Register(tt.settingsReg), "settings register")
			assert.Equal(t, tt.protocol, ctrl.Protocol())
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		ctrl, _ := newTestController(t)
		require.ErrorIs(t, ctrl.SetProtocol(Protocol(99)), ErrInvalidParam)
	})
}

func TestTransmitReceive(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())
	sim.ScriptResponse([]byte{0x04, 0x00})

	resp, err := ctrl.TransmitReceive([]byte{0x26}, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x00}, resp)
	assert.Equal(t, [][]byte{{0x26}}, sim.Frames)
	assert.Zero(t, sim.RxFIFOLen(), "response must be fully drained")
}

func TestReceiveCollision(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())
	sim.ScriptCollision()

	_, err := ctrl.TransmitReceive([]byte{0x26}, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrCollision)
}

func TestReceiveTimeoutLeavesFIFOUnread(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())

	// Data sits in the FIFO but no interrupt ever fires.
	sim.LoadRxFIFO([]byte{0xDE, 0xAD})

	_, err := ctrl.Receive(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, sim.RxFIFOLen(), "timeout must not drain the FIFO")
}

func TestReceiveRequiresInit(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)

	_, err := ctrl.Receive(0)
	require.ErrorIs(t, err, ErrNotInitialized)

	require.ErrorIs(t, ctrl.Transmit([]byte{0x26}, true), ErrNotInitialized)
}

func TestTransmitValidation(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)
	require.NoError(t, ctrl.Initialize())

	require.ErrorIs(t, ctrl.Transmit(nil, true), ErrInvalidParam)
	require.ErrorIs(t, ctrl.Transmit(make([]byte, FIFOSize+1), true), ErrInvalidParam)
}

func TestClearInterruptsWritesBack(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	sim.SetRegister(RegIRQMain, IRQMainRxe|IRQMainTxe)

	require.NoError(t, ctrl.ClearInterrupts(IRQMainRxe, 0, 0))
	assert.Equal(t, IRQMainTxe, sim.Register(RegIRQMain))
}

func TestDeinitialize(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)
	require.NoError(t, ctrl.Initialize())
	require.NoError(t, ctrl.SetField(FieldOn))

	require.NoError(t, ctrl.Deinitialize())
	assert.False(t, ctrl.IsInitialized())

	// A second call is a no-op.
	require.NoError(t, ctrl.Deinitialize())
}
