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

func TestDetectTagClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		atqa       []byte
		wantType   TagType
		wantMemory int
	}{
		{"mifare classic 1k", []byte{0x04, 0x00}, TagTypeMIFAREClassic, 1024},
		{"nfc-a large", []byte{0x44, 0x00}, TagTypeNFCALarge, 8192},
		{"generic nfc-a", []byte{0x01, 0x00}, TagTypeNFCA, 2048},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl, sim := newTestController(t)
			require.NoError(t, ctrl.Initialize())

			sim.ScriptResponse(tt.atqa)
			sim.ScriptResponse([]byte{0x11, 0x22, 0x33, 0x44, 0x44}) // UID + BCC

			tag, err := ctrl.DetectTag(50 * time.Millisecond)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, tag.Type)
			assert.Equal(t, tt.wantMemory, tag.MemorySize)
			assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, tag.UID)
			assert.False(t, tag.DetectedAt.IsZero())
		})
	}
}

func TestDetectTagFramesSent(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())

	sim.ScriptResponse([]byte{0x04, 0x00})
	sim.ScriptResponse([]byte{0x11, 0x22, 0x33, 0x44, 0x44})

	_, err := ctrl.DetectTag(50 * time.Millisecond)
	require.NoError(t, err)
	require.Len(t, sim.Frames, 2)
	assert.Equal(t, []byte{0x26}, sim.Frames[0], "request frame")
	assert.Equal(t, []byte{0x93, 0x20}, sim.Frames[1], "anticollision frame")
}

func TestDetectTagSilence(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())
	sim.ScriptSilence()

	_, err := ctrl.DetectTag(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrNoTagFound)
}

func TestDetectTagCollisionSurfaces(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())
	sim.ScriptCollision()

	_, err := ctrl.DetectTag(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrCollision)
}

func TestDetectTagShortATQA(t *testing.T) {
	t.Parallel()

	ctrl, sim := newTestController(t)
	require.NoError(t, ctrl.Initialize())
	sim.ScriptResponse([]byte{0x04})

	_, err := ctrl.DetectTag(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrCommunication)
}

func TestDetectTagRequiresInit(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)

	_, err := ctrl.DetectTag(0)
	require.ErrorIs(t, err, ErrNotInitialized)
}
