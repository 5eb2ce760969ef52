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
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// TagType is the tag family inferred from the ATQA response.
type TagType int

const (
	// TagTypeUnknown is an undetected or unclassified tag.
	TagTypeUnknown TagType = iota
	// TagTypeNFCA is a generic NFC-A (Type 2) tag.
	TagTypeNFCA
	// TagTypeNFCALarge is an NFC-A tag with extended memory.
	TagTypeNFCALarge
	// TagTypeMIFAREClassic is a MIFARE Classic 1K tag.
	TagTypeMIFAREClassic
)

// String returns the tag family name.
func (t TagType) String() string {
	switch t {
	case TagTypeNFCA:
		return "NFC-A"
	case TagTypeNFCALarge:
		return "NFC-A Large"
	case TagTypeMIFAREClassic:
		return "MIFARE Classic"
	default:
		return "Unknown"
	}
}

// ATQA patterns used to classify the tag family. The answer arrives low
// byte first on the wire.
const (
	atqaMIFAREClassic1K uint16 = 0x0004
	atqaNFCALarge       uint16 = 0x0044
)

// Memory capacities per tag family, in bytes.
const (
	memMIFAREClassic1K = 1024
	memNFCA            = 2048
	memNFCALarge       = 8192
)

// TagInfo describes one detected tag.
type TagInfo struct {
	// Type is the inferred tag family.
	Type TagType
	// UID is the tag's unique identifier.
	UID []byte
	// ATQA is the raw answer-to-request word.
	ATQA uint16
	// SAK is the select acknowledge byte, when the selection got that far.
	SAK byte
	// MemorySize is the nominal capacity in bytes for the family.
	MemorySize int
	// DetectedAt is when the tag answered the request frame.
	DetectedAt time.Time
}

// String formats the tag for logs.
func (t TagInfo) String() string {
	return fmt.Sprintf("%s uid=%s atqa=0x%04X", t.Type, hex.EncodeToString(t.UID), t.ATQA)
}

// reqa is the short-frame request command for NFC-A tags.
const reqa byte = 0x26

// anticollision cascade level 1 select frame.
var anticollisionCL1 = []byte{0x93, 0x20}

// DetectTag sends one request frame and classifies whatever answers.
// The field must already be on. When a tag answers, its UID is resolved
// through one anticollision round. ErrNoTagFound means the field stayed
// silent; a collision is reported as is so callers can retry.
func (c *Controller) DetectTag(timeout time.Duration) (*TagInfo, error) {
	if !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	resp, err := c.TransmitReceive([]byte{reqa}, timeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, ErrNoTagFound
		}
		return nil, err
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("%w: short ATQA (%d bytes)", ErrCommunication, len(resp))
	}

	atqa := uint16(resp[0]) | uint16(resp[1])<<8
	info := &TagInfo{
		ATQA:       atqa,
		DetectedAt: c.clock.Now(),
	}

	switch atqa {
	case atqaMIFAREClassic1K:
		info.Type = TagTypeMIFAREClassic
		info.MemorySize = memMIFAREClassic1K
	case atqaNFCALarge:
		info.Type = TagTypeNFCALarge
		info.MemorySize = memNFCALarge
	default:
		info.Type = TagTypeNFCA
		info.MemorySize = memNFCA
	}

	uid, err := c.readUID(timeout)
	if err != nil {
		return nil, err
	}
	info.UID = uid

	Debugf("detect: %v", info)

	return info, nil
}

// readUID runs one cascade level 1 anticollision round and returns the
// four UID bytes it yields.
func (c *Controller) readUID(timeout time.Duration) ([]byte, error) {
	resp, err := c.TransmitReceive(anticollisionCL1, timeout)
	if err != nil {
		return nil, err
	}
	if len(resp) < 5 {
		return nil, fmt.Errorf("%w: short anticollision response (%d bytes)", ErrCommunication, len(resp))
	}

	uid := make([]byte, 4)
	copy(uid, resp[:4])

	return uid, nil
}
