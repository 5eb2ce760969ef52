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
	"fmt"
	"time"
)

// Tag memory commands. NFC-A tags read 16-byte blocks and write 4-byte
// pages; MIFARE Classic reads and writes 16-byte blocks behind a sector
// authentication.
const (
	tagCmdReadBlock   byte = 0x30
	tagCmdWritePage   byte = 0xA2
	tagCmdMifareAuth  byte = 0x60
	tagCmdMifareWrite byte = 0xA0

	// TagBlockSize is the read granularity shared by both families.
	TagBlockSize = 16
	// TagPageSize is the NFC-A write granularity.
	TagPageSize = 4
)

// mifareDefaultKey is the transport key A most MIFARE Classic tags ship
// with.
var mifareDefaultKey = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ReadUID resolves the UID of a tag already answering in the field.
func (c *Controller) ReadUID(timeout time.Duration) ([]byte, error) {
	if !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	return c.readUID(timeout)
}

// ReadBlock reads one 16-byte block from the tag. MIFARE Classic blocks
// are authenticated with the default transport key first.
func (c *Controller) ReadBlock(tag *TagInfo, block byte, timeout time.Duration) ([]byte, error) {
	if tag == nil {
		return nil, fmt.Errorf("%w: nil tag", ErrInvalidParam)
	}

	switch tag.Type {
	case TagTypeNFCA, TagTypeNFCALarge:
	case TagTypeMIFAREClassic:
		if err := c.mifareAuth(block, timeout); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTag, tag.Type)
	}

	resp, err := c.TransmitReceive([]byte{tagCmdReadBlock, block}, timeout)
	if err != nil {
		return nil, err
	}
	if len(resp) < TagBlockSize {
		return nil, fmt.Errorf("%w: short block read (%d bytes)", ErrCommunication, len(resp))
	}

	return resp[:TagBlockSize], nil
}

// WriteBlock writes data to the tag starting at the given block. NFC-A
// tags take 4-byte pages; data is split and zero padded to page
// boundaries. MIFARE Classic takes one full 16-byte block, zero padded.
func (c *Controller) WriteBlock(tag *TagInfo, block byte, data []byte, timeout time.Duration) error {
	if tag == nil {
		return fmt.Errorf("%w: nil tag", ErrInvalidParam)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty write", ErrInvalidParam)
	}

	switch tag.Type {
	case TagTypeNFCA, TagTypeNFCALarge:
		return c.writePages(block, data, timeout)
	case TagTypeMIFAREClassic:
		return c.mifareWriteBlock(block, data, timeout)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedTag, tag.Type)
	}
}

// writePages writes data as consecutive 4-byte pages. The block number is
// translated to its first page; a short final chunk is zero padded.
func (c *Controller) writePages(block byte, data []byte, timeout time.Duration) error {
	page := int(block) * (TagBlockSize / TagPageSize)
	for offset := 0; offset < len(data); offset += TagPageSize {
		if page > 0xFF {
			return fmt.Errorf("%w: page %d out of range", ErrInvalidParam, page)
		}

		frame := make([]byte, 2+TagPageSize)
		frame[0] = tagCmdWritePage
		frame[1] = byte(page)
		copy(frame[2:], data[offset:min(offset+TagPageSize, len(data))])

		if _, err := c.TransmitReceive(frame, timeout); err != nil {
			return err
		}
		page++
	}

	return nil
}

// mifareAuth authenticates a MIFARE Classic block with key A.
func (c *Controller) mifareAuth(block byte, timeout time.Duration) error {
	frame := make([]byte, 0, 2+len(mifareDefaultKey))
	frame = append(frame, tagCmdMifareAuth, block)
	frame = append(frame, mifareDefaultKey...)

	if _, err := c.TransmitReceive(frame, timeout); err != nil {
		return fmt.Errorf("mifare auth block %d: %w", block, err)
	}

	return nil
}

// mifareWriteBlock authenticates and writes one 16-byte block.
func (c *Controller) mifareWriteBlock(block byte, data []byte, timeout time.Duration) error {
	if len(data) > TagBlockSize {
		return fmt.Errorf("%w: %d bytes exceed a block", ErrInvalidParam, len(data))
	}

	if err := c.mifareAuth(block, timeout); err != nil {
		return err
	}

	frame := make([]byte, 2+TagBlockSize)
	frame[0] = tagCmdMifareWrite
	frame[1] = block
	copy(frame[2:], data)

	if _, err := c.TransmitReceive(frame, timeout); err != nil {
		return err
	}

	return nil
}

// ReadBytes reads length bytes starting at the given byte offset,
// spanning blocks as needed.
func (c *Controller) ReadBytes(tag *TagInfo, offset, length int, timeout time.Duration) ([]byte, error) {
	if offset < 0 || length <= 0 {
		return nil, fmt.Errorf("%w: offset %d length %d", ErrInvalidParam, offset, length)
	}
	if tag != nil && tag.MemorySize > 0 && offset+length > tag.MemorySize {
		return nil, fmt.Errorf("%w: read past end of tag", ErrInvalidParam)
	}

	firstBlock := offset / TagBlockSize
	lastBlock := (offset + length - 1) / TagBlockSize

	var buf []byte
	for block := firstBlock; block <= lastBlock; block++ {
		if block > 0xFF {
			return nil, fmt.Errorf("%w: block %d out of range", ErrInvalidParam, block)
		}
		data, err := c.ReadBlock(tag, byte(block), timeout)
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)
	}

	start := offset - firstBlock*TagBlockSize

	return buf[start : start+length], nil
}
