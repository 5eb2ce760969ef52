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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Cascalio-Studio/spool-key/pkg/ndef"
)

// NDEF storage layout on the tag. The first 16-byte block is a
// capability container; the message body starts right after it.
const (
	ccMagic       byte = 0xE1
	ccVersion     byte = 0x10
	ccSize             = TagBlockSize
	ccLenOffset        = 14
	ndefDataStart      = ccSize
)

// buildCC assembles a capability container with the given message length.
func buildCC(memorySize, messageLen int) []byte {
	size := memorySize / 8
	if size > 0xFF {
		size = 0xFF
	}

	cc := make([]byte, ccSize)
	cc[0] = ccMagic
	cc[1] = ccVersion
	cc[2] = byte(size)
	binary.BigEndian.PutUint16(cc[ccLenOffset:], uint16(messageLen))

	return cc
}

// ReadNDEF reads and decodes the NDEF message stored on the tag. A tag
// whose capability container is missing its magic byte fails with
// ErrNoCapability; an empty message decodes to ndef.ErrEmptyMessage.
func (c *Controller) ReadNDEF(tag *TagInfo, timeout time.Duration) (*ndef.Message, error) {
	cc, err := c.ReadBlock(tag, 0, timeout)
	if err != nil {
		return nil, err
	}
	if cc[0] != ccMagic {
		return nil, fmt.Errorf("%w: magic 0x%02X", ErrNoCapability, cc[0])
	}

	length := int(binary.BigEndian.Uint16(cc[ccLenOffset:]))
	if length == 0 {
		return nil, ndef.ErrEmptyMessage
	}

	data, err := c.ReadBytes(tag, ndefDataStart, length, timeout)
	if err != nil {
		return nil, err
	}

	return ndef.Decode(data)
}

// WriteNDEF encodes the message and stores it on the tag behind a fresh
// capability container.
func (c *Controller) WriteNDEF(tag *TagInfo, msg *ndef.Message, timeout time.Duration) error {
	if tag == nil {
		return fmt.Errorf("%w: nil tag", ErrInvalidParam)
	}

	encoded, err := msg.Encode()
	if err != nil {
		return err
	}
	if tag.MemorySize > 0 && ndefDataStart+len(encoded) > tag.MemorySize {
		return fmt.Errorf("%w: %d byte message exceeds tag capacity", ErrInvalidParam, len(encoded))
	}

	if err := c.WriteBlock(tag, 0, buildCC(tag.MemorySize, len(encoded)), timeout); err != nil {
		return fmt.Errorf("writing capability container: %w", err)
	}

	for offset := 0; offset < len(encoded); offset += TagBlockSize {
		block := 1 + offset/TagBlockSize
		if block > 0xFF {
			return fmt.Errorf("%w: block %d out of range", ErrInvalidParam, block)
		}
		chunk := encoded[offset:min(offset+TagBlockSize, len(encoded))]
		if err := c.WriteBlock(tag, byte(block), chunk, timeout); err != nil {
			return fmt.Errorf("writing block %d: %w", block, err)
		}
	}

	Debugf("ndef: wrote %d byte message to %v", len(encoded), tag)

	return nil
}

// Format resets the tag's capability container to an empty message.
func (c *Controller) Format(tag *TagInfo, timeout time.Duration) error {
	if tag == nil {
		return fmt.Errorf("%w: nil tag", ErrInvalidParam)
	}

	return c.WriteBlock(tag, 0, buildCC(tag.MemorySize, 0), timeout)
}

// readFirst reads the message and returns its first record of the kind.
func (c *Controller) readFirst(tag *TagInfo, kind ndef.Kind, timeout time.Duration) (ndef.Record, error) {
	msg, err := c.ReadNDEF(tag, timeout)
	if err != nil {
		return ndef.Record{}, err
	}

	rec, ok := msg.First(kind)
	if !ok {
		return ndef.Record{}, fmt.Errorf("%w: no %v record", ErrNoTagFound, kind)
	}

	return rec, nil
}

// ReadText returns the first text record on the tag.
func (c *Controller) ReadText(tag *TagInfo, timeout time.Duration) (string, error) {
	rec, err := c.readFirst(tag, ndef.KindText, timeout)
	if err != nil {
		return "", err
	}

	return rec.Payload, nil
}

// ReadURI returns the first URI record on the tag.
func (c *Controller) ReadURI(tag *TagInfo, timeout time.Duration) (string, error) {
	rec, err := c.readFirst(tag, ndef.KindURI, timeout)
	if err != nil {
		return "", err
	}

	return rec.Payload, nil
}

// ReadWiFi returns the first Wi-Fi credential on the tag.
func (c *Controller) ReadWiFi(tag *TagInfo, timeout time.Duration) (ndef.WiFiCredential, error) {
	rec, err := c.readFirst(tag, ndef.KindWiFi, timeout)
	if err != nil {
		return ndef.WiFiCredential{}, err
	}

	return ndef.ParseWiFi(rec)
}

// writeSingle stores a one-record message on the tag.
func (c *Controller) writeSingle(tag *TagInfo, rec ndef.Record, timeout time.Duration) error {
	return c.WriteNDEF(tag, ndef.NewMessage(rec), timeout)
}

// WriteText stores a single text record. An empty language defaults to
// ndef.DefaultLanguage.
func (c *Controller) WriteText(tag *TagInfo, text, language string, timeout time.Duration) error {
	return c.writeSingle(tag, ndef.NewText(text, language), timeout)
}

// WriteURI stores a single URI record.
func (c *Controller) WriteURI(tag *TagInfo, uri string, timeout time.Duration) error {
	return c.writeSingle(tag, ndef.NewURI(uri), timeout)
}

// WriteURL stores a web address as a URI record.
func (c *Controller) WriteURL(tag *TagInfo, url string, timeout time.Duration) error {
	return c.WriteURI(tag, url, timeout)
}

// WriteWiFi stores a Wi-Fi credential record.
func (c *Controller) WriteWiFi(tag *TagInfo, ssid, password, security string, timeout time.Duration) error {
	return c.writeSingle(tag, ndef.NewWiFi(ssid, password, security), timeout)
}

// WritePhone stores a telephone number as a tel: URI record.
func (c *Controller) WritePhone(tag *TagInfo, number string, timeout time.Duration) error {
	return c.writeSingle(tag, ndef.NewPhone(number), timeout)
}

// WriteEmail stores an email address as a mailto: URI record with
// optional subject and body.
func (c *Controller) WriteEmail(tag *TagInfo, address, subject, body string, timeout time.Duration) error {
	return c.writeSingle(tag, ndef.NewEmail(address, subject, body), timeout)
}
