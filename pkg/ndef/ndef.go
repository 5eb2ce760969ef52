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

// Package ndef encodes and decodes NDEF messages for proximity tags.
//
// The codec covers short records only: a three byte header (flags and
// TNF, type length, payload length), the type bytes, then the payload.
// The first record of a message carries the MB flag, the last carries
// ME, and decoding stops once ME has been seen.
package ndef

import (
	"errors"
	"fmt"
)

// Errors returned by the codec.
var (
	// ErrEmptyMessage indicates an encode or decode of zero records.
	ErrEmptyMessage = errors.New("ndef: empty message")
	// ErrTruncated indicates the input ended inside a record.
	ErrTruncated = errors.New("ndef: truncated message")
	// ErrBadFraming indicates MB/ME flags are missing or duplicated.
	ErrBadFraming = errors.New("ndef: bad message framing")
	// ErrTooLong indicates a record field exceeds the short-record limits.
	ErrTooLong = errors.New("ndef: record too long")
)

// Kind classifies a record by its content.
type Kind int

const (
	// KindUnknown is a record with an unrecognized TNF.
	KindUnknown Kind = iota
	// KindText is a well-known text record.
	KindText
	// KindURI is a well-known URI record.
	KindURI
	// KindMIME is a media record with an arbitrary MIME type.
	KindMIME
	// KindWiFi is a Wi-Fi credential record.
	KindWiFi
	// KindPhone is a telephone number record (tel: URI).
	KindPhone
	// KindEmail is an email address record (mailto: URI).
	KindEmail
	// KindVCard is a contact card record (text/vcard).
	KindVCard
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindURI:
		return "URI"
	case KindMIME:
		return "MIME"
	case KindWiFi:
		return "WiFi"
	case KindPhone:
		return "Phone"
	case KindEmail:
		return "Email"
	case KindVCard:
		return "VCard"
	default:
		return "Unknown"
	}
}

// Header flag bits and TNF values.
const (
	flagMB  byte = 0x80 // message begin
	flagME  byte = 0x40 // message end
	tnfMask byte = 0x07

	tnfWellKnown byte = 0x01
	tnfMedia     byte = 0x02
)

// Well-known record types.
const (
	typeText = "T"
	typeURI  = "U"
)

// MIME types the codec gives dedicated kinds.
const (
	// MIMEWiFi is the Wi-Fi Simple Configuration media type.
	MIMEWiFi = "application/vnd.wfa.wsc"
	// MIMEVCard is the contact card media type.
	MIMEVCard = "text/vcard"
)

// Record is one NDEF record.
type Record struct {
	// Kind classifies the record content.
	Kind Kind
	// Payload is the decoded content: the text, the full URI, the Wi-Fi
	// credential string, or the raw payload as a string for media and
	// unknown records.
	Payload string
	// Raw is the payload exactly as it appears on the wire.
	Raw []byte
	// Language is the IANA language code of a text record.
	Language string
	// MIMEType is the media type of a MIME, Wi-Fi or vCard record.
	MIMEType string
}

// Message is an ordered sequence of records.
type Message struct {
	// Records in wire order.
	Records []Record
}

// NewMessage builds a message from records.
func NewMessage(records ...Record) *Message {
	return &Message{Records: records}
}

// EncodedSize returns the number of bytes Encode will produce, or an
// error when the message cannot be encoded.
func (m *Message) EncodedSize() (int, error) {
	data, err := m.Encode()
	if err != nil {
		return 0, err
	}

	return len(data), nil
}

// Encode serializes the message. The first record gets the MB flag and
// the last gets ME.
func (m *Message) Encode() ([]byte, error) {
	if len(m.Records) == 0 {
		return nil, ErrEmptyMessage
	}

	var out []byte
	for i, rec := range m.Records {
		encoded, err := rec.encode(i == 0, i == len(m.Records)-1)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, encoded...)
	}

	return out, nil
}

// wire returns the TNF, type string and payload bytes for the record.
func (r Record) wire() (tnf byte, recType string, payload []byte, err error) {
	switch r.Kind {
	case KindText:
		return tnfWellKnown, typeText, encodeTextPayload(r.Payload, r.Language), nil
	case KindURI, KindPhone, KindEmail:
		return tnfWellKnown, typeURI, encodeURIPayload(r.Payload), nil
	case KindWiFi:
		return tnfMedia, MIMEWiFi, []byte(r.Payload), nil
	case KindVCard:
		return tnfMedia, MIMEVCard, r.payloadBytes(), nil
	case KindMIME:
		if r.MIMEType == "" {
			return 0, "", nil, fmt.Errorf("%w: MIME record without type", ErrBadFraming)
		}
		return tnfMedia, r.MIMEType, r.payloadBytes(), nil
	default:
		return 0, "", nil, fmt.Errorf("%w: cannot encode kind %v", ErrBadFraming, r.Kind)
	}
}

// payloadBytes prefers the raw bytes and falls back to the string payload.
func (r Record) payloadBytes() []byte {
	if r.Raw != nil {
		return r.Raw
	}

	return []byte(r.Payload)
}

func (r Record) encode(first, last bool) ([]byte, error) {
	tnf, recType, payload, err := r.wire()
	if err != nil {
		return nil, err
	}
	if len(recType) > 0xFF || len(payload) > 0xFF {
		return nil, ErrTooLong
	}

	header := tnf
	if first {
		header |= flagMB
	}
	if last {
		header |= flagME
	}

	out := make([]byte, 0, 3+len(recType)+len(payload))
	out = append(out, header, byte(len(recType)), byte(len(payload)))
	out = append(out, recType...)
	out = append(out, payload...)

	return out, nil
}

// Decode parses an encoded message. Records after the one carrying the
// ME flag are ignored; trailing padding bytes on a tag are expected.
func Decode(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}

	msg := &Message{}
	offset := 0
	for {
		if offset+3 > len(data) {
			return nil, ErrTruncated
		}

		header := data[offset]
		typeLen := int(data[offset+1])
		payloadLen := int(data[offset+2])
		offset += 3

		if offset+typeLen+payloadLen > len(data) {
			return nil, ErrTruncated
		}
		recType := string(data[offset : offset+typeLen])
		offset += typeLen
		payload := data[offset : offset+payloadLen]
		offset += payloadLen

		if len(msg.Records) == 0 && header&flagMB == 0 {
			return nil, fmt.Errorf("%w: first record lacks MB", ErrBadFraming)
		}
		if len(msg.Records) > 0 && header&flagMB != 0 {
			return nil, fmt.Errorf("%w: duplicate MB", ErrBadFraming)
		}

		msg.Records = append(msg.Records, decodeRecord(header&tnfMask, recType, payload))

		if header&flagME != 0 {
			return msg, nil
		}
		if offset >= len(data) {
			return nil, fmt.Errorf("%w: last record lacks ME", ErrBadFraming)
		}
	}
}

// decodeRecord classifies one record from its TNF, type and payload.
func decodeRecord(tnf byte, recType string, payload []byte) Record {
	raw := make([]byte, len(payload))
	copy(raw, payload)

	switch tnf {
	case tnfWellKnown:
		switch recType {
		case typeText:
			text, lang := decodeTextPayload(raw)
			return Record{Kind: KindText, Payload: text, Language: lang, Raw: raw}
		case typeURI:
			uri, kind := decodeURIPayload(raw)
			return Record{Kind: kind, Payload: uri, Raw: raw}
		}
	case tnfMedia:
		switch recType {
		case MIMEWiFi:
			return Record{Kind: KindWiFi, Payload: string(raw), MIMEType: recType, Raw: raw}
		case MIMEVCard:
			return Record{Kind: KindVCard, Payload: string(raw), MIMEType: recType, Raw: raw}
		}
		return Record{Kind: KindMIME, Payload: string(raw), MIMEType: recType, Raw: raw}
	}

	return Record{Kind: KindUnknown, Payload: string(raw), Raw: raw}
}

// First returns the first record of the given kind, or false when the
// message has none.
func (m *Message) First(kind Kind) (Record, bool) {
	for _, rec := range m.Records {
		if rec.Kind == kind {
			return rec, true
		}
	}

	return Record{}, false
}
