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

package ndef

import (
	"fmt"
	"strings"
)

// NewMIME builds a media record with an arbitrary MIME type.
func NewMIME(mimeType string, data []byte) Record {
	return Record{Kind: KindMIME, MIMEType: mimeType, Raw: data, Payload: string(data)}
}

// NewVCard builds a contact card record.
func NewVCard(card []byte) Record {
	return Record{Kind: KindVCard, MIMEType: MIMEVCard, Raw: card, Payload: string(card)}
}

// NewWiFi builds a Wi-Fi credential record. The payload is the colon
// separated ssid:password:security form rather than the full WSC TLV
// encoding.
func NewWiFi(ssid, password, security string) Record {
	payload := strings.Join([]string{ssid, password, security}, ":")

	return Record{Kind: KindWiFi, MIMEType: MIMEWiFi, Payload: payload}
}

// WiFiCredential is a decoded Wi-Fi record payload.
type WiFiCredential struct {
	SSID     string
	Password string
	Security string
}

// ParseWiFi splits a Wi-Fi record payload into its credential fields.
func ParseWiFi(rec Record) (WiFiCredential, error) {
	if rec.Kind != KindWiFi {
		return WiFiCredential{}, fmt.Errorf("%w: not a WiFi record", ErrBadFraming)
	}

	parts := strings.SplitN(rec.Payload, ":", 3)
	if len(parts) != 3 {
		return WiFiCredential{}, fmt.Errorf("%w: malformed WiFi payload", ErrBadFraming)
	}

	return WiFiCredential{SSID: parts[0], Password: parts[1], Security: parts[2]}, nil
}
