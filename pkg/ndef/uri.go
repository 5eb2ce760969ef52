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

import "strings"

// uriPrefixes is the NFC Forum URI identifier code table. The code byte
// replaces the listed prefix in the encoded payload; code 0x00 means no
// abbreviation.
var uriPrefixes = []string{
	0x00: "",
	0x01: "http://www.",
	0x02: "https://www.",
	0x03: "http://",
	0x04: "https://",
	0x05: "tel:",
	0x06: "mailto:",
	0x07: "ftp://anonymous:anonymous@",
	0x08: "ftp://ftp.",
	0x09: "ftps://",
	0x0A: "sftp://",
	0x0B: "smb://",
	0x0C: "nfs://",
	0x0D: "ftp://",
	0x0E: "dav://",
	0x0F: "news:",
	0x10: "telnet://",
	0x11: "imap:",
	0x12: "rtsp://",
	0x13: "urn:",
	0x14: "pop:",
	0x15: "sip:",
	0x16: "sips:",
	0x17: "tftp:",
	0x18: "btspp://",
	0x19: "btl2cap://",
	0x1A: "btgoep://",
	0x1B: "tcpobex://",
	0x1C: "irdaobex://",
	0x1D: "file://",
	0x1E: "urn:epc:id:",
	0x1F: "urn:epc:tag:",
	0x20: "urn:epc:pat:",
	0x21: "urn:epc:raw:",
	0x22: "urn:epc:",
	0x23: "urn:nfc:",
}

// URI identifier codes with dedicated record kinds.
const (
	uriCodeTel    byte = 0x05
	uriCodeMailto byte = 0x06
)

// NewURI builds a URI record.
func NewURI(uri string) Record {
	return Record{Kind: KindURI, Payload: uri}
}

// NewPhone builds a telephone record for the given number.
func NewPhone(number string) Record {
	return Record{Kind: KindPhone, Payload: "tel:" + number}
}

// NewEmail builds an email record. Subject and body, when non-empty, are
// carried as mailto query parameters.
func NewEmail(address, subject, body string) Record {
	uri := "mailto:" + address
	var params []string
	if subject != "" {
		params = append(params, "subject="+subject)
	}
	if body != "" {
		params = append(params, "body="+body)
	}
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}

	return Record{Kind: KindEmail, Payload: uri}
}

// encodeURIPayload abbreviates the URI with the longest matching prefix
// from the identifier table and prepends its code byte.
func encodeURIPayload(uri string) []byte {
	var code byte
	longest := 0
	for i, prefix := range uriPrefixes {
		if i == 0 {
			continue
		}
		if len(prefix) > longest && strings.HasPrefix(uri, prefix) {
			code = byte(i)
			longest = len(prefix)
		}
	}

	out := make([]byte, 0, 1+len(uri)-longest)
	out = append(out, code)
	out = append(out, uri[longest:]...)

	return out
}

// decodeURIPayload reattaches the abbreviated prefix and classifies the
// record. Unknown identifier codes keep the remainder as is.
func decodeURIPayload(payload []byte) (string, Kind) {
	if len(payload) == 0 {
		return "", KindURI
	}

	code := payload[0]
	rest := string(payload[1:])

	uri := rest
	if int(code) < len(uriPrefixes) {
		uri = uriPrefixes[code] + rest
	}

	switch code {
	case uriCodeTel:
		return uri, KindPhone
	case uriCodeMailto:
		return uri, KindEmail
	default:
		return uri, KindURI
	}
}
