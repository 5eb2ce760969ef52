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

// DefaultLanguage is the language code used when a text record is built
// without one.
const DefaultLanguage = "en"

// NewText builds a UTF-8 text record. An empty language falls back to
// DefaultLanguage.
func NewText(text, language string) Record {
	if language == "" {
		language = DefaultLanguage
	}

	return Record{Kind: KindText, Payload: text, Language: language}
}

// encodeTextPayload builds the text record payload: a status byte holding
// the language code length, the language code, then the UTF-8 text.
func encodeTextPayload(text, language string) []byte {
	if language == "" {
		language = DefaultLanguage
	}
	if len(language) > 0x3F {
		language = language[:0x3F]
	}

	out := make([]byte, 0, 1+len(language)+len(text))
	out = append(out, byte(len(language)))
	out = append(out, language...)
	out = append(out, text...)

	return out
}

// decodeTextPayload splits a text record payload into text and language
// code. Malformed payloads decode to an empty text.
func decodeTextPayload(payload []byte) (text, language string) {
	if len(payload) == 0 {
		return "", ""
	}

	langLen := int(payload[0] & 0x3F)
	if 1+langLen > len(payload) {
		return "", ""
	}

	return string(payload[1+langLen:]), string(payload[1 : 1+langLen])
}
