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

package scheduler

import (
	"time"

	st25r "github.com/Cascalio-Studio/spool-key"
	"github.com/Cascalio-Studio/spool-key/pkg/ndef"
)

// Priority tags a submitted command. It is carried through to the
// response for the caller's bookkeeping; execution order stays strict
// FIFO regardless of priority.
type Priority int

const (
	// PriorityLow marks background work.
	PriorityLow Priority = iota
	// PriorityNormal is the default.
	PriorityNormal
	// PriorityHigh marks user-visible work.
	PriorityHigh
	// PriorityCritical marks work the caller treats as urgent.
	PriorityCritical
)

// Command is one unit of work for the scheduler. Each concrete type
// below is one command kind; the scheduler executes them one at a time
// in submission order.
type Command interface {
	// Name returns the command kind for logs and responses.
	Name() string
}

// StartDetection turns the field on and begins periodic tag polling.
type StartDetection struct{}

// StopDetection halts polling and turns the field off.
type StopDetection struct{}

// ReadUID resolves the UID of the tag in the field.
type ReadUID struct{}

// ReadText reads the first text record from the last detected tag.
type ReadText struct{}

// ReadURI reads the first URI record from the last detected tag.
type ReadURI struct{}

// ReadWiFi reads the first Wi-Fi credential from the last detected tag.
type ReadWiFi struct{}

// ReadTag reads one raw 16-byte block from the last detected tag.
type ReadTag struct {
	Block byte
}

// WriteText stores a single text record on the last detected tag.
type WriteText struct {
	Text     string
	Language string
}

// WriteURI stores a single URI record on the last detected tag.
type WriteURI struct {
	URI string
}

// WriteWiFi stores a Wi-Fi credential record on the last detected tag.
type WriteWiFi struct {
	SSID     string
	Password string
	Security string
}

// WritePhone stores a telephone record on the last detected tag.
type WritePhone struct {
	Number string
}

// WriteEmail stores an email record on the last detected tag.
type WriteEmail struct {
	Address string
	Subject string
	Body    string
}

// WriteTag writes raw bytes to one block of the last detected tag.
type WriteTag struct {
	Block byte
	Data  []byte
}

// FormatTag resets the last detected tag to an empty message.
type FormatTag struct{}

// SetField switches the RF carrier directly.
type SetField struct {
	On bool
}

// GetStatus snapshots the scheduler statistics into the response.
type GetStatus struct{}

func (StartDetection) Name() string { return "StartDetection" }
func (StopDetection) Name() string  { return "StopDetection" }
func (ReadUID) Name() string        { return "ReadUID" }
func (ReadText) Name() string       { return "ReadText" }
func (ReadURI) Name() string        { return "ReadURI" }
func (ReadWiFi) Name() string       { return "ReadWiFi" }
func (ReadTag) Name() string        { return "ReadTag" }
func (WriteText) Name() string      { return "WriteText" }
func (WriteURI) Name() string       { return "WriteURI" }
func (WriteWiFi) Name() string      { return "WriteWiFi" }
func (WritePhone) Name() string     { return "WritePhone" }
func (WriteEmail) Name() string     { return "WriteEmail" }
func (WriteTag) Name() string       { return "WriteTag" }
func (FormatTag) Name() string      { return "FormatTag" }
func (SetField) Name() string       { return "SetField" }
func (GetStatus) Name() string      { return "GetStatus" }

// Response is the outcome of one command, or a detection event. Detection
// events carry ID zero and a nil Command with Tag set.
type Response struct {
	// ID is the request identifier returned by Submit, zero for
	// detection events.
	ID uint64
	// Command is the command that produced this response.
	Command Command
	// Priority is the priority the command was submitted with.
	Priority Priority
	// Err is the command's failure, nil on success.
	Err error
	// Data holds raw bytes: the UID or a block read.
	Data []byte
	// Text holds a decoded text or URI result.
	Text string
	// WiFi holds a decoded Wi-Fi credential.
	WiFi *ndef.WiFiCredential
	// Tag is the detected tag for detection events and UID reads.
	Tag *st25r.TagInfo
	// Stats is filled for GetStatus.
	Stats *Stats
	// Finished is when the command completed.
	Finished time.Time
}

// Callback receives a command's response. It runs on the scheduler
// goroutine and must return quickly.
type Callback func(Response)

// request is the internal envelope around a submitted command.
type request struct {
	id       uint64
	cmd      Command
	priority Priority
	callback Callback
}
