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

// Package st25r drives the ST25R3911B NFC reader over SPI.
//
// The package is layered bottom up: register and FIFO access with
// validated framing, a controller owning initialization, field control
// and framed transmit/receive, and a tag protocol layer that detects
// NFC-A and MIFARE Classic tags, moves raw blocks and reads or writes
// NDEF messages through the pkg/ndef codec.
//
// The controller borrows its Bus and IRQLine collaborators; the spibus
// package provides periph.io-backed implementations for Linux hosts.
// Methods that touch the bus are not safe for concurrent use; the
// scheduler package serializes access in applications.
package st25r
