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
	"sync/atomic"
	"time"

	"github.com/Cascalio-Studio/spool-key/internal/syncutil"
)

// Protocol selects the RF protocol the controller is configured for.
type Protocol int

const (
	// ProtocolISO14443A covers ISO14443 Type A tags, including NFC Forum
	// Type 2 tags.
	ProtocolISO14443A Protocol = iota
	// ProtocolISO14443B covers ISO14443 Type B tags.
	ProtocolISO14443B
	// ProtocolFeliCa covers JIS X 6319-4 (FeliCa) tags.
	ProtocolFeliCa
	// ProtocolISO15693 covers vicinity tags on the subcarrier stream mode.
	ProtocolISO15693
	// ProtocolNFCIP1 covers active peer-to-peer mode.
	ProtocolNFCIP1
	// ProtocolMIFAREClassic reuses ISO14443A framing for MIFARE Classic
	// tags.
	ProtocolMIFAREClassic
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolISO14443A:
		return "ISO14443A"
	case ProtocolISO14443B:
		return "ISO14443B"
	case ProtocolFeliCa:
		return "FeliCa"
	case ProtocolISO15693:
		return "ISO15693"
	case ProtocolNFCIP1:
		return "NFCIP-1"
	case ProtocolMIFAREClassic:
		return "MIFARE Classic"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// modeBits returns the operation mode field value for the protocol.
func (p Protocol) modeBits() (byte, error) {
	switch p {
	case ProtocolISO14443A, ProtocolMIFAREClassic:
		return ModeOMISO14443A, nil
	case ProtocolISO14443B:
		return ModeOMISO14443B, nil
	case ProtocolFeliCa:
		return ModeOMFeliCa, nil
	case ProtocolISO15693:
		return ModeOMSubcarrier, nil
	case ProtocolNFCIP1:
		return ModeOMNFC, nil
	default:
		return 0, fmt.Errorf("%w: protocol %d", ErrInvalidParam, int(p))
	}
}

// Field is the state of the RF carrier.
type Field int

const (
	// FieldOff means the carrier is not radiating.
	FieldOff Field = iota
	// FieldOn means the carrier is radiating.
	FieldOn
)

// Default budgets used when Config leaves them zero.
const (
	// DefaultTimeout is the receive deadline applied when a caller passes
	// no explicit budget.
	DefaultTimeout = 100 * time.Millisecond
	// DefaultBusTimeout bounds a single register transaction on the bus.
	DefaultBusTimeout = 10 * time.Millisecond

	// resetSettle is how long the chip needs after a set-default command.
	resetSettle = 10 * time.Millisecond
	// fieldSettle is how long the carrier needs to stabilize after being
	// switched on.
	fieldSettle = 5 * time.Millisecond
	// irqPollInterval is the granularity of the receive busy-wait.
	irqPollInterval = time.Millisecond
)

// Config carries the collaborators and budgets for a Controller.
type Config struct {
	// Bus is the SPI master connected to the chip. Required.
	Bus Bus

	// IRQ is the interrupt line from the chip. Optional; without it the
	// caller must pump HandleInterrupt itself.
	IRQ IRQLine

	// Protocol is the RF protocol selected during Initialize. Defaults to
	// ProtocolISO14443A.
	Protocol Protocol

	// Timeout is the default receive deadline. Defaults to DefaultTimeout.
	Timeout time.Duration

	// BusTimeout bounds each register transaction. Defaults to
	// DefaultBusTimeout.
	BusTimeout time.Duration

	// OnInterrupt, when set, is called from HandleInterrupt after the
	// pending flag is raised. It runs in interrupt context and must not
	// touch the bus.
	OnInterrupt func()

	// Clock overrides the time source for settle delays and receive
	// polling. Defaults to the real clock.
	Clock Clock
}

// Controller drives one ST25R3911B over a serial bus. All methods that
// touch the bus must be externally serialized; the scheduler's hardware
// lock provides that in normal operation.
type Controller struct {
	bus        Bus
	irq        IRQLine
	clock      Clock
	timeout    time.Duration
	busTimeout time.Duration
	onIRQ      func()

	mu          syncutil.Mutex
	initialized bool
	protocol    Protocol
	field       Field

	// irqPending is set from interrupt context and consumed by the
	// receive wait loop.
	irqPending atomic.Bool
}

// New builds a Controller from cfg and arms the interrupt line when one
// is provided. The chip itself is untouched until Initialize.
func New(cfg Config) (*Controller, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("%w: nil bus", ErrInvalidParam)
	}

	c := &Controller{
		bus:        cfg.Bus,
		irq:        cfg.IRQ,
		clock:      cfg.Clock,
		timeout:    cfg.Timeout,
		busTimeout: cfg.BusTimeout,
		onIRQ:      cfg.OnInterrupt,
		protocol:   cfg.Protocol,
		field:      FieldOff,
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.busTimeout <= 0 {
		c.busTimeout = DefaultBusTimeout
	}

	if c.irq != nil {
		if err := c.irq.Arm(c.HandleInterrupt); err != nil {
			return nil, fmt.Errorf("arming interrupt line: %w", err)
		}
	}

	return c, nil
}

// Initialize resets the chip, verifies its identity and programs the
// power-on defaults. It is idempotent; a second call re-runs the full
// sequence.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	Debugf("controller: initializing, protocol=%v", c.protocol)

	if err := c.reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	identity, err := c.ReadRegister(RegICIdentity)
	if err != nil {
		return fmt.Errorf("reading identity: %w", err)
	}
	if identity&ICTypeMask != ICIdentityValue {
		return fmt.Errorf("%w: got 0x%02X", ErrIdentityMismatch, identity&ICTypeMask)
	}
	Debugf("controller: IC identity 0x%02X rev %d", identity&ICTypeMask, (identity&ICRevMask)>>5)

	if err := c.configureDefaults(); err != nil {
		return fmt.Errorf("configuring defaults: %w", err)
	}

	if err := c.setProtocol(c.protocol); err != nil {
		return fmt.Errorf("selecting protocol: %w", err)
	}

	c.initialized = true
	c.field = FieldOff

	return nil
}

// configureDefaults programs the receiver, interrupt masks and FIFO water
// level used for reader mode.
func (c *Controller) configureDefaults() error {
	if err := c.WriteRegister(RegOpControl, OpControlRxEn|OpControlRxMan|OpControlTxCRC); err != nil {
		return err
	}

	mask := ^(IRQMainRxs | IRQMainRxe | IRQMainTxe | IRQMainCol)
	if err := c.WriteRegister(RegIRQMaskMain, mask); err != nil {
		return err
	}
	if err := c.WriteRegister(RegIRQMaskTimerNFC, 0xFF); err != nil {
		return err
	}
	if err := c.WriteRegister(RegIRQMaskErrorWup, 0xFF); err != nil {
		return err
	}

	return c.WriteRegister(RegIOConf1, FIFOWaterLevel)
}

// Deinitialize turns the field off, masks every interrupt source and puts
// the chip back into its default state. The bus and interrupt line stay
// open; Close releases them.
func (c *Controller) Deinitialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}

	if err := c.setField(FieldOff); err != nil {
		return err
	}
	if err := c.SetInterruptMasks(0xFF, 0xFF, 0xFF); err != nil {
		return err
	}
	if err := c.ExecuteCommand(CmdSetDefault); err != nil {
		return err
	}
	c.initialized = false

	return nil
}

// Close releases the bus and the interrupt line.
func (c *Controller) Close() error {
	if c.irq != nil {
		if err := c.irq.Close(); err != nil {
			return err
		}
	}

	return c.bus.Close()
}

// IsInitialized reports whether Initialize has completed.
func (c *Controller) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initialized
}

// Reset issues a set-default command, clears the FIFO and acknowledges
// every latched interrupt. The controller must be re-initialized before
// further use.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = false
	c.field = FieldOff

	return c.reset()
}

func (c *Controller) reset() error {
	if err := c.ExecuteCommand(CmdSetDefault); err != nil {
		return err
	}
	c.clock.Sleep(resetSettle)

	if err := c.ClearFIFO(); err != nil {
		return err
	}

	return c.clearInterrupts(0xFF, 0xFF, 0xFF)
}

// Identity reads the IC identity register and returns the type code and
// silicon revision.
func (c *Controller) Identity() (icType, revision byte, err error) {
	value, err := c.ReadRegister(RegICIdentity)
	if err != nil {
		return 0, 0, err
	}

	return value & ICTypeMask, (value & ICRevMask) >> 5, nil
}

// SetField switches the RF carrier. Turning the field on waits for the
// carrier to stabilize before returning.
func (c *Controller) SetField(f Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return ErrNotInitialized
	}

	return c.setField(f)
}

func (c *Controller) setField(f Field) error {
	switch f {
	case FieldOn:
		if err := c.ModifyRegister(RegOpControl, OpControlEn, OpControlEn); err != nil {
			return err
		}
		if err := c.ModifyRegister(RegMode, ModeTREn, ModeTREn); err != nil {
			return err
		}
		c.clock.Sleep(fieldSettle)
	case FieldOff:
		if err := c.ModifyRegister(RegMode, ModeTREn, 0); err != nil {
			return err
		}
		if err := c.ModifyRegister(RegOpControl, OpControlEn, 0); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: field state %d", ErrInvalidParam, int(f))
	}

	c.field = f
	Debugf("controller: field %v", f == FieldOn)

	return nil
}

// GetField returns the last commanded field state.
func (c *Controller) GetField() Field {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.field
}

// SetProtocol programs the operation mode field of the mode register for
// the given protocol.
func (c *Controller) SetProtocol(p Protocol) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setProtocol(p)
}

func (c *Controller) setProtocol(p Protocol) error {
	bits, err := p.modeBits()
	if err != nil {
		return err
	}

	if err := c.writeProtocolSettings(p); err != nil {
		return err
	}
	if err := c.ModifyRegister(RegMode, ModeOMMask, bits); err != nil {
		return err
	}
	c.protocol = p

	return nil
}

// iso14443ASettings is the 106 kbps Type A framing configuration:
// automatic parity generation and checking enabled.
const iso14443ASettings byte = 0x88

// writeProtocolSettings programs the protocol's settings register before
// the operation mode is switched.
func (c *Controller) writeProtocolSettings(p Protocol) error {
	switch p {
	case ProtocolISO14443A, ProtocolMIFAREClassic:
		return c.WriteRegister(RegISO14443ANFC, iso14443ASettings)
	case ProtocolISO14443B:
		return c.WriteRegister(RegISO14443B, 0x00)
	case ProtocolFeliCa:
		return c.WriteRegister(RegBitRate, 0x00)
	case ProtocolISO15693:
		return c.WriteRegister(RegStreamMode, 0x00)
	case ProtocolNFCIP1:
		return c.WriteRegister(RegP2PRxConf, 0x00)
	default:
		return fmt.Errorf("%w: protocol %d", ErrInvalidParam, int(p))
	}
}

// Protocol returns the currently selected protocol.
func (c *Controller) Protocol() Protocol {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.protocol
}

// InterruptStatus reads the three interrupt registers. Reading them
// acknowledges nothing; pass the returned values to ClearInterrupts.
func (c *Controller) InterruptStatus() (main, timerNFC, errorWup byte, err error) {
	main, err = c.ReadRegister(RegIRQMain)
	if err != nil {
		return 0, 0, 0, err
	}
	timerNFC, err = c.ReadRegister(RegIRQTimerNFC)
	if err != nil {
		return 0, 0, 0, err
	}
	errorWup, err = c.ReadRegister(RegIRQErrorWup)
	if err != nil {
		return 0, 0, 0, err
	}

	return main, timerNFC, errorWup, nil
}

// ClearInterrupts acknowledges the given interrupt flags by writing them
// back to their registers.
func (c *Controller) ClearInterrupts(main, timerNFC, errorWup byte) error {
	return c.clearInterrupts(main, timerNFC, errorWup)
}

func (c *Controller) clearInterrupts(main, timerNFC, errorWup byte) error {
	if main != 0 {
		if err := c.WriteRegister(RegIRQMain, main); err != nil {
			return err
		}
	}
	if timerNFC != 0 {
		if err := c.WriteRegister(RegIRQTimerNFC, timerNFC); err != nil {
			return err
		}
	}
	if errorWup != 0 {
		if err := c.WriteRegister(RegIRQErrorWup, errorWup); err != nil {
			return err
		}
	}

	return nil
}

// SetInterruptMasks programs the three interrupt mask registers. A set
// mask bit suppresses the corresponding interrupt.
func (c *Controller) SetInterruptMasks(main, timerNFC, errorWup byte) error {
	if err := c.WriteRegister(RegIRQMaskMain, main); err != nil {
		return err
	}
	if err := c.WriteRegister(RegIRQMaskTimerNFC, timerNFC); err != nil {
		return err
	}

	return c.WriteRegister(RegIRQMaskErrorWup, errorWup)
}

// HandleInterrupt records that the chip raised its interrupt line. It is
// safe to call from interrupt context; it never touches the bus.
func (c *Controller) HandleInterrupt() {
	c.irqPending.Store(true)
	if c.onIRQ != nil {
		c.onIRQ()
	}
}

// Transmit loads data into the FIFO and starts a transmission, with or
// without an appended CRC.
func (c *Controller) Transmit(data []byte, withCRC bool) error {
	if !c.IsInitialized() {
		return ErrNotInitialized
	}
	if len(data) == 0 || len(data) > FIFOSize {
		return fmt.Errorf("%w: transmit length %d", ErrInvalidParam, len(data))
	}

	if err := c.ClearFIFO(); err != nil {
		return err
	}
	if err := c.WriteFIFO(data); err != nil {
		return err
	}

	cmd := CmdTransmitWithoutCRC
	if withCRC {
		cmd = CmdTransmitWithCRC
	}
	c.irqPending.Store(false)

	return c.ExecuteCommand(cmd)
}

// Receive waits for a reception to complete and drains the FIFO. A zero
// timeout uses the configured default. The FIFO is only read after the
// chip signals a complete frame; a timeout leaves it untouched.
func (c *Controller) Receive(timeout time.Duration) ([]byte, error) {
	if !c.IsInitialized() {
		return nil, ErrNotInitialized
	}
	if timeout <= 0 {
		timeout = c.timeout
	}

	if !c.waitForInterrupt(timeout) {
		return nil, fmt.Errorf("%w: no frame within %v", ErrTimeout, timeout)
	}

	main, timerNFC, errorWup, err := c.InterruptStatus()
	if err != nil {
		return nil, err
	}

	if main&IRQMainCol != 0 {
		if err := c.clearInterrupts(main, timerNFC, errorWup); err != nil {
			return nil, err
		}
		return nil, ErrCollision
	}

	if main&IRQMainRxe == 0 {
		if err := c.clearInterrupts(main, timerNFC, errorWup); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no receive completion", ErrTimeout)
	}

	count, _, err := c.FIFOStatus()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrFIFOUnderflow
	}

	data, err := c.ReadFIFO(count)
	if err != nil {
		return nil, err
	}

	if err := c.clearInterrupts(main, timerNFC, errorWup); err != nil {
		return nil, err
	}

	return data, nil
}

// TransmitReceive performs one framed exchange with a tag: transmit with
// CRC, then wait for the response.
func (c *Controller) TransmitReceive(tx []byte, timeout time.Duration) ([]byte, error) {
	if err := c.Transmit(tx, true); err != nil {
		return nil, err
	}

	return c.Receive(timeout)
}

// waitForInterrupt busy-waits for the pending flag with a coarse poll,
// consuming the flag when it fires.
func (c *Controller) waitForInterrupt(timeout time.Duration) bool {
	deadline := c.clock.Now().Add(timeout)
	for {
		if c.irqPending.CompareAndSwap(true, false) {
			return true
		}
		if !c.clock.Now().Before(deadline) {
			return false
		}
		c.clock.Sleep(irqPollInterval)
	}
}
