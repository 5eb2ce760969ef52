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

import "fmt"

// Register access framing. Every operation here is one bus transaction:
// the address byte with the direction bit ORed in, then the data byte(s).
// A direct command is a single bare byte with no data phase. Addresses and
// commands are validated before the bus is touched.

// validRegister reports whether reg is inside the chip's register space.
func validRegister(reg byte) bool {
	return reg <= regMax
}

// validCommand reports whether cmd is inside the direct command space.
func validCommand(cmd byte) bool {
	return cmd >= cmdMin
}

// ReadRegister reads a single register.
func (c *Controller) ReadRegister(reg byte) (byte, error) {
	if !validRegister(reg) {
		return 0, fmt.Errorf("%w: register 0x%02X", ErrInvalidParam, reg)
	}

	tx := []byte{reg | spiCmdRead, 0x00}
	rx := make([]byte, 2)

	c.bus.Select()
	err := c.bus.Exchange(tx, rx, c.busTimeout)
	c.bus.Deselect()
	if err != nil {
		return 0, busError(err)
	}

	return rx[1], nil
}

// WriteRegister writes a single register.
func (c *Controller) WriteRegister(reg, value byte) error {
	if !validRegister(reg) {
		return fmt.Errorf("%w: register 0x%02X", ErrInvalidParam, reg)
	}

	c.bus.Select()
	err := c.bus.Transmit([]byte{reg | spiCmdWrite, value}, c.busTimeout)
	c.bus.Deselect()

	return busError(err)
}

// ReadRegisters reads length consecutive registers starting at start.
func (c *Controller) ReadRegisters(start byte, length int) ([]byte, error) {
	if !validRegister(start) || length <= 0 || int(start)+length-1 > int(regMax) {
		return nil, fmt.Errorf("%w: register range 0x%02X+%d", ErrInvalidParam, start, length)
	}

	data := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		value, err := c.ReadRegister(start + byte(i))
		if err != nil {
			return nil, err
		}
		data = append(data, value)
	}

	return data, nil
}

// WriteRegisters writes consecutive registers starting at start.
func (c *Controller) WriteRegisters(start byte, data []byte) error {
	if !validRegister(start) || len(data) == 0 || int(start)+len(data)-1 > int(regMax) {
		return fmt.Errorf("%w: register range 0x%02X+%d", ErrInvalidParam, start, len(data))
	}

	for i, value := range data {
		if err := c.WriteRegister(start+byte(i), value); err != nil {
			return err
		}
	}

	return nil
}

// ExecuteCommand issues a direct command.
func (c *Controller) ExecuteCommand(cmd byte) error {
	if !validCommand(cmd) {
		return fmt.Errorf("%w: direct command 0x%02X", ErrInvalidParam, cmd)
	}

	c.bus.Select()
	err := c.bus.Transmit([]byte{cmd}, c.busTimeout)
	c.bus.Deselect()

	return busError(err)
}

// ModifyRegister updates the masked bits of a register with a read before
// the write. The sequence is not atomic against concurrent access; the
// scheduler's hardware lock is what serializes callers.
func (c *Controller) ModifyRegister(reg, mask, value byte) error {
	current, err := c.ReadRegister(reg)
	if err != nil {
		return err
	}

	return c.WriteRegister(reg, (current&^mask)|(value&mask))
}

// FIFOStatus returns the number of bytes in the FIFO and whether it is
// full. The byte count is a 7-bit field in the first status register plus
// an overflow bit carried in the second; both reads are needed to
// reconstruct it.
func (c *Controller) FIFOStatus() (count int, full bool, err error) {
	status1, err := c.ReadRegister(RegFIFORxStatus1)
	if err != nil {
		return 0, false, err
	}

	status2, err := c.ReadRegister(RegFIFORxStatus2)
	if err != nil {
		return 0, false, err
	}

	count = int(status1 & 0x7F)
	if status2&0x80 != 0 {
		count |= 0x80
	}

	return count, count >= FIFOSize, nil
}

// ClearFIFO clears the FIFO and its status registers.
func (c *Controller) ClearFIFO() error {
	return c.ExecuteCommand(CmdClearFIFO)
}

// ReadFIFO drains length bytes from the FIFO data register.
func (c *Controller) ReadFIFO(length int) ([]byte, error) {
	if length <= 0 || length > FIFOSize*2 {
		return nil, fmt.Errorf("%w: FIFO read length %d", ErrInvalidParam, length)
	}

	data := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		value, err := c.ReadRegister(RegFIFOData)
		if err != nil {
			return nil, err
		}
		data = append(data, value)
	}

	return data, nil
}

// WriteFIFO loads data into the FIFO through the load register.
func (c *Controller) WriteFIFO(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty FIFO write", ErrInvalidParam)
	}
	if len(data) > FIFOSize {
		return fmt.Errorf("%w: FIFO write of %d bytes", ErrFIFOOverflow, len(data))
	}

	for _, value := range data {
		if err := c.WriteRegister(RegFIFOLoad, value); err != nil {
			return err
		}
	}

	return nil
}
