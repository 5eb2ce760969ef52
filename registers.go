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

// Register addresses of the ST25R3911B. The register space is a flat
// 0x00-0x3F range; everything above it is only reachable through direct
// commands.
const (
	RegIOConf1           byte = 0x00 // IO configuration 1
	RegIOConf2           byte = 0x01 // IO configuration 2
	RegOpControl         byte = 0x02 // Operation control
	RegMode              byte = 0x03 // Mode definition
	RegBitRate           byte = 0x04 // Bit rate definition
	RegISO14443ANFC      byte = 0x05 // ISO14443A and NFC 106 kbps settings
	RegISO14443B         byte = 0x06 // ISO14443B settings
	RegStreamMode        byte = 0x07 // Stream mode definition
	RegAux               byte = 0x08 // Auxiliary definition
	RegRxConf1           byte = 0x09 // Receiver configuration 1
	RegRxConf2           byte = 0x0A // Receiver configuration 2
	RegRxConf3           byte = 0x0B // Receiver configuration 3
	RegRxConf4           byte = 0x0C // Receiver configuration 4
	RegP2PRxConf         byte = 0x0D // Passive target / P2P receiver configuration
	RegCorrConf1         byte = 0x0E // Correlation configuration 1
	RegCorrConf2         byte = 0x0F // Correlation configuration 2
	RegSleepConf         byte = 0x10 // Sleep mode control
	RegOscConf           byte = 0x11 // Oscillator control
	RegTest1             byte = 0x12 // Test register 1
	RegTest2             byte = 0x13 // Test register 2
	RegIOConf3           byte = 0x14 // IO configuration 3
	RegIOConf4           byte = 0x15 // IO configuration 4
	RegMeasConf          byte = 0x16 // Measurement configuration
	RegAntConf           byte = 0x17 // Antenna configuration
	RegTimConf1          byte = 0x18 // Timer configuration 1
	RegTimConf2          byte = 0x19 // Timer configuration 2
	RegRegulatorConf     byte = 0x1A // Regulator configuration
	RegFieldThreshold    byte = 0x1B // Field threshold
	RegRegulatorDisplay  byte = 0x1C // Regulator display
	RegRSSIDisplay1      byte = 0x1D // RSSI display 1
	RegRSSIDisplay2      byte = 0x1E // RSSI display 2
	RegGainRedState      byte = 0x1F // Gain reduction state
	RegCapSensorDisplay  byte = 0x20 // Capacitance sensor display
	RegAuxDisplay        byte = 0x21 // Auxiliary display
	RegWupTimerControl1  byte = 0x22 // Wake-up timer control 1
	RegWupTimerControl2  byte = 0x23 // Wake-up timer control 2
	RegAmplitudeMeasConf byte = 0x24 // Amplitude measurement configuration
	RegPhaseMeasConf     byte = 0x25 // Phase measurement configuration
	RegCapMeasConf       byte = 0x26 // Capacitance measurement configuration
	RegICIdentity        byte = 0x27 // IC identity
	RegFIFORxStatus1     byte = 0x28 // FIFO RX status 1 (byte count, low 7 bits)
	RegFIFORxStatus2     byte = 0x29 // FIFO RX status 2 (overflow bit and flags)
	RegCollisionDisplay  byte = 0x2A // Collision display
	RegNumTxBytes1       byte = 0x2B // Number of transmitted bytes 1
	RegNumTxBytes2       byte = 0x2C // Number of transmitted bytes 2
	RegNFCIPBitRate      byte = 0x2D // NFCIP bit rate detection display
	RegADConverterOutput byte = 0x2E // A/D converter output
	RegAntCalDisplay     byte = 0x2F // Antenna calibration display
	RegAntCalTarget      byte = 0x30 // Antenna calibration target
	RegAntCalConf        byte = 0x31 // Antenna calibration configuration
	RegMeasDisplay       byte = 0x32 // Measurement display
	RegPowerRed          byte = 0x33 // Power reduction
	RegEMDSupConf        byte = 0x34 // EMD suppression configuration
	RegSubcStartConf     byte = 0x35 // Subcarrier startup configuration
	RegIRQMain           byte = 0x36 // Main interrupt
	RegIRQTimerNFC       byte = 0x37 // Timer and NFC interrupt
	RegIRQErrorWup       byte = 0x38 // Error and wake-up interrupt
	RegIRQTarget         byte = 0x39 // Target interrupt
	RegIRQMaskMain       byte = 0x3A // Main interrupt mask
	RegIRQMaskTimerNFC   byte = 0x3B // Timer and NFC interrupt mask
	RegIRQMaskErrorWup   byte = 0x3C // Error and wake-up interrupt mask
	RegIRQMaskTarget     byte = 0x3D // Target interrupt mask
	RegFIFOLoad          byte = 0x3E // FIFO load
	RegFIFOData          byte = 0x3F // FIFO data
)

// regMax is the highest valid register address.
const regMax = RegFIFOData

// Direct commands. A direct command is a single byte in [0xC0,0xFF] sent
// without an address or data phase.
const (
	CmdSetDefault           byte = 0xC1 // Reset all registers to defaults
	CmdClearFIFO            byte = 0xC2 // Clear the FIFO and its status
	CmdTransmitWithCRC      byte = 0xC4 // Transmit FIFO content with CRC
	CmdTransmitWithoutCRC   byte = 0xC5 // Transmit FIFO content without CRC
	CmdTransmitREQA         byte = 0xC6 // Transmit a REQA frame
	CmdTransmitWUPA         byte = 0xC7 // Transmit a WUPA frame
	CmdInitialRFCollision   byte = 0xC8 // NFC initial RF collision avoidance
	CmdResponseRFCollision  byte = 0xC9 // NFC response RF collision avoidance
	CmdGotoSleep            byte = 0xCA // Enter sleep mode
	CmdGotoSleepWU          byte = 0xCB // Enter sleep mode with wake-up timer
	CmdMaskReceiveData      byte = 0xD0 // Mask receive data
	CmdUnmaskReceiveData    byte = 0xD1 // Unmask receive data
	CmdAMModStateChange     byte = 0xD2 // AM modulation state change
	CmdMeasureAmplitude     byte = 0xD3 // Measure amplitude
	CmdResetRxGain          byte = 0xD5 // Reset RX gain
	CmdAdjustRegulators     byte = 0xD6 // Adjust regulators
	CmdCalibrateAntenna     byte = 0xD7 // Calibrate antenna
	CmdMeasurePhase         byte = 0xD8 // Measure phase
	CmdClearRSSI            byte = 0xD9 // Clear RSSI
	CmdTransparentMode      byte = 0xDC // Enter transparent mode
	CmdCalibrateCSensor     byte = 0xDD // Calibrate capacitance sensor
	CmdMeasureCapacitance   byte = 0xDE // Measure capacitance
	CmdMeasureVDD           byte = 0xDF // Measure power supply
	CmdStartGPTimer         byte = 0xE0 // Start general purpose timer
	CmdStartWupTimer        byte = 0xE1 // Start wake-up timer
	CmdStartMaskRecvTimer   byte = 0xE2 // Start mask-receive timer
	CmdStartNoResponseTimer byte = 0xE3 // Start no-response timer
)

// cmdMin is the lowest valid direct command byte.
const cmdMin byte = 0xC0

// Mode register (0x03) bits.
const (
	ModeTargEn       byte = 0x80 // Target mode enable
	ModeTarg         byte = 0x40 // Target bit
	ModeOMMask       byte = 0x3C // Operation mode field
	ModeOMNFC        byte = 0x00 // Operation mode: NFCIP-1 (P2P)
	ModeOMISO14443A  byte = 0x04 // Operation mode: ISO14443A
	ModeOMISO14443B  byte = 0x08 // Operation mode: ISO14443B
	ModeOMFeliCa     byte = 0x0C // Operation mode: FeliCa
	ModeOMSubcarrier byte = 0x10 // Operation mode: subcarrier stream (ISO15693)
	ModeNFCIP1NRTx   byte = 0x02 // NFCIP-1 no-response timer emv bit
	ModeTREn         byte = 0x01 // Transmitter enable
)

// Operation control register (0x02) bits.
const (
	OpControlRxEn  byte = 0x80 // Receiver enable
	OpControlRxCRC byte = 0x40 // RX chain gain reduction
	OpControlRxMan byte = 0x20 // RX multiple enable
	OpControlTxCRC byte = 0x10 // Automatic CRC on transmit
	OpControlCRCEn byte = 0x08 // CRC error handling
	OpControlRFAEn byte = 0x04 // RF collision avoidance enable
	OpControlEFDEn byte = 0x02 // External field detector enable
	OpControlEn    byte = 0x01 // Oscillator enable
)

// Main interrupt register (0x36) bits.
const (
	IRQMainOsc byte = 0x80 // Oscillator stable
	IRQMainFwl byte = 0x40 // FIFO water level
	IRQMainRxs byte = 0x20 // Receive start
	IRQMainRxe byte = 0x10 // Receive complete
	IRQMainTxe byte = 0x08 // Transmit complete
	IRQMainCol byte = 0x04 // Bit collision
	IRQMainNre byte = 0x02 // No-response timer expired
	IRQMainEof byte = 0x01 // FIFO overflow / external field drop
)

// Timer and NFC interrupt register (0x37) bits.
const (
	IRQTimerDct  byte = 0x80 // Termination of direct command
	IRQTimerNFCT byte = 0x40 // NFC target activation
	IRQTimerNFCI byte = 0x20 // NFC initiator
	IRQTimerGpt  byte = 0x10 // General purpose timer expired
	IRQTimerMrt  byte = 0x08 // Mask-receive timer expired
	IRQTimerNrt  byte = 0x04 // No-response timer expired
	IRQTimerWut  byte = 0x02 // Wake-up timer expired
	IRQTimerWua  byte = 0x01 // Wake-up amplitude measurement
)

// FIFO geometry.
const (
	// FIFOSize is the chip's internal buffer size in bytes.
	FIFOSize = 96
	// FIFOWaterLevel is the default fill threshold for the water level
	// interrupt.
	FIFOWaterLevel = 64
)

// SPI framing bits. A register read ORs the read direction bit into the
// address byte; a write sends the bare address. Direct commands occupy the
// 0xC0-0xFF byte space and need no direction bit.
const (
	spiCmdRead   byte = 0x40
	spiCmdWrite  byte = 0x00
	spiCmdDirect byte = 0xC0
)

// IC identity register (0x27) fields.
const (
	// ICIdentityValue is the expected type code of the ST25R3911B.
	ICIdentityValue byte = 0x09
	// ICTypeMask selects the type code field of the identity register.
	ICTypeMask byte = 0x1F
	// ICRevMask selects the silicon revision field of the identity register.
	ICRevMask byte = 0xE0
)
