// SPDX-License-Identifier: AGPL-3.0-or-later
// dsdneo-go - software digital-voice decoder for trunked and conventional LMR
// Copyright (C) 2024-2026 The dsdneo-go Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/dsdneo/dsdneo-go>

package capture

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// rtl_tcp command bytes, byte-identical to the upstream rtl_tcp server's
// command set.
const (
	rtlCmdSetFrequency      byte = 0x01
	rtlCmdSetSampleRate     byte = 0x02
	rtlCmdSetGainMode       byte = 0x03
	rtlCmdSetGain           byte = 0x04
	rtlCmdSetFreqCorrection byte = 0x05
	rtlCmdSetIFGain         byte = 0x06
	rtlCmdSetTestMode       byte = 0x07
	rtlCmdSetAGCMode        byte = 0x08
	rtlCmdSetDirectSampling byte = 0x09
	rtlCmdSetOffsetTuning   byte = 0x0a
	rtlCmdSetRTLXtal        byte = 0x0b
	rtlCmdSetTunerXtal      byte = 0x0c
	rtlCmdSetTunerGainByIdx byte = 0x0d
	rtlCmdSetBiasTee        byte = 0x0e
)

// RTLDongleInfo is the 12-byte header rtl_tcp sends immediately after
// accepting a connection: magic "RTL0", tuner type, and tuner gain count.
type RTLDongleInfo struct {
	Magic     [4]byte
	TunerType uint32
	GainCount uint32
}

// RTLTCPSource is a capture.Source speaking the rtl_tcp wire protocol: an
// initial 12-byte dongle-info header, then a continuous stream of 8-bit
// unsigned interleaved I/Q samples, with tuning applied by 5-byte command
// writes (1 command byte + 4-byte big-endian parameter).
type RTLTCPSource struct {
	conn net.Conn
	Info RTLDongleInfo
}

// DialRTLTCP connects to an rtl_tcp server and reads its dongle-info
// header.
func DialRTLTCP(host string, port int) (*RTLTCPSource, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), 5*time.Second)
	if err != nil {
		return nil, err
	}
	var hdr [12]byte
	if _, err := readFull(conn, hdr[:]); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read rtl_tcp dongle info: %w", err)
	}
	info := RTLDongleInfo{
		TunerType: binary.BigEndian.Uint32(hdr[4:8]),
		GainCount: binary.BigEndian.Uint32(hdr[8:12]),
	}
	copy(info.Magic[:], hdr[0:4])
	return &RTLTCPSource{conn: conn, Info: info}, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *RTLTCPSource) sendCommand(cmd byte, param uint32) error {
	var msg [5]byte
	msg[0] = cmd
	binary.BigEndian.PutUint32(msg[1:], param)
	_, err := s.conn.Write(msg[:])
	return err
}

// Retune applies a new center frequency in Hz (command 0x01).
func (s *RTLTCPSource) Retune(hz uint64) error {
	return s.sendCommand(rtlCmdSetFrequency, uint32(hz))
}

// SetSampleRate applies the capture sample rate (command 0x02).
func (s *RTLTCPSource) SetSampleRate(hz uint32) error {
	return s.sendCommand(rtlCmdSetSampleRate, hz)
}

// SetGainMode toggles automatic (false) vs manual (true) gain (command
// 0x03).
func (s *RTLTCPSource) SetGainMode(manual bool) error {
	var v uint32
	if manual {
		v = 1
	}
	return s.sendCommand(rtlCmdSetGainMode, v)
}

// SetGain applies a manual tuner gain in tenths of a dB (command 0x04).
func (s *RTLTCPSource) SetGain(tenthsDB int32) error {
	return s.sendCommand(rtlCmdSetGain, uint32(tenthsDB))
}

// SetFreqCorrection applies a PPM frequency correction (command 0x05).
func (s *RTLTCPSource) SetFreqCorrection(ppm int32) error {
	return s.sendCommand(rtlCmdSetFreqCorrection, uint32(ppm))
}

// SetAGCMode toggles the tuner's hardware AGC (command 0x08).
func (s *RTLTCPSource) SetAGCMode(on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return s.sendCommand(rtlCmdSetAGCMode, v)
}

// SetOffsetTuning toggles offset tuning, used to avoid the DC spike
// without a dedicated fs/4 shift (command 0x0a).
func (s *RTLTCPSource) SetOffsetTuning(on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return s.sendCommand(rtlCmdSetOffsetTuning, v)
}

// SetBiasTee toggles the dongle's bias-tee power output (command 0x0e).
func (s *RTLTCPSource) SetBiasTee(on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return s.sendCommand(rtlCmdSetBiasTee, v)
}

func (s *RTLTCPSource) Read(buf []byte) (int, error) { return s.conn.Read(buf) }

func (s *RTLTCPSource) Close() error { return s.conn.Close() }
