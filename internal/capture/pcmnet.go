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
	"fmt"
	"net"
	"time"
)

// UDPPCMSource reads 16-bit signed little-endian PCM datagrams, the
// input-side twin of the UDP PCM16LE audio sink.
type UDPPCMSource struct {
	conn *net.UDPConn
}

// DialUDPPCM listens on hostPort for incoming PCM16LE datagrams.
func DialUDPPCM(host string, port int) (*UDPPCMSource, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &UDPPCMSource{conn: conn}, nil
}

func (s *UDPPCMSource) Read(buf []byte) (int, error) {
	n, _, err := s.conn.ReadFromUDP(buf)
	return n, err
}

// Retune is a no-op: a PCM network source carries no RF.
func (s *UDPPCMSource) Retune(uint64) error { return nil }

func (s *UDPPCMSource) Close() error { return s.conn.Close() }

// TCPPCMSource reads 16-bit signed little-endian PCM over a TCP stream.
type TCPPCMSource struct {
	conn net.Conn
}

// DialTCPPCM connects to a PCM16LE TCP source.
func DialTCPPCM(host string, port int) (*TCPPCMSource, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &TCPPCMSource{conn: conn}, nil
}

func (s *TCPPCMSource) Read(buf []byte) (int, error) { return s.conn.Read(buf) }

// Retune is a no-op: a PCM network source carries no RF.
func (s *TCPPCMSource) Retune(uint64) error { return nil }

func (s *TCPPCMSource) Close() error { return s.conn.Close() }
