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

package dmr

import "github.com/dsdneo/dsdneo-go/internal/fec"

// DataHeader is the parsed PI/data-header PDU preamble (12 bytes, CRC-16
// protected like a CSBK): group/individual flag, response-requested flag,
// confirmed-delivery flag, the appended block count, and
// the addressing pair.
type DataHeader struct {
	GroupAddressed bool
	ResponseReq    bool
	Confirmed      bool
	Blocks         int
	Source         uint32
	Target         uint32
}

// ParseDataHeader CRC-checks and parses a 12-byte DMR data header.
func ParseDataHeader(bytes [12]byte) (DataHeader, bool) {
	if !fec.CRC16CCITTCheck(bytes[:]) {
		return DataHeader{}, false
	}
	flags := bytes[0]
	payload := bytes[2:10]
	return DataHeader{
		GroupAddressed: flags&0x80 != 0,
		ResponseReq:    flags&0x40 != 0,
		Confirmed:      flags&0x20 != 0,
		Blocks:         int(payload[0]),
		Target:         uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3]),
		Source:         uint32(payload[4])<<16 | uint32(payload[5])<<8 | uint32(payload[6]),
	}, true
}

// DataBlock is one appended rate-1/2 or rate-3/4 data block, tagged with
// its Data Block Serial Number.
type DataBlock struct {
	DBSN    byte
	Payload []byte
	CRCOK   bool
}

// PDUAssembler reassembles a confirmed or unconfirmed DMR data PDU from its
// header and appended blocks, tracking DBSN sequence to detect gaps and
// duplicates.
type PDUAssembler struct {
	Header  DataHeader
	blocks  map[byte][]byte
	wantSeq int
}

// NewPDUAssembler starts reassembly for a parsed header.
func NewPDUAssembler(h DataHeader) *PDUAssembler {
	return &PDUAssembler{Header: h, blocks: make(map[byte][]byte)}
}

// AddBlock records one data block by DBSN, ignoring a duplicate DBSN
// already held.
func (a *PDUAssembler) AddBlock(b DataBlock) {
	if !b.CRCOK {
		return
	}
	if _, dup := a.blocks[b.DBSN]; dup {
		return
	}
	a.blocks[b.DBSN] = b.Payload
}

// Complete reports whether every block 0..Header.Blocks-1 has arrived.
func (a *PDUAssembler) Complete() bool {
	for i := 0; i < a.Header.Blocks; i++ {
		if _, ok := a.blocks[byte(i)]; !ok {
			return false
		}
	}
	return a.Header.Blocks > 0
}

// Assemble concatenates blocks 0..Header.Blocks-1 in DBSN order, reporting
// false if any are still missing.
func (a *PDUAssembler) Assemble() ([]byte, bool) {
	if !a.Complete() {
		return nil, false
	}
	var out []byte
	for i := 0; i < a.Header.Blocks; i++ {
		out = append(out, a.blocks[byte(i)]...)
	}
	return out, true
}

// MissingDBSNs reports which block sequence numbers in 0..Header.Blocks-1
// have not yet arrived, for gap diagnostics.
func (a *PDUAssembler) MissingDBSNs() []byte {
	var missing []byte
	for i := 0; i < a.Header.Blocks; i++ {
		if _, ok := a.blocks[byte(i)]; !ok {
			missing = append(missing, byte(i))
		}
	}
	return missing
}
