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

import (
	"github.com/dsdneo/dsdneo-go/internal/dmrconst"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
)

// Slot holds the per-timeslot decode state a burst-level caller drives:
// CSBK reassembly is stateless per-burst, but the embedded-LC fragment
// window and the appended-PDU assembler both span multiple bursts.
type Slot struct {
	LC  LCFragmentAssembler
	PDU *PDUAssembler
}

// Pipeline is the DMR Tier II/III decode entry point: it owns the two
// slots' fragment/PDU state, the site's LCN table, and the trunking
// policy, and turns decoded CSBKs/data headers into state.Decoder
// counters and tsm events, mirroring internal/p25p1's DecodeTSBK/
// HandleGroupVoiceUpdate split.
type Pipeline struct {
	LCNs  LCNTable
	Opts  tsm.Options
	slots [2]Slot
}

// NewPipeline constructs a Pipeline over an (initially empty) LCN table.
func NewPipeline(opts tsm.Options) *Pipeline {
	return &Pipeline{LCNs: make(LCNTable), Opts: opts}
}

// HandleCSBKBurst decodes a 12-byte CSBK burst, records the CRC outcome in
// counters (reusing the P1 TSBK counter slot: both are short
// control-signaling bursts whose CRC success rate matters for the same
// "control channel is readable" diagnostic), and raises a grant event into
// the TSM when the burst is a voice channel grant this site's policy
// allows.
func (p *Pipeline) HandleCSBKBurst(bytes [12]byte, counters *state.Counters) (pdu.SmEvent, bool) {
	csbk, ok := DecodeCSBK(bytes)
	counters.P1TSBKHeader.RecordHard(ok)
	if !ok {
		return pdu.SmEvent{}, false
	}
	return HandleCSBK(csbk, p.Opts, p.LCNs)
}

// HandleDataHeaderBurst decodes a 12-byte data-header burst and starts (or
// restarts) PDU reassembly for slot.
func (p *Pipeline) HandleDataHeaderBurst(slot int, bytes [12]byte) (DataHeader, bool) {
	h, ok := ParseDataHeader(bytes)
	if !ok {
		return DataHeader{}, false
	}
	p.slots[slot].PDU = NewPDUAssembler(h)
	return h, true
}

// HandleDataBlock feeds one appended data block into slot's in-progress
// PDU assembler, returning the reassembled payload once complete.
func (p *Pipeline) HandleDataBlock(slot int, block DataBlock) ([]byte, bool) {
	asm := p.slots[slot].PDU
	if asm == nil {
		return nil, false
	}
	asm.AddBlock(block)
	out, complete := asm.Assemble()
	if complete {
		p.slots[slot].PDU = nil
	}
	return out, complete
}

// HandleEmbeddedLC feeds one voice-frame's EMB+fragment pair into slot's
// late-entry-aware LC fragment assembler.
func (p *Pipeline) HandleEmbeddedLC(slot int, emb dmrconst.EMB, fragment [4]byte) (lc [16]byte, ok bool) {
	p.slots[slot].LC.Add(emb.LCSS, fragment)
	return p.slots[slot].LC.Assemble()
}
