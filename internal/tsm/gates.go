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

package tsm

import "github.com/dsdneo/dsdneo-go/internal/pdu"

// Gate evaluates one policy predicate against a grant, returning whether the
// grant passes and, if not, the reason tag to record in the SM's reason
// ring. Each gate is independently testable.
type Gate func(opts Options, grant pdu.Grant) (bool, string)

// GateGroupEnabled blocks group-call grants when group tuning is disabled.
func GateGroupEnabled(opts Options, grant pdu.Grant) (bool, string) {
	if grant.IsGroup && !opts.TuneGroup {
		return false, "gate-group-disabled"
	}
	return true, ""
}

// GatePrivateEnabled blocks private-call grants when private tuning is
// disabled.
func GatePrivateEnabled(opts Options, grant pdu.Grant) (bool, string) {
	if !grant.IsGroup && !opts.TunePrivate {
		return false, "gate-private-disabled"
	}
	return true, ""
}

// GateEncryptedAllowed blocks grants flagged encrypted when encrypted
// tuning is disabled.
func GateEncryptedAllowed(opts Options, grant pdu.Grant) (bool, string) {
	const encBit = 0x40
	if grant.SvcBits&encBit != 0 && !opts.TuneEncrypted {
		return false, "gate-encrypted-disabled"
	}
	return true, ""
}

// GateTGHold enforces the TG-hold invariant: when opts.TGHold is
// non-zero, only group grants whose target equals it pass; private grants
// are not gated by the hold.
func GateTGHold(opts Options, grant pdu.Grant) (bool, string) {
	if opts.TGHold != 0 && grant.IsGroup && grant.TGOrDst != opts.TGHold {
		return false, "gate-tg-hold"
	}
	return true, ""
}

// GateAllowList blocks group grants whose TG is not present in an allow-list
// when allow-list mode is enabled.
func GateAllowList(opts Options, grant pdu.Grant) (bool, string) {
	if !opts.AllowListMode || !grant.IsGroup {
		return true, ""
	}
	for _, tg := range opts.AllowList {
		if tg == grant.TGOrDst {
			return true, ""
		}
	}
	return false, "gate-allow-list"
}

// defaultGates is the order policy gates are evaluated in for a GRANT event;
// the first gate to fail supplies the reason tag.
var defaultGates = []Gate{
	GateGroupEnabled,
	GatePrivateEnabled,
	GateEncryptedAllowed,
	GateTGHold,
	GateAllowList,
}

// EvaluateGates runs every gate in order, short-circuiting on the first
// failure. Exported so frame-pipeline grant sources (e.g. the P25p1 TDULC
// LCW path, which never transitions through Handle) can apply the same
// policy gates the GRANT event does.
func EvaluateGates(opts Options, grant pdu.Grant) (bool, string) {
	for _, g := range defaultGates {
		if ok, reason := g(opts, grant); !ok {
			return false, reason
		}
	}
	return true, ""
}

func evaluateGates(opts Options, grant pdu.Grant) (bool, string) {
	return EvaluateGates(opts, grant)
}
