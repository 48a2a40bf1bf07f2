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

// Package dsp implements the capture-to-symbol front-end pipeline: byte
// widening, DC blocking, FM AGC, half-band decimation, FLL,
// rational resampling, discriminator/slicer/CQPSK, Gardner timing recovery,
// C4FM clock assist, and multi-SPS sync hunt.
package dsp

// WidenU8IQ converts interleaved unsigned 8-bit I/Q samples (the RTL-SDR
// wire format) into centered complex64 samples, optionally fused with a
// +fs/4 shift for hardware that offers no tuner offset: rotating by fs/4
// is a fixed four-point cycle (1, j, -1, -j) and costs no trig call.
func WidenU8IQ(raw []byte, fs4Shift bool, phase int) (out []complex64, nextPhase int) {
	n := len(raw) / 2
	out = make([]complex64, n)
	for i := 0; i < n; i++ {
		re := (float32(raw[2*i]) - 127.5) / 127.5
		im := (float32(raw[2*i+1]) - 127.5) / 127.5
		c := complex(re, im)
		if fs4Shift {
			switch phase & 0x3 {
			case 0:
				// c unchanged
			case 1:
				c = complex(-imag(c), real(c))
			case 2:
				c = -c
			case 3:
				c = complex(imag(c), -real(c))
			}
			phase++
		}
		out[i] = c
	}
	return out, phase & 0x3
}

// WidenS16IQ converts interleaved signed 16-bit I/Q samples (a common
// TCP/UDP PCM capture format) into complex64, with the same optional
// fs/4 shift as WidenU8IQ.
func WidenS16IQ(raw []int16, fs4Shift bool, phase int) (out []complex64, nextPhase int) {
	n := len(raw) / 2
	out = make([]complex64, n)
	for i := 0; i < n; i++ {
		re := float32(raw[2*i]) / 32768.0
		im := float32(raw[2*i+1]) / 32768.0
		c := complex(re, im)
		if fs4Shift {
			switch phase & 0x3 {
			case 0:
			case 1:
				c = complex(-imag(c), real(c))
			case 2:
				c = -c
			case 3:
				c = complex(imag(c), -real(c))
			}
			phase++
		}
		out[i] = c
	}
	return out, phase & 0x3
}
