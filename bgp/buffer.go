// Copyright 2023 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bgp

import (
	"encoding/binary"
	"fmt"
)

// writer accumulates the octets of a single outgoing BGP message. The zero
// value is ready to use.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *writer) bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// reader consumes octets from an incoming BGP message body in order. Reads
// past the end of the underlying slice return an error rather than panicking,
// since the input is attacker-controlled network data.
type reader struct {
	buf []byte
}

func newReader(b []byte) *reader {
	return &reader{buf: b}
}

func (r *reader) len() int {
	return len(r.buf)
}

func (r *reader) u8() (uint8, error) {
	if len(r.buf) < 1 {
		return 0, fmt.Errorf("bgp: short read: want 1 byte, have %d", len(r.buf))
	}
	v := r.buf[0]
	r.buf = r.buf[1:]
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if len(r.buf) < 2 {
		return 0, fmt.Errorf("bgp: short read: want 2 bytes, have %d", len(r.buf))
	}
	v := binary.BigEndian.Uint16(r.buf[:2])
	r.buf = r.buf[2:]
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if len(r.buf) < 4 {
		return 0, fmt.Errorf("bgp: short read: want 4 bytes, have %d", len(r.buf))
	}
	v := binary.BigEndian.Uint32(r.buf[:4])
	r.buf = r.buf[4:]
	return v, nil
}

// take returns the next n octets and advances past them.
func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.buf) < n {
		return nil, fmt.Errorf("bgp: short read: want %d bytes, have %d", n, len(r.buf))
	}
	v := r.buf[:n]
	r.buf = r.buf[n:]
	return v, nil
}

// rest returns and consumes all remaining octets.
func (r *reader) rest() []byte {
	v := r.buf
	r.buf = nil
	return v
}
