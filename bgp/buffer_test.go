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

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	var w writer
	w.u8(0x12)
	w.u16(0x3456)
	w.u32(0x789abcde)
	w.bytes([]byte{0xff, 0xee})

	r := newReader(w.buf)
	if v, err := r.u8(); err != nil || v != 0x12 {
		t.Fatalf("u8: got (%#x, %v)", v, err)
	}
	if v, err := r.u16(); err != nil || v != 0x3456 {
		t.Fatalf("u16: got (%#x, %v)", v, err)
	}
	if v, err := r.u32(); err != nil || v != 0x789abcde {
		t.Fatalf("u32: got (%#x, %v)", v, err)
	}
	rest, err := r.take(2)
	if err != nil || rest[0] != 0xff || rest[1] != 0xee {
		t.Fatalf("take: got (% x, %v)", rest, err)
	}
	if r.len() != 0 {
		t.Errorf("got %d bytes remaining, want 0", r.len())
	}
}

func TestReaderShortRead(t *testing.T) {
	r := newReader([]byte{0x01})
	if _, err := r.u16(); err == nil {
		t.Error("got success reading u16 from 1 byte, want error")
	}
}

func TestReaderTakeTooMany(t *testing.T) {
	r := newReader([]byte{0x01, 0x02})
	if _, err := r.take(3); err == nil {
		t.Error("got success taking 3 bytes from 2, want error")
	}
}
