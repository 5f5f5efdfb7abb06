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

// Path attribute flag bits, RFC 4271 §4.3. Despite the age of this protocol,
// implementations still regularly get these backwards by shifting instead of
// masking; keep them as plain constants to avoid that mistake.
const (
	flagOptional   = 0x80
	flagTransitive = 0x40
	flagPartial    = 0x20
	flagExtended   = 0x10
)

// Path attribute type codes used by this speaker.
const (
	AttrOrigin  = 1
	AttrASPath  = 2
	AttrNextHop = 3
)

// AS_PATH segment types.
const (
	ASPathSet      = 1
	ASPathSequence = 2
)

// ORIGIN codes.
const (
	OriginIGP        = 0
	OriginEGP        = 1
	OriginIncomplete = 2
)

// pathAttribute encodes flags:u8 · type:u8 · length · value, where length is
// a single octet unless flagExtended is set, in which case it is two.
func pathAttribute(flags, typ uint8, value []byte) []byte {
	var w writer
	w.u8(flags)
	w.u8(typ)
	if flags&flagExtended != 0 {
		w.u16(uint16(len(value)))
	} else {
		w.u8(uint8(len(value)))
	}
	w.bytes(value)
	return w.buf
}

// originAttr builds the ORIGIN attribute (type 1): code is one of
// OriginIGP/OriginEGP/OriginIncomplete.
func originAttr(code uint8) []byte {
	return pathAttribute(flagTransitive, AttrOrigin, []byte{code})
}

// asPathAttr builds the AS_PATH attribute (type 2) carrying a single segment
// of 4-octet AS numbers, the only AS_PATH shape this speaker ever emits (see
// §4.3: "only AS_PATH as 4-octet ASN is emitted").
func asPathAttr(segmentType uint8, asList []uint32) []byte {
	var w writer
	w.u8(segmentType)
	w.u8(uint8(len(asList)))
	for _, as := range asList {
		w.u32(as)
	}
	return pathAttribute(flagTransitive, AttrASPath, w.buf)
}

// nextHopAttr builds the NEXT_HOP attribute (type 3) for an IPv4 address
// encoded as a big-endian 32-bit integer.
func nextHopAttr(addr uint32) []byte {
	var w writer
	w.u32(addr)
	return pathAttribute(flagTransitive, AttrNextHop, w.buf)
}
