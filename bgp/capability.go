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

import "fmt"

// Capability types, per RFC 5492 and its extensions.
const (
	CapMultiProtocol  = 1
	CapRouteRefresh   = 2
	CapGracefulReset  = 64
	CapFourOctetASN   = 65
	CapAddPath        = 69
	CapFQDN           = 73
	CapCiscoRefresh   = 128
	paramTypeCapability = 2
)

// Capability is an optional BGP feature advertised in an OPEN Parameter of
// type 2.
type Capability struct {
	Type  uint8
	Value []byte
}

// encode wraps the capability in its Parameter type-2 TLV, per RFC 5492:
// 0x02 · len(cap_data) · cap.type · len(cap.value) · cap.value.
func (c Capability) encode() []byte {
	var w writer
	w.u8(c.Type)
	w.u8(uint8(len(c.Value)))
	w.bytes(c.Value)
	inner := w.buf

	var p writer
	p.u8(paramTypeCapability)
	p.u8(uint8(len(inner)))
	p.bytes(inner)
	return p.buf
}

// decodeCapability parses the value of a type-2 Parameter as a single
// capability. It is permissive about trailing bytes beyond a single
// capability TLV; callers that need multiple capabilities packed into one
// parameter should call this repeatedly against the remainder.
func decodeCapability(b []byte) (Capability, error) {
	r := newReader(b)
	typ, err := r.u8()
	if err != nil {
		return Capability{}, fmt.Errorf("capability type: %w", err)
	}
	length, err := r.u8()
	if err != nil {
		return Capability{}, fmt.Errorf("capability length: %w", err)
	}
	value, err := r.take(int(length))
	if err != nil {
		return Capability{}, fmt.Errorf("capability value: %w", err)
	}
	return Capability{Type: typ, Value: value}, nil
}

// CapMultiProtocolValue builds the type-1 multiprotocol extension capability:
// AFI:u16 · reserved:u8 · SAFI:u8.
func CapMultiProtocolValue(afi uint16, safi uint8) Capability {
	var w writer
	w.u16(afi)
	w.u8(0)
	w.u8(safi)
	return Capability{Type: CapMultiProtocol, Value: w.buf}
}

// CapRouteRefreshValue builds the type-2 route-refresh capability, which
// carries no value.
func CapRouteRefreshValue() Capability {
	return Capability{Type: CapRouteRefresh, Value: nil}
}

// CapCiscoRefreshValue builds the type-128 Cisco-private route-refresh
// capability, also empty, predating RFC 2918's assignment of type 2.
func CapCiscoRefreshValue() Capability {
	return Capability{Type: CapCiscoRefresh, Value: nil}
}

// CapFourOctetASNValue builds the type-65 4-octet AS number capability.
func CapFourOctetASNValue(asn uint32) Capability {
	var w writer
	w.u32(asn)
	return Capability{Type: CapFourOctetASN, Value: w.buf}
}

// CapAddPathValue builds the type-69 ADD-PATH capability: AFI:u16 · SAFI:u8 ·
// send_receive:u8.
func CapAddPathValue(afi uint16, safi, sendReceive uint8) Capability {
	var w writer
	w.u16(afi)
	w.u8(safi)
	w.u8(sendReceive)
	return Capability{Type: CapAddPath, Value: w.buf}
}

// CapFQDNValue builds the type-73 FQDN capability: hostname_len:u8 ·
// hostname · domain_len:u8 · domain.
func CapFQDNValue(hostname, domain string) Capability {
	var w writer
	w.u8(uint8(len(hostname)))
	w.bytes([]byte(hostname))
	w.u8(uint8(len(domain)))
	w.bytes([]byte(domain))
	return Capability{Type: CapFQDN, Value: w.buf}
}

// CapGracefulRestartValue builds the type-64 graceful-restart capability:
// restart_flag:1 · reserved:3 · timer:12, packed into a 16-bit field.
func CapGracefulRestartValue(restarting bool, timerSeconds uint16) Capability {
	v := timerSeconds & 0x0fff
	if restarting {
		v |= 0x8000
	}
	var w writer
	w.u16(v)
	return Capability{Type: CapGracefulReset, Value: w.buf}
}
