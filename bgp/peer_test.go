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
	"net/netip"
	"testing"
)

func TestOpenCapabilitiesIncludesFQDNOnlyWhenConfigured(t *testing.T) {
	withoutHostname := NewPeer(NeighborConfig{LocalAS: 65001}, nil)
	if got := withoutHostname.openCapabilities(); len(got) != 2 {
		t.Errorf("got %d params without hostname, want 2 (multiprotocol, asn4)", len(got))
	}

	withHostname := NewPeer(NeighborConfig{LocalAS: 65001, Hostname: "r1"}, nil)
	got := withHostname.openCapabilities()
	if len(got) != 3 {
		t.Fatalf("got %d params with hostname, want 3", len(got))
	}
	if got[2].Cap == nil || got[2].Cap.Type != CapFQDN {
		t.Errorf("got last param type %v, want FQDN capability", got[2])
	}
}

func TestUpdateAttrsUsesConfiguredLocalAddrAsNextHop(t *testing.T) {
	p := NewPeer(NeighborConfig{
		LocalAS:   65001,
		LocalAddr: netip.MustParseAddr("192.0.2.2"),
	}, nil)
	attrs := p.updateAttrs()

	wantNH := nextHopAttr(0xc0000202) // 192.0.2.2
	if len(attrs) < len(wantNH) || string(attrs[len(attrs)-len(wantNH):]) != string(wantNH) {
		t.Errorf("got attrs % x, want NEXT_HOP % x at the end", attrs, wantNH)
	}

	msgs, tail, err := Decode(EncodeUpdate(32, 1, attrs))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(tail) != 0 || len(msgs) != 1 {
		t.Fatalf("got %d messages with %d tail bytes, want 1 message and no tail", len(msgs), len(tail))
	}
	want := EncodeUpdate(32, 1, attrs)[headerLen:]
	if string(msgs[0].Body) != string(want) {
		t.Errorf("body round trip mismatch")
	}
}

func TestPeerKeyFallsBackToRemoteWhenLocalUnset(t *testing.T) {
	cfg := NeighborConfig{RemoteAddr: netip.MustParseAddr("192.0.2.1")}
	got := peerKey(cfg)
	want := "invalid IP->192.0.2.1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
