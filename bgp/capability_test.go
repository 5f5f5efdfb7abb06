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
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestCapabilityEncodeDecode(t *testing.T) {
	for _, tc := range []struct {
		Name string
		Cap  Capability
	}{
		{Name: "multiprotocol", Cap: CapMultiProtocolValue(1, 1)},
		{Name: "route refresh", Cap: CapRouteRefreshValue()},
		{Name: "cisco route refresh", Cap: CapCiscoRefreshValue()},
		{Name: "4-octet AS", Cap: CapFourOctetASNValue(4200000000)},
		{Name: "add-path", Cap: CapAddPathValue(1, 1, 3)},
		{Name: "FQDN", Cap: CapFQDNValue("router1", "example.com")},
		{Name: "graceful restart", Cap: CapGracefulRestartValue(true, 120)},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			encoded := tc.Cap.encode()
			// encoded is a full type-2 Parameter: 0x02 · len · type · len · value.
			if encoded[0] != paramTypeCapability {
				t.Fatalf("got outer parameter type %d, want %d", encoded[0], paramTypeCapability)
			}
			inner := encoded[2:]
			got, err := decodeCapability(inner)
			if err != nil {
				t.Fatalf("decodeCapability: %v", err)
			}
			if diff := cmp.Diff(tc.Cap, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCapabilityDecodeTruncated(t *testing.T) {
	// Declares a 10-byte value but supplies none.
	_, err := decodeCapability([]byte{65, 10})
	if err == nil {
		t.Fatal("got success, want error")
	}
}

func TestMultiProtocolWireBytes(t *testing.T) {
	got := CapMultiProtocolValue(1, 1).Value
	want := []byte{0x00, 0x01, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}
