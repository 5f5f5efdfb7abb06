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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bgpblast.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
neighbors:
  - name: r1
    neighbor: 192.0.2.1
    local_address: 192.0.2.2
    local_as: 65001
    router_id: 192.0.2.2
    prefix_start: 198.51.100.0
    prefix_amount: 1000
  - neighbor: 192.0.2.3
    local_as: 4200000000
    router_id: 0.0.0.2
    prefix_amount: 0
`)
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := []NeighborConfig{
		{
			Name:         "r1",
			RemoteAddr:   netip.MustParseAddr("192.0.2.1"),
			LocalAddr:    netip.MustParseAddr("192.0.2.2"),
			LocalAS:      65001,
			RouterID:     0xc0000202,
			PrefixStart:  0xc6336400,
			PrefixAmount: 1000,
		},
		{
			RemoteAddr:   netip.MustParseAddr("192.0.2.3"),
			LocalAS:      4200000000,
			RouterID:     2,
			PrefixAmount: 0,
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateComparable(netip.Addr{})); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissingNeighbor(t *testing.T) {
	path := writeConfig(t, `
neighbors:
  - local_as: 65001
    router_id: 0.0.0.1
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("got success, want error for missing neighbor address")
	}
}

func TestLoadConfigInvalidRouterID(t *testing.T) {
	path := writeConfig(t, `
neighbors:
  - neighbor: 192.0.2.1
    local_as: 65001
    router_id: not-an-address
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("got success, want error for invalid router_id")
	}
}
