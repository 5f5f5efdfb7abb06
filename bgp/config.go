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
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"
)

// NeighborConfig is the immutable per-session configuration described in
// §3 ("Neighbor configuration"). It is populated by an external loader
// (LoadConfig below, or any other caller) and handed to a Peer by value; the
// session engine never mutates it.
type NeighborConfig struct {
	Name         string     `yaml:"name"`
	LocalAddr    netip.Addr `yaml:"local_address"`
	LocalAS      uint32     `yaml:"local_as"`
	RemoteAddr   netip.Addr `yaml:"neighbor"`
	RemotePort   int        `yaml:"neighbor_port"`
	RemoteAS     uint32     `yaml:"remote_as"`
	RouterID     uint32     `yaml:"router_id"`
	PrefixStart  uint32     `yaml:"prefix_start"`
	PrefixAmount uint32     `yaml:"prefix_amount"`
	Hostname     string     `yaml:"hostname"`
	Domainname   string     `yaml:"domainname"`
}

// rawNeighborConfig mirrors NeighborConfig but with string-typed address
// fields, since netip.Addr does not implement yaml.Unmarshaler and this
// speaker otherwise has no use for a custom type just to satisfy the YAML
// decoder.
type rawNeighborConfig struct {
	Name         string `yaml:"name"`
	LocalAddr    string `yaml:"local_address"`
	LocalAS      uint32 `yaml:"local_as"`
	RemoteAddr   string `yaml:"neighbor"`
	RemotePort   int    `yaml:"neighbor_port"`
	RemoteAS     uint32 `yaml:"remote_as"`
	RouterIDStr  string `yaml:"router_id"`
	PrefixStart  string `yaml:"prefix_start"`
	PrefixAmount uint32 `yaml:"prefix_amount"`
	Hostname     string `yaml:"hostname"`
	Domainname   string `yaml:"domainname"`
}

// configFile is the top-level shape of the YAML document: a flat list of
// neighbors, each producing one Peer under the Supervisor.
type configFile struct {
	Neighbors []rawNeighborConfig `yaml:"neighbors"`
}

// LoadConfig reads a YAML neighbor list from path, validates the required
// fields the way tinybgp's Server.AddPeer validates a peer's address, and
// returns one NeighborConfig per entry.
func LoadConfig(path string) ([]NeighborConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfgs := make([]NeighborConfig, 0, len(cf.Neighbors))
	for i, raw := range cf.Neighbors {
		c, err := raw.resolve()
		if err != nil {
			return nil, fmt.Errorf("neighbor[%d]: %w", i, err)
		}
		cfgs = append(cfgs, c)
	}
	return cfgs, nil
}

func (raw rawNeighborConfig) resolve() (NeighborConfig, error) {
	if raw.RemoteAddr == "" {
		return NeighborConfig{}, fmt.Errorf("missing neighbor address")
	}
	remote, err := netip.ParseAddr(raw.RemoteAddr)
	if err != nil {
		return NeighborConfig{}, fmt.Errorf("invalid neighbor address %q: %w", raw.RemoteAddr, err)
	}
	if !remote.Is4() {
		return NeighborConfig{}, fmt.Errorf("neighbor address %q is not IPv4", raw.RemoteAddr)
	}
	if raw.LocalAS == 0 {
		return NeighborConfig{}, fmt.Errorf("missing local_as")
	}
	if raw.RouterIDStr == "" {
		return NeighborConfig{}, fmt.Errorf("missing router_id")
	}
	routerID, err := netip.ParseAddr(raw.RouterIDStr)
	if err != nil || !routerID.Is4() {
		return NeighborConfig{}, fmt.Errorf("invalid router_id %q: must be an IPv4-formatted identifier", raw.RouterIDStr)
	}
	cfg := NeighborConfig{
		Name:         raw.Name,
		LocalAS:      raw.LocalAS,
		RemoteAddr:   remote,
		RemotePort:   raw.RemotePort,
		RemoteAS:     raw.RemoteAS,
		RouterID:     addrToUint32(routerID),
		PrefixAmount: raw.PrefixAmount,
		Hostname:     raw.Hostname,
		Domainname:   raw.Domainname,
	}
	if raw.LocalAddr != "" {
		local, err := netip.ParseAddr(raw.LocalAddr)
		if err != nil || !local.Is4() {
			return NeighborConfig{}, fmt.Errorf("invalid local_address %q", raw.LocalAddr)
		}
		cfg.LocalAddr = local
	}
	if raw.PrefixStart != "" {
		start, err := netip.ParseAddr(raw.PrefixStart)
		if err != nil || !start.Is4() {
			return NeighborConfig{}, fmt.Errorf("invalid prefix_start %q", raw.PrefixStart)
		}
		cfg.PrefixStart = addrToUint32(start)
	}
	return cfg, nil
}

func addrToUint32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
