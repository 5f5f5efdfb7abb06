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
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Supervisor owns a set of child Peer session engines, one per configured
// neighbor, and restarts a child one-for-one on abnormal exit while leaving
// its siblings running (component C6).
type Supervisor struct {
	logger *slog.Logger

	mu    sync.Mutex
	peers map[string]*Peer
}

// NewSupervisor constructs a Supervisor. logger may be nil, in which case
// slog.Default() is used.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{logger: logger, peers: map[string]*Peer{}}
}

// peerKey identifies a child in the supervision map. Nominally this is the
// local bind address (§4.6), but since a bind address may be left unset and
// shared across neighbors of a single-homed host, the remote address is
// folded in to keep keys unique.
func peerKey(cfg NeighborConfig) string {
	return fmt.Sprintf("%s->%s", cfg.LocalAddr, cfg.RemoteAddr)
}

// Status returns a snapshot of every supervised peer's session state, keyed
// the same way as the internal registry.
func (s *Supervisor) Status() map[string]PeerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]PeerStatus, len(s.peers))
	for k, p := range s.peers {
		out[k] = p.Status()
	}
	return out
}

// Run spawns one Peer per entry in cfgs and blocks until ctx is canceled,
// then stops every peer and waits for their goroutines to exit before
// returning, mirroring tinybgp's Shutdown/peersStopped pattern.
func (s *Supervisor) Run(ctx context.Context, cfgs []NeighborConfig) error {
	s.mu.Lock()
	if len(s.peers) != 0 {
		s.mu.Unlock()
		return fmt.Errorf("bgp: supervisor already running")
	}
	stopping := make(chan struct{})
	var wg sync.WaitGroup
	for _, cfg := range cfgs {
		key := peerKey(cfg)
		p := NewPeer(cfg, s.logger)
		s.peers[key] = p
		wg.Add(1)
		go s.supervise(key, p, stopping, &wg)
	}
	s.mu.Unlock()

	<-ctx.Done()
	close(stopping)
	// Each child's own supervise goroutine observes stopping and stops its
	// current peer (see below); we only need to wait for all of them here.
	wg.Wait()
	return nil
}

// supervise runs one child's lifetime: it launches p.run() in its own
// goroutine so that a panic can be recovered here rather than taking down
// the whole process, then restarts the child with fresh session state
// (preserving only its NeighborConfig, per §4.5) whenever it exits for a
// reason other than the supervisor asking it to stop.
func (s *Supervisor) supervise(key string, p *Peer, stopping <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		done := make(chan struct{})
		go func(p *Peer) {
			defer close(done)
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("peer crashed", "peer", key, "panic", r)
				}
			}()
			p.run()
		}(p)

		select {
		case <-done:
			select {
			case <-stopping:
				return
			default:
				s.logger.Warn("peer exited, restarting", "peer", key)
				fresh := NewPeer(p.cfg, s.logger)
				s.mu.Lock()
				s.peers[key] = fresh
				s.mu.Unlock()
				p = fresh
			}
		case <-stopping:
			p.stop()
			<-done
			return
		}
	}
}
