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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// asTrans is the AS number advertised in the 16-bit OPEN field when the
// local AS does not fit in 16 bits; the real value travels in the 4-octet AS
// capability instead.
const asTrans = 23456

// fsmState names the two modeled states of the session; Idle/Connect/
// Active/OpenConfirm collapse into the pre-connect retry loop in run.
type fsmState string

const (
	stateOpenSent    fsmState = "OpenSent"
	stateEstablished fsmState = "Established"
)

// PeerStatus is a point-in-time snapshot of a Peer's session, safe to read
// concurrently with the peer's own goroutine.
type PeerStatus struct {
	State          string
	Attempts       int64
	Established    bool
	EstablishCount int64
	UpdatesSent    int64
	LastError      string
}

// Peer is the per-neighbor session engine (component C5): one actor,
// running in its own goroutine, that dials the neighbor, performs the OPEN
// handshake, maintains the keepalive clock, and paces out UPDATEs.
type Peer struct {
	cfg    NeighborConfig
	logger *slog.Logger

	stopC chan struct{}
	doneC chan struct{}

	mu     sync.Mutex
	status PeerStatus
}

// NewPeer constructs a Peer for cfg. The peer does nothing until run is
// called, normally by a Supervisor.
func NewPeer(cfg NeighborConfig, logger *slog.Logger) *Peer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Peer{
		cfg:    cfg,
		logger: logger.With("peer", cfg.RemoteAddr.String()),
		stopC:  make(chan struct{}),
		doneC:  make(chan struct{}),
	}
}

// Status returns a snapshot of the peer's current session state.
func (p *Peer) Status() PeerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Peer) setState(s fsmState) {
	p.mu.Lock()
	p.status.State = string(s)
	p.status.Established = s == stateEstablished
	p.mu.Unlock()
}

func (p *Peer) setError(err error) {
	p.mu.Lock()
	if err != nil {
		p.status.LastError = err.Error()
	}
	p.mu.Unlock()
}

// stop requests that the peer's run loop exit and waits for it to do so.
func (p *Peer) stop() {
	close(p.stopC)
	<-p.doneC
}

// run is the actor loop. It never returns except when stopC is closed; any
// other exit path (a panic) is expected to be recovered and restarted by the
// owning Supervisor, per the C6 one-for-one restart policy.
func (p *Peer) run() {
	defer close(p.doneC)
	for {
		select {
		case <-p.stopC:
			return
		default:
		}
		conn, err := p.connect()
		if err != nil {
			p.setError(err)
			p.logger.Warn("connect failed, retrying", "error", err)
			select {
			case <-p.stopC:
				return
			case <-time.After(0):
				// Tight retry, no backoff in baseline (§4.5).
			}
			continue
		}
		p.mu.Lock()
		p.status.Attempts++
		p.mu.Unlock()
		p.setState(stateOpenSent)
		if err := p.session(conn); err != nil {
			p.setError(err)
			p.logger.Warn("session ended", "error", err)
		}
		conn.Close()
		select {
		case <-p.stopC:
			return
		default:
		}
	}
}

func (p *Peer) connect() (net.Conn, error) {
	port := p.cfg.RemotePort
	if port == 0 {
		port = 179
	}
	d := net.Dialer{}
	if p.cfg.LocalAddr.IsValid() {
		d.LocalAddr = &net.TCPAddr{IP: net.IP(p.cfg.LocalAddr.AsSlice())}
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.RemoteAddr, port)
	return d.Dial("tcp", addr)
}

// openCapabilities builds this speaker's OPEN capability list: multiprotocol
// IPv4 unicast and 4-octet AS are always advertised; FQDN is advertised only
// when configured (see SPEC_FULL.md, supplemented features).
func (p *Peer) openCapabilities() []Parameter {
	caps := []Capability{
		CapMultiProtocolValue(1, 1), // AFI=1 (IPv4), SAFI=1 (unicast)
		CapFourOctetASNValue(p.cfg.LocalAS),
	}
	if p.cfg.Hostname != "" {
		caps = append(caps, CapFQDNValue(p.cfg.Hostname, p.cfg.Domainname))
	}
	params := make([]Parameter, 0, len(caps))
	for _, c := range caps {
		params = append(params, CapabilityParam(c))
	}
	return params
}

func (p *Peer) sendOpen(conn net.Conn) error {
	myAS := uint16(p.cfg.LocalAS)
	if p.cfg.LocalAS > 0xffff {
		myAS = asTrans
	}
	o := OpenMessage{
		MyAS:     myAS,
		HoldTime: uint16(defaultHoldTime / time.Second),
		RouterID: p.cfg.RouterID,
		Params:   p.openCapabilities(),
	}
	_, err := conn.Write(EncodeOpen(o))
	return err
}

// session runs one TCP connection's worth of the FSM: it blocks in the
// OpenSent state until the peer's OPEN arrives, then drives the Established
// event loop (keepalive ticks and UPDATE pacing) until the connection fails
// or the peer is stopped.
func (p *Peer) session(conn net.Conn) error {
	if err := p.sendOpen(conn); err != nil {
		return fmt.Errorf("send open: %w", err)
	}

	readC := make(chan []byte, 4)
	readErrC := make(chan error, 1)
	readerDone := make(chan struct{})
	go readLoop(conn, readC, readErrC, readerDone)
	defer close(readerDone)

	var (
		tail         []byte
		holdTime     time.Duration = defaultHoldTime
		established  bool
		cursor       uint32
		keepaliveC   <-chan time.Time
		keepaliveTmr *time.Timer
	)
	sendRouteC := make(chan struct{}, 1)

	postSendRoute := func() {
		select {
		case sendRouteC <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-p.stopC:
			return nil

		case err := <-readErrC:
			return fmt.Errorf("socket: %w", err)

		case b := <-readC:
			tail = append(tail, b...)
			var msgs []Message
			var decErr error
			msgs, tail, decErr = Decode(tail)
			for _, m := range msgs {
				switch {
				case m.Type == MsgOpen && !established:
					established = true
					if m.Open.HoldTime > 0 {
						holdTime = time.Duration(m.Open.HoldTime) * time.Second
					}
					p.setState(stateEstablished)
					p.mu.Lock()
					p.status.EstablishCount++
					p.mu.Unlock()
					if _, err := conn.Write(EncodeKeepalive()); err != nil {
						return fmt.Errorf("send keepalive: %w", err)
					}
					if keepaliveTmr != nil {
						keepaliveTmr.Stop()
					}
					keepaliveTmr = time.NewTimer(keepaliveInterval(holdTime))
					keepaliveC = keepaliveTmr.C
					// Per §5, the first post-OPEN message on the wire must be the
					// KEEPALIVE just sent above; send_route is only posted after it.
					postSendRoute()
				default:
					// OpenSent: ignore non-OPEN (no NOTIFICATION in baseline).
					// Established: no inbound processing (§4.5).
				}
			}
			if decErr != nil {
				var ne *NotificationError
				if errors.As(decErr, &ne) {
					conn.Write(ne.Encode()) // best-effort; session continues
				}
			}

		case <-keepaliveC:
			if _, err := conn.Write(EncodeKeepalive()); err != nil {
				return fmt.Errorf("send keepalive: %w", err)
			}
			keepaliveTmr.Reset(keepaliveInterval(holdTime))

		case <-sendRouteC:
			if !established || cursor >= p.cfg.PrefixAmount {
				continue
			}
			for cursor < p.cfg.PrefixAmount {
				prefix := p.cfg.PrefixStart + cursor
				attrs := p.updateAttrs()
				if _, err := conn.Write(EncodeUpdate(32, prefix, attrs)); err != nil {
					// Partial/failed send: yield by re-posting send_route (§4.5).
					postSendRoute()
					break
				}
				cursor++
				p.mu.Lock()
				p.status.UpdatesSent++
				p.mu.Unlock()
			}
		}
	}
}

// updateAttrs builds the mandatory path attributes for every UPDATE this
// speaker emits: ORIGIN incomplete, a single-hop AS_PATH of the local AS, and
// NEXT_HOP set to the configured bind address (0.0.0.0 when none is
// configured). The local address of the TCP connection is not consulted.
func (p *Peer) updateAttrs() []byte {
	var nh uint32
	if p.cfg.LocalAddr.Is4() {
		b := p.cfg.LocalAddr.As4()
		nh = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	var attrs []byte
	attrs = append(attrs, originAttr(OriginIncomplete)...)
	attrs = append(attrs, asPathAttr(ASPathSequence, []uint32{p.cfg.LocalAS})...)
	attrs = append(attrs, nextHopAttr(nh)...)
	return attrs
}

// readLoop forwards raw socket reads to the owning actor, which alone owns
// framing/tail state (§4.5). It exits on any read error or when done is
// closed by the actor on session teardown.
func readLoop(conn net.Conn, outC chan<- []byte, errC chan<- error, done <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			b := make([]byte, n)
			copy(b, buf[:n])
			select {
			case outC <- b:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case errC <- err:
			case <-done:
			}
			return
		}
	}
}
