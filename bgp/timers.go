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

import "time"

// defaultHoldTime is advertised in OPEN and used until a peer's OPEN
// overwrites it on transition to Established.
const defaultHoldTime = 180 * time.Second

// keepaliveInterval returns the KEEPALIVE cadence for a negotiated hold time:
// floor(hold_time/3) seconds, per §4.5. The division is done in whole
// seconds, not nanoseconds, so a hold time that isn't a multiple of 3 still
// lands on a whole-second cadence rather than a fractional one. A hold time
// of zero or less yields zero (used only in tests).
func keepaliveInterval(holdTime time.Duration) time.Duration {
	if holdTime <= 0 {
		return 0
	}
	return (holdTime / time.Second / 3) * time.Second
}
