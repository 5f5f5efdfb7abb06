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

// NOTIFICATION error codes and subcodes used by this speaker's decoder.
const (
	ErrMessageHeader              = 1
	ErrMessageHeaderBadLength     = 2
	ErrMessageHeaderBadType       = 3
	ErrOpenMessage                = 2
	ErrOpenMessageUnsupportedOpt  = 4
)

// NotificationError is returned by decoders for failures that the BGP
// protocol defines a NOTIFICATION response for. The caller is expected to use
// errors.As to detect it and transmit the NOTIFICATION, per the error
// taxonomy: framing and OPEN body errors are reported to the peer but do not
// themselves tear down the session.
type NotificationError struct {
	Code, Subcode uint8
	Data          []byte
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("bgp: notification %d/%d", e.Code, e.Subcode)
}

// Encode renders the NOTIFICATION as a complete wire message, ready to write
// to the peer's socket.
func (e *NotificationError) Encode() []byte {
	return EncodeNotification(e.Code, e.Subcode, e.Data)
}
