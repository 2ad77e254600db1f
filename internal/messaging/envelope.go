// Package messaging implements the postMessage-style transport channel
// between the protocol and its host window. Envelopes are the only thing that
// crosses the boundary; everything else is treated as noise.
package messaging

import (
	"encoding/json"
	"fmt"
)

// ChannelID is the fixed constant identifying the protocol on a shared
// message bus. Envelopes carrying any other channel value are dropped.
const ChannelID = "wallet-communication-channel"

// Type enumerates the envelope kinds exchanged with the host.
type Type string

const (
	// TypeInit establishes a session; the first init pins the peer origin.
	TypeInit Type = "init"
	// TypeRegisterComplete reports an out-of-band passkey registration.
	TypeRegisterComplete Type = "register_complete"
	// TypeRegisterCancel reports a dismissed out-of-band registration.
	TypeRegisterCancel Type = "register_cancel"
	// TypeData carries serialized payloads in either direction.
	TypeData Type = "data"
	// TypeError carries a failure result to the host.
	TypeError Type = "error"
	// TypePing is a liveness probe, echoed back without reaching the handler.
	TypePing Type = "ping"
)

// Envelope is the unit exchanged over the channel. The JSON field names are
// part of the wire contract with host pages.
type Envelope struct {
	Channel string `json:"channel"`
	Type    Type   `json:"type"`
	ID      string `json:"id"`
	Data    string `json:"data"`
}

// Parse decodes a raw message into an Envelope. Payloads that are not
// envelopes for this channel return an error; callers treat that as noise.
func Parse(raw string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Channel != ChannelID {
		return Envelope{}, fmt.Errorf("foreign channel %q", env.Channel)
	}
	return env, nil
}

// Encode serializes an envelope for posting.
func Encode(env Envelope) (string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return string(data), nil
}
