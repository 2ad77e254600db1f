// Package session holds the tab-scoped federation session and its stores.
package session

// Session identifies one federation attempt. Exactly one non-terminal
// session exists per protocol instance; a new init may replace it only after
// it reaches a terminal state.
type Session struct {
	ID          string
	Origin      string
	AppName     string
	Attributes  []string
	CallbackURL string
	Username    string
	// Token is the bearer token issued after identity is proven. It lives in
	// memory only and is never mirrored.
	Token    string
	Terminal bool
}

// InitPayload is the deserialized data field of an init envelope. The host
// must name the network it operates on and the capability type it requests
// before a session is created.
type InitPayload struct {
	Network   string `json:"network"`
	API       string `json:"api"`
	RequestID string `json:"requestId,omitempty"`
}
