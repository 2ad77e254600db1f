// Package authflow is the orchestrator: it owns the page state, drives the
// channel, ceremony, fallback and consent components, and decides which view
// is active. One Machine serves one protocol instance; nothing here is
// process-wide.
package authflow

// Page is the orchestrator's state. Exactly one page is active at a time and
// only the Machine mutates it.
type Page int

const (
	PageNone Page = iota
	PageError
	PageLogin
	PageFidoReg
	PageConsent
	PagePhonePass
	PageFinal
)

var pageNames = map[Page]string{
	PageNone:      "none",
	PageError:     "error",
	PageLogin:     "login",
	PageFidoReg:   "fido_reg",
	PageConsent:   "consent",
	PagePhonePass: "phone_pass",
	PageFinal:     "final",
}

func (p Page) String() string {
	if name, ok := pageNames[p]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the page ends the session. A new init is only
// honored once the machine sits on a terminal page.
func (p Page) Terminal() bool {
	return p == PageFinal || p == PageError
}
