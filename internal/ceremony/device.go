package ceremony

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceName derives a human-readable "model os browser" label from a user
// agent string. Missing pieces are simply omitted; an unparseable agent falls
// back to a generic label.
func DeviceName(agent string) string {
	ua := useragent.New(agent)

	browser, _ := ua.Browser()
	parts := make([]string, 0, 3)
	for _, p := range []string{ua.Model(), ua.OSInfo().Name, browser} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "unknown device"
	}
	return strings.Join(parts, " ")
}
