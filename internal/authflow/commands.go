package authflow

import (
	"context"
	"encoding/json"

	"github.com/asaskevich/govalidator"
)

// hostCommand is the payload of a data envelope sent by the host: the user's
// inputs relayed into the flow.
type hostCommand struct {
	Op       string `json:"op"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Code     string `json:"code,omitempty"`
}

// runCommand dispatches one host command. Unknown or malformed commands are
// dropped like any other transport noise.
func (m *Machine) runCommand(ctx context.Context, data string) {
	var cmd hostCommand
	if err := json.Unmarshal([]byte(data), &cmd); err != nil {
		m.deps.Log.Debug("dropping malformed host command")
		return
	}

	switch cmd.Op {
	case "login":
		m.Login(ctx, cmd.Username)
	case "register":
		m.RegisterPasskey(ctx)
	case "consent":
		m.Grant(ctx)
	case "phone_init":
		m.SubmitPhone(ctx, cmd.Phone)
	case "phone_complete":
		m.ConfirmPhone(ctx, cmd.Name, cmd.Phone, cmd.Code)
	case "cancel":
		m.Cancel(ctx)
	default:
		m.deps.Log.Debug("ignoring unknown host command", "op", cmd.Op)
	}
}

// parseHostedToken extracts the token a host attaches to register_complete
// when it ran the ceremony in its own window. An empty or non-JSON payload
// simply carries no token.
func parseHostedToken(data string) string {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return ""
	}
	return payload.Token
}

// validVerificationCode accepts the 6-digit codes the vault issues.
func validVerificationCode(code string) bool {
	return len(code) == 6 && govalidator.IsNumeric(code)
}
