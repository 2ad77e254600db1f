package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"fedvault/internal/messaging"
)

// EmbeddedDelivery hands the grant back over the message channel; the
// relying party embedding the flow receives it as a data envelope.
type EmbeddedDelivery struct {
	channel *messaging.Channel
}

func NewEmbeddedDelivery(ch *messaging.Channel) *EmbeddedDelivery {
	return &EmbeddedDelivery{channel: ch}
}

func (d *EmbeddedDelivery) Deliver(_ context.Context, grant Grant) error {
	raw, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("encode grant: %w", err)
	}
	return d.channel.SendData(string(raw))
}

func (d *EmbeddedDelivery) Fail(_ context.Context, _, description string) error {
	return d.channel.SendError(description)
}

// Navigator performs the browser-level redirect for OIDC-style flows.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// RedirectDelivery completes an authorization-code flow by navigating to the
// relying party callback with the result in the URL fragment. Fragments keep
// the code out of server logs on the far side.
type RedirectDelivery struct {
	callback  string
	navigator Navigator
}

func NewRedirectDelivery(callback string, navigator Navigator) *RedirectDelivery {
	return &RedirectDelivery{callback: callback, navigator: navigator}
}

func (d *RedirectDelivery) Deliver(ctx context.Context, grant Grant) error {
	if grant.OIDC == nil {
		return fmt.Errorf("redirect delivery needs an authorization code")
	}
	target := d.callback
	if grant.OIDC.RedirectURI != "" {
		target = grant.OIDC.RedirectURI
	}

	frag := url.Values{}
	frag.Set("code", grant.OIDC.Code)
	frag.Set("state", grant.OIDC.State)
	return d.navigator.Navigate(ctx, target+"#"+frag.Encode())
}

func (d *RedirectDelivery) Fail(ctx context.Context, code, description string) error {
	frag := url.Values{}
	frag.Set("error", code)
	frag.Set("error_description", description)
	return d.navigator.Navigate(ctx, d.callback+"#"+frag.Encode())
}
