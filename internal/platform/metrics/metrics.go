package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for protocol events. A Metrics value
// is created per registerer so concurrent protocol instances in tests do not
// collide on the default registry.
type Metrics struct {
	SessionsStarted     prometheus.Counter
	CeremoniesCompleted prometheus.Counter
	CeremoniesAborted   prometheus.Counter
	FallbackTokens      prometheus.Counter
	FallbackTimeouts    prometheus.Counter
	ConsentsGranted     prometheus.Counter
	UserCancels         prometheus.Counter
	ProtocolErrors      prometheus.Counter
}

// New creates and registers all protocol counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_sessions_started_total",
			Help: "Total number of federation sessions created from init envelopes",
		}),
		CeremoniesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_ceremonies_completed_total",
			Help: "Total number of credential ceremonies completed successfully",
		}),
		CeremoniesAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_ceremonies_aborted_total",
			Help: "Total number of credential ceremonies dismissed by the user",
		}),
		FallbackTokens: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_fallback_tokens_total",
			Help: "Total number of email fallback sessions resolved with a token",
		}),
		FallbackTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_fallback_timeouts_total",
			Help: "Total number of email fallback sessions that timed out",
		}),
		ConsentsGranted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_consents_granted_total",
			Help: "Total number of consent decisions finalized",
		}),
		UserCancels: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_user_cancels_total",
			Help: "Total number of sessions ended by an explicit user cancel",
		}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedvault_protocol_errors_total",
			Help: "Total number of sessions ended in the error state",
		}),
	}
}

// NewForTest returns metrics backed by a throwaway registry.
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}
