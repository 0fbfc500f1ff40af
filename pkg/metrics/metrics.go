package metrics

import "time"

// Counter and latency names
const (
	BroadcastSubmitted  = "broadcast_submitted"
	ConfirmationOutcome = "confirmation_outcome"
	ConfirmationLatency = "confirmation"
	BundleSubmitted     = "bundle_submitted"
	BundleOutcome       = "bundle_outcome"
	BundleLatency       = "bundle_settlement"
	ProviderError       = "provider_error"
)

// Label keys
const (
	LabelChain   = "chain"
	LabelOutcome = "outcome"
	LabelKind    = "kind"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
