package model

import "time"

// PacketVersion is the context control protocol version stamped on packets.
const PacketVersion = "1.0"

// PolicyDecision is the overall outcome of policy evaluation for a request.
type PolicyDecision string

const (
	DecisionDeny         PolicyDecision = "DENY"
	DecisionAllowPartial PolicyDecision = "ALLOW_PARTIAL"
	DecisionAllowFull    PolicyDecision = "ALLOW_FULL"
)

// ContextPacket is the immutable per-request snapshot of an authorization
// decision. Exactly one packet exists per processed request, correlated by
// trace id. Never mutated after construction.
type ContextPacket struct {
	Version             string         `json:"ccp_version"`
	TraceID             string         `json:"trace_id"`
	Identity            IdentityScope  `json:"identity_scope"`
	SelectedModel       ModelDescriptor `json:"selected_model"`
	AuthorizedResources []ResourceID   `json:"authorized_resources"`
	DeniedResources     []ResourceID   `json:"denied_resources"`
	MaskedFields        []string       `json:"masked_fields"`
	PolicyDecision      PolicyDecision `json:"policy_decision"`
	PolicyHash          string         `json:"policy_hash"`
	CreatedAt           time.Time      `json:"created_at"`
}
