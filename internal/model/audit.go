package model

import "time"

// TTLState reports whether an authorized resource was served from a fresh or
// cached window. Advisory only; freshness never gates access.
type TTLState string

const (
	TTLRefreshed TTLState = "refreshed"
	TTLCached    TTLState = "cached"
)

// TTLStatus is the per-resource freshness annotation attached to audit entries.
type TTLStatus struct {
	State            TTLState `json:"status"`
	TTLSeconds       int      `json:"ttl_seconds,omitempty"`
	RemainingSeconds int      `json:"remaining_seconds,omitempty"`
}

// AuditLogEntry records one processed request. Append-only: entries are never
// mutated after creation and never contain unredacted sensitive values once
// they pass the sanitizer.
type AuditLogEntry struct {
	Timestamp         time.Time                `json:"timestamp"`
	TraceID           string                   `json:"trace_id"`
	UserID            string                   `json:"user_id"`
	Role              Role                     `json:"role"`
	Clearance         Clearance                `json:"clearance"`
	Session           SessionContext           `json:"session_context"`
	ModelInvoked      string                   `json:"model_invoked"`
	ResourcesAccessed []ResourceID             `json:"resources_accessed"`
	ResourcesDenied   []ResourceID             `json:"resources_denied"`
	FieldsMasked      []string                 `json:"fields_masked"`
	PolicyDecision    PolicyDecision           `json:"policy_decision"`
	Explanation       string                   `json:"explanation"`
	TTLStatus         map[ResourceID]TTLStatus `json:"ttl_status"`
}
