package model

import "time"

// ResourceID names a protected record collection.
type ResourceID string

// Sensitivity classifies how a resource's data must be handled.
type Sensitivity string

const (
	SensitivityFERPA         Sensitivity = "FERPA"
	SensitivityFinancial     Sensitivity = "FERPA-Financial"
	SensitivityInstitutional Sensitivity = "Institutional"
	SensitivityRestricted    Sensitivity = "Restricted"
)

// ResourceDescriptor declares a resource's origin, sensitivity, freshness TTL,
// and the roles the institution permits at all. Descriptors are read-only at
// request time.
type ResourceDescriptor struct {
	ID           ResourceID    `json:"resource_id"`
	Origin       string        `json:"origin"`
	Sensitivity  Sensitivity   `json:"sensitivity"`
	TTL          time.Duration `json:"ttl_seconds"`
	AllowedRoles []Role        `json:"allowed_roles"`

	// SelfScoped marks resources whose rows are visible to non-admin
	// requesters only when owned by them. OwnerField names the row key
	// holding the owner identifier.
	SelfScoped bool   `json:"self_scoped,omitempty"`
	OwnerField string `json:"owner_field,omitempty"`

	// Fields enumerates the row keys this resource carries. Used to restrict
	// mask lists to fields that actually exist on authorized resources.
	Fields []string `json:"fields,omitempty"`
}

// ModelDescriptor identifies the downstream language model a request is bound
// for. Carried for audit correlation only; it never influences authorization.
type ModelDescriptor struct {
	ModelID    string `json:"model_id"`
	Provider   string `json:"provider"`
	Compliance string `json:"compliance_classification"`
	RiskLevel  string `json:"risk_level"`
}
