package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of requester roles. Anything outside this set is
// treated as unauthorized (fail closed).
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole maps a free-form role string onto the closed enumeration.
// Unrecognized values return false; callers must deny on that branch.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return Role(s), true
	default:
		return "", false
	}
}

// Clearance is the access label derived from a role.
type Clearance string

const (
	ClearanceFull         Clearance = "Full-Access"
	ClearanceDepartment   Clearance = "Department-Scoped"
	ClearanceSelf         Clearance = "Self-Scoped"
	ClearanceUnauthorized Clearance = "Unauthorized"
)

// ClearanceFor returns the clearance label for a role.
func ClearanceFor(r Role) Clearance {
	switch r {
	case RoleAdmin:
		return ClearanceFull
	case RoleTeacher:
		return ClearanceDepartment
	case RoleStudent:
		return ClearanceSelf
	default:
		return ClearanceUnauthorized
	}
}

// SessionContext carries per-session traceability metadata.
type SessionContext struct {
	SessionID        string    `json:"session_id"`
	IPAddress        string    `json:"ip_address"`
	RequestTimestamp time.Time `json:"request_timestamp"`
	UserAgent        string    `json:"user_agent"`
}

// IdentityScope identifies the authenticated requester. It is produced by the
// external authentication layer and immutable for the lifetime of a request.
type IdentityScope struct {
	UserID    string         `json:"user_id"`
	Role      Role           `json:"role"`
	Clearance Clearance      `json:"clearance"`
	Session   SessionContext `json:"session_context"`
}

// NewIdentityScope builds an IdentityScope with a derived clearance label and
// populated session defaults. The role string is kept verbatim even when
// unrecognized so the audit trail records what was presented; the policy
// engine independently fails closed on it.
func NewIdentityScope(userID, role string, sess SessionContext) IdentityScope {
	r, _ := ParseRole(role)
	if r == "" {
		r = Role(role)
	}
	if sess.SessionID == "" {
		sess.SessionID = fmt.Sprintf("sess-%s", uuid.NewString()[:8])
	}
	if sess.RequestTimestamp.IsZero() {
		sess.RequestTimestamp = time.Now().UTC()
	}
	if sess.IPAddress == "" {
		sess.IPAddress = "0.0.0.0"
	}
	if sess.UserAgent == "" {
		sess.UserAgent = "EduShield/1.0"
	}
	return IdentityScope{
		UserID:    userID,
		Role:      r,
		Clearance: ClearanceFor(r),
		Session:   sess,
	}
}
