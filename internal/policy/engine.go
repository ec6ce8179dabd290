// Package policy evaluates the layered access policy: institution baseline,
// role grant, then user/ownership refinement. Precedence runs Institution >
// Role > User; each layer can only narrow what the previous one granted.
package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/registry"
)

// Result is the authorization outcome for one request. Authorized and Denied
// partition the requested universe: their intersection is empty and their
// union equals the set of requested resources known to the registry.
type Result struct {
	Authorized   []model.ResourceID
	Denied       []model.ResourceID
	MaskedFields []string
	Decision     model.PolicyDecision
	Explanation  string
	Hash         string
}

// Engine evaluates requests against the loaded policy tables. Evaluation is a
// pure function of request-scoped input plus the read-only tables and
// registry, so a single Engine is safe under unbounded concurrency.
type Engine struct {
	tables Tables
	reg    *registry.Registry
	logger *slog.Logger
}

// New creates a policy engine over the given registry and tables.
func New(reg *registry.Registry, tables Tables, logger *slog.Logger) *Engine {
	return &Engine{tables: tables, reg: reg, logger: logger}
}

// Evaluate applies the precedence layers to the requested resource set.
// Unknown resource ids are dropped silently (fail closed, not a hard error);
// an unrecognized role yields an empty authorized set and DENY.
func (e *Engine) Evaluate(identity model.IdentityScope, requested []model.ResourceID) Result {
	universe := e.knownUniverse(requested)

	grant, ok := e.tables.Grants[identity.Role]
	if !ok {
		e.logger.Warn("policy: unrecognized role, denying all",
			"role", string(identity.Role),
			"user_id", identity.UserID)
		return Result{
			Authorized:  nil,
			Denied:      universe,
			Decision:    model.DecisionDeny,
			Explanation: fmt.Sprintf("Role %q is not recognized by the institution. All requested resources denied.", identity.Role),
			Hash:        Fingerprint(e.tables.Version, identity.Role, nil),
		}
	}

	// Role grant intersected with the request, then narrowed by the
	// institution's per-resource allowed roles.
	authorized := make([]model.ResourceID, 0, len(universe))
	for _, id := range universe {
		if !contains(grant.Allowed, id) {
			continue
		}
		desc, err := e.reg.Describe(id)
		if err != nil || !roleAllowed(desc, identity.Role) {
			continue
		}
		authorized = append(authorized, id)
	}

	// Prohibited-combination removal runs last: an institution prohibition
	// strikes the pair even when the role grant included it.
	authorized = e.stripProhibited(identity.Role, authorized)

	denied := difference(universe, authorized)

	decision := model.DecisionAllowFull
	switch {
	case len(authorized) == 0:
		decision = model.DecisionDeny
	case len(denied) > 0:
		decision = model.DecisionAllowPartial
	}

	masked := e.maskedFields(grant, authorized)

	return Result{
		Authorized:   authorized,
		Denied:       denied,
		MaskedFields: masked,
		Decision:     decision,
		Explanation:  e.explain(identity, authorized, denied, masked, decision),
		Hash:         Fingerprint(e.tables.Version, identity.Role, authorized),
	}
}

// knownUniverse dedupes the request and drops ids with no descriptor.
func (e *Engine) knownUniverse(requested []model.ResourceID) []model.ResourceID {
	seen := make(map[model.ResourceID]bool, len(requested))
	universe := make([]model.ResourceID, 0, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !e.reg.Has(id) {
			e.logger.Debug("policy: dropping unknown resource", "resource", string(id))
			continue
		}
		universe = append(universe, id)
	}
	sort.Slice(universe, func(i, j int) bool { return universe[i] < universe[j] })
	return universe
}

func (e *Engine) stripProhibited(role model.Role, authorized []model.ResourceID) []model.ResourceID {
	out := authorized[:0]
	for _, id := range authorized {
		prohibited := false
		for _, p := range e.tables.Prohibited {
			if p.Role == role && p.Resource == id {
				prohibited = true
				break
			}
		}
		if !prohibited {
			out = append(out, id)
		}
	}
	return out
}

// maskedFields is the union of institution and role mask lists, restricted to
// fields that actually exist on authorized, maskable resources.
func (e *Engine) maskedFields(grant RoleGrant, authorized []model.ResourceID) []string {
	fields := make(map[string]bool)
	for _, id := range authorized {
		if !e.tables.maskable(id) {
			continue
		}
		desc, err := e.reg.Describe(id)
		if err != nil {
			continue
		}
		for _, f := range e.tables.InstitutionMaskFields {
			if contains(desc.Fields, f) {
				fields[f] = true
			}
		}
		for _, f := range grant.MaskFields[id] {
			if contains(desc.Fields, f) {
				fields[f] = true
			}
		}
	}
	out := make([]string, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) explain(identity model.IdentityScope, authorized, denied []model.ResourceID, masked []string, decision model.PolicyDecision) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s (%s) requested data.", identity.Role, identity.Clearance))
	switch identity.Role {
	case model.RoleAdmin:
		parts = append(parts, "Full access granted across all institutional records.")
	case model.RoleTeacher:
		parts = append(parts, "Granted: grades, classes, documents. Financial restricted to own salary only. Prohibited: student tuition, other salaries.")
	case model.RoleStudent:
		parts = append(parts, "Granted: classes (peer view), documents, own financial info. Prohibited: grades table, other financials, employee salaries.")
	}
	if len(denied) > 0 {
		parts = append(parts, fmt.Sprintf("Denied: %s.", joinIDs(denied)))
	}
	if len(masked) > 0 {
		parts = append(parts, fmt.Sprintf("Masked: %s (institution and role mask lists).", strings.Join(masked, ", ")))
	}
	parts = append(parts, fmt.Sprintf("Decision: %s.", decision))
	return strings.Join(parts, " ")
}

// Fingerprint is the deterministic policy hash: a truncated SHA-256 digest of
// the canonical string version:role:sorted-authorized-ids. Used purely as a
// debugging and correlation fingerprint, never as an access-control boundary.
func Fingerprint(version string, role model.Role, authorized []model.ResourceID) string {
	ids := make([]string, len(authorized))
	for i, id := range authorized {
		ids[i] = string(id)
	}
	sort.Strings(ids)
	canonical := version + ":" + string(role) + ":" + strings.Join(ids, ",")
	sum := sha256.Sum256([]byte(canonical))
	return "sha256:" + hex.EncodeToString(sum[:])[:16]
}

func contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func roleAllowed(desc model.ResourceDescriptor, role model.Role) bool {
	return contains(desc.AllowedRoles, role)
}

func difference(universe, authorized []model.ResourceID) []model.ResourceID {
	out := make([]model.ResourceID, 0, len(universe))
	for _, id := range universe {
		if !contains(authorized, id) {
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []model.ResourceID) string {
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = string(id)
	}
	return strings.Join(ss, ", ")
}
