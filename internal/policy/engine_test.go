package policy

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/registry"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(registry.New(), DefaultTables(), slog.Default())
}

func identity(role string) model.IdentityScope {
	return model.NewIdentityScope(role+"-1", role, model.SessionContext{})
}

func TestEvaluate_StudentGradesDenied(t *testing.T) {
	e := newEngine(t)

	res := e.Evaluate(identity("student"), []model.ResourceID{registry.ResourceGrades, registry.ResourceClasses})

	assert.Equal(t, []model.ResourceID{registry.ResourceClasses}, res.Authorized)
	assert.Equal(t, []model.ResourceID{registry.ResourceGrades}, res.Denied)
	assert.Equal(t, model.DecisionAllowPartial, res.Decision)
}

func TestEvaluate_AdminFullUniverse(t *testing.T) {
	e := newEngine(t)
	reg := registry.New()

	res := e.Evaluate(identity("admin"), reg.IDs())

	assert.Empty(t, res.Denied)
	assert.Equal(t, model.DecisionAllowFull, res.Decision)
	assert.ElementsMatch(t, reg.IDs(), res.Authorized)
}

func TestEvaluate_UnknownRoleFailsClosed(t *testing.T) {
	e := newEngine(t)

	res := e.Evaluate(identity("superuser"), []model.ResourceID{registry.ResourceClasses})

	assert.Empty(t, res.Authorized)
	assert.Equal(t, []model.ResourceID{registry.ResourceClasses}, res.Denied)
	assert.Equal(t, model.DecisionDeny, res.Decision)
}

func TestEvaluate_EmptyRequestDenied(t *testing.T) {
	e := newEngine(t)

	res := e.Evaluate(identity("teacher"), nil)

	assert.Empty(t, res.Authorized)
	assert.Equal(t, model.DecisionDeny, res.Decision)
}

func TestEvaluate_UnknownResourceDroppedSilently(t *testing.T) {
	e := newEngine(t)

	res := e.Evaluate(identity("admin"), []model.ResourceID{registry.ResourceClasses, "payroll_ledger"})

	assert.Equal(t, []model.ResourceID{registry.ResourceClasses}, res.Authorized)
	assert.Empty(t, res.Denied)
	// The unknown id is in neither set: it is not part of the universe.
	assert.Equal(t, model.DecisionAllowFull, res.Decision)
}

func TestEvaluate_PartitionInvariant(t *testing.T) {
	e := newEngine(t)
	reg := registry.New()
	universe := reg.IDs()

	for _, role := range []string{"admin", "teacher", "student", "intruder"} {
		res := e.Evaluate(identity(role), universe)

		seen := make(map[model.ResourceID]int)
		for _, id := range res.Authorized {
			seen[id]++
		}
		for _, id := range res.Denied {
			seen[id]++
		}
		require.Len(t, seen, len(universe), "role %s: authorized ∪ denied must equal the universe", role)
		for id, n := range seen {
			assert.Equal(t, 1, n, "role %s: resource %s must be in exactly one set", role, id)
		}
	}
}

func TestEvaluate_ProhibitedPairsNeverAuthorized(t *testing.T) {
	e := newEngine(t)
	tables := DefaultTables()
	universe := registry.New().IDs()

	for _, p := range tables.Prohibited {
		res := e.Evaluate(identity(string(p.Role)), universe)
		assert.NotContains(t, res.Authorized, p.Resource,
			"prohibited pair (%s, %s) must never be authorized", p.Role, p.Resource)
		assert.Contains(t, res.Denied, p.Resource)
	}
}

func TestEvaluate_MaskedFieldsRestrictedToAuthorized(t *testing.T) {
	e := newEngine(t)

	// Student is not authorized for persons, so the institution's ssn mask has
	// no field to attach to when only classes are requested.
	res := e.Evaluate(identity("student"), []model.ResourceID{registry.ResourceClasses})
	assert.Empty(t, res.MaskedFields)

	// Teacher's financial grant pulls in the role mask list.
	res = e.Evaluate(identity("teacher"), []model.ResourceID{registry.ResourceFinancial})
	assert.Equal(t, []string{"amount", "description"}, res.MaskedFields)

	// Admin over persons gets the institution ssn mask.
	res = e.Evaluate(identity("admin"), []model.ResourceID{registry.ResourcePersons})
	assert.Equal(t, []string{"ssn"}, res.MaskedFields)
}

func TestEvaluate_MaskingNeverExtendsToGrades(t *testing.T) {
	e := newEngine(t)

	res := e.Evaluate(identity("teacher"), []model.ResourceID{registry.ResourceGrades, registry.ResourceClasses})
	assert.Empty(t, res.MaskedFields, "grade/class records are outside masking scope")
}

func TestFingerprint_DeterministicAndDistinct(t *testing.T) {
	a := []model.ResourceID{registry.ResourceClasses, registry.ResourceGrades}
	b := []model.ResourceID{registry.ResourceGrades, registry.ResourceClasses}

	h1 := Fingerprint("1.0", model.RoleTeacher, a)
	h2 := Fingerprint("1.0", model.RoleTeacher, b)
	assert.Equal(t, h1, h2, "fingerprint must not depend on input order")

	h3 := Fingerprint("1.0", model.RoleTeacher, []model.ResourceID{registry.ResourceClasses})
	assert.NotEqual(t, h1, h3, "different authorized sets must produce different fingerprints")

	h4 := Fingerprint("1.0", model.RoleStudent, a)
	assert.NotEqual(t, h1, h4, "different roles must produce different fingerprints")

	h5 := Fingerprint("2.0", model.RoleTeacher, a)
	assert.NotEqual(t, h1, h5, "different policy versions must produce different fingerprints")

	assert.Contains(t, h1, "sha256:")
}

func TestEvaluate_ResultOrderingStable(t *testing.T) {
	e := newEngine(t)

	r1 := e.Evaluate(identity("teacher"), []model.ResourceID{registry.ResourcePersons, registry.ResourceClasses, registry.ResourceGrades})
	r2 := e.Evaluate(identity("teacher"), []model.ResourceID{registry.ResourceGrades, registry.ResourcePersons, registry.ResourceClasses})

	assert.Equal(t, r1.Authorized, r2.Authorized)
	assert.Equal(t, r1.Denied, r2.Denied)
	assert.Equal(t, r1.Hash, r2.Hash)
}
