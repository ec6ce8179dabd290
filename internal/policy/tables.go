package policy

import (
	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/registry"
)

// RoleResource is a (role, resource) pair in the institution's prohibited list.
type RoleResource struct {
	Role     model.Role
	Resource model.ResourceID
}

// RoleGrant is the role-level layer: the default authorized resource set and
// an optional per-resource mask list. Grants can only narrow what the
// institution baseline permits, never widen it.
type RoleGrant struct {
	Allowed    []model.ResourceID
	MaskFields map[model.ResourceID][]string
}

// Tables is the full policy configuration, loaded once at process start and
// passed explicitly to the engine. Never mutated during operation.
type Tables struct {
	Version string

	// Institution baseline: globally masked field names and unconditionally
	// prohibited (role, resource) pairs.
	InstitutionMaskFields []string
	Prohibited            []RoleResource

	// MaskableResources limits masking to person/financial records. Grade and
	// class records have never been in masking scope even though they carry
	// FERPA data; do not widen this list without confirming intent.
	MaskableResources []model.ResourceID

	Grants map[model.Role]RoleGrant
}

// DefaultTables returns the institution's standing policy.
func DefaultTables() Tables {
	return Tables{
		Version:               "1.0",
		InstitutionMaskFields: []string{"ssn"},
		Prohibited: []RoleResource{
			{Role: model.RoleStudent, Resource: registry.ResourceGrades},
		},
		MaskableResources: []model.ResourceID{registry.ResourcePersons, registry.ResourceFinancial},
		Grants: map[model.Role]RoleGrant{
			model.RoleAdmin: {
				Allowed: []model.ResourceID{
					registry.ResourcePersons,
					registry.ResourceFinancial,
					registry.ResourceGrades,
					registry.ResourceClasses,
					registry.ResourceDocuments,
				},
			},
			model.RoleTeacher: {
				Allowed: []model.ResourceID{
					registry.ResourceFinancial,
					registry.ResourceGrades,
					registry.ResourceClasses,
					registry.ResourceDocuments,
				},
				MaskFields: map[model.ResourceID][]string{
					registry.ResourceFinancial: {"amount", "description"},
				},
			},
			model.RoleStudent: {
				Allowed: []model.ResourceID{
					registry.ResourceFinancial,
					registry.ResourceClasses,
					registry.ResourceDocuments,
				},
			},
		},
	}
}

// maskable reports whether resource id is in masking scope.
func (t Tables) maskable(id model.ResourceID) bool {
	for _, m := range t.MaskableResources {
		if m == id {
			return true
		}
	}
	return false
}
