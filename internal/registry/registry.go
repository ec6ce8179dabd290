// Package registry holds the static catalog of resource descriptors. The
// catalog is built once at process start and never mutated afterwards, so
// lookups are safe under unbounded request concurrency.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/edushield/edushield/internal/model"
)

// ErrUnknownResource is returned when no descriptor exists for a resource id.
var ErrUnknownResource = errors.New("registry: unknown resource")

// Resource ids known to the institution.
const (
	ResourcePersons   model.ResourceID = "persons"
	ResourceFinancial model.ResourceID = "financial_information"
	ResourceGrades    model.ResourceID = "grades"
	ResourceClasses   model.ResourceID = "classes"
	ResourceDocuments model.ResourceID = "documents"
)

// Registry is a read-only catalog of resource descriptors.
type Registry struct {
	descriptors map[model.ResourceID]model.ResourceDescriptor
	ids         []model.ResourceID // sorted
}

// New builds the registry from the institution's fixed descriptor table.
func New() *Registry {
	return NewFrom([]model.ResourceDescriptor{
		{
			ID:           ResourcePersons,
			Origin:       "MockSIS",
			Sensitivity:  model.SensitivityFERPA,
			TTL:          300 * time.Second,
			AllowedRoles: []model.Role{model.RoleAdmin},
			Fields:       []string{"person_id", "name", "role", "email", "ssn", "department", "major", "year", "title"},
		},
		{
			ID:           ResourceFinancial,
			Origin:       "MockSIS",
			Sensitivity:  model.SensitivityFinancial,
			TTL:          120 * time.Second,
			AllowedRoles: []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent},
			SelfScoped:   true,
			OwnerField:   "person_id",
			Fields:       []string{"person_id", "type", "amount", "amount_due", "amount_paid", "balance", "annual_salary", "pay_frequency", "benefits", "scholarship", "status", "description"},
		},
		{
			ID:           ResourceGrades,
			Origin:       "MockSIS",
			Sensitivity:  model.SensitivityFERPA,
			TTL:          300 * time.Second,
			AllowedRoles: []model.Role{model.RoleAdmin, model.RoleTeacher},
			Fields:       []string{"student_id", "class_id", "midterm", "final", "grade", "attendance_rate"},
		},
		{
			ID:           ResourceClasses,
			Origin:       "MockSIS",
			Sensitivity:  model.SensitivityInstitutional,
			TTL:          600 * time.Second,
			AllowedRoles: []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent},
			Fields:       []string{"class_id", "name", "teacher_name", "schedule", "room", "credits", "enrolled_students"},
		},
		{
			ID:           ResourceDocuments,
			Origin:       "MockRAG",
			Sensitivity:  model.SensitivityInstitutional,
			TTL:          300 * time.Second,
			AllowedRoles: []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent},
			Fields:       []string{"doc_id", "title", "snippet", "source"},
		},
	})
}

// NewFrom builds a registry from an explicit descriptor list. Intended for
// tests and alternate institution catalogs.
func NewFrom(descs []model.ResourceDescriptor) *Registry {
	r := &Registry{descriptors: make(map[model.ResourceID]model.ResourceDescriptor, len(descs))}
	for _, d := range descs {
		r.descriptors[d.ID] = d
		r.ids = append(r.ids, d.ID)
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })
	return r
}

// Describe returns the descriptor for a resource id.
func (r *Registry) Describe(id model.ResourceID) (model.ResourceDescriptor, error) {
	d, ok := r.descriptors[id]
	if !ok {
		return model.ResourceDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	return d, nil
}

// Has reports whether a descriptor exists for id.
func (r *Registry) Has(id model.ResourceID) bool {
	_, ok := r.descriptors[id]
	return ok
}

// IDs returns all known resource ids in sorted order.
func (r *Registry) IDs() []model.ResourceID {
	out := make([]model.ResourceID, len(r.ids))
	copy(out, r.ids)
	return out
}
