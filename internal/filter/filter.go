// Package filter applies an authorization result to raw record collections:
// explicit denial markers, ownership-scoped row filtering, and field masking.
// Filtering is a pure function of request-scoped input plus the read-only
// registry, so it needs no locking.
package filter

import (
	"fmt"
	"log/slog"

	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/policy"
	"github.com/edushield/edushield/internal/registry"
)

// Masking placeholders. Masked fields keep their key so consumers can tell a
// withheld value from an absent one.
const (
	MaskPlaceholder          = "[MASKED]"
	MaskFinancialPlaceholder = "[MASKED-FINANCIAL]"
)

// financialFields get the financial-specific placeholder when masked.
var financialFields = map[string]bool{
	"amount":        true,
	"amount_due":    true,
	"amount_paid":   true,
	"balance":       true,
	"annual_salary": true,
}

// Filter turns raw record collections into the authorized, masked view.
type Filter struct {
	reg    *registry.Registry
	tables policy.Tables
	logger *slog.Logger
}

// New creates a data filter over the given registry and policy tables.
func New(reg *registry.Registry, tables policy.Tables, logger *slog.Logger) *Filter {
	return &Filter{reg: reg, tables: tables, logger: logger}
}

// Apply builds the per-resource view for one request. Every resource in the
// authorized/denied partition appears in the output; denied resources carry an
// explicit marker instead of being silently omitted.
func (f *Filter) Apply(identity model.IdentityScope, res policy.Result, records model.RecordSet) model.FilteredView {
	view := make(model.FilteredView, len(res.Authorized)+len(res.Denied))

	for _, id := range res.Denied {
		view[id] = model.ResourceView{
			Resource: id,
			Denied:   true,
			Marker:   fmt.Sprintf("[ACCESS DENIED — %s is not available to role %s.]", id, identity.Role),
		}
	}

	for _, id := range res.Authorized {
		desc, err := f.reg.Describe(id)
		if err != nil {
			// Authorized ids come from the registry, so this is unreachable in
			// practice; treat it as a denial rather than failing open.
			f.logger.Error("filter: descriptor vanished for authorized resource", "resource", string(id), "error", err)
			view[id] = model.ResourceView{
				Resource: id,
				Denied:   true,
				Marker:   fmt.Sprintf("[ACCESS DENIED — %s has no descriptor.]", id),
			}
			continue
		}

		rows := records[id]
		rv := model.ResourceView{Resource: id}

		if desc.SelfScoped && identity.Role != model.RoleAdmin {
			rows = ownRows(rows, desc.OwnerField, identity.UserID)
			rv.Note = fmt.Sprintf("Restricted to your own %s records only.", id)
		}

		rv.Rows = f.maskRows(desc, res.MaskedFields, rows)
		view[id] = rv
	}

	return view
}

// ownRows keeps only rows owned by userID. Rows without a recognizable owner
// value are excluded: ambiguity fails closed, never open.
func ownRows(rows []model.Record, ownerField, userID string) []model.Record {
	out := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		v, ok := row[ownerField]
		if !ok {
			continue
		}
		owner, ok := v.(string)
		if !ok || owner != userID {
			continue
		}
		out = append(out, row)
	}
	return out
}

// maskRows replaces masked field values with placeholders. Runs after
// ownership filtering. Idempotent: masking an already-masked row changes
// nothing.
func (f *Filter) maskRows(desc model.ResourceDescriptor, masked []string, rows []model.Record) []model.Record {
	out := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		clone := row.Clone()
		for _, field := range masked {
			if !f.maskApplies(desc, field) {
				continue
			}
			if _, present := clone[field]; present {
				clone[field] = placeholderFor(field)
			}
		}
		out = append(out, clone)
	}
	return out
}

// maskApplies limits masking to fields the resource actually carries and to
// resources in masking scope (person/financial records only).
func (f *Filter) maskApplies(desc model.ResourceDescriptor, field string) bool {
	inScope := false
	for _, id := range f.tables.MaskableResources {
		if id == desc.ID {
			inScope = true
			break
		}
	}
	if !inScope {
		return false
	}
	for _, known := range desc.Fields {
		if known == field {
			return true
		}
	}
	return false
}

func placeholderFor(field string) string {
	if financialFields[field] {
		return MaskFinancialPlaceholder
	}
	return MaskPlaceholder
}
