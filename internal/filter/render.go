package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/registry"
)

// sectionOrder fixes the rendering order of resource sections. Ordering and
// section presence must be reproducible for identical inputs.
var sectionOrder = []model.ResourceID{
	registry.ResourcePersons,
	registry.ResourceFinancial,
	registry.ResourceGrades,
	registry.ResourceClasses,
	registry.ResourceDocuments,
}

var sectionTitles = map[model.ResourceID]string{
	registry.ResourcePersons:   "PERSONS",
	registry.ResourceFinancial: "FINANCIAL INFORMATION",
	registry.ResourceGrades:    "GRADES",
	registry.ResourceClasses:   "CLASSES",
	registry.ResourceDocuments: "DOCUMENTS",
}

// Render flattens a filtered view into the deterministic textual form handed
// to the downstream model call. Sections appear in a fixed order; rows keep
// their input order; fields within a row are sorted by name.
func Render(view model.FilteredView) string {
	var b strings.Builder
	first := true
	for _, id := range sectionOrder {
		rv, ok := view[id]
		if !ok {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false

		title := sectionTitles[id]
		if title == "" {
			title = strings.ToUpper(string(id))
		}
		fmt.Fprintf(&b, "=== %s ===\n", title)

		if rv.Denied {
			fmt.Fprintf(&b, "  %s\n", rv.Marker)
			continue
		}
		if rv.Note != "" {
			fmt.Fprintf(&b, "  Note: %s\n", rv.Note)
		}
		if len(rv.Rows) == 0 {
			b.WriteString("  (no records)\n")
			continue
		}
		for _, row := range rv.Rows {
			fmt.Fprintf(&b, "  %s\n", renderRow(row))
		}
	}
	return b.String()
}

func renderRow(row model.Record) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, renderValue(row[k])))
	}
	return strings.Join(parts, " | ")
}

func renderValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []string:
		return "[" + strings.Join(x, ", ") + "]"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = renderValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case float64:
		// Whole numbers render without a trailing ".0" so grades and amounts
		// look the same whether they arrived as int or float.
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", v)
	}
}
