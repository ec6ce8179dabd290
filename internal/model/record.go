package model

// Record is one raw row retrieved from the external record store. Keys are
// column names; values are whatever the store returned. The storage layer
// applies no authorization of its own.
type Record map[string]any

// Clone returns a shallow copy of the record so filtering and masking never
// mutate the caller's raw data.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RecordSet groups raw rows by the resource they belong to.
type RecordSet map[ResourceID][]Record

// ResourceView is the post-filter state of one requested resource. Denied
// resources keep an explicit marker rather than being silently omitted.
type ResourceView struct {
	Resource ResourceID `json:"resource"`
	Denied   bool       `json:"denied"`
	Marker   string     `json:"marker,omitempty"`
	Note     string     `json:"note,omitempty"`
	Rows     []Record   `json:"rows,omitempty"`
}

// FilteredView is the structured per-resource output of the data filter.
type FilteredView map[ResourceID]ResourceView
