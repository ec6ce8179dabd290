// Package audit sanitizes and durably records exactly one entry per processed
// request through an asynchronous multi-sink pipeline. No raw sensitive value
// may ever reach a durable or console sink.
package audit

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/edushield/edushield/internal/integrity"
	"github.com/edushield/edushield/internal/model"
)

// Redaction placeholders by category.
const (
	Redacted          = "[REDACTED]"
	RedactedFinancial = "[REDACTED-FINANCIAL]"
	RedactedSSN       = "[REDACTED-SSN]"
)

// ssnPattern matches formatted identification numbers inside string values,
// independent of the field name carrying them.
var ssnPattern = regexp.MustCompile(`\d{3}-\d{2}-\d{4}`)

// sensitiveKeys maps exact field names (lowercased) to their category
// placeholder.
var sensitiveKeys = map[string]string{
	"ssn":             Redacted,
	"social_security": Redacted,
	"annual_salary":   RedactedFinancial,
	"amount_due":      RedactedFinancial,
	"amount_paid":     RedactedFinancial,
	"balance":         RedactedFinancial,
	"amount":          RedactedFinancial,
}

// Entry is a sanitized audit entry as delivered to sinks. The payload is the
// JSON object form of the model.AuditLogEntry after redaction. Hash is the
// tamper-evidence digest over the entry's canonical fields, computed before
// redaction so it binds the original decision, not the scrubbed rendering.
type Entry struct {
	TraceID string
	Hash    string
	Payload map[string]any
}

// Verify recomputes the entry hash from the source fields and reports whether
// it matches the one carried since sanitization.
func Verify(e Entry, src model.AuditLogEntry) bool {
	return integrity.VerifyEntryHash(e.Hash, src.TraceID, src.UserID,
		string(src.Role), string(src.PolicyDecision), src.Timestamp)
}

// Sanitize converts an audit entry to its sink-safe form: sensitive keys are
// replaced by category placeholders and every string leaf is scanned for
// identification-number patterns. Sanitization is best-effort: a malformed
// entry still produces a deliverable Entry with a redaction_error note rather
// than blocking the pipeline.
func Sanitize(e model.AuditLogEntry) Entry {
	payload, err := entryToMap(e)
	if err != nil {
		payload = map[string]any{
			"trace_id":        e.TraceID,
			"policy_decision": string(e.PolicyDecision),
			"redaction_error": "entry_not_serializable",
		}
	}
	scrubMap(payload)
	hash := integrity.ComputeEntryHash(e.TraceID, e.UserID,
		string(e.Role), string(e.PolicyDecision), e.Timestamp)
	payload["entry_hash"] = hash
	return Entry{TraceID: e.TraceID, Hash: hash, Payload: payload}
}

func entryToMap(e model.AuditLogEntry) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func scrubMap(m map[string]any) {
	for k, v := range m {
		if placeholder, sensitive := sensitiveKeys[strings.ToLower(k)]; sensitive {
			m[k] = placeholder
			continue
		}
		m[k] = scrubValue(v)
	}
}

func scrubValue(v any) any {
	switch x := v.(type) {
	case string:
		return ssnPattern.ReplaceAllString(x, RedactedSSN)
	case map[string]any:
		scrubMap(x)
		return x
	case []any:
		for i, item := range x {
			x[i] = scrubValue(item)
		}
		return x
	default:
		return v
	}
}
