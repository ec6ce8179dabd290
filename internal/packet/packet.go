// Package packet assembles the immutable per-request context packet.
package packet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/policy"
)

// Builder constructs context packets for a fixed downstream model selection.
type Builder struct {
	model model.ModelDescriptor
}

// NewBuilder creates a builder for the given model descriptor.
func NewBuilder(md model.ModelDescriptor) Builder {
	return Builder{model: md}
}

// NewTraceID returns a fresh trace id for request correlation.
func NewTraceID() string {
	return "tr-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Build snapshots the authorization decision into a ContextPacket. The packet
// is immutable once built; callers receive a value, not a shared pointer.
func (b Builder) Build(traceID string, identity model.IdentityScope, res policy.Result) model.ContextPacket {
	return model.ContextPacket{
		Version:             model.PacketVersion,
		TraceID:             traceID,
		Identity:            identity,
		SelectedModel:       b.model,
		AuthorizedResources: append([]model.ResourceID(nil), res.Authorized...),
		DeniedResources:     append([]model.ResourceID(nil), res.Denied...),
		MaskedFields:        append([]string(nil), res.MaskedFields...),
		PolicyDecision:      res.Decision,
		PolicyHash:          res.Hash,
		CreatedAt:           time.Now().UTC(),
	}
}

// Describe returns a one-line summary for logs.
func Describe(p model.ContextPacket) string {
	return fmt.Sprintf("packet %s: %s role=%s authorized=%d denied=%d hash=%s",
		p.TraceID, p.PolicyDecision, p.Identity.Role,
		len(p.AuthorizedResources), len(p.DeniedResources), p.PolicyHash)
}
