// Package engine composes the ICCP components per incoming request: policy
// evaluation, data filtering, context-packet construction, freshness
// annotation, and the asynchronous audit enqueue.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edushield/edushield/internal/audit"
	"github.com/edushield/edushield/internal/filter"
	"github.com/edushield/edushield/internal/freshness"
	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/packet"
	"github.com/edushield/edushield/internal/policy"
	"github.com/edushield/edushield/internal/registry"
)

// Request is one mediated read: who is asking, which resources, and the raw
// rows the external store already fetched for them.
type Request struct {
	Identity  model.IdentityScope
	Requested []model.ResourceID
	Records   model.RecordSet
}

// Result is what the caller gets back. It is returned without waiting on
// audit durability; the audit entry reaches its sinks asynchronously.
type Result struct {
	TraceID         string
	AccessLevel     string
	Decision        model.PolicyDecision
	View            model.FilteredView
	Rendered        string
	Packet          model.ContextPacket
	MaskedFields    []string
	DeniedResources []model.ResourceID
}

// Config wires the engine's collaborators.
type Config struct {
	Registry *registry.Registry
	Policy   *policy.Engine
	Filter   *filter.Filter
	Tracker  *freshness.Tracker
	Pipeline *audit.Pipeline
	Memory   *audit.MemorySink
	Builder  packet.Builder
	Logger   *slog.Logger
}

// Engine is the per-request orchestrator. Requests run with unbounded
// concurrency; the only shared mutable state is the freshness tracker, the
// audit queue, and the packet correlation map below.
type Engine struct {
	reg      *registry.Registry
	policy   *policy.Engine
	filter   *filter.Filter
	tracker  *freshness.Tracker
	pipeline *audit.Pipeline
	memory   *audit.MemorySink
	builder  packet.Builder
	logger   *slog.Logger

	mu      sync.RWMutex
	packets map[string]model.ContextPacket
}

// New creates an engine from its collaborators.
func New(cfg Config) *Engine {
	return &Engine{
		reg:      cfg.Registry,
		policy:   cfg.Policy,
		filter:   cfg.Filter,
		tracker:  cfg.Tracker,
		pipeline: cfg.Pipeline,
		memory:   cfg.Memory,
		builder:  cfg.Builder,
		logger:   cfg.Logger,
		packets:  make(map[string]model.ContextPacket),
	}
}

// Process mediates one read. Policy evaluation runs first; filtering, packet
// construction, and freshness annotation are independent of each other and
// run in parallel. Exactly one audit entry is enqueued per call, and the
// result returns without waiting for sink delivery.
func (e *Engine) Process(ctx context.Context, req Request) (Result, error) {
	traceID := packet.NewTraceID()
	res := e.policy.Evaluate(req.Identity, req.Requested)

	var (
		view     model.FilteredView
		rendered string
		pkt      model.ContextPacket
		ttl      map[model.ResourceID]model.TTLStatus
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		view = e.filter.Apply(req.Identity, res, req.Records)
		rendered = filter.Render(view)
		return nil
	})
	g.Go(func() error {
		pkt = e.builder.Build(traceID, req.Identity, res)
		return nil
	})
	g.Go(func() error {
		descs := make([]model.ResourceDescriptor, 0, len(res.Authorized))
		for _, id := range res.Authorized {
			d, err := e.reg.Describe(id)
			if err != nil {
				return fmt.Errorf("engine: describe %s: %w", id, err)
			}
			descs = append(descs, d)
		}
		ttl = e.tracker.ObserveAll(descs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	e.packets[traceID] = pkt
	e.mu.Unlock()

	e.pipeline.Enqueue(model.AuditLogEntry{
		Timestamp:         time.Now().UTC(),
		TraceID:           traceID,
		UserID:            req.Identity.UserID,
		Role:              req.Identity.Role,
		Clearance:         req.Identity.Clearance,
		Session:           req.Identity.Session,
		ModelInvoked:      pkt.SelectedModel.ModelID,
		ResourcesAccessed: res.Authorized,
		ResourcesDenied:   res.Denied,
		FieldsMasked:      res.MaskedFields,
		PolicyDecision:    res.Decision,
		Explanation:       res.Explanation,
		TTLStatus:         ttl,
	})

	e.logger.Info("engine: request processed",
		"trace_id", traceID,
		"user_id", req.Identity.UserID,
		"role", string(req.Identity.Role),
		"decision", string(res.Decision),
		"authorized", len(res.Authorized),
		"denied", len(res.Denied))

	return Result{
		TraceID:         traceID,
		AccessLevel:     accessLevel(res.Decision),
		Decision:        res.Decision,
		View:            view,
		Rendered:        rendered,
		Packet:          pkt,
		MaskedFields:    res.MaskedFields,
		DeniedResources: res.Denied,
	}, nil
}

// PacketByTrace retrieves the context packet recorded for a trace id.
func (e *Engine) PacketByTrace(traceID string) (model.ContextPacket, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.packets[traceID]
	return p, ok
}

// AuditByTrace retrieves the sanitized audit entry for a trace id, once the
// pipeline has delivered it to the in-process buffer.
func (e *Engine) AuditByTrace(traceID string) (audit.Entry, bool) {
	return e.memory.ByTrace(traceID)
}

func accessLevel(d model.PolicyDecision) string {
	switch d {
	case model.DecisionAllowFull:
		return "full"
	case model.DecisionAllowPartial:
		return "partial"
	default:
		return "denied"
	}
}
