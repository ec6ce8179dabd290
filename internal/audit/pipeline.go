package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"

	"github.com/edushield/edushield/internal/model"
	"github.com/edushield/edushield/internal/telemetry"
)

// Pipeline is the asynchronous audit delivery path: a non-blocking producer
// enqueues sanitized entries on an ordered queue; a single dedicated consumer
// dequeues in FIFO order and fans each entry out to every sink. The request
// path never waits on sink durability.
//
// The queue is deliberately unbounded (mutex-guarded slice): the no-silent-loss
// guarantee outranks backpressure for audit data, so Enqueue never blocks and
// never drops an accepted entry.
type Pipeline struct {
	logger *slog.Logger
	sinks  []Sink

	mu    sync.Mutex
	queue []Entry

	signal     chan struct{}
	done       chan struct{}
	cancelLoop context.CancelFunc

	stopped      bool // guarded by mu; set before the consumer is cancelled
	enqueued     atomic.Int64
	delivered    atomic.Int64
	sinkFailures atomic.Int64
	rejected     atomic.Int64 // entries offered after Stop
}

// NewPipeline creates a pipeline fanning out to the given sinks.
func NewPipeline(logger *slog.Logger, sinks ...Sink) *Pipeline {
	return &Pipeline{
		logger: logger,
		sinks:  sinks,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start launches the consumer goroutine and registers pipeline metrics.
// Call Stop to drain and terminate.
func (p *Pipeline) Start(ctx context.Context) {
	p.registerMetrics()
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancelLoop = cancel
	go p.dispatchLoop(loopCtx)
}

// Enqueue sanitizes an entry and hands it to the consumer. Never blocks on
// sink I/O. Entries offered after Stop are rejected and counted; entries
// accepted before Stop are always delivered.
func (p *Pipeline) Enqueue(e model.AuditLogEntry) {
	entry := Sanitize(e)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.rejected.Add(1)
		p.logger.Warn("audit: entry rejected, pipeline stopped", "trace_id", e.TraceID)
		return
	}
	p.queue = append(p.queue, entry)
	p.mu.Unlock()
	p.enqueued.Add(1)

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *Pipeline) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Drain everything accepted before shutdown.
			p.dispatchPending()
			close(p.done)
			return
		case <-p.signal:
			p.dispatchPending()
		}
	}
}

// dispatchPending delivers all queued entries in FIFO order. A failure in one
// sink is isolated: it is logged and counted, and delivery to the remaining
// sinks continues.
func (p *Pipeline) dispatchPending() {
	p.mu.Lock()
	batch := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, entry := range batch {
		for _, sink := range p.sinks {
			if err := sink.Write(entry); err != nil {
				p.sinkFailures.Add(1)
				p.logger.Error("audit: sink write failed",
					"sink", sink.Name(),
					"trace_id", entry.TraceID,
					"error", err)
			}
		}
		p.delivered.Add(1)
	}
}

// Stop rejects further entries, drains everything already enqueued, waits for
// the consumer to finish (bounded by ctx), and closes all sinks.
func (p *Pipeline) Stop(ctx context.Context) {
	// Reject new entries first: anything enqueued before this point is still
	// in the queue when the consumer's final drain runs.
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	if p.cancelLoop != nil {
		p.cancelLoop()
	}
	select {
	case <-p.done:
	case <-ctx.Done():
		p.logger.Warn("audit: stop timed out waiting for drain")
	}
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil {
			p.logger.Error("audit: sink close failed", "sink", sink.Name(), "error", err)
		}
	}
}

// Depth returns the number of entries waiting for delivery.
func (p *Pipeline) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Delivered returns the number of entries fanned out so far.
func (p *Pipeline) Delivered() int64 { return p.delivered.Load() }

// SinkFailures returns the number of isolated per-sink write failures. A
// non-zero value means some sink missed entries; the misses themselves are in
// the log.
func (p *Pipeline) SinkFailures() int64 { return p.sinkFailures.Load() }

func (p *Pipeline) registerMetrics() {
	meter := telemetry.Meter("edushield/audit")

	_, _ = meter.Int64ObservableGauge("edushield.audit.queue_depth",
		metric.WithDescription("Entries waiting in the audit queue"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(p.Depth()))
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("edushield.audit.delivered_total",
		metric.WithDescription("Audit entries fanned out to all sinks"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(p.delivered.Load())
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("edushield.audit.sink_failures_total",
		metric.WithDescription("Isolated per-sink write failures"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(p.sinkFailures.Load())
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("edushield.audit.enqueued_total",
		metric.WithDescription("Entries accepted by the pipeline"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(p.enqueued.Load())
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("edushield.audit.rejected_total",
		metric.WithDescription("Entries offered after shutdown began"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(p.rejected.Load())
			return nil
		}),
	)
}
