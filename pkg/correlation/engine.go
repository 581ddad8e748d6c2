package correlation

import (
	"time"

	"go.uber.org/zap"

	"github.com/millrace/flowbroker/pkg/stream"
)

// DefaultTTL is the retention horizon for an unresolved correlation
// entry. An entry older than this is assumed to never complete and is
// reclaimed by the periodic sweep.
const DefaultTTL = 10 * time.Second

// Controller is the engine's view of the stream pipeline it is
// attached to. Acknowledging a position advances the pipeline
// checkpoint; scheduled tasks fire once after the given delay on the
// same execution context that delivers records.
type Controller interface {
	AcknowledgePosition(position int64)
	ScheduleTask(delay time.Duration, task func())
}

// Config configures an Engine.
type Config struct {
	// TTL is the retention horizon for unresolved entries.
	// Default: DefaultTTL.
	TTL time.Duration

	// Sink receives latency observations. Required.
	Sink Sink

	// Logger is used for degenerate-case diagnostics. Optional.
	Logger *zap.Logger

	// Now supplies the sweep clock. Default: time.Now. Tests override
	// this to drive eviction deterministically.
	Now func() time.Time
}

// Engine consumes a broker record stream and correlates lifecycle
// events per entity domain to produce latency observations.
//
// Engine is single-writer by construction: record delivery and the
// sweep task must run on one goroutine. The controller contract
// guarantees this for scheduled tasks; callers feeding records
// guarantee it for delivery.
type Engine struct {
	ttl    time.Duration
	sink   Sink
	logger *zap.Logger
	now    func() time.Time

	controller Controller

	jobs      *Index
	instances *Index
}

func NewEngine(cfg Config) *Engine {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		ttl:       ttl,
		sink:      cfg.Sink,
		logger:    logger,
		now:       now,
		jobs:      NewIndex(),
		instances: NewIndex(),
	}
}

// Open attaches the engine to its controller and arms the first sweep.
func (e *Engine) Open(controller Controller) {
	e.controller = controller
	controller.ScheduleTask(e.ttl, e.sweepTask)
}

// Close drops all in-flight correlation state.
func (e *Engine) Close() {
	e.jobs = NewIndex()
	e.instances = NewIndex()
}

// HandleRecord processes one inbound record. Every record is
// acknowledged exactly once regardless of whether it produced an
// observation.
func (e *Engine) HandleRecord(rec *stream.Record) {
	if rec.RecordType != stream.RecordTypeEvent {
		e.controller.AcknowledgePosition(rec.Position)
		return
	}

	switch rec.ValueType {
	case stream.ValueTypeJob:
		e.handleJobRecord(rec)
	case stream.ValueTypeWorkflowInstance:
		e.handleWorkflowInstanceRecord(rec)
	}

	e.controller.AcknowledgePosition(rec.Position)
}

func (e *Engine) handleJobRecord(rec *stream.Record) {
	switch rec.Intent {
	case stream.IntentJobCreated:
		e.jobs.Put(rec.Key, rec.Timestamp)
	case stream.IntentJobActivated:
		created, ok := e.jobs.Get(rec.Key)
		e.observe(rec, MetricJobActivationLatency, created, ok)
	case stream.IntentJobCompleted:
		created, ok := e.jobs.Remove(rec.Key)
		e.observe(rec, MetricJobLifetime, created, ok)
	}
}

func (e *Engine) handleWorkflowInstanceRecord(rec *stream.Record) {
	// Element records fire for every node of the workflow; only the
	// top-level process element marks the instance lifecycle.
	payload, ok := stream.ProcessInstancePayloadOf(rec)
	if !ok || payload.ElementType != stream.ElementTypeProcess {
		return
	}

	switch rec.Intent {
	case stream.IntentElementActivating:
		e.instances.Put(rec.Key, rec.Timestamp)
	case stream.IntentElementCompleted:
		created, ok := e.instances.Remove(rec.Key)
		e.observe(rec, MetricWorkflowInstanceExecutionTime, created, ok)
	}
}

// observe emits the latency for a resolved entry. An unresolved lookup
// means the creation event was lost, duplicated away, or already
// evicted; that is an expected operating condition, counted but not
// surfaced as an error.
func (e *Engine) observe(rec *stream.Record, kind MetricKind, created int64, ok bool) {
	if !ok {
		e.sink.ObserveUnmatched(rec.PartitionID, kind)
		e.logger.Debug("No creation event for entity",
			zap.String("kind", string(kind)),
			zap.Int64("key", rec.Key),
			zap.Int32("partition_id", rec.PartitionID))
		return
	}
	elapsed := time.Duration(rec.Timestamp-created) * time.Millisecond
	e.sink.Observe(rec.PartitionID, kind, elapsed)
}

func (e *Engine) sweepTask() {
	e.sweep(e.now())
	e.controller.ScheduleTask(e.ttl, e.sweepTask)
}

// sweep evicts entries older than now-TTL from both domains. It runs
// on the delivery goroutine via the controller, never concurrently
// with HandleRecord.
func (e *Engine) sweep(now time.Time) {
	// An entry created exactly TTL ago has aged out too, so the
	// exclusive cutoff sits one past the horizon.
	cutoff := now.Add(-e.ttl).UnixMilli() + 1

	if evicted := e.jobs.EvictBefore(cutoff); len(evicted) > 0 {
		e.logger.Debug("Evicted stale job entries",
			zap.Int("count", len(evicted)),
			zap.Int64("cutoff", cutoff))
	}
	if evicted := e.instances.EvictBefore(cutoff); len(evicted) > 0 {
		e.logger.Debug("Evicted stale workflow instance entries",
			zap.Int("count", len(evicted)),
			zap.Int64("cutoff", cutoff))
	}
}

// JobIndexLen reports the number of in-flight job entries.
func (e *Engine) JobIndexLen() int { return e.jobs.Len() }

// InstanceIndexLen reports the number of in-flight workflow instance
// entries.
func (e *Engine) InstanceIndexLen() int { return e.instances.Len() }
