package parafor

import (
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for Pool and task observability.
const (
	MetricParForsTotal     = metricz.Key("parafor.par_fors.total")
	MetricParForsCurrent   = metricz.Key("parafor.par_fors.current")
	MetricTasksCreated     = metricz.Key("parafor.tasks.created.total")
	MetricTasksStolen      = metricz.Key("parafor.tasks.stolen.total")
	MetricTasksShared      = metricz.Key("parafor.tasks.shared.total")
	MetricTasksLocal       = metricz.Key("parafor.tasks.local.total")
	MetricTasksMailbox     = metricz.Key("parafor.tasks.mailbox.total")
	MetricTasksUndivided   = metricz.Key("parafor.tasks.undivided.total")
	MetricTasksInlineDrops = metricz.Key("parafor.tasks.inline_fallback.total")
)

// Span keys for the facade and partitioner trampolines.
const (
	SpanParallelFor = tracez.Key("parafor.parallel-for")
	SpanParallelDo  = tracez.Key("parafor.parallel-do")
	SpanTaskShared  = tracez.Key("parafor.task-shared")
	SpanTaskStolen  = tracez.Key("parafor.task-stolen")
)

// Span tags used across the above spans.
const (
	TagFrom   = tracez.Tag("parafor.from")
	TagTo     = tracez.Tag("parafor.to")
	TagGrain  = tracez.Tag("parafor.grain")
	TagPolicy = tracez.Tag("parafor.policy")
	TagWorker = tracez.Tag("parafor.worker")
	TagStolen = tracez.Tag("parafor.stolen_from")
)

// Hook event keys for pool lifecycle notifications.
const (
	EventPoolStarted  = hookz.Key("parafor.pool.started")
	EventPoolWarmedUp = hookz.Key("parafor.pool.warmed-up")
	EventPoolShutdown = hookz.Key("parafor.pool.shutdown")
)

// PoolEvent is the payload delivered to hookz listeners subscribed to the
// pool lifecycle events above.
type PoolEvent struct {
	NumWorkers int
	Cancelled  bool
}
