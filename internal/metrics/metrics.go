// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Book lookup metrics
	IncBookCacheHit()
	IncBookCacheMiss()
	ObserveLookupDuration(duration time.Duration)

	// Loan lifecycle metrics
	IncLoanCreated()
	IncLoanReturned()
	IncLoanRejected()
	IncLoanDeleted()

	// Activity pipeline metrics
	IncActivityEventPublished(status string) // status: "success" or "dropped"
	IncActivityEventProcessed(status string) // status: "success", "failed", "skipped"
	ObserveActivityBatchSize(size int)
	ObserveActivityBatchDuration(duration time.Duration)
	SetActivityQueueDepth(depth int64)
	ObserveActivityIngestLag(lag time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
