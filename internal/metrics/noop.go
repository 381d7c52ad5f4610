package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncBookCacheHit is a no-op.
func (n *NoopRecorder) IncBookCacheHit() {}

// IncBookCacheMiss is a no-op.
func (n *NoopRecorder) IncBookCacheMiss() {}

// ObserveLookupDuration is a no-op.
func (n *NoopRecorder) ObserveLookupDuration(duration time.Duration) {}

// IncLoanCreated is a no-op.
func (n *NoopRecorder) IncLoanCreated() {}

// IncLoanReturned is a no-op.
func (n *NoopRecorder) IncLoanReturned() {}

// IncLoanRejected is a no-op.
func (n *NoopRecorder) IncLoanRejected() {}

// IncLoanDeleted is a no-op.
func (n *NoopRecorder) IncLoanDeleted() {}

// IncActivityEventPublished is a no-op.
func (n *NoopRecorder) IncActivityEventPublished(status string) {}

// IncActivityEventProcessed is a no-op.
func (n *NoopRecorder) IncActivityEventProcessed(status string) {}

// ObserveActivityBatchSize is a no-op.
func (n *NoopRecorder) ObserveActivityBatchSize(size int) {}

// ObserveActivityBatchDuration is a no-op.
func (n *NoopRecorder) ObserveActivityBatchDuration(duration time.Duration) {}

// SetActivityQueueDepth is a no-op.
func (n *NoopRecorder) SetActivityQueueDepth(depth int64) {}

// ObserveActivityIngestLag is a no-op.
func (n *NoopRecorder) ObserveActivityIngestLag(lag time.Duration) {}
