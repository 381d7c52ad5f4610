package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	BookCacheHits         uint64
	BookCacheMisses       uint64
	LookupDurationCount   uint64
	LookupDurationTotalNs int64
	LoansCreated          uint64
	LoansReturned         uint64
	LoansRejected         uint64
	LoansDeleted          uint64
	ActivityPublished     uint64
	ActivityProcessed     uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	bookCacheHits         uint64
	bookCacheMisses       uint64
	lookupDurationCount   uint64
	lookupDurationTotalNs int64
	loansCreated          uint64
	loansReturned         uint64
	loansRejected         uint64
	loansDeleted          uint64
	activityPublished     uint64
	activityProcessed     uint64
	activityQueueDepth    int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		BookCacheHits:         atomic.LoadUint64(&m.bookCacheHits),
		BookCacheMisses:       atomic.LoadUint64(&m.bookCacheMisses),
		LookupDurationCount:   atomic.LoadUint64(&m.lookupDurationCount),
		LookupDurationTotalNs: atomic.LoadInt64(&m.lookupDurationTotalNs),
		LoansCreated:          atomic.LoadUint64(&m.loansCreated),
		LoansReturned:         atomic.LoadUint64(&m.loansReturned),
		LoansRejected:         atomic.LoadUint64(&m.loansRejected),
		LoansDeleted:          atomic.LoadUint64(&m.loansDeleted),
		ActivityPublished:     atomic.LoadUint64(&m.activityPublished),
		ActivityProcessed:     atomic.LoadUint64(&m.activityProcessed),
	}
}

// IncBookCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncBookCacheHit() {
	atomic.AddUint64(&m.bookCacheHits, 1)
}

// IncBookCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncBookCacheMiss() {
	atomic.AddUint64(&m.bookCacheMisses, 1)
}

// ObserveLookupDuration records book lookup duration.
func (m *InMemoryRecorder) ObserveLookupDuration(duration time.Duration) {
	atomic.AddUint64(&m.lookupDurationCount, 1)
	atomic.AddInt64(&m.lookupDurationTotalNs, duration.Nanoseconds())
}

// IncLoanCreated increments the loan created counter.
func (m *InMemoryRecorder) IncLoanCreated() {
	atomic.AddUint64(&m.loansCreated, 1)
}

// IncLoanReturned increments the loan returned counter.
func (m *InMemoryRecorder) IncLoanReturned() {
	atomic.AddUint64(&m.loansReturned, 1)
}

// IncLoanRejected increments the loan rejected counter.
func (m *InMemoryRecorder) IncLoanRejected() {
	atomic.AddUint64(&m.loansRejected, 1)
}

// IncLoanDeleted increments the loan deleted counter.
func (m *InMemoryRecorder) IncLoanDeleted() {
	atomic.AddUint64(&m.loansDeleted, 1)
}

// IncActivityEventPublished increments the published event counter.
func (m *InMemoryRecorder) IncActivityEventPublished(status string) {
	atomic.AddUint64(&m.activityPublished, 1)
}

// IncActivityEventProcessed increments the processed event counter.
func (m *InMemoryRecorder) IncActivityEventProcessed(status string) {
	atomic.AddUint64(&m.activityProcessed, 1)
}

// ObserveActivityBatchSize is retained for pipeline instrumentation.
func (m *InMemoryRecorder) ObserveActivityBatchSize(size int) {}

// ObserveActivityBatchDuration is retained for pipeline instrumentation.
func (m *InMemoryRecorder) ObserveActivityBatchDuration(duration time.Duration) {}

// SetActivityQueueDepth records the current stream depth.
func (m *InMemoryRecorder) SetActivityQueueDepth(depth int64) {
	atomic.StoreInt64(&m.activityQueueDepth, depth)
}

// ObserveActivityIngestLag is retained for pipeline instrumentation.
func (m *InMemoryRecorder) ObserveActivityIngestLag(lag time.Duration) {}
