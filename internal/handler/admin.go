package handler

import (
	"fmt"
	"net/http"

	"github.com/shelfmark/shelfmark/internal/metrics"
)

// AdminHandler exposes operational endpoints for admins.
type AdminHandler struct {
	snapshotter metrics.Snapshotter
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(snapshotter metrics.Snapshotter) *AdminHandler {
	return &AdminHandler{snapshotter: snapshotter}
}

// Metrics handles GET /api/v1/admin/metrics.
// Returns counters in Prometheus exposition format.
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "shelfmark_book_cache_hits_total %d\n", snap.BookCacheHits)
	writeMetric(w, "shelfmark_book_cache_misses_total %d\n", snap.BookCacheMisses)
	writeMetric(w, "shelfmark_book_lookup_duration_seconds_count %d\n", snap.LookupDurationCount)
	writeMetric(w, "shelfmark_book_lookup_duration_seconds_sum %.6f\n", float64(snap.LookupDurationTotalNs)/1e9)

	writeMetric(w, "shelfmark_loans_created_total %d\n", snap.LoansCreated)
	writeMetric(w, "shelfmark_loans_returned_total %d\n", snap.LoansReturned)
	writeMetric(w, "shelfmark_loans_rejected_total %d\n", snap.LoansRejected)
	writeMetric(w, "shelfmark_loans_deleted_total %d\n", snap.LoansDeleted)

	writeMetric(w, "shelfmark_activity_events_published_total %d\n", snap.ActivityPublished)
	writeMetric(w, "shelfmark_activity_events_processed_total %d\n", snap.ActivityProcessed)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
