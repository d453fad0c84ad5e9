// Package metrics exposes Prometheus collectors for the archive pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	directoryUnitsTotal      prometheus.Counter
	reconciledEntitiesTotal  *prometheus.CounterVec
	roomsCrawledTotal        prometheus.Counter
	roomFetchFailuresTotal   prometheus.Counter
	documentsDiscoveredTotal prometheus.Counter
	documentsDownloadedTotal prometheus.Counter
	downloadFailuresTotal    prometheus.Counter
	runsTotal                *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		directoryUnitsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "foiarchive_directory_units_total",
			Help: "Total directory units fetched from the upstream directory.",
		})
		reconciledEntitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "foiarchive_reconciled_entities_total",
			Help: "Total entities reconciled into the catalog, labeled by kind.",
		}, []string{"kind"})
		roomsCrawledTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "foiarchive_rooms_crawled_total",
			Help: "Total reading-room crawl passes, including empty ones.",
		})
		roomFetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "foiarchive_room_fetch_failures_total",
			Help: "Total reading-room page fetches that failed.",
		})
		documentsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "foiarchive_documents_discovered_total",
			Help: "Total documents newly discovered.",
		})
		documentsDownloadedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "foiarchive_documents_downloaded_total",
			Help: "Total documents downloaded to storage.",
		})
		downloadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "foiarchive_download_failures_total",
			Help: "Total document download attempts that failed.",
		})
		runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "foiarchive_runs_total",
			Help: "Total discovery-and-crawl cycles, labeled by outcome.",
		}, []string{"outcome"})
	})
}

// RecordDirectoryUnits adds fetched unit counts.
func RecordDirectoryUnits(n int) {
	if directoryUnitsTotal != nil {
		directoryUnitsTotal.Add(float64(n))
	}
}

// RecordReconciled adds reconciled entity counts for one kind.
func RecordReconciled(kind string, n int) {
	if reconciledEntitiesTotal != nil {
		reconciledEntitiesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordRoomCrawled counts one crawl pass.
func RecordRoomCrawled() {
	if roomsCrawledTotal != nil {
		roomsCrawledTotal.Inc()
	}
}

// RecordRoomFetchFailure counts one failed room page fetch.
func RecordRoomFetchFailure() {
	if roomFetchFailuresTotal != nil {
		roomFetchFailuresTotal.Inc()
	}
}

// RecordDocumentDiscovered counts one new document row.
func RecordDocumentDiscovered() {
	if documentsDiscoveredTotal != nil {
		documentsDiscoveredTotal.Inc()
	}
}

// RecordDocumentDownloaded counts one completed download.
func RecordDocumentDownloaded() {
	if documentsDownloadedTotal != nil {
		documentsDownloadedTotal.Inc()
	}
}

// RecordDownloadFailure counts one failed download attempt.
func RecordDownloadFailure() {
	if downloadFailuresTotal != nil {
		downloadFailuresTotal.Inc()
	}
}

// RecordRun counts one completed cycle with its outcome label.
func RecordRun(outcome string) {
	if runsTotal != nil {
		runsTotal.WithLabelValues(outcome).Inc()
	}
}
