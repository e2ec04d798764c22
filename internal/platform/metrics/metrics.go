package metrics

import (
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
)

var enabled bool

// Init turns metric recording on or off for the whole process. Recording
// functions are no-ops until Init(true) is called.
func Init(on bool) {
	enabled = on
}

func IsEnabled() bool {
	return enabled
}

// Handler serves the Prometheus text exposition, mounted by the router.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	}
}

// RecordTimelineBuild counts one timeline build, labeled by whether the feed
// was partial (an upstream input degraded to empty or cache).
func RecordTimelineBuild(partial bool) {
	if !enabled {
		return
	}
	name := `leadfeed_timeline_builds_total{partial="` + strconv.FormatBool(partial) + `"}`
	metrics.GetOrCreateCounter(name).Inc()
}

// RecordUpstreamFailure counts one failed upstream fetch per input source
// (lead, status_history, conversations).
func RecordUpstreamFailure(source string) {
	if !enabled {
		return
	}
	name := `leadfeed_upstream_failures_total{source="` + source + `"}`
	metrics.GetOrCreateCounter(name).Inc()
}

// RecordCacheFallback counts the times a stale snapshot stood in for a
// failed upstream fetch.
func RecordCacheFallback(source string) {
	if !enabled {
		return
	}
	name := `leadfeed_cache_fallbacks_total{source="` + source + `"}`
	metrics.GetOrCreateCounter(name).Inc()
}

// RecordDroppedRecord counts upstream records dropped at the parse boundary
// or skipped by the builder.
func RecordDroppedRecord(source string) {
	if !enabled {
		return
	}
	name := `leadfeed_dropped_records_total{source="` + source + `"}`
	metrics.GetOrCreateCounter(name).Inc()
}
