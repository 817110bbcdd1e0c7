// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarksTotal counts attendance marks by resulting status.
	MarksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroll_marks_total",
		Help: "Attendance records written, by status.",
	}, []string{"status"})

	// AuthFailures counts rejected privileged requests.
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classroll_auth_failures_total",
		Help: "Requests rejected by the role gate.",
	})

	// SummaryCacheHits counts summary reads served from the redis cache.
	SummaryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classroll_summary_cache_hits_total",
		Help: "Summary requests answered from cache.",
	})
)
