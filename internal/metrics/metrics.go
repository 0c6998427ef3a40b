// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbox_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbox_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbox_messages_appended_total",
			Help: "Total messages recorded by the store",
		},
		[]string{"kind"},
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbox_persist_failures_total",
			Help: "Total failed writes of the message log or image files",
		},
	)

	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatbox_persist_duration_seconds",
			Help:    "Time to serialize and atomically replace the message log",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	ImageBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbox_image_bytes_written_total",
			Help: "Total bytes of image payloads written to disk",
		},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbox_stream_clients",
			Help: "Connected /api/stream websocket clients",
		},
	)
)
