// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AssetsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "flipclock_assets_written_total",
	Help: "The total number of frame images written by the asset pipeline",
}, []string{"format"})

var AssetFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "flipclock_asset_failures_total",
	Help: "The total number of frame images the asset pipeline failed to produce",
})

var Ticks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "flipclock_ticks_total",
	Help: "The total number of animation ticks that advanced a digit",
})

var MinuteUpdates = promauto.NewCounter(prometheus.CounterOpts{
	Name: "flipclock_minute_updates_total",
	Help: "The total number of times the displayed time was changed",
})

var FormatChanges = promauto.NewCounter(prometheus.CounterOpts{
	Name: "flipclock_format_changes_total",
	Help: "The total number of display format changes",
})

var Animating = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "flipclock_animating",
	Help: "1 while a flip animation is in progress",
})

var FrameBlitTime = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "flipclock_blit_seconds",
	Help:    "How long it takes to push one frame to a display sink",
	Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
})

var SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "flipclock_sink_errors_total",
	Help: "The total number of failed sink updates",
}, []string{"sink"})

var WebClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "flipclock_web_clients",
	Help: "The number of websocket clients currently connected",
})
