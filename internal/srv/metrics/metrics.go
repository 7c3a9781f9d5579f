// Package metrics exposes Prometheus metrics for the playback engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for ItemsPlayedTotal.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeStopped   = "stopped"
)

var (
	// ItemsPlayedTotal counts playback sessions by kind (library, clock, override) and outcome.
	ItemsPlayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gifmatrix_items_played_total",
		Help: "Total number of playback sessions, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// DecodeErrorsTotal counts library items skipped because they could not be decoded.
	DecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gifmatrix_decode_errors_total",
		Help: "Total number of library items skipped on decode failure.",
	})

	// DeviceErrorsTotal counts frames dropped because the display refused them.
	DeviceErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gifmatrix_device_errors_total",
		Help: "Total number of frames dropped on display failure.",
	})

	OverridesSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gifmatrix_overrides_submitted_total",
		Help: "Total number of override requests submitted.",
	})

	OverridesPlayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gifmatrix_overrides_played_total",
		Help: "Total number of override requests handed to the scheduler.",
	})

	// LibraryItems tracks the size of the last library listing.
	LibraryItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gifmatrix_library_items",
		Help: "Number of items found by the last library listing.",
	})

	// FramesPresentedTotal counts frames pushed to the display.
	FramesPresentedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gifmatrix_frames_presented_total",
		Help: "Total number of frames pushed to the display.",
	})
)
