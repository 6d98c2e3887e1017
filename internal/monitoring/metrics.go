package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector handles metrics collection and reporting for the planner
type Collector struct {
	registry *prometheus.Registry

	generationRequests  *prometheus.CounterVec
	generationLatency   prometheus.Histogram
	imageRequests       *prometheus.CounterVec
	timelineRecomputes  prometheus.Counter
	timelineSubscribers prometheus.Gauge
}

// NewCollector creates a new metrics collector with its own registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	generationRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_generation_requests_total",
			Help: "Menu generation requests by outcome",
		},
		[]string{"outcome"},
	)

	generationLatency := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "menu_generation_duration_seconds",
			Help:    "Time taken by the generative collaborator to produce a menu",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		},
	)

	imageRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dish_image_requests_total",
			Help: "Dish image requests by outcome",
		},
		[]string{"outcome"},
	)

	timelineRecomputes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prep_timeline_recomputes_total",
			Help: "Full recomputations of the preparation timeline",
		},
	)

	timelineSubscribers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prep_timeline_subscribers",
			Help: "Clients currently subscribed to live timeline updates",
		},
	)

	collectors := []prometheus.Collector{
		generationRequests,
		generationLatency,
		imageRequests,
		timelineRecomputes,
		timelineSubscribers,
	}
	for _, c := range collectors {
		registry.MustRegister(c)
	}

	return &Collector{
		registry:            registry,
		generationRequests:  generationRequests,
		generationLatency:   generationLatency,
		imageRequests:       imageRequests,
		timelineRecomputes:  timelineRecomputes,
		timelineSubscribers: timelineSubscribers,
	}
}

// Registry returns the underlying prometheus registry for serving
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveGeneration records a menu generation attempt
func (c *Collector) ObserveGeneration(duration time.Duration, outcome string) {
	c.generationRequests.WithLabelValues(outcome).Inc()
	c.generationLatency.Observe(duration.Seconds())
}

// ObserveImageRequest records a dish image request
func (c *Collector) ObserveImageRequest(outcome string) {
	c.imageRequests.WithLabelValues(outcome).Inc()
}

// RecordTimelineRecompute counts one full timeline recomputation
func (c *Collector) RecordTimelineRecompute() {
	c.timelineRecomputes.Inc()
}

// SetTimelineSubscribers records the live subscriber count
func (c *Collector) SetTimelineSubscribers(n int) {
	c.timelineSubscribers.Set(float64(n))
}
