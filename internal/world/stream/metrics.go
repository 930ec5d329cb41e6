package stream

import (
	"github.com/annel0/voxel-world/internal/world/mesh"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics содержит метрики стриминга тайлов
type Metrics struct {
	GroundTiles    prometheus.Gauge
	CloudTiles     prometheus.Gauge
	Generated      *prometheus.CounterVec
	Evicted        *prometheus.CounterVec
	CloudResampled prometheus.Counter
	Evaluate       prometheus.Histogram
	CacheEntries   prometheus.Gauge
}

// NewMetrics создаёт и регистрирует метрики в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GroundTiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voxel_stream_ground_tiles",
			Help: "Number of resident ground tiles",
		}),
		CloudTiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voxel_stream_cloud_tiles",
			Help: "Number of resident cloud tiles",
		}),
		Generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voxel_stream_tiles_generated_total",
			Help: "Total number of synthesized tile buffers",
		}, []string{"layer"}),
		Evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voxel_stream_tiles_evicted_total",
			Help: "Total number of released tile buffers",
		}, []string{"layer"}),
		CloudResampled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voxel_stream_cloud_resampled_total",
			Help: "Total number of in-place cloud resamples",
		}),
		Evaluate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxel_stream_evaluate_seconds",
			Help:    "Duration of active set evaluation",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voxel_terrain_cache_entries",
			Help: "Number of memoized terrain entries",
		}),
	}

	reg.MustRegister(
		m.GroundTiles,
		m.CloudTiles,
		m.Generated,
		m.Evicted,
		m.CloudResampled,
		m.Evaluate,
		m.CacheEntries,
	)
	return m
}

func (m *Metrics) generated(layer mesh.Layer) {
	if m != nil {
		m.Generated.WithLabelValues(layer.String()).Inc()
	}
}

func (m *Metrics) evicted(layer mesh.Layer) {
	if m != nil {
		m.Evicted.WithLabelValues(layer.String()).Inc()
	}
}
