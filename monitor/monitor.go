// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 徽章侧指标
type Metrics struct {
	FramesSent     prometheus.Counter
	FramesReceived prometheus.Counter
	FramesDeduped  prometheus.Counter
	Transitions    prometheus.Counter
	GamesPlayed    *prometheus.CounterVec // outcome: win / lose
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Total radio frames transmitted",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total valid radio frames received",
		}),
		FramesDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_deduped_total",
			Help:      "Inbound frames dropped as consecutive duplicates",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Executed state machine transitions",
		}),
		GamesPlayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_played_total",
			Help:      "Finished games by outcome",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.FramesSent,
		m.FramesReceived,
		m.FramesDeduped,
		m.Transitions,
		m.GamesPlayed,
	)

	return m
}

// HubMetrics 中继侧指标
type HubMetrics struct {
	Connected     prometheus.Gauge
	FramesRelayed prometheus.Counter
}

func NewHubMetrics(namespace string) *HubMetrics {
	m := &HubMetrics{
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_connected",
			Help:      "Badges currently connected to the relay",
		}),
		FramesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_relayed_total",
			Help:      "Frames forwarded between badges",
		}),
	}

	prometheus.MustRegister(m.Connected, m.FramesRelayed)
	return m
}

// RecorderMetrics 记录服务指标
type RecorderMetrics struct {
	GamesRecorded prometheus.Counter
	BadRequests   prometheus.Counter
}

func NewRecorderMetrics(namespace string) *RecorderMetrics {
	m := &RecorderMetrics{
		GamesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_recorded_total",
			Help:      "Game records accepted and stored",
		}),
		BadRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bad_requests_total",
			Help:      "Record uploads rejected as malformed",
		}),
	}

	prometheus.MustRegister(m.GamesRecorded, m.BadRequests)
	return m
}

// StartServer 在 addr 上暴露 /metrics
func StartServer(addr string) {
	startTime := time.Now()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(startTime).Seconds()
	}))

	go http.ListenAndServe(addr, mux)
}
