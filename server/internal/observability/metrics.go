package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts requests per endpoint.
type Metrics struct {
	mu        sync.Mutex
	endpoints map[string]*EndpointMetrics
}

// EndpointMetrics holds the counters of one endpoint.
type EndpointMetrics struct {
	requests      atomic.Int64
	failures      atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{endpoints: make(map[string]*EndpointMetrics)}
}

func (m *Metrics) endpoint(name string) *EndpointMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	em, ok := m.endpoints[name]
	if !ok {
		em = &EndpointMetrics{}
		m.endpoints[name] = em
	}
	return em
}

// Record adds one finished request.
func (m *Metrics) Record(endpoint string, duration time.Duration, failed bool) {
	em := m.endpoint(endpoint)
	em.requests.Add(1)
	em.totalDuration.Add(duration.Milliseconds())
	if failed {
		em.failures.Add(1)
	}
}

// EndpointSnapshot is a point-in-time copy of one endpoint's counters.
type EndpointSnapshot struct {
	Endpoint          string `json:"endpoint"`
	Requests          int64  `json:"requests"`
	Failures          int64  `json:"failures"`
	AverageDurationMs int64  `json:"average_duration_ms"`
}

// Snapshot returns the counters sorted by endpoint.
func (m *Metrics) Snapshot() []EndpointSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]EndpointSnapshot, 0, len(m.endpoints))
	for name, em := range m.endpoints {
		snap := EndpointSnapshot{
			Endpoint: name,
			Requests: em.requests.Load(),
			Failures: em.failures.Load(),
		}
		if snap.Requests > 0 {
			snap.AverageDurationMs = em.totalDuration.Load() / snap.Requests
		}
		list = append(list, snap)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Endpoint < list[j].Endpoint })
	return list
}
