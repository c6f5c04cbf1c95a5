package observability

import (
	"sync"
	"time"
)

// Metrics keeps in-process request and error counters per route. It backs
// the admin metrics endpoint; an external scraper is out of scope here.
type Metrics struct {
	mu     sync.Mutex
	routes map[routeKey]*routeStats
	errors map[errorKey]int64
}

type routeKey struct {
	Path   string
	Method string
	Status int
}

type errorKey struct {
	Path   string
	Method string
	Code   string
}

type routeStats struct {
	count         int64
	totalDuration time.Duration
	maxDuration   time.Duration
}

// RouteMetric is one route's aggregated figures in a snapshot.
type RouteMetric struct {
	Path      string  `json:"path"`
	Method    string  `json:"method"`
	Status    int     `json:"status"`
	Count     int64   `json:"count"`
	AvgMillis float64 `json:"avg_ms"`
	MaxMillis float64 `json:"max_ms"`
}

// ErrorMetric is one error code's count in a snapshot.
type ErrorMetric struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Code   string `json:"code"`
	Count  int64  `json:"count"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Routes []RouteMetric `json:"routes"`
	Errors []ErrorMetric `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		routes: make(map[routeKey]*routeStats),
		errors: make(map[errorKey]int64),
	}
}

// RecordRequest folds one completed request into the route's aggregate.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := routeKey{Path: path, Method: method, Status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.routes[key]
	if !ok {
		stats = &routeStats{}
		m.routes[key] = stats
	}
	stats.count++
	stats.totalDuration += duration
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}
}

// RecordError counts one rendered error by its domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{Path: path, Method: method, Code: code}]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := Snapshot{
		Routes: make([]RouteMetric, 0, len(m.routes)),
		Errors: make([]ErrorMetric, 0, len(m.errors)),
	}
	for key, stats := range m.routes {
		avg := 0.0
		if stats.count > 0 {
			avg = float64(stats.totalDuration.Milliseconds()) / float64(stats.count)
		}
		snapshot.Routes = append(snapshot.Routes, RouteMetric{
			Path:      key.Path,
			Method:    key.Method,
			Status:    key.Status,
			Count:     stats.count,
			AvgMillis: avg,
			MaxMillis: float64(stats.maxDuration.Milliseconds()),
		})
	}
	for key, count := range m.errors {
		snapshot.Errors = append(snapshot.Errors, ErrorMetric{
			Path:   key.Path,
			Method: key.Method,
			Code:   key.Code,
			Count:  count,
		})
	}
	return snapshot
}
