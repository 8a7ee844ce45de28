package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-process counters for the grievance API, keyed per route.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]int64
	errors   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]int64),
		errors:   make(map[string]int64),
	}
}

// RecordRequest increments the counter for one served request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := routeKey(method, path, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
}

// RecordError increments the counter for one request failing with the given
// domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := routeKey(method, path, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

// routeKey renders "GET /grievances 200" style counter keys.
func routeKey(method, path, suffix string) string {
	return method + " " + path + " " + suffix
}
