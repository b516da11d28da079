package transport

import "sync/atomic"

// Stats counts request traffic across both frontends. Updated inline on the
// request path and read by the /metrics handler, so everything is atomic.
type Stats struct {
	Requests      atomic.Int64
	Generations   atomic.Int64
	Rejected      atomic.Int64
	RateLimited   atomic.Int64
	Errors        atomic.Int64
	Chunks        atomic.Int64
	ShapesSkipped atomic.Int64
	GenerateNanos atomic.Int64 // total time spent generating
	WSConnections atomic.Int64 // currently open sockets
	WSMessages    atomic.Int64
}

// Metrics is a point-in-time view of Stats for handlers and tests.
type Metrics struct {
	Requests      int64 `json:"requests_total"`
	Generations   int64 `json:"generations_total"`
	Rejected      int64 `json:"rejected_total"`
	RateLimited   int64 `json:"rate_limited_total"`
	Errors        int64 `json:"errors_total"`
	Chunks        int64 `json:"chunks_total"`
	ShapesSkipped int64 `json:"shapes_skipped_total"`
	GenerateNanos int64 `json:"generate_nanos_total"`
	WSConnections int64 `json:"ws_connections"`
	WSMessages    int64 `json:"ws_messages_total"`
}

func (s *Stats) Snapshot() Metrics {
	return Metrics{
		Requests:      s.Requests.Load(),
		Generations:   s.Generations.Load(),
		Rejected:      s.Rejected.Load(),
		RateLimited:   s.RateLimited.Load(),
		Errors:        s.Errors.Load(),
		Chunks:        s.Chunks.Load(),
		ShapesSkipped: s.ShapesSkipped.Load(),
		GenerateNanos: s.GenerateNanos.Load(),
		WSConnections: s.WSConnections.Load(),
		WSMessages:    s.WSMessages.Load(),
	}
}
