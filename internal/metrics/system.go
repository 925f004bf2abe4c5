package metrics

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

var startTime atomic.Int64

func init() {
	startTime.Store(time.Now().UnixNano())
}

// Snapshot is a point-in-time view of process stats, shared by the gauges and
// the /health-metrics endpoint.
type Snapshot struct {
	Goroutines    int     `json:"goroutines"`
	HeapBytes     uint64  `json:"heap_alloc_bytes"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// CollectSnapshot reads current process stats.
func CollectSnapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return Snapshot{
		Goroutines:    runtime.NumGoroutine(),
		HeapBytes:     mem.HeapAlloc,
		UptimeSeconds: time.Since(time.Unix(0, startTime.Load())).Seconds(),
	}
}

// StartSystemPoller refreshes the system gauges every interval until ctx is
// done. Call after Init.
func StartSystemPoller(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	update := func() {
		snap := CollectSnapshot()
		processGoroutines.Set(float64(snap.Goroutines))
		processHeapBytes.Set(float64(snap.HeapBytes))
		uptimeSeconds.Set(snap.UptimeSeconds)
	}
	update()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()
}
