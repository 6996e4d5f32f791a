package transfer

import (
	"sync"
)

const recentWindow = 256

var statsMtx sync.Mutex
var stats Snapshot
var recentNext int

// Snapshot is a point-in-time copy of the transfer counters plus a window
// of recent transfer sizes.
type Snapshot struct {
	InBytes     uint64
	OutBytes    uint64
	InCount     uint64
	OutCount    uint64
	Errors      uint64
	RecentSizes []float64
}

func recordIn(n int) {
	statsMtx.Lock()
	defer statsMtx.Unlock()
	stats.InBytes += uint64(n)
	stats.InCount++
	recordSize(n)
}

func recordOut(n int) {
	statsMtx.Lock()
	defer statsMtx.Unlock()
	stats.OutBytes += uint64(n)
	stats.OutCount++
	recordSize(n)
}

func recordError() {
	statsMtx.Lock()
	defer statsMtx.Unlock()
	stats.Errors++
}

func recordSize(n int) {
	if len(stats.RecentSizes) < recentWindow {
		stats.RecentSizes = append(stats.RecentSizes, float64(n))
		return
	}
	stats.RecentSizes[recentNext] = float64(n)
	recentNext = (recentNext + 1) % recentWindow
}

// TakeSnapshot copies the counters so callers can digest them without
// holding anything up.
func TakeSnapshot() Snapshot {
	statsMtx.Lock()
	defer statsMtx.Unlock()
	out := stats
	out.RecentSizes = append([]float64(nil), stats.RecentSizes...)
	return out
}
