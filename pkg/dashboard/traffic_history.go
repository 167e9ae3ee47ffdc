package dashboard

import (
	"math"
	"sync"

	"github.com/bmharper/ringbuffer"
)

const DefaultHistorySize = 20

type TrafficPoint struct {
	Label string
	RxMB  float64
	TxMB  float64
}

// TrafficHistory keeps the most recent traffic totals, the oldest point is
// dropped once the capacity is reached.
type TrafficHistory struct {
	mu       sync.RWMutex
	capacity int
	history  ringbuffer.RingP[TrafficPoint]
}

func NewTrafficHistory(capacity int) *TrafficHistory {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &TrafficHistory{
		capacity: capacity,
		history:  ringbuffer.NewRingP[TrafficPoint](ringSize(capacity)),
	}
}

// ringSize returns the smallest power of two able to hold capacity items,
// the ring keeps one slot free.
func ringSize(capacity int) int {
	size := 2
	for size < capacity+1 {
		size <<= 1
	}
	return size
}

func (h *TrafficHistory) Add(label string, rxBytes int64, txBytes int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.history.Len() >= h.capacity {
		h.history.Next()
	}
	h.history.Add(TrafficPoint{
		Label: label,
		RxMB:  BytesToMB(rxBytes),
		TxMB:  BytesToMB(txBytes),
	})
}

func (h *TrafficHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.history.Len()
}

// Points returns the series from oldest to newest.
func (h *TrafficHistory) Points() []TrafficPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	points := make([]TrafficPoint, 0, h.history.Len())
	for i := 0; i < h.history.Len(); i++ {
		points = append(points, h.history.Peek(i))
	}
	return points
}

// BytesToMB converts to decimal megabytes rounded to two places.
func BytesToMB(bytes int64) float64 {
	return math.Round(float64(bytes)/1e6*100) / 100
}
