package indicator

import "github.com/newthinker/thrust/internal/core"

// Rolling maintains the extremes of the last Size candles pushed into it.
// Each extreme is tracked with a monotonic deque of indices, so a full pass
// over n candles costs O(n) regardless of window size.
type Rolling struct {
	size    int
	count   int
	prices  [4][]float64 // high, low, close, close
	deques  [4][]int
	greater [4]bool // true keeps the maximum at the front
}

const (
	slotHigh = iota
	slotLow
	slotMaxClose
	slotMinClose
)

// NewRolling creates a rolling window of the given size
func NewRolling(size int) *Rolling {
	return &Rolling{
		size:    size,
		greater: [4]bool{true, false, true, false},
	}
}

// Push appends the next candle and evicts the one that fell out of the window
func (r *Rolling) Push(c core.Candle) {
	values := [4]float64{c.High, c.Low, c.Close, c.Close}
	idx := r.count
	r.count++
	for s := range r.deques {
		r.prices[s] = append(r.prices[s], values[s])
		dq := r.deques[s]
		for len(dq) > 0 && r.dominated(s, dq[len(dq)-1], values[s]) {
			dq = dq[:len(dq)-1]
		}
		dq = append(dq, idx)
		for dq[0] <= idx-r.size {
			dq = dq[1:]
		}
		r.deques[s] = dq
	}
	r.compact()
}

// dominated reports whether the value at index i can never again be an
// extreme once v has been pushed
func (r *Rolling) dominated(slot, i int, v float64) bool {
	if r.greater[slot] {
		return r.prices[slot][i-r.base()] <= v
	}
	return r.prices[slot][i-r.base()] >= v
}

// Full reports whether Size candles have been pushed
func (r *Rolling) Full() bool {
	return r.count >= r.size
}

// Extremes returns the extremes over the current window contents
func (r *Rolling) Extremes() WindowExtremes {
	at := func(slot int) float64 {
		return r.prices[slot][r.deques[slot][0]-r.base()]
	}
	return WindowExtremes{
		HighestHigh:  at(slotHigh),
		LowestLow:    at(slotLow),
		HighestClose: at(slotMaxClose),
		LowestClose:  at(slotMinClose),
	}
}

// base is the absolute index of prices[s][0]
func (r *Rolling) base() int {
	return r.count - len(r.prices[0])
}

// compact drops stored prices that are outside the window
func (r *Rolling) compact() {
	if len(r.prices[0]) <= 2*r.size {
		return
	}
	drop := len(r.prices[0]) - r.size
	for s := range r.prices {
		r.prices[s] = append(r.prices[s][:0:0], r.prices[s][drop:]...)
	}
}
