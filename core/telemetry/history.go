package telemetry

// HistoryLen bounds the pack current history.
const HistoryLen = 20

// pushWindow appends v to h and evicts the oldest samples so that at most
// size entries remain. Insertion order is preserved.
func pushWindow(h []float64, v float64, size int) []float64 {
	if size <= 0 {
		return h[:0]
	}
	if len(h) >= size {
		// shift in place, the backing array never grows past size
		copy(h, h[len(h)-size+1:])
		h = h[:size-1]
	}
	return append(h, v)
}
