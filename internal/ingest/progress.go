package ingest

// Progress is a snapshot of how far a stream has advanced
type Progress struct {
	// BytesProcessed counts bytes consumed from the (uncompressed) input
	BytesProcessed int64

	// TotalBytes is the input size; only meaningful when TotalKnown
	TotalBytes int64

	// TotalKnown is false for inputs whose size cannot be determined
	// up front (compressed inputs, pipes)
	TotalKnown bool

	// Messages counts messages yielded so far
	Messages int64
}

// Percentage reports completion as 0..100. ok is false when the total
// size is unknown and no percentage can be computed. A known-empty input
// reports 100.
func (p Progress) Percentage() (pct float64, ok bool) {
	if !p.TotalKnown {
		return 0, false
	}
	if p.TotalBytes <= 0 {
		return 100, true
	}
	pct = float64(p.BytesProcessed) / float64(p.TotalBytes) * 100
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
