package chat

// MergeConsecutive collapses runs of messages from the same sender into a
// single message with newline-joined content. The run keeps the first
// message's metadata, which marks the start of the conversation block.
// Intended to cut token counts before feeding transcripts to LLMs.
func MergeConsecutive(msgs []Message) []Message {
	if len(msgs) == 0 {
		return msgs
	}
	merged := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if n := len(merged); n > 0 && merged[n-1].Sender == m.Sender {
			merged[n-1].Content += "\n" + m.Content
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// Stats summarizes a processing run
type Stats struct {
	OriginalCount int
	FilteredCount int // -1 when no filter was applied
	MergedCount   int
}

// NewStats builds Stats for a run without filtering
func NewStats(original, merged int) Stats {
	return Stats{OriginalCount: original, FilteredCount: -1, MergedCount: merged}
}

// WithFiltered records the post-filter count
func (s Stats) WithFiltered(n int) Stats {
	s.FilteredCount = n
	return s
}

// CompressionRatio reports how much merging shrank the message count, as a
// percentage of the pre-merge (filtered if available, else original) count
func (s Stats) CompressionRatio() float64 {
	base := s.OriginalCount
	if s.FilteredCount >= 0 {
		base = s.FilteredCount
	}
	if base == 0 {
		return 0
	}
	return (1 - float64(s.MergedCount)/float64(base)) * 100
}
