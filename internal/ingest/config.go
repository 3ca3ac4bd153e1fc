// Package ingest defines the streaming contract shared by every chat-export
// reader: pull-based message streams, progress tracking, and the knobs that
// bound memory use. Readers hold O(1) state relative to file size.
package ingest

const (
	// DefaultBufferSize is the read buffer size for source readers
	DefaultBufferSize = 64 * 1024

	// DefaultMaxRecordSize bounds a single record; anything larger is
	// rejected rather than buffered
	DefaultMaxRecordSize = 10 * 1024 * 1024

	// DefaultProgressInterval is how many messages pass between progress
	// log lines
	DefaultProgressInterval = 10_000

	// StreamingBufferSize is the larger read buffer used when throughput
	// matters more than footprint, e.g. multi-gigabyte exports
	StreamingBufferSize = 256 * 1024
)

// Config controls buffering and error behavior for source readers
type Config struct {
	// BufferSize is the size of the buffered reader in bytes
	BufferSize int

	// MaxRecordSize caps a single record's size in bytes
	MaxRecordSize int

	// SkipInvalid makes streams skip undecodable records instead of
	// surfacing them as errors
	SkipInvalid bool

	// ProgressInterval is how many messages between progress reports
	ProgressInterval int

	// KeepSystemMessages keeps WhatsApp housekeeping lines (encryption
	// notices, joins, renames) instead of dropping them
	KeepSystemMessages bool
}

// DefaultConfig returns the standard configuration: 64 KiB buffers,
// 10 MiB record cap, skip invalid records, report every 10k messages
func DefaultConfig() Config {
	return Config{
		BufferSize:       DefaultBufferSize,
		MaxRecordSize:    DefaultMaxRecordSize,
		SkipInvalid:      true,
		ProgressInterval: DefaultProgressInterval,
	}
}

// StreamingConfig returns a throughput-oriented configuration: identical to
// DefaultConfig but with a 256 KiB read buffer
func StreamingConfig() Config {
	c := DefaultConfig()
	c.BufferSize = StreamingBufferSize
	return c
}

// withDefaults fills zero fields so partially built configs still behave
func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.MaxRecordSize <= 0 {
		c.MaxRecordSize = DefaultMaxRecordSize
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	return c
}

// Normalize returns the config with defaults applied to zero fields
func (c Config) Normalize() Config { return c.withDefaults() }
