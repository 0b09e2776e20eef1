package extractor

import "time"

// Config holds the timing knobs of panel discovery and readiness detection.
type Config struct {
	PollInterval     time.Duration // readiness poll tick
	ReadyTimeout     time.Duration // bound on the readiness poll
	MinSegments      int           // textual segments that declare readiness outright
	ShortGrace       time.Duration // after this, a single textual segment is enough
	DescriptionWait  time.Duration // wait for the description region before retrying discovery
	SlowExtractAfter time.Duration // extractions slower than this are logged
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		PollInterval:     200 * time.Millisecond,
		ReadyTimeout:     10 * time.Second,
		MinSegments:      3,
		ShortGrace:       3 * time.Second,
		DescriptionWait:  5 * time.Second,
		SlowExtractAfter: 8 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = d.ReadyTimeout
	}
	if c.MinSegments <= 0 {
		c.MinSegments = d.MinSegments
	}
	if c.ShortGrace <= 0 {
		c.ShortGrace = d.ShortGrace
	}
	if c.DescriptionWait <= 0 {
		c.DescriptionWait = d.DescriptionWait
	}
	if c.SlowExtractAfter <= 0 {
		c.SlowExtractAfter = d.SlowExtractAfter
	}
	return c
}
