package allocation

import (
	"fmt"
	"time"
)

// Config holds the engine's tunables.
type Config struct {
	// MinReturn and MaxReturn bound the random round-trip duration assigned
	// to a new dispatch.
	MinReturn time.Duration
	MaxReturn time.Duration
}

// SetDefaults applies the standard 10-20 minute return window.
func (c *Config) SetDefaults() {
	if c.MinReturn <= 0 {
		c.MinReturn = 10 * time.Minute
	}
	if c.MaxReturn <= 0 {
		c.MaxReturn = 20 * time.Minute
	}
}

// Validate checks the return window.
func (c Config) Validate() error {
	if c.MinReturn <= 0 || c.MaxReturn < c.MinReturn {
		return fmt.Errorf("invalid return window [%s, %s]", c.MinReturn, c.MaxReturn)
	}
	return nil
}
