package server

import (
	"fmt"
	"time"
)

// DefaultTimeout is how long the server waits for an ACK before resending
// the current DATA packet.
const DefaultTimeout = 2 * time.Second

// Config holds the protocol settings of a Server.
type Config struct {
	// Timeout is the per-receive wait for an ACK during a transfer.
	Timeout time.Duration

	// MaxRetransmits caps consecutive retransmissions of one block. Zero
	// means retransmit until an ACK arrives or the server is stopped.
	MaxRetransmits int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		MaxRetransmits: 0,
	}
}

// Validate checks the configuration for values the serve loop cannot use.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxRetransmits < 0 {
		return fmt.Errorf("max retransmits cannot be negative, got %d", c.MaxRetransmits)
	}
	return nil
}
