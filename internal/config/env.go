package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ApplyEnv overlays GAMMA_* environment variables onto c. Unset variables
// leave the existing values alone. The result is validated.
func (c *AlignmentConfig) ApplyEnv() error {
	var overlay AlignmentConfig
	if err := env.Parse(&overlay); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.merge(&overlay)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration from env: %w", err)
	}
	return nil
}

// merge copies every field that is set in o onto c.
func (c *AlignmentConfig) merge(o *AlignmentConfig) {
	if o.MaxCandidates != nil {
		c.MaxCandidates = o.MaxCandidates
	}
	if o.MaxNodes != nil {
		c.MaxNodes = o.MaxNodes
	}
	if o.SolveTimeout != nil {
		c.SolveTimeout = o.SolveTimeout
	}
	if o.Relaxation != nil {
		c.Relaxation = o.Relaxation
	}
	if o.SelectionThreshold != nil {
		c.SelectionThreshold = o.SelectionThreshold
	}
	if o.Objective != nil {
		c.Objective = o.Objective
	}
	if o.MaxRefinements != nil {
		c.MaxRefinements = o.MaxRefinements
	}
}
