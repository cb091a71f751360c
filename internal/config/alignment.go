package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/gamma/internal/gamma"
)

// DefaultConfigPath is the path to the canonical alignment defaults file.
const DefaultConfigPath = "config/alignment.defaults.json"

// AlignmentConfig holds the knobs of a best-alignment run. Nil fields fall
// back to the defaults returned by the Get* methods, so partial files are safe.
type AlignmentConfig struct {
	// Candidate generation
	MaxCandidates *int `json:"max_candidates,omitempty" env:"GAMMA_MAX_CANDIDATES"`

	// Solver
	MaxNodes           *int64   `json:"max_nodes,omitempty" env:"GAMMA_MAX_NODES"`
	SolveTimeout       *string  `json:"solve_timeout,omitempty" env:"GAMMA_SOLVE_TIMEOUT"` // duration string like "30s"
	Relaxation         *bool    `json:"relaxation,omitempty" env:"GAMMA_RELAXATION"`
	SelectionThreshold *float64 `json:"selection_threshold,omitempty" env:"GAMMA_SELECTION_THRESHOLD"`

	// Objective
	Objective      *string `json:"objective,omitempty" env:"GAMMA_OBJECTIVE"` // "mean" or "sum"
	MaxRefinements *int    `json:"max_refinements,omitempty" env:"GAMMA_MAX_REFINEMENTS"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyAlignmentConfig returns a config with every field unset.
func EmptyAlignmentConfig() *AlignmentConfig {
	return &AlignmentConfig{}
}

// LoadAlignmentConfig loads a config from a JSON file. The file must have a
// .json extension and be under 1MB.
func LoadAlignmentConfig(path string) (*AlignmentConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAlignmentConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory or
// one of its parents. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *AlignmentConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAlignmentConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *AlignmentConfig) Validate() error {
	if c.MaxCandidates != nil && *c.MaxCandidates < 0 {
		return fmt.Errorf("max_candidates must be non-negative, got %d", *c.MaxCandidates)
	}
	if c.MaxNodes != nil && *c.MaxNodes < 0 {
		return fmt.Errorf("max_nodes must be non-negative, got %d", *c.MaxNodes)
	}
	if c.SolveTimeout != nil && *c.SolveTimeout != "" {
		d, err := time.ParseDuration(*c.SolveTimeout)
		if err != nil {
			return fmt.Errorf("invalid solve_timeout '%s': %w", *c.SolveTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("solve_timeout must be non-negative, got %s", *c.SolveTimeout)
		}
	}
	if c.SelectionThreshold != nil {
		if *c.SelectionThreshold <= 0.5 || *c.SelectionThreshold >= 1 {
			return fmt.Errorf("selection_threshold must be between 0.5 and 1 (exclusive), got %f", *c.SelectionThreshold)
		}
	}
	if c.Objective != nil {
		switch gamma.Objective(*c.Objective) {
		case gamma.ObjectiveMean, gamma.ObjectiveSum:
		default:
			return fmt.Errorf("objective must be %q or %q, got %q", gamma.ObjectiveMean, gamma.ObjectiveSum, *c.Objective)
		}
	}
	if c.MaxRefinements != nil && *c.MaxRefinements < 1 {
		return fmt.Errorf("max_refinements must be at least 1, got %d", *c.MaxRefinements)
	}
	return nil
}

// GetMaxCandidates returns max_candidates or the default.
func (c *AlignmentConfig) GetMaxCandidates() int {
	if c.MaxCandidates == nil {
		return 100000 // default
	}
	return *c.MaxCandidates
}

// GetMaxNodes returns max_nodes or the default. Zero means unlimited.
func (c *AlignmentConfig) GetMaxNodes() int64 {
	if c.MaxNodes == nil {
		return 0
	}
	return *c.MaxNodes
}

// GetSolveTimeout parses solve_timeout, the deadline for a whole alignment
// run including every refinement solve. Zero means no timeout.
func (c *AlignmentConfig) GetSolveTimeout() time.Duration {
	if c.SolveTimeout == nil || *c.SolveTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.SolveTimeout)
	if err != nil {
		return 0
	}
	return d
}

// GetRelaxation returns relaxation or the default.
func (c *AlignmentConfig) GetRelaxation() bool {
	if c.Relaxation == nil {
		return true // default
	}
	return *c.Relaxation
}

// GetSelectionThreshold returns selection_threshold or the default.
func (c *AlignmentConfig) GetSelectionThreshold() float64 {
	if c.SelectionThreshold == nil {
		return gamma.DefaultSelectionThreshold
	}
	return *c.SelectionThreshold
}

// GetObjective returns objective or the default.
func (c *AlignmentConfig) GetObjective() gamma.Objective {
	if c.Objective == nil || *c.Objective == "" {
		return gamma.ObjectiveMean
	}
	return gamma.Objective(*c.Objective)
}

// GetMaxRefinements returns max_refinements or the default.
func (c *AlignmentConfig) GetMaxRefinements() int {
	if c.MaxRefinements == nil {
		return gamma.DefaultMaxRefinements
	}
	return *c.MaxRefinements
}

// Options builds gamma.Options from the config.
func (c *AlignmentConfig) Options() gamma.Options {
	return gamma.Options{
		MaxCandidates: c.GetMaxCandidates(),
		Solver: &gamma.BranchAndBound{
			MaxNodes:           c.GetMaxNodes(),
			Relaxation:         c.GetRelaxation(),
			SelectionThreshold: c.GetSelectionThreshold(),
		},
		Objective:      c.GetObjective(),
		MaxRefinements: c.GetMaxRefinements(),
		Timeout:        c.GetSolveTimeout(),
	}
}
