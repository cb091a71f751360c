package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/gamma/internal/gamma"
)

func TestEmptyAlignmentConfigDefaults(t *testing.T) {
	cfg := EmptyAlignmentConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty config should validate: %v", err)
	}
	if cfg.GetMaxCandidates() != 100000 {
		t.Errorf("GetMaxCandidates() = %d, want 100000", cfg.GetMaxCandidates())
	}
	if cfg.GetMaxNodes() != 0 {
		t.Errorf("GetMaxNodes() = %d, want 0", cfg.GetMaxNodes())
	}
	if cfg.GetSolveTimeout() != 0 {
		t.Errorf("GetSolveTimeout() = %v, want 0", cfg.GetSolveTimeout())
	}
	if !cfg.GetRelaxation() {
		t.Error("GetRelaxation() = false, want true")
	}
	if cfg.GetSelectionThreshold() != gamma.DefaultSelectionThreshold {
		t.Errorf("GetSelectionThreshold() = %f, want %f", cfg.GetSelectionThreshold(), gamma.DefaultSelectionThreshold)
	}
	if cfg.GetObjective() != gamma.ObjectiveMean {
		t.Errorf("GetObjective() = %q, want mean", cfg.GetObjective())
	}
	if cfg.GetMaxRefinements() != gamma.DefaultMaxRefinements {
		t.Errorf("GetMaxRefinements() = %d, want %d", cfg.GetMaxRefinements(), gamma.DefaultMaxRefinements)
	}
}

func TestLoadAlignmentConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "alignment.json")

	testJSON := `{
  "max_candidates": 5000,
  "max_nodes": 1000,
  "solve_timeout": "2s",
  "relaxation": false,
  "selection_threshold": 0.75,
  "objective": "sum",
  "max_refinements": 4
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadAlignmentConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetMaxCandidates() != 5000 {
		t.Errorf("GetMaxCandidates() = %d, want 5000", cfg.GetMaxCandidates())
	}
	if cfg.GetMaxNodes() != 1000 {
		t.Errorf("GetMaxNodes() = %d, want 1000", cfg.GetMaxNodes())
	}
	if cfg.GetSolveTimeout() != 2*time.Second {
		t.Errorf("GetSolveTimeout() = %v, want 2s", cfg.GetSolveTimeout())
	}
	if cfg.GetRelaxation() {
		t.Error("GetRelaxation() = true, want false")
	}
	if cfg.GetSelectionThreshold() != 0.75 {
		t.Errorf("GetSelectionThreshold() = %f, want 0.75", cfg.GetSelectionThreshold())
	}
	if cfg.GetObjective() != gamma.ObjectiveSum {
		t.Errorf("GetObjective() = %q, want sum", cfg.GetObjective())
	}

	opts := cfg.Options()
	if opts.MaxCandidates != 5000 || opts.Objective != gamma.ObjectiveSum || opts.MaxRefinements != 4 || opts.Timeout != 2*time.Second {
		t.Errorf("Options() = %+v", opts)
	}
	bb, ok := opts.Solver.(*gamma.BranchAndBound)
	if !ok {
		t.Fatalf("Options().Solver is %T, want *gamma.BranchAndBound", opts.Solver)
	}
	if bb.MaxNodes != 1000 || bb.Relaxation || bb.SelectionThreshold != 0.75 {
		t.Errorf("solver = %+v", bb)
	}
	if bb.Timeout != 0 {
		t.Errorf("solve_timeout bounds the whole run, solver Timeout = %v, want 0", bb.Timeout)
	}
}

func TestLoadAlignmentConfig_PartialFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")
	if err := os.WriteFile(configPath, []byte(`{"objective": "sum"}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadAlignmentConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.MaxCandidates != nil {
		t.Errorf("MaxCandidates should stay unset, got %v", *cfg.MaxCandidates)
	}
	if cfg.GetMaxCandidates() != 100000 {
		t.Errorf("GetMaxCandidates() = %d, want default", cfg.GetMaxCandidates())
	}
}

func TestLoadAlignmentConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		t.Helper()
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name      string
		path      string
		errSubstr string
	}{
		{"wrong extension", write("cfg.yaml", `{}`), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "nope.json"), "stat config"},
		{"invalid json", write("broken.json", `{"max_nodes": `), "parse config JSON"},
		{"invalid value", write("bad.json", `{"objective": "median"}`), "invalid configuration"},
		{"too large", write("huge.json", `{"objective": "mean"`+strings.Repeat(" ", 1024*1024)+`}`), "too large"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadAlignmentConfig(tc.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.errSubstr) {
				t.Errorf("error %q does not contain %q", err, tc.errSubstr)
			}
		})
	}
}

func TestAlignmentConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AlignmentConfig
		wantErr bool
	}{
		{"empty", AlignmentConfig{}, false},
		{"negative candidates", AlignmentConfig{MaxCandidates: ptrInt(-1)}, true},
		{"zero candidates", AlignmentConfig{MaxCandidates: ptrInt(0)}, false},
		{"negative nodes", AlignmentConfig{MaxNodes: ptrInt64(-5)}, true},
		{"bad timeout", AlignmentConfig{SolveTimeout: ptrString("soon")}, true},
		{"negative timeout", AlignmentConfig{SolveTimeout: ptrString("-1s")}, true},
		{"empty timeout", AlignmentConfig{SolveTimeout: ptrString("")}, false},
		{"threshold at half", AlignmentConfig{SelectionThreshold: ptrFloat64(0.5)}, true},
		{"threshold at one", AlignmentConfig{SelectionThreshold: ptrFloat64(1)}, true},
		{"threshold ok", AlignmentConfig{SelectionThreshold: ptrFloat64(0.99)}, false},
		{"unknown objective", AlignmentConfig{Objective: ptrString("max")}, true},
		{"zero refinements", AlignmentConfig{MaxRefinements: ptrInt(0)}, true},
		{"relaxation off", AlignmentConfig{Relaxation: ptrBool(false)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.GetMaxCandidates() != 100000 {
		t.Errorf("GetMaxCandidates() = %d, want 100000", cfg.GetMaxCandidates())
	}
	if cfg.GetMaxNodes() != 5000000 {
		t.Errorf("GetMaxNodes() = %d, want 5000000", cfg.GetMaxNodes())
	}
	if cfg.GetSolveTimeout() != time.Minute {
		t.Errorf("GetSolveTimeout() = %v, want 1m", cfg.GetSolveTimeout())
	}
	if cfg.GetObjective() != gamma.ObjectiveMean {
		t.Errorf("GetObjective() = %q, want mean", cfg.GetObjective())
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GAMMA_OBJECTIVE", "sum")
	t.Setenv("GAMMA_MAX_NODES", "42")
	t.Setenv("GAMMA_RELAXATION", "false")

	cfg := &AlignmentConfig{MaxCandidates: ptrInt(7), MaxNodes: ptrInt64(1)}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.GetObjective() != gamma.ObjectiveSum {
		t.Errorf("GetObjective() = %q, want sum", cfg.GetObjective())
	}
	if cfg.GetMaxNodes() != 42 {
		t.Errorf("GetMaxNodes() = %d, want 42", cfg.GetMaxNodes())
	}
	if cfg.GetRelaxation() {
		t.Error("GetRelaxation() = true, want false")
	}
	if cfg.GetMaxCandidates() != 7 {
		t.Errorf("unset variables must keep file values, GetMaxCandidates() = %d", cfg.GetMaxCandidates())
	}
	if cfg.SelectionThreshold != nil {
		t.Errorf("SelectionThreshold should stay unset, got %v", *cfg.SelectionThreshold)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Run("unparseable", func(t *testing.T) {
		t.Setenv("GAMMA_MAX_CANDIDATES", "many")
		if err := EmptyAlignmentConfig().ApplyEnv(); err == nil {
			t.Error("expected parse error")
		}
	})
	t.Run("fails validation", func(t *testing.T) {
		t.Setenv("GAMMA_SELECTION_THRESHOLD", "0.2")
		err := EmptyAlignmentConfig().ApplyEnv()
		if err == nil || !strings.Contains(err.Error(), "selection_threshold") {
			t.Errorf("ApplyEnv() error = %v, want selection_threshold error", err)
		}
	})
}
