// Command gamma computes the best alignment of a continuum fixture and reports
// its disorder. Runs can be recorded to, and listed from, a SQLite history.
//
//	gamma -input fixture.json [-config alignment.json] [-db runs.db] [-timeout 30s]
//	gamma -db runs.db -list 10
//	gamma -version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/gamma/internal/config"
	"github.com/banshee-data/gamma/internal/continuum"
	"github.com/banshee-data/gamma/internal/gamma"
	"github.com/banshee-data/gamma/internal/monitoring"
	"github.com/banshee-data/gamma/internal/store"
	"github.com/banshee-data/gamma/internal/version"
)

// Config holds the command-line flags.
type Config struct {
	Input      string
	ConfigPath string
	DBPath     string
	Timeout    time.Duration
	List       int
	Quiet      bool
	Version    bool
}

func parseFlags(args []string, stderr io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("gamma", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Input, "input", "", "continuum fixture (.json)")
	fs.StringVar(&cfg.ConfigPath, "config", "", "alignment config (.json); GAMMA_* env vars override it")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite run history; runs are recorded when set")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "overall deadline for the run (0 = none)")
	fs.IntVar(&cfg.List, "list", 0, "list the N most recent runs from -db and exit")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "suppress diagnostic logging")
	fs.BoolVar(&cfg.Version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Version {
		return cfg, nil
	}
	if cfg.List > 0 && cfg.DBPath == "" {
		return Config{}, errors.New("-list requires -db")
	}
	if cfg.List == 0 && cfg.Input == "" {
		return Config{}, errors.New("-input is required")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("gamma: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("gamma: %v", err)
	}
}

func loadAlignmentConfig(path string) (*config.AlignmentConfig, error) {
	cfg := config.EmptyAlignmentConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadAlignmentConfig(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.Version {
		_, err := fmt.Fprintln(out, version.String("gamma"))
		return err
	}
	if cfg.Quiet {
		monitoring.SetLogger(nil)
	}

	var runs *store.Store
	if cfg.DBPath != "" {
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer s.Close()
		runs = s
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if cfg.List > 0 {
		if runs == nil {
			return errors.New("-list requires -db")
		}
		list, err := runs.ListRuns(ctx, cfg.List)
		if err != nil {
			return err
		}
		return enc.Encode(list)
	}

	alignCfg, err := loadAlignmentConfig(cfg.ConfigPath)
	if err != nil {
		return err
	}

	stopLoad := monitoring.Timed("load " + cfg.Input)
	tl, dissim, err := continuum.LoadFixture(cfg.Input)
	stopLoad()
	if err != nil {
		return err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	best, err := gamma.ComputeBestAlignment(ctx, tl, dissim, alignCfg.Options())
	if err != nil {
		return err
	}
	summary := best.Summary()

	if runs != nil {
		if err := runs.RecordRun(ctx, summary); err != nil {
			return err
		}
		monitoring.Logf("recorded run %s in %s", summary.RunID, cfg.DBPath)
	}
	return enc.Encode(summary)
}
