package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/mcrf-sim/mcrf-sim/sim"
	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

// runOptions holds the flags of `mcrf-sim run`.
type runOptions struct {
	configPath   string
	seed         int64
	realizations int
	threads      int
	outDir       string
	logLevel     string
	metricsFile  string
}

var runOpts runOptions

// runCmd executes the simulation described by a run file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an MCRF simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(runOpts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", runOpts.logLevel)
		}
		logrus.SetLevel(level)

		if err := runSimulation(cmd, runOpts); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	addRunFlags(runCmd, &runOpts)
	_ = runCmd.MarkFlagRequired("config")
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the YAML run file")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Seed; overrides the run file")
	cmd.Flags().IntVar(&opts.realizations, "realizations", 0, "Number of realizations [1, 99]; overrides the run file")
	cmd.Flags().IntVar(&opts.threads, "threads", 0, "Max worker threads [1, 99], 0 for all CPUs; overrides the run file")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "mcrf-out", "Directory for realizations and report.yaml")
	cmd.Flags().StringVar(&opts.logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
}

// applyOverrides copies the flags the user set onto the run file values.
func applyOverrides(cmd *cobra.Command, opts runOptions, cfg *RunConfig) {
	if cmd.Flags().Changed("seed") {
		cfg.Seed = opts.seed
	}
	if cmd.Flags().Changed("realizations") {
		cfg.Realizations = opts.realizations
	}
	if cmd.Flags().Changed("threads") {
		cfg.Threads = opts.threads
	}
}

func runSimulation(cmd *cobra.Command, opts runOptions) error {
	cfg, err := LoadRunConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyOverrides(cmd, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	s, err := cfg.BuildSim(filepath.Dir(opts.configPath))
	if err != nil {
		return err
	}
	if opts.metricsFile != "" {
		s.Metrics = sim.NewRunMetrics()
	}
	lastPct := -1
	s.OnProgress = func(p sim.Progress) {
		if p.CellsTotal == 0 {
			return
		}
		if pct := int(100 * p.CellsSimulated / p.CellsTotal); pct/10 != lastPct/10 {
			lastPct = pct
			logrus.Infof("Progress: %d%% (%d/%d realizations done)", pct, p.RealizationsDone, p.RealizationsPlanned)
		}
	}

	res, err := s.Run()
	if err != nil {
		return err
	}
	if err := WriteResults(opts.outDir, res); err != nil {
		return err
	}
	if s.Metrics != nil {
		if err := s.Metrics.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}
	if s.TraceLevel == trace.TraceLevelRealizations && s.Mode == sim.ModeBayesian {
		sum := trace.Summarize(res.Trace)
		logrus.Infof("Bayesian tau (transiography): mean %.3f, range [%.3f, %.3f]",
			sum.MeanTauTransiography, sum.MinTauTransiography, sum.MaxTauTransiography)
	}
	logrus.Infof("Wrote %d realizations to %s", len(res.Realizations), opts.outDir)
	if len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d realizations failed; see %s",
			len(res.Failures), cfg.Realizations, filepath.Join(opts.outDir, "report.yaml"))
	}
	return nil
}
