package sim

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

// MCRFSim simulates a categorical variable over a Cartesian grid with a Markov
// Chain Random Field. Fill in the exported fields, then call Run. The configuration
// is read-only while Run executes.
type MCRFSim struct {
	Primary     PrimaryData
	Grid        *CartesianGrid
	PDF         *CategoryPDF
	Transiogram *TransiogramModel
	// Transiogram2 is the other edge of the uncertainty band (Bayesian mode).
	Transiogram2 *TransiogramModel

	Lateral                   LateralGradationType
	InvertGradationConvention bool
	// GradationField holds the gradation value of each sim grid cell;
	// GradationFieldSets holds candidate fields for Bayesian runs.
	GradationField     []float64
	GradationFieldSets [][]float64
	// Lateral anisotropy fields, one value per cell (head/tail lateral modes).
	LVAAzimuth, LVASemiMajor, LVASemiMinor []float64

	// ActiveMask limits the simulated cells; nil simulates every cell.
	ActiveMask []bool

	// ProbFields holds one probability field per category (normal mode).
	// ProbFieldSets[c][s] is candidate field s of category c (Bayesian mode).
	// NaN or the grid's no-data value falls back to the PDF.
	ProbFields    [][]float64
	ProbFieldSets [][][]float64

	Tau       TauFactors
	TauPolicy TauSamplingPolicy

	// MaxThreads caps the workers; 0 means runtime.NumCPU().
	MaxThreads int
	Common     *CommonSimulationParameters
	Mode       MCRFMode

	// TraceLevel enables per-realization hyperparameter records.
	TraceLevel trace.TraceLevel
	Logger     logrus.FieldLogger
	Metrics    *RunMetrics
	OnProgress func(Progress)

	lastError    string
	realizations []*Realization
	primaryCache primaryCache
	// cellCheck, when set, runs before each cell draw; an error fails that realization.
	cellCheck func(realization, cell int) error
}

// NewMCRFSim returns a simulation in the given mode with default tau factors.
func NewMCRFSim(mode MCRFMode) *MCRFSim {
	return &MCRFSim{
		Mode:       mode,
		Tau:        DefaultTauFactors(),
		TraceLevel: trace.TraceLevelRealizations,
	}
}

// Diagnostics describes a finished run.
type Diagnostics struct {
	RunID          string        `yaml:"run_id"`
	Threads        int           `yaml:"threads"`
	CellsSimulated int64         `yaml:"cells_simulated"`
	CellsPlanned   int64         `yaml:"cells_planned"`
	Elapsed        time.Duration `yaml:"elapsed"`
}

// RunResult is the outcome of Run.
type RunResult struct {
	// Realizations holds the successful realizations ordered by index.
	Realizations []*Realization
	Failures     []*RealizationError
	Trace        *trace.RunTrace
	Diagnostics  Diagnostics
}

// MarkPrimaryDataChanged records that Primary was modified in place. The next Run
// rebuilds the primary data index instead of reusing the previous one.
func (s *MCRFSim) MarkPrimaryDataChanged() {
	if s.primaryCache.index != nil {
		s.primaryCache.index.MarkStale()
	}
}

// Realizations returns the successful realizations of the last run, by index.
func (s *MCRFSim) Realizations() []*Realization { return s.realizations }

func (s *MCRFSim) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

// Run validates the configuration, simulates every realization and blocks until
// all workers are done. No goroutine is started when validation fails.
//
// A realization that fails mid-run is reported in RunResult.Failures and does not
// stop the others. A worker panic fails the whole run.
func (s *MCRFSim) Run() (*RunResult, error) {
	s.realizations = nil
	if !s.IsOKToRun() {
		return nil, s.Validate()
	}
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger().WithField("run_id", runID)

	plan, err := s.buildPlan(log)
	if err != nil {
		return nil, err
	}
	nReal := s.Common.NumRealizations
	nThreads := min(s.threads(), nReal)
	log.WithFields(logrus.Fields{
		"realizations": nReal,
		"threads":      nThreads,
		"cells":        plan.grid.CellCount(),
		"simulable":    plan.nSimulable,
		"mode":         s.Mode,
	}).Info("starting MCRF simulation")

	out, err := s.runPool(plan, nThreads, log)
	if err != nil {
		log.WithError(err).Error("simulation aborted")
		return nil, err
	}

	result := &RunResult{
		Failures: out.failures,
		Trace:    out.trace,
		Diagnostics: Diagnostics{
			RunID:          runID,
			Threads:        nThreads,
			CellsSimulated: out.cells,
			CellsPlanned:   int64(plan.nSimulable) * int64(nReal),
			Elapsed:        time.Since(start),
		},
	}
	for _, r := range out.realizations {
		if r != nil {
			result.Realizations = append(result.Realizations, r)
		}
	}
	s.realizations = result.Realizations
	log.WithFields(logrus.Fields{
		"succeeded": len(result.Realizations),
		"failed":    len(result.Failures),
		"elapsed":   result.Diagnostics.Elapsed,
	}).Info("MCRF simulation finished")
	return result, nil
}

func (m MCRFMode) String() string {
	if m == ModeBayesian {
		return "bayesian"
	}
	return "normal"
}
