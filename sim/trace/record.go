// Package trace records the per-realization hyperparameters of a simulation run
// for later reporting. It has no dependency on sim and stores plain data types.
package trace

// Realization outcomes.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// RealizationRecord captures what one realization was simulated with.
type RealizationRecord struct {
	Index            int     `yaml:"index"`
	Worker           int     `yaml:"worker"`
	Status           string  `yaml:"status"`
	TauTransiography float64 `yaml:"tau_transiography"`
	TauSecondary     float64 `yaml:"tau_secondary"`
	GradationSet     int     `yaml:"gradation_set"`     // -1 when no gradation field is used
	ProbFieldSet     int     `yaml:"prob_field_set"`    // -1 when no probability fields are used
	CellsSimulated   int64   `yaml:"cells_simulated"`
	ElapsedSeconds   float64 `yaml:"elapsed_seconds"`
	Error            string  `yaml:"error,omitempty"`
}
