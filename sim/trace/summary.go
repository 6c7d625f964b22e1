package trace

// TraceSummary aggregates statistics from a RunTrace.
type TraceSummary struct {
	TotalRealizations        int         `yaml:"total_realizations"`
	Succeeded                int         `yaml:"succeeded"`
	Failed                   int         `yaml:"failed"`
	CellsSimulated           int64       `yaml:"cells_simulated"`
	MeanTauTransiography     float64     `yaml:"mean_tau_transiography"`
	MinTauTransiography      float64     `yaml:"min_tau_transiography"`
	MaxTauTransiography      float64     `yaml:"max_tau_transiography"`
	MeanTauSecondary         float64     `yaml:"mean_tau_secondary"`
	GradationSetDistribution map[int]int `yaml:"gradation_set_distribution"` // set index → realizations
	ProbFieldSetDistribution map[int]int `yaml:"prob_field_set_distribution"`
	WorkerDistribution       map[int]int `yaml:"worker_distribution"` // worker → realizations
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *TraceSummary {
	summary := &TraceSummary{
		GradationSetDistribution: make(map[int]int),
		ProbFieldSetDistribution: make(map[int]int),
		WorkerDistribution:       make(map[int]int),
	}
	if rt == nil || len(rt.Realizations) == 0 {
		return summary
	}

	summary.TotalRealizations = len(rt.Realizations)
	summary.MinTauTransiography = rt.Realizations[0].TauTransiography
	summary.MaxTauTransiography = rt.Realizations[0].TauTransiography
	totalTauT, totalTauS := 0.0, 0.0
	for _, r := range rt.Realizations {
		if r.Status == StatusDone {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.CellsSimulated += r.CellsSimulated
		totalTauT += r.TauTransiography
		totalTauS += r.TauSecondary
		if r.TauTransiography < summary.MinTauTransiography {
			summary.MinTauTransiography = r.TauTransiography
		}
		if r.TauTransiography > summary.MaxTauTransiography {
			summary.MaxTauTransiography = r.TauTransiography
		}
		if r.GradationSet >= 0 {
			summary.GradationSetDistribution[r.GradationSet]++
		}
		if r.ProbFieldSet >= 0 {
			summary.ProbFieldSetDistribution[r.ProbFieldSet]++
		}
		summary.WorkerDistribution[r.Worker]++
	}
	n := float64(len(rt.Realizations))
	summary.MeanTauTransiography = totalTauT / n
	summary.MeanTauSecondary = totalTauS / n

	return summary
}
