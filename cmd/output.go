package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	sim "github.com/mcrf-sim/mcrf-sim/sim"
	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

// Report is written to report.yaml next to the realizations.
type Report struct {
	Diagnostics  sim.Diagnostics           `yaml:"diagnostics"`
	Summary      *trace.TraceSummary       `yaml:"summary"`
	Realizations []trace.RealizationRecord `yaml:"realizations,omitempty"`
	Failures     []string                  `yaml:"failures,omitempty"`
}

// RealizationFileName is the file holding realization i.
func RealizationFileName(i int) string {
	return fmt.Sprintf("realization_%02d.dat", i)
}

// WriteRealization writes one code per line in cell order, no-data cells included.
func WriteRealization(dir string, r *sim.Realization) (string, error) {
	path := filepath.Join(dir, RealizationFileName(r.Index))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating realization file: %w", err)
	}
	w := bufio.NewWriter(file)
	for _, v := range r.Values {
		_, _ = w.WriteString(strconv.Itoa(v))
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// WriteResults writes every successful realization and report.yaml into dir.
func WriteResults(dir string, res *sim.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, r := range res.Realizations {
		if _, err := WriteRealization(dir, r); err != nil {
			return err
		}
	}

	report := Report{
		Diagnostics: res.Diagnostics,
		Summary:     trace.Summarize(res.Trace),
	}
	if res.Trace != nil {
		report.Realizations = res.Trace.Realizations
	}
	for _, f := range res.Failures {
		report.Failures = append(report.Failures, f.Error())
	}
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
