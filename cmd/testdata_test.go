package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSamplesCSV = `x,y,z,category,grad
0.5,0.5,0.5,1,0.1
3.5,3.5,0.5,2,0.4
1.5,2.5,1.5,1,0.2
`

const testRunYAML = `seed: 11
realizations: 2
threads: 1
mode: normal
categories:
  name: lithology
  items:
    - {code: 1, name: sand}
    - {code: 2, name: shale, color: "#808080"}
pdf: [0.6, 0.4]
grid: {ni: 4, nj: 4, nk: 2, dx: 1, dy: 1, dz: 1, no_data_value: -99}
samples:
  file: samples.csv
transiogram:
  - [{range: 3, sill: 0.6}, {range: 3, sill: 0.4}]
  - [{range: 3, sill: 0.6}, {range: 3, sill: 0.4}]
lateral:
  mode: tail-only
  azimuth: 0
  semi_major: 2
  semi_minor: 1
search:
  h_max: 3
  h_min: 3
  h_vert: 2
  max_samples: 8
  max_simulated_nodes: 8
`

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeRunDir lays out a run file and its samples in a temp directory.
func writeRunDir(t *testing.T, runYAML string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "samples.csv", testSamplesCSV)
	return writeFile(t, dir, "run.yaml", runYAML)
}
