package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/mcrf-sim/mcrf-sim/sim"
	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

func TestLoadRunConfig_ValidFile(t *testing.T) {
	// GIVEN a complete run file
	path := writeRunDir(t, testRunYAML)

	// WHEN it is loaded and validated
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	// THEN the sections are decoded
	assert.Equal(t, int64(11), cfg.Seed)
	assert.Equal(t, 2, cfg.Realizations)
	assert.Len(t, cfg.Categories.Items, 2)
	assert.Equal(t, "#808080", cfg.Categories.Items[1].Color)
	assert.Equal(t, 4, cfg.Grid.NI)
	assert.Equal(t, "tail-only", cfg.Lateral.Mode)
	assert.InDelta(t, 0.4, cfg.Transiogram[0][1].Sill, 1e-12)
}

func TestLoadRunConfig_UnknownFieldRejected(t *testing.T) {
	// GIVEN a run file with a misspelled key
	path := writeRunDir(t, testRunYAML+"realisations: 3\n")

	// WHEN it is loaded
	_, err := LoadRunConfig(path)

	// THEN strict parsing rejects it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "realisations")
}

func TestLoadRunConfig_MissingFile(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRunConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(c *RunConfig)
		wantErr string
	}{
		{"zero realizations", func(c *RunConfig) { c.Realizations = 0 }, "Realizations"},
		{"too many realizations", func(c *RunConfig) { c.Realizations = 100 }, "Realizations"},
		{"too many threads", func(c *RunConfig) { c.Threads = 100 }, "Threads"},
		{"unknown mode", func(c *RunConfig) { c.Mode = "frequentist" }, "Mode"},
		{"unknown lateral mode", func(c *RunConfig) { c.Lateral.Mode = "sideways" }, "Mode"},
		{"unknown search shape", func(c *RunConfig) { c.Search.Shape = "cube" }, "Shape"},
		{"bad color", func(c *RunConfig) { c.Categories.Items[0].Color = "red" }, "Color"},
		{"negative range", func(c *RunConfig) { c.Transiogram[0][0].Range = -1 }, "Range"},
		{"short tau range", func(c *RunConfig) { c.Tau.TransiographyRange = []float64{1} }, "TransiographyRange"},
		{"transiogram rows", func(c *RunConfig) { c.Transiogram = c.Transiogram[:1] }, "transiogram has 1 rows"},
		{"pdf length", func(c *RunConfig) { c.PDF = []float64{1} }, "pdf has 1 values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a valid run file with one field broken
			cfg, err := LoadRunConfig(writeRunDir(t, testRunYAML))
			require.NoError(t, err)
			tt.edit(cfg)

			// WHEN it is validated
			err = cfg.Validate()

			// THEN the broken field is named
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunConfig_BuildSim_ResolvesSamplesAndFields(t *testing.T) {
	// GIVEN a valid run file next to its samples
	path := writeRunDir(t, testRunYAML)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	// WHEN the simulation is assembled
	s, err := cfg.BuildSim(filepath.Dir(path))
	require.NoError(t, err)

	// THEN the simulation is ready to run
	require.NoError(t, s.Validate())
	assert.Equal(t, sim.ModeNormal, s.Mode)
	assert.Equal(t, sim.LateralTailOnly, s.Lateral)
	assert.Equal(t, 3, s.Primary.Len())
	assert.Equal(t, 32, s.Grid.CellCount())
	assert.Len(t, s.LVASemiMajor, 32)
	assert.InDelta(t, 2.0, s.LVASemiMajor[17], 1e-12)
	assert.Equal(t, int64(11), s.Common.Seed)
	assert.Equal(t, 1, s.MaxThreads)
	assert.Equal(t, trace.TraceLevelRealizations, s.TraceLevel)
}

func TestRunConfig_BuildSim_BayesianBand(t *testing.T) {
	// GIVEN a Bayesian run file with a transiogram band and tau ranges
	yaml := strings.Replace(testRunYAML, "mode: normal", "mode: bayesian", 1) + `transiogram_band:
  - [{range: 5, sill: 0.7}, {range: 5, sill: 0.3}]
  - [{range: 5, sill: 0.5}, {range: 5, sill: 0.5}]
tau:
  transiography_range: [0.5, 1.5]
  secondary_range: [1, 1]
  policy: per-cell
`
	path := writeRunDir(t, yaml)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	// WHEN the simulation is assembled
	s, err := cfg.BuildSim(filepath.Dir(path))
	require.NoError(t, err)

	// THEN the band and tau settings reach the simulation
	require.NoError(t, s.Validate())
	require.NotNil(t, s.Transiogram2)
	assert.InDelta(t, 5.0, s.Transiogram2.Entry(0, 0).Range, 1e-12)
	assert.Equal(t, sim.TauRange{Start: 0.5, End: 1.5}, s.Tau.TransiographyRange)
	assert.Equal(t, sim.TauPerCell, s.TauPolicy)
}

func TestRunConfig_BuildSim_PropertyFiles(t *testing.T) {
	// GIVEN a run file reading the semi-major axis and an active mask from column files
	dir := t.TempDir()
	writeFile(t, dir, "samples.csv", testSamplesCSV)
	major := strings.Repeat("1.5\n", 32)
	writeFile(t, dir, "major.dat", "# semi-major axis\n"+major)
	writeFile(t, dir, "mask.dat", strings.Repeat("1\n", 16)+strings.Repeat("0\n", 16))
	yaml := strings.Replace(testRunYAML, "  semi_major: 2\n", "  semi_major_file: major.dat\n", 1) +
		"active_mask_file: mask.dat\n"
	path := writeFile(t, dir, "run.yaml", yaml)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	// WHEN the simulation is assembled
	s, err := cfg.BuildSim(dir)
	require.NoError(t, err)

	// THEN per-cell values come from the files
	assert.InDelta(t, 1.5, s.LVASemiMajor[31], 1e-12)
	require.Len(t, s.ActiveMask, 32)
	assert.True(t, s.ActiveMask[0])
	assert.False(t, s.ActiveMask[16])
}

func TestRunConfig_BuildSim_MissingSamples(t *testing.T) {
	// GIVEN a run file whose samples file does not exist
	dir := t.TempDir()
	path := writeFile(t, dir, "run.yaml", testRunYAML)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	// WHEN the simulation is assembled
	_, err = cfg.BuildSim(dir)

	// THEN the missing file is reported
	assert.ErrorContains(t, err, "opening samples")
}

func TestRunConfig_BuildSim_SearchShape(t *testing.T) {
	// GIVEN a run file searching with a stratigraphic annulus
	yaml := strings.Replace(testRunYAML, "  max_simulated_nodes: 8\n",
		"  max_simulated_nodes: 8\n  shape: stratigraphic-annulus\n  inner_radius: 0.5\n", 1)
	path := writeRunDir(t, yaml)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	// WHEN the simulation is assembled
	s, err := cfg.BuildSim(filepath.Dir(path))
	require.NoError(t, err)

	// THEN the shape reaches the search parameters
	require.NoError(t, s.Validate())
	assert.Equal(t, sim.ShapeStratigraphicAnnulus, s.Common.SearchShape)
	assert.InDelta(t, 0.5, s.Common.SearchInnerRadius, 1e-12)
}
