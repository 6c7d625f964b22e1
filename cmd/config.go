package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	sim "github.com/mcrf-sim/mcrf-sim/sim"
	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

// RunConfig is the YAML run file of `mcrf-sim run`. Relative file paths are
// resolved against the run file's directory.
// All sections must be listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	Seed         int64  `yaml:"seed"`
	Realizations int    `yaml:"realizations" validate:"gte=1,lte=99"`
	Threads      int    `yaml:"threads" validate:"gte=0,lte=99"` // 0 = all CPUs
	Mode         string `yaml:"mode" validate:"omitempty,oneof=normal bayesian"`
	Trace        string `yaml:"trace" validate:"omitempty,oneof=none realizations"`

	Categories  CategoriesConfig `yaml:"categories"`
	PDF         []float64        `yaml:"pdf" validate:"required,dive,gte=0,lte=1"`
	Grid        GridConfig       `yaml:"grid"`
	Samples     SamplesConfig    `yaml:"samples"`
	Transiogram [][]EntryConfig  `yaml:"transiogram" validate:"required,dive,required,dive"`
	// TransiogramBand is the other edge of the Bayesian uncertainty band.
	TransiogramBand [][]EntryConfig `yaml:"transiogram_band" validate:"omitempty,dive,required,dive"`
	Lateral         LateralConfig   `yaml:"lateral"`
	Secondary       SecondaryConfig `yaml:"secondary"`
	Search          SearchConfig    `yaml:"search"`
	Tau             TauConfig       `yaml:"tau"`
	ActiveMaskFile  string          `yaml:"active_mask_file"`
}

type CategoriesConfig struct {
	Name  string           `yaml:"name" validate:"required"`
	Items []CategoryConfig `yaml:"items" validate:"required,min=1,dive"`
}

type CategoryConfig struct {
	Code  int    `yaml:"code"`
	Name  string `yaml:"name" validate:"required"`
	Color string `yaml:"color" validate:"omitempty,hexcolor"`
}

type GridConfig struct {
	NI          int     `yaml:"ni" validate:"gte=1"`
	NJ          int     `yaml:"nj" validate:"gte=1"`
	NK          int     `yaml:"nk" validate:"gte=1"`
	X0          float64 `yaml:"x0"`
	Y0          float64 `yaml:"y0"`
	Z0          float64 `yaml:"z0"`
	DX          float64 `yaml:"dx" validate:"gt=0"`
	DY          float64 `yaml:"dy" validate:"gt=0"`
	DZ          float64 `yaml:"dz" validate:"gt=0"`
	NoDataValue int     `yaml:"no_data_value"`
}

// SamplesConfig points at the CSV file of primary data.
type SamplesConfig struct {
	File string `yaml:"file" validate:"required"`
	Kind string `yaml:"kind" validate:"omitempty,oneof=points segments"`
	// NoDataValue marks category values that are not data.
	NoDataValue *int `yaml:"no_data_value"`
	// GradationColumns names the CSV columns holding gradation values; several
	// columns form the candidate sets of a Bayesian run.
	GradationColumns []string `yaml:"gradation_columns"`
}

type EntryConfig struct {
	Structure string  `yaml:"structure" validate:"omitempty,oneof=spherical exponential gaussian"`
	Range     float64 `yaml:"range" validate:"gt=0"`
	Sill      float64 `yaml:"sill" validate:"gte=0,lte=1"`
}

// LateralConfig sets the lateral evidence mode. Anisotropy values are either
// constants or per-cell column files.
type LateralConfig struct {
	Mode            string   `yaml:"mode" validate:"omitempty,oneof=gradational-field tail-only head-only head-or-tail-at-random"`
	InvertGradation bool     `yaml:"invert_gradation"`
	GradationFiles  []string `yaml:"gradation_files"`
	Azimuth         float64  `yaml:"azimuth"`
	SemiMajor       float64  `yaml:"semi_major" validate:"gte=0"`
	SemiMinor       float64  `yaml:"semi_minor" validate:"gte=0"`
	AzimuthFile     string   `yaml:"azimuth_file"`
	SemiMajorFile   string   `yaml:"semi_major_file"`
	SemiMinorFile   string   `yaml:"semi_minor_file"`
}

// SecondaryConfig lists probability field files. Files[c] holds the candidate
// fields of category c; normal runs use a single field per category.
type SecondaryConfig struct {
	Files [][]string `yaml:"files" validate:"omitempty,dive,required,dive,required"`
}

type SearchConfig struct {
	HMax              float64 `yaml:"h_max" validate:"gt=0"`
	HMin              float64 `yaml:"h_min" validate:"gt=0"`
	HVert             float64 `yaml:"h_vert" validate:"gt=0"`
	Azimuth           float64 `yaml:"azimuth"`
	Dip               float64 `yaml:"dip"`
	Roll              float64 `yaml:"roll"`
	MaxSamples        int     `yaml:"max_samples" validate:"gte=0"`
	MinSamples        int     `yaml:"min_samples" validate:"gte=0"`
	Sectors           int     `yaml:"sectors" validate:"gte=0"`
	MinPerSector      int     `yaml:"min_per_sector" validate:"gte=0"`
	MaxPerSector      int     `yaml:"max_per_sector" validate:"gte=0"`
	MinDistance       float64 `yaml:"min_distance" validate:"gte=0"`
	MaxSimulatedNodes int     `yaml:"max_simulated_nodes" validate:"gte=0"`
	Algorithm         string  `yaml:"algorithm" validate:"omitempty,oneof=indexed cartesian-window"`
	Shape             string  `yaml:"shape" validate:"omitempty,oneof=ellipsoid annulus spherical-shell stratigraphic-annulus"`
	InnerRadius       float64 `yaml:"inner_radius" validate:"gte=0"`
	VerticalRadius    float64 `yaml:"vertical_radius" validate:"gte=0"`
	VerticalHeight    float64 `yaml:"vertical_height" validate:"gte=0"`
	LateralThickness  float64 `yaml:"lateral_thickness" validate:"gte=0"`
}

type TauConfig struct {
	Transiography      *float64  `yaml:"transiography" validate:"omitempty,gte=0"`
	Secondary          *float64  `yaml:"secondary" validate:"omitempty,gte=0"`
	TransiographyRange []float64 `yaml:"transiography_range" validate:"omitempty,len=2,dive,gte=0"`
	SecondaryRange     []float64 `yaml:"secondary_range" validate:"omitempty,len=2,dive,gte=0"`
	Policy             string    `yaml:"policy" validate:"omitempty,oneof=per-realization per-cell"`
}

var configValidate = validator.New()

// LoadRunConfig reads a run file with strict field checking.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the schema of the run file. Cross-field rules are left to
// sim.MCRFSim.Validate.
func (c *RunConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("run config: %w", err)
	}
	if len(c.Transiogram) != len(c.Categories.Items) {
		return fmt.Errorf("run config: transiogram has %d rows, %d categories defined",
			len(c.Transiogram), len(c.Categories.Items))
	}
	if len(c.PDF) != len(c.Categories.Items) {
		return fmt.Errorf("run config: pdf has %d values, %d categories defined",
			len(c.PDF), len(c.Categories.Items))
	}
	return nil
}

// BuildSim assembles the simulation described by the run file. baseDir resolves
// relative paths.
func (c *RunConfig) BuildSim(baseDir string) (*sim.MCRFSim, error) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	mode, err := sim.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	s := sim.NewMCRFSim(mode)
	if c.Trace != "" {
		s.TraceLevel = trace.TraceLevel(c.Trace)
	}

	cats := make([]sim.Category, len(c.Categories.Items))
	for i, it := range c.Categories.Items {
		cats[i] = sim.Category{Code: it.Code, Name: it.Name, Color: it.Color}
	}
	cd, err := sim.NewCategoryDefinition(c.Categories.Name, cats)
	if err != nil {
		return nil, err
	}
	if s.PDF, err = sim.NewCategoryPDF(cd, c.PDF); err != nil {
		return nil, err
	}
	if s.Transiogram, err = buildTransiogram(cd, c.Transiogram); err != nil {
		return nil, fmt.Errorf("transiogram: %w", err)
	}
	if len(c.TransiogramBand) > 0 {
		if s.Transiogram2, err = buildTransiogram(cd, c.TransiogramBand); err != nil {
			return nil, fmt.Errorf("transiogram_band: %w", err)
		}
	}

	g := c.Grid
	s.Grid = &sim.CartesianGrid{
		NI: g.NI, NJ: g.NJ, NK: g.NK,
		X0: g.X0, Y0: g.Y0, Z0: g.Z0,
		DX: g.DX, DY: g.DY, DZ: g.DZ,
		NoDataValue: g.NoDataValue,
	}
	nCells := s.Grid.CellCount()

	if s.Primary, err = LoadSamples(resolve(c.Samples.File), cd, c.Samples); err != nil {
		return nil, err
	}

	if s.Lateral, err = sim.ParseLateralGradationType(c.Lateral.Mode); err != nil {
		return nil, err
	}
	s.InvertGradationConvention = c.Lateral.InvertGradation
	if s.Lateral == sim.LateralGradationalField {
		for _, f := range c.Lateral.GradationFiles {
			col, err := ReadColumn(resolve(f), nCells)
			if err != nil {
				return nil, err
			}
			s.GradationFieldSets = append(s.GradationFieldSets, col)
		}
	} else {
		lat := c.Lateral
		if s.LVAAzimuth, err = columnOrConstant(resolve(lat.AzimuthFile), lat.Azimuth, nCells); err != nil {
			return nil, err
		}
		if s.LVASemiMajor, err = columnOrConstant(resolve(lat.SemiMajorFile), lat.SemiMajor, nCells); err != nil {
			return nil, err
		}
		if s.LVASemiMinor, err = columnOrConstant(resolve(lat.SemiMinorFile), lat.SemiMinor, nCells); err != nil {
			return nil, err
		}
	}

	if len(c.Secondary.Files) > 0 {
		sets := make([][][]float64, len(c.Secondary.Files))
		for k, files := range c.Secondary.Files {
			for _, f := range files {
				col, err := ReadColumn(resolve(f), nCells)
				if err != nil {
					return nil, err
				}
				sets[k] = append(sets[k], col)
			}
		}
		if mode == sim.ModeBayesian {
			s.ProbFieldSets = sets
		} else {
			s.ProbFields = make([][]float64, len(sets))
			for k, set := range sets {
				s.ProbFields[k] = set[0]
			}
		}
	}

	if c.ActiveMaskFile != "" {
		col, err := ReadColumn(resolve(c.ActiveMaskFile), nCells)
		if err != nil {
			return nil, err
		}
		s.ActiveMask = make([]bool, nCells)
		for i, v := range col {
			s.ActiveMask[i] = v != 0
		}
	}

	if err := c.applyTau(s); err != nil {
		return nil, err
	}
	if err := c.applySearch(s); err != nil {
		return nil, err
	}
	s.MaxThreads = c.Threads
	return s, nil
}

func buildTransiogram(cd *sim.CategoryDefinition, rows [][]EntryConfig) (*sim.TransiogramModel, error) {
	entries := make([][]sim.TransiogramEntry, len(rows))
	for i, row := range rows {
		entries[i] = make([]sim.TransiogramEntry, len(row))
		for j, e := range row {
			st := sim.Spherical
			if e.Structure != "" {
				var err error
				if st, err = sim.ParseStructure(e.Structure); err != nil {
					return nil, err
				}
			}
			entries[i][j] = sim.TransiogramEntry{Structure: st, Range: e.Range, Sill: e.Sill}
		}
	}
	return sim.NewTransiogramModel(cd, entries)
}

func (c *RunConfig) applyTau(s *sim.MCRFSim) error {
	t := c.Tau
	if t.Transiography != nil {
		s.Tau.Transiography = *t.Transiography
	}
	if t.Secondary != nil {
		s.Tau.Secondary = *t.Secondary
	}
	if len(t.TransiographyRange) == 2 {
		s.Tau.TransiographyRange = sim.TauRange{Start: t.TransiographyRange[0], End: t.TransiographyRange[1]}
	}
	if len(t.SecondaryRange) == 2 {
		s.Tau.SecondaryRange = sim.TauRange{Start: t.SecondaryRange[0], End: t.SecondaryRange[1]}
	}
	policy, err := sim.ParseTauPolicy(t.Policy)
	if err != nil {
		return err
	}
	s.TauPolicy = policy
	return nil
}

func (c *RunConfig) applySearch(s *sim.MCRFSim) error {
	sc := c.Search
	algo, err := sim.ParseSearchAlgorithm(sc.Algorithm)
	if err != nil {
		return err
	}
	shape, err := sim.ParseSearchShape(sc.Shape)
	if err != nil {
		return err
	}
	s.Common = &sim.CommonSimulationParameters{
		Seed:                      c.Seed,
		NumRealizations:           c.Realizations,
		HMax:                      sc.HMax,
		HMin:                      sc.HMin,
		HVert:                     sc.HVert,
		Azimuth:                   sc.Azimuth,
		Dip:                       sc.Dip,
		Roll:                      sc.Roll,
		NumSamples:                sc.MaxSamples,
		MinNumSamples:             sc.MinSamples,
		NumSectors:                sc.Sectors,
		MinSamplesPerSector:       sc.MinPerSector,
		MaxSamplesPerSector:       sc.MaxPerSector,
		MinDistanceBetweenSamples: sc.MinDistance,
		NumSimulatedNodes:         sc.MaxSimulatedNodes,
		SearchAlgorithm:           algo,
		SearchShape:               shape,
		SearchInnerRadius:         sc.InnerRadius,
		VerticalRadius:            sc.VerticalRadius,
		VerticalHeight:            sc.VerticalHeight,
		LateralThickness:          sc.LateralThickness,
	}
	return nil
}

func columnOrConstant(path string, v float64, n int) ([]float64, error) {
	if path != "" {
		return ReadColumn(path, n)
	}
	col := make([]float64, n)
	for i := range col {
		col[i] = v
	}
	return col, nil
}
