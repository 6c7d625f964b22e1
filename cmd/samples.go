package cmd

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	sim "github.com/mcrf-sim/mcrf-sim/sim"
	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

var (
	pointColumns   = []string{"x", "y", "z", "category"}
	segmentColumns = []string{"x_from", "y_from", "z_from", "x_to", "y_to", "z_to", "category"}
)

// LoadSamples reads primary data from a CSV file with a header row. Point files
// need the columns x, y, z and category; segment files need x_from, y_from,
// z_from, x_to, y_to, z_to and category. Other columns are ignored unless named
// as gradation columns.
func LoadSamples(path string, cd *sim.CategoryDefinition, cfg SamplesConfig) (sim.PrimaryData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening samples: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading samples header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		colIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	required := pointColumns
	if cfg.Kind == "segments" {
		required = segmentColumns
	}
	cols := make([]int, 0, len(required)+len(cfg.GradationColumns))
	for _, name := range append(append([]string(nil), required...), cfg.GradationColumns...) {
		i, ok := colIndex[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("samples %s: missing column %q", path, name)
		}
		cols = append(cols, i)
	}

	var (
		coords     [][]float64
		categories []int
		gradations = make([][]float64, len(cfg.GradationColumns))
	)
	nCoord := len(required) - 1
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples row %d: %w", line, err)
		}
		xyz := make([]float64, nCoord)
		for c := 0; c < nCoord; c++ {
			if xyz[c], err = strconv.ParseFloat(row[cols[c]], 64); err != nil {
				return nil, fmt.Errorf("samples row %d, column %q: %w", line, required[c], err)
			}
		}
		code, err := strconv.Atoi(row[cols[nCoord]])
		if err != nil {
			return nil, fmt.Errorf("samples row %d, column %q: %w", line, "category", err)
		}
		for g := range gradations {
			v, err := strconv.ParseFloat(row[cols[nCoord+1+g]], 64)
			if err != nil {
				return nil, fmt.Errorf("samples row %d, column %q: %w", line, cfg.GradationColumns[g], err)
			}
			gradations[g] = append(gradations[g], v)
		}
		coords = append(coords, xyz)
		categories = append(categories, code)
	}

	var data sim.PrimaryData
	if cfg.Kind == "segments" {
		segs := make([]sim.Segment, len(coords))
		for i, c := range coords {
			segs[i] = sim.Segment{From: geom.Point{X: c[0], Y: c[1], Z: c[2]}, To: geom.Point{X: c[3], Y: c[4], Z: c[5]}}
		}
		ss, err := sim.NewSegmentSet(cd, segs, categories)
		if err != nil {
			return nil, err
		}
		ss.SetGradationColumns(gradations)
		if cfg.NoDataValue != nil {
			ss.SetNoDataValue(*cfg.NoDataValue)
		}
		data = ss
	} else {
		pts := make([]geom.Point, len(coords))
		for i, c := range coords {
			pts[i] = geom.Point{X: c[0], Y: c[1], Z: c[2]}
		}
		ps, err := sim.NewPointSet(cd, pts, categories)
		if err != nil {
			return nil, err
		}
		ps.SetGradationColumns(gradations)
		if cfg.NoDataValue != nil {
			ps.SetNoDataValue(*cfg.NoDataValue)
		}
		data = ps
	}
	logrus.Infof("Loaded %d samples from %s", data.Len(), path)
	return data, nil
}

// ReadColumn reads a per-cell property file: one value per line in cell order,
// as the realizations are written. Blank lines and lines starting with '#' are
// skipped. The file must hold exactly n values.
func ReadColumn(path string, n int) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening property file: %w", err)
	}
	defer func() { _ = file.Close() }()

	values := make([]float64, 0, n)
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(values) != n {
		return nil, fmt.Errorf("%s holds %d values, grid has %d cells", path, len(values), n)
	}
	return values, nil
}
