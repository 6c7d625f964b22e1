// Package sim provides the Markov Chain Random Field (MCRF) engine for
// categorical geostatistical simulation.
//
// # Reading Guide
//
// Start with these files to understand a run:
//   - mcrf.go: MCRFSim configuration and Run
//   - validate.go: the pre-run checks, in the order they are applied
//   - walk.go: one realization's random path, Bayesian draws and category draws
//   - evidence.go: vertical, lateral and secondary evidence for a cell
//   - pool.go: workers, result fan-in and progress reporting
//
// # Architecture
//
// The sim package holds the domain types (categories, PDFs, transiograms, the tau
// model, grids and primary data) and the engine. Geometry and search live in
// sub-packages:
//   - sim/geom/: points and axis-aligned boxes
//   - sim/search/: search neighborhoods and sample selection strategies
//   - sim/spatial/: k-d tree index over points and boxes
//   - sim/trace/: per-realization hyperparameter records
//
// # Determinism
//
// Every realization draws from its own streams of a PartitionedRNG, keyed by the
// seed and the realization index. A run is reproducible for a given seed no
// matter how many workers execute it.
package sim
