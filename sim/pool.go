package sim

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

// workerBuffer is the capacity of each worker's message channel.
const workerBuffer = 16

type msgKind int

const (
	msgProgress msgKind = iota
	msgDone
	msgFailed
)

// workerMsg is sent by a worker to the orchestrator.
type workerMsg struct {
	kind   msgKind
	cells  int64
	real   *Realization
	err    *RealizationError
	record trace.RealizationRecord
}

// poolOutput is what the orchestrator gathered from the workers.
type poolOutput struct {
	realizations []*Realization // by index, nil for failed realizations
	failures     []*RealizationError
	trace        *trace.RunTrace
	cells        int64
}

// runPool runs nReal realizations on nThreads workers. Worker w takes
// realizations w, w+nThreads, w+2·nThreads and so on. The calling goroutine is
// the only one touching results, metrics, the trace and OnProgress.
func (s *MCRFSim) runPool(plan *runPlan, nThreads int, log logrus.FieldLogger) (*poolOutput, error) {
	nReal := s.Common.NumRealizations
	var g errgroup.Group
	chans := make([]chan workerMsg, nThreads)
	for w := range chans {
		chans[w] = make(chan workerMsg, workerBuffer)
		ch := chans[w]
		worker := w
		g.Go(func() (err error) {
			defer close(ch)
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("worker %d panicked: %v", worker, rec)
				}
			}()
			s.work(plan, worker, nThreads, ch, log.WithField("worker", worker))
			return nil
		})
	}

	// Fan the worker channels into one.
	merged := make(chan workerMsg, workerBuffer)
	var wg sync.WaitGroup
	for _, ch := range chans {
		wg.Add(1)
		go func(ch <-chan workerMsg) {
			defer wg.Done()
			for m := range ch {
				merged <- m
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	out := &poolOutput{
		realizations: make([]*Realization, nReal),
		trace:        trace.NewRunTrace(s.TraceLevel),
	}
	progress := Progress{
		CellsTotal:          int64(plan.nSimulable) * int64(nReal),
		RealizationsPlanned: nReal,
	}
	for m := range merged {
		switch m.kind {
		case msgProgress:
			out.cells += m.cells
			progress.CellsSimulated = out.cells
			s.Metrics.addCells(m.cells)
		case msgDone:
			out.realizations[m.real.Index] = m.real
			progress.RealizationsDone++
			out.trace.Record(m.record)
			s.Metrics.realizationFinished(trace.StatusDone, m.record.ElapsedSeconds)
		case msgFailed:
			out.failures = append(out.failures, m.err)
			progress.RealizationsFailed++
			out.trace.Record(m.record)
			s.Metrics.realizationFinished(trace.StatusFailed, m.record.ElapsedSeconds)
		}
		if s.OnProgress != nil {
			s.OnProgress(progress)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out.failures, func(i, j int) bool { return out.failures[i].Index < out.failures[j].Index })
	return out, nil
}

// work simulates the realizations assigned to one worker.
func (s *MCRFSim) work(plan *runPlan, worker, nThreads int, ch chan<- workerMsg, log logrus.FieldLogger) {
	rng := NewPartitionedRNG(NewSimulationKey(s.Common.Seed))
	report := func(n int64) { ch <- workerMsg{kind: msgProgress, cells: n} }
	for idx := worker; idx < s.Common.NumRealizations; idx += nThreads {
		start := time.Now()
		run := newRealizationRun(plan, idx, worker, rng)
		rlog := log.WithField("realization", idx)
		rlog.WithFields(logrus.Fields{
			"tau_transiography": run.tauTrans,
			"tau_secondary":     run.tauSec,
			"gradation_set":     run.gradSet,
			"prob_field_set":    run.probSet,
		}).Debug("realization started")

		real, err := run.simulate(report)
		rec := run.record()
		rec.ElapsedSeconds = time.Since(start).Seconds()
		if err != nil {
			rerr, ok := err.(*RealizationError)
			if !ok {
				rerr = &RealizationError{Index: idx, Cell: -1, Err: err}
			}
			rec.Status = trace.StatusFailed
			rec.Error = rerr.Error()
			rlog.WithError(rerr).Warn("realization failed")
			ch <- workerMsg{kind: msgFailed, err: rerr, record: rec}
		} else {
			rec.Status = trace.StatusDone
			rlog.WithField("cells", rec.CellsSimulated).Debug("realization finished")
			ch <- workerMsg{kind: msgDone, real: real, record: rec}
		}
		rng.Release(idx)
	}
}
