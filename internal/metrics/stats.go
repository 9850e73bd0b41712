package metrics

import "time"

// Window accumulates timing stats across multiple steps.
type Window struct {
	samples int
	data    time.Duration
	compute time.Duration
	steps   int
	loss    float64
	wrong   RatioCounter
}

// Record adds a new measurement to the window. wrong is the number of
// top-1 mistakes in the batch.
func (w *Window) Record(batchSize int, dataTime, computeTime time.Duration, loss float64, wrong int) {
	w.samples += batchSize
	w.data += dataTime
	w.compute += computeTime
	w.steps++
	w.loss = loss
	w.wrong.Feed(wrong, batchSize)
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Samples: w.samples, LastLoss: w.loss, ErrorTop1: w.wrong.Ratio()}
	total := w.data + w.compute
	if total > 0 {
		snap.ImagesPerSec = float64(w.samples) / total.Seconds()
	}
	if w.steps > 0 {
		snap.AvgDataMS = (w.data.Seconds() * 1000) / float64(w.steps)
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}
	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Samples      int
	ImagesPerSec float64
	AvgDataMS    float64
	AvgComputeMS float64
	LastLoss     float64
	ErrorTop1    float64
}
