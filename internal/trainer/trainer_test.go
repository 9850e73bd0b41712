package trainer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"imagenet-dataflow/internal/model"
	"imagenet-dataflow/internal/pipeline"
)

type fakeSource struct {
	batches []*pipeline.Batch
	pos     int
	resets  int
}

func (f *fakeSource) Next() (*pipeline.Batch, error) {
	if f.pos >= len(f.batches) {
		return nil, io.EOF
	}
	b := f.batches[f.pos]
	f.pos++
	return b, nil
}

func (f *fakeSource) Len() int {
	n := 0
	for _, b := range f.batches {
		n += b.Len()
	}
	return n
}

func (f *fakeSource) Reset() {
	f.pos = 0
	f.resets++
}

func makeBatch(labels ...int32) *pipeline.Batch {
	return &pipeline.Batch{
		ImageSize: 2,
		Images:    make([]uint8, len(labels)*2*2*3),
		Labels:    labels,
	}
}

// rankClassifier scores class c of image i with scores[i][c], ignoring pixels.
type rankClassifier struct {
	scores [][]float32
	next   int
}

func (r *rankClassifier) Logits(in model.Input) [][]float32 {
	out := r.scores[r.next : r.next+in.N]
	r.next += in.N
	return out
}

func TestEvaluateAccumulatesErrors(t *testing.T) {
	ranked := func(order ...int) []float32 {
		row := make([]float32, 10)
		for rank, c := range order {
			row[c] = float32(10 - rank)
		}
		return row
	}
	clf := &rankClassifier{scores: [][]float32{
		ranked(0, 1, 2, 3, 4, 5, 6, 7, 8, 9), // label 0: top-1 hit
		ranked(0, 1, 2, 3, 4, 5, 6, 7, 8, 9), // label 3: top-5 hit
		ranked(0, 1, 2, 3, 4, 5, 6, 7, 8, 9), // label 9: miss
		ranked(9, 8, 7, 6, 5, 4, 3, 2, 1, 0), // label 9: top-1 hit
		ranked(9, 8, 7, 6, 5, 4, 3, 2, 1, 0), // label 0: miss
	}}
	src := &fakeSource{batches: []*pipeline.Batch{makeBatch(0, 3), makeBatch(9, 9), makeBatch(0)}}

	report, err := Evaluate(context.Background(), src, clf, EvalOptions{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Top1.Count() != 3 || report.Top1.Total() != 5 {
		t.Fatalf("top1 %d/%d", report.Top1.Count(), report.Top1.Total())
	}
	if report.Top5.Count() != 2 || report.Top5.Total() != 5 {
		t.Fatalf("top5 %d/%d", report.Top5.Count(), report.Top5.Total())
	}

	out := &bytes.Buffer{}
	report.Print(out)
	if got := out.String(); got != "Top1 Error: 0.6\nTop5 Error: 0.4\n" {
		t.Fatalf("unexpected report %q", got)
	}
}

func TestEvaluateWithProgress(t *testing.T) {
	clf := &rankClassifier{scores: [][]float32{{1, 0}, {1, 0}}}
	src := &fakeSource{batches: []*pipeline.Batch{makeBatch(0, 1)}}
	progress := &bytes.Buffer{}
	report, err := Evaluate(context.Background(), src, clf, EvalOptions{Progress: progress})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Top1.Ratio() != 0.5 || report.Top5.Ratio() != 0 {
		t.Fatalf("ratios %v %v", report.Top1.Ratio(), report.Top5.Ratio())
	}
	if !strings.Contains(progress.String(), "evaluating") {
		t.Fatalf("progress output %q", progress.String())
	}
}

func TestRunRollsOverEpochs(t *testing.T) {
	src := &fakeSource{batches: []*pipeline.Batch{makeBatch(0, 1), makeBatch(2)}}
	probe := model.NewLinearProbe(model.ProbeOptions{NumClasses: 3, Grid: 2, Seed: 1})
	if err := Run(context.Background(), src, probe, RunConfig{Steps: 5, LogEvery: 2}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.resets != 2 {
		t.Fatalf("expected 2 epoch resets, got %d", src.resets)
	}
}

func TestRunEmptySource(t *testing.T) {
	probe := model.NewLinearProbe(model.ProbeOptions{NumClasses: 3, Grid: 2})
	if err := Run(context.Background(), &fakeSource{}, probe, RunConfig{Steps: 1}); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestRunRejectsZeroSteps(t *testing.T) {
	probe := model.NewLinearProbe(model.ProbeOptions{NumClasses: 3, Grid: 2})
	if err := Run(context.Background(), &fakeSource{}, probe, RunConfig{}); err == nil {
		t.Fatal("expected error for zero steps")
	}
}
