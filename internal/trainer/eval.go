package trainer

import (
	"context"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"imagenet-dataflow/internal/metrics"
	"imagenet-dataflow/internal/model"
)

// Report holds the accumulated top-1 and top-5 error counters of an
// evaluation pass.
type Report struct {
	Top1 metrics.RatioCounter
	Top5 metrics.RatioCounter
}

// Print writes the two error ratios.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Top1 Error: %v\n", r.Top1.Ratio())
	fmt.Fprintf(w, "Top5 Error: %v\n", r.Top5.Ratio())
}

// EvalOptions configures Evaluate.
type EvalOptions struct {
	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

// Evaluate runs clf over every batch of src and accumulates how many samples
// have their label outside the top-1 and top-5 predictions.
func Evaluate(ctx context.Context, src BatchSource, clf model.Classifier, opts EvalOptions) (*Report, error) {
	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(src.Len(),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("evaluating"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
		)
		defer bar.Close()
	}

	report := &Report{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := src.Next()
		if err == io.EOF {
			return report, nil
		}
		if err != nil {
			return nil, err
		}
		in, err := model.Preprocess(batch.Images, batch.Len(), batch.ImageSize)
		if err != nil {
			return nil, err
		}
		logits := clf.Logits(in)
		top1, err := model.IncorrectTopK(logits, batch.Labels, 1)
		if err != nil {
			return nil, err
		}
		top5, err := model.IncorrectTopK(logits, batch.Labels, 5)
		if err != nil {
			return nil, err
		}
		report.Top1.Feed(model.CountTrue(top1), batch.Len())
		report.Top5.Feed(model.CountTrue(top5), batch.Len())
		if bar != nil {
			_ = bar.Add(batch.Len())
		}
	}
}
