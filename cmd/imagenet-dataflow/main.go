package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"imagenet-dataflow/internal/augment"
	"imagenet-dataflow/internal/config"
	"imagenet-dataflow/internal/dataset"
	"imagenet-dataflow/internal/model"
	"imagenet-dataflow/internal/pipeline"
	"imagenet-dataflow/internal/trainer"
)

func main() {
	klog.InitFlags(nil)
	cfgPath := flag.String("config", "configs/val.yaml", "Path to YAML config")
	dataDir := flag.String("data-dir", "", "Override dataset directory")
	split := flag.String("split", "", "Override split (train or val)")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	numWorkers := flag.Int("num-workers", 0, "Number of decode/augment workers")
	bufferSize := flag.Int("buffer-size", 0, "Results kept in flight")
	ordering := flag.String("ordering", "", "Result ordering: strict or unordered")
	seed := flag.Int64("seed", 0, "PRNG seed")
	numSplits := flag.Int("num-splits", 0, "Number of distributed workers sharing the split")
	splitIndex := flag.Int("split-index", 0, "Index of this worker among num-splits")
	augmentation := flag.String("augmentation", "", "Augmentation preset: fbresnet, small or none")
	steps := flag.Int("steps", 0, "Number of training steps")
	logEvery := flag.Int("log-every", 0, "Log every N steps")

	flag.Parse()
	defer klog.Flush()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		klog.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		DataDir:      *dataDir,
		Split:        *split,
		BatchSize:    *batchSize,
		NumWorkers:   *numWorkers,
		BufferSize:   *bufferSize,
		Ordering:     *ordering,
		Seed:         *seed,
		NumSplits:    *numSplits,
		SplitIndex:   *splitIndex,
		Augmentation: *augmentation,
		Steps:        *steps,
		LogEvery:     *logEvery,
	})

	if err := cfg.Validate(); err != nil {
		klog.Fatalf("invalid config: %v", err)
	}

	src, err := buildSource(cfg)
	if err != nil {
		klog.Fatalf("failed to build data source: %v", err)
	}

	chain, err := augment.ByName(cfg.Augmentation, cfg.Train, cfg.ImageSize)
	if err != nil {
		klog.Fatalf("invalid augmentation: %v", err)
	}
	order, err := pipeline.ParseOrdering(cfg.Ordering)
	if err != nil {
		klog.Fatalf("invalid ordering: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stage := &pipeline.MapStage{
		Chain:      chain,
		Ordering:   order,
		Workers:    cfg.NumWorkers,
		BufferSize: cfg.BufferSize,
		Seed:       cfg.Seed,
		ImageSize:  cfg.ImageSize,
	}
	loader := pipeline.NewLoader(ctx, cfg.Split, stage, src, cfg.BatchSize)
	defer loader.Close()

	klog.Infof("split=%s augmentation=%s ordering=%s batch_size=%d image_size=%d",
		cfg.Split, cfg.Augmentation, order, cfg.BatchSize, cfg.ImageSize)

	probeOpts := model.DefaultProbeOptions()
	probeOpts.Seed = cfg.Seed
	probe := model.NewLinearProbe(probeOpts)

	if cfg.Train {
		runCfg := trainer.RunConfig{Steps: cfg.Steps, LogEvery: cfg.LogEvery}
		if err := trainer.Run(ctx, loader, probe, runCfg); err != nil {
			klog.Fatalf("training failed: %v", err)
		}
		return
	}

	var opts trainer.EvalOptions
	if cfg.Progress {
		opts.Progress = os.Stderr
	}
	report, err := trainer.Evaluate(ctx, loader, probe, opts)
	if err != nil {
		klog.Fatalf("evaluation failed: %v", err)
	}
	report.Print(os.Stdout)
}

// buildSource reads the split index, or discovers tar shards when
// shard_roots is configured.
func buildSource(cfg *config.Config) (dataset.Source, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if len(cfg.ShardRoots) > 0 {
		roots, err := dataset.DiscoverShards(cfg.ShardRoots...)
		if err != nil {
			return nil, err
		}
		for root, shards := range roots {
			if len(shards) == 0 {
				return nil, errors.Errorf("no shards discovered under %s", root)
			}
			klog.Infof("root=%s shards=%d", root, len(shards))
		}
		if !cfg.Shuffle {
			rng = nil
		}
		return dataset.ShardSource{Shards: dataset.Interleave(roots, rng)}, nil
	}

	samples, err := dataset.ReadIndex(cfg.DataDir, cfg.Split)
	if err != nil {
		return nil, err
	}
	total := len(samples)
	if cfg.Shuffle {
		dataset.Shuffle(samples, rng)
	}
	if cfg.NumSplits > 0 {
		samples, err = dataset.ShardSamples(samples, cfg.NumSplits, cfg.SplitIndex)
		if err != nil {
			return nil, err
		}
	}
	klog.Infof("index=%s images=%s assigned=%s", dataset.IndexPath(cfg.DataDir, cfg.Split),
		humanize.Comma(int64(total)), humanize.Comma(int64(len(samples))))
	return dataset.ListSource{Samples: samples}, nil
}
