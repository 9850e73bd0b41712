package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"imagenet-dataflow/internal/bench"
)

func main() {
	klog.InitFlags(nil)
	defaults := bench.DefaultOptions()
	backend := flag.String("backend", "imaging", "Resize backend: imaging or xdraw")
	filter := flag.String("filter", "catmullrom", "Interpolation: catmullrom, linear or nearest")
	iterations := flag.Int("iterations", defaults.Iterations, "Number of resizes")
	srcSize := flag.Int("src-size", defaults.SrcSize, "Side of the random source image")
	dstSize := flag.Int("dst-size", defaults.DstSize, "Side of the resized image")
	seed := flag.Int64("seed", 0, "PRNG seed for the source image")
	plotPath := flag.String("plot", "", "Write a latency histogram to this file")

	flag.Parse()
	defer klog.Flush()

	resize, err := bench.NewResizer(*backend, *filter)
	if err != nil {
		klog.Fatalf("invalid backend: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := bench.Run(ctx, bench.Options{
		Resize:     resize,
		Iterations: *iterations,
		SrcSize:    *srcSize,
		DstSize:    *dstSize,
		Seed:       *seed,
	})
	if err != nil {
		klog.Fatalf("benchmark failed: %v", err)
	}
	fmt.Println(res.Elapsed.Seconds())

	if *plotPath != "" {
		title := fmt.Sprintf("%s/%s %dx%d -> %dx%d", *backend, *filter, *srcSize, *srcSize, *dstSize, *dstSize)
		if err := bench.PlotLatencies(res, title, *plotPath); err != nil {
			klog.Fatalf("plot failed: %v", err)
		}
		klog.Infof("wrote latency histogram to %s", *plotPath)
	}
}
