package model

import (
	"math/rand"

	"github.com/pkg/errors"
)

// ProbeOptions configures a LinearProbe.
type ProbeOptions struct {
	NumClasses int
	// Grid is the side of the average-pooling grid; features are Grid*Grid*3.
	Grid         int
	LearningRate float64
	Momentum     float64
	WeightDecay  float64
	Seed         int64
}

// DefaultProbeOptions uses 1000 classes, a 16x16 pooling grid and the
// ImageNet optimizer settings.
func DefaultProbeOptions() ProbeOptions {
	return ProbeOptions{
		NumClasses:   1000,
		Grid:         16,
		LearningRate: LearningRate,
		Momentum:     Momentum,
		WeightDecay:  WeightDecay,
	}
}

// LinearProbe is a linear softmax classifier over average-pooled pixels,
// trained with Nesterov momentum. It stands in for a real network when
// exercising the input pipeline end to end.
type LinearProbe struct {
	opts        ProbeOptions
	featureSize int
	weights     []float64
	bias        []float64
	velW        []float64
	velB        []float64
}

var _ Trainable = (*LinearProbe)(nil)

// NewLinearProbe constructs the probe with small random weights.
func NewLinearProbe(opts ProbeOptions) *LinearProbe {
	def := DefaultProbeOptions()
	if opts.NumClasses <= 0 {
		opts.NumClasses = def.NumClasses
	}
	if opts.Grid <= 0 {
		opts.Grid = def.Grid
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	featureSize := opts.Grid * opts.Grid * 3
	rng := rand.New(rand.NewSource(opts.Seed))
	weights := make([]float64, opts.NumClasses*featureSize)
	for i := range weights {
		weights[i] = (rng.Float64()*2 - 1) * 0.01
	}
	return &LinearProbe{
		opts:        opts,
		featureSize: featureSize,
		weights:     weights,
		bias:        make([]float64, opts.NumClasses),
		velW:        make([]float64, len(weights)),
		velB:        make([]float64, opts.NumClasses),
	}
}

// features average-pools image i onto a Grid x Grid x 3 vector.
func (m *LinearProbe) features(in Input, i int) []float64 {
	g := m.opts.Grid
	out := make([]float64, m.featureSize)
	counts := make([]int, g*g)
	img := in.Image(i)
	for y := 0; y < in.Size; y++ {
		gy := y * g / in.Size
		for x := 0; x < in.Size; x++ {
			cell := gy*g + x*g/in.Size
			counts[cell]++
			p := (y*in.Size + x) * 3
			out[cell*3] += float64(img[p])
			out[cell*3+1] += float64(img[p+1])
			out[cell*3+2] += float64(img[p+2])
		}
	}
	for cell, n := range counts {
		if n == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			out[cell*3+c] /= float64(n)
		}
	}
	return out
}

func (m *LinearProbe) logits(x []float64) []float32 {
	out := make([]float32, m.opts.NumClasses)
	for c := range out {
		sum := m.bias[c]
		w := m.weights[c*m.featureSize : (c+1)*m.featureSize]
		for j, v := range x {
			sum += w[j] * v
		}
		out[c] = float32(sum)
	}
	return out
}

// Logits implements Classifier.
func (m *LinearProbe) Logits(in Input) [][]float32 {
	out := make([][]float32, in.N)
	for i := range out {
		out[i] = m.logits(m.features(in, i))
	}
	return out
}

// L2 is the weight decay penalty wd * sum(w^2) / 2 over the weights.
func (m *LinearProbe) L2() float64 {
	sum := 0.0
	for _, w := range m.weights {
		sum += w * w
	}
	return m.opts.WeightDecay * sum / 2
}

// TrainStep implements Trainable: one Nesterov momentum step on the mean
// cross-entropy plus L2 penalty.
func (m *LinearProbe) TrainStep(in Input, labels []int32) (float64, [][]float32, error) {
	if in.N != len(labels) {
		return 0, nil, errors.Errorf("train step: %d images for %d labels", in.N, len(labels))
	}
	if in.N == 0 {
		return 0, nil, nil
	}
	gradW := make([]float64, len(m.weights))
	gradB := make([]float64, len(m.bias))
	logits := make([][]float32, in.N)
	scale := 1 / float64(in.N)
	for i := 0; i < in.N; i++ {
		label := int(labels[i])
		if label < 0 || label >= m.opts.NumClasses {
			return 0, nil, errors.Errorf("train step: label %d outside %d classes", label, m.opts.NumClasses)
		}
		x := m.features(in, i)
		logits[i] = m.logits(x)
		probs := Softmax(logits[i])
		probs[label] -= 1
		for c, p := range probs {
			g := p * scale
			gradB[c] += g
			w := gradW[c*m.featureSize : (c+1)*m.featureSize]
			for j, v := range x {
				w[j] += g * v
			}
		}
	}
	xent, err := CrossEntropy(logits, labels)
	if err != nil {
		return 0, nil, err
	}
	loss := xent + m.L2()

	for j, w := range m.weights {
		gradW[j] += m.opts.WeightDecay * w
	}
	nesterov(m.weights, m.velW, gradW, m.opts.LearningRate, m.opts.Momentum)
	nesterov(m.bias, m.velB, gradB, m.opts.LearningRate, m.opts.Momentum)
	return loss, logits, nil
}

// nesterov applies accum = mu*accum + g; param -= lr*(g + mu*accum).
func nesterov(params, accum, grad []float64, lr, mu float64) {
	for j, g := range grad {
		accum[j] = mu*accum[j] + g
		params[j] -= lr * (g + mu*accum[j])
	}
}
