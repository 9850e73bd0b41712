package model

import (
	"math"

	"github.com/pkg/errors"
)

// Training hyper-parameters of the ImageNet recipe: SGD with Nesterov
// momentum, and L2 weight decay applied to weights but not biases.
const (
	LearningRate = 0.1
	Momentum     = 0.9
	WeightDecay  = 1e-4
)

// IncorrectTopK reports, per row, whether the label is missing from the k
// highest logits. Classes tied with the k-th score count as inside the top k;
// a non-finite label score always counts as incorrect.
func IncorrectTopK(logits [][]float32, labels []int32, k int) ([]bool, error) {
	if len(logits) != len(labels) {
		return nil, errors.Errorf("top-k: %d logit rows for %d labels", len(logits), len(labels))
	}
	wrong := make([]bool, len(labels))
	for i, row := range logits {
		label := int(labels[i])
		if label < 0 || label >= len(row) {
			return nil, errors.Errorf("top-k: label %d outside %d classes", label, len(row))
		}
		target := float64(row[label])
		if math.IsNaN(target) || math.IsInf(target, 0) {
			wrong[i] = true
			continue
		}
		above := 0
		for _, v := range row {
			if float64(v) > target {
				above++
			}
		}
		wrong[i] = above >= k
	}
	return wrong, nil
}

// CountTrue returns how many entries of v are set.
func CountTrue(v []bool) int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}

// Softmax returns the normalized exponentials of logits.
func Softmax(logits []float32) []float64 {
	maxLogit := math.Inf(-1)
	for _, v := range logits {
		maxLogit = math.Max(maxLogit, float64(v))
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// CrossEntropy is the mean sparse softmax cross-entropy of the batch.
func CrossEntropy(logits [][]float32, labels []int32) (float64, error) {
	if len(logits) != len(labels) {
		return 0, errors.Errorf("cross-entropy: %d logit rows for %d labels", len(logits), len(labels))
	}
	if len(labels) == 0 {
		return 0, nil
	}
	total := 0.0
	for i, row := range logits {
		label := int(labels[i])
		if label < 0 || label >= len(row) {
			return 0, errors.Errorf("cross-entropy: label %d outside %d classes", label, len(row))
		}
		total += -math.Log(math.Max(Softmax(row)[label], 1e-12))
	}
	return total / float64(len(labels)), nil
}
