package model

// Input is a batch of preprocessed images: N images of Size x Size x 3 float
// values, stored NHWC with BGR channels.
type Input struct {
	N    int
	Size int
	Data []float32
}

// Image returns the values of image i.
func (in Input) Image(i int) []float32 {
	n := in.Size * in.Size * 3
	return in.Data[i*n : (i+1)*n]
}

// Classifier maps a preprocessed batch to per-class scores, one row per image.
// The network architecture lives behind this interface.
type Classifier interface {
	Logits(in Input) [][]float32
}

// Trainable is a Classifier that can take an optimizer step on a batch.
// TrainStep returns the total loss and the logits computed before the update.
type Trainable interface {
	Classifier
	TrainStep(in Input, labels []int32) (loss float64, logits [][]float32, err error)
}
