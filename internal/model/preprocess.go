package model

import "github.com/pkg/errors"

// Per-channel ImageNet statistics in RGB order, for values in [0, 1].
var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Preprocess scales n BGR uint8 images of size x size to [0, 1] and
// normalizes each channel by the ImageNet mean and standard deviation.
func Preprocess(images []uint8, n, size int) (Input, error) {
	if len(images) != n*size*size*3 {
		return Input{}, errors.Errorf("preprocess: %d bytes for %d images of %dx%d", len(images), n, size, size)
	}
	var scale, shift [3]float32
	for c := 0; c < 3; c++ {
		// BGR channel c uses RGB statistics 2-c.
		std := ImageNetStd[2-c]
		scale[c] = 1 / (255 * std)
		shift[c] = -ImageNetMean[2-c] / std
	}
	data := make([]float32, len(images))
	for i, v := range images {
		c := i % 3
		data[i] = float32(v)*scale[c] + shift[c]
	}
	return Input{N: n, Size: size, Data: data}, nil
}
