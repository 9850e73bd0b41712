package augment

import "github.com/pkg/errors"

// evalResize returns the shortest-edge size used before center cropping size
// pixels at evaluation time: 256 for the usual 224 crop.
func evalResize(size int) int {
	return (size*256 + 112) / 224
}

// FBResNet returns the augmentation used by fb.resnet.torch for BGR images in
// [0, 255]. Training crops a random area, jitters color in random order and
// flips; evaluation resizes the shortest edge and takes the center square.
func FBResNet(train bool, size int) Chain {
	if !train {
		return Chain{ResizeShortestEdge(evalResize(size)), CenterCrop(size)}
	}
	p := DefaultParams()
	p.TargetSize = size
	return Chain{
		GoogleNetResize(p),
		RandomOrder(
			BrightnessScale(0.6, 1.4, false),
			Contrast(0.6, 1.4, false),
			Saturation(0.4, true),
			ImageNetLighting(0.1),
		),
		Flip(0.5),
	}
}

// Small is a lighter training augmentation for small models: random-area crop,
// lighting noise and flip.
func Small(size int) Chain {
	p := DefaultParams()
	p.TargetSize = size
	return Chain{
		GoogleNetResize(p),
		InOrder(ImageNetLighting(0.1)),
		Flip(0.5),
	}
}

// ByName resolves an augmentation preset producing size x size images.
// "small" only has a training form and uses the fbresnet evaluation chain
// when train is false. "none" leaves images untouched.
func ByName(name string, train bool, size int) (Chain, error) {
	if size <= 0 {
		return nil, errors.Errorf("image size must be > 0 (got %d)", size)
	}
	switch name {
	case "fbresnet":
		return FBResNet(train, size), nil
	case "small":
		if !train {
			return FBResNet(false, size), nil
		}
		return Small(size), nil
	case "none":
		return Chain{}, nil
	}
	return nil, errors.Errorf("unknown augmentation %q", name)
}
