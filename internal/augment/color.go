package augment

import (
	"image"
	"math"
	"math/rand"
)

// Pixels is a float32 copy of an image in interleaved BGR order. Color ops
// work on it so that values outside [0, 255] survive between ops; they are
// saturated only when converting back to 8 bits.
type Pixels struct {
	W, H int
	V    []float32
}

// NewPixels copies img into BGR float32 values.
func NewPixels(img *image.NRGBA) *Pixels {
	b := img.Bounds()
	px := &Pixels{W: b.Dx(), H: b.Dy(), V: make([]float32, b.Dx()*b.Dy()*3)}
	i := 0
	for y := 0; y < px.H; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+px.W*4]
		for x := 0; x < px.W; x++ {
			p := row[x*4 : x*4+4]
			px.V[i], px.V[i+1], px.V[i+2] = float32(p[2]), float32(p[1]), float32(p[0])
			i += 3
		}
	}
	return px
}

// NRGBA rounds and saturates the values into a new opaque image.
func (px *Pixels) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, px.W, px.H))
	for i, j := 0, 0; i < len(px.V); i, j = i+3, j+4 {
		img.Pix[j] = saturate(px.V[i+2])
		img.Pix[j+1] = saturate(px.V[i+1])
		img.Pix[j+2] = saturate(px.V[i])
		img.Pix[j+3] = 0xff
	}
	return img
}

func (px *Pixels) clip() {
	for i, v := range px.V {
		px.V[i] = float32(math.Min(math.Max(float64(v), 0), 255))
	}
}

func saturate(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

// ColorOp perturbs pixel values in place.
type ColorOp func(px *Pixels, rng *rand.Rand)

// BrightnessScale multiplies every value by a factor drawn from [lo, hi).
func BrightnessScale(lo, hi float64, clip bool) ColorOp {
	return func(px *Pixels, rng *rand.Rand) {
		v := float32(uniform(rng, lo, hi))
		for i := range px.V {
			px.V[i] *= v
		}
		if clip {
			px.clip()
		}
	}
}

// Contrast blends each channel with its mean using a factor drawn from [lo, hi).
func Contrast(lo, hi float64, clip bool) ColorOp {
	return func(px *Pixels, rng *rand.Rand) {
		r := float32(uniform(rng, lo, hi))
		var sum [3]float64
		for i := 0; i < len(px.V); i += 3 {
			sum[0] += float64(px.V[i])
			sum[1] += float64(px.V[i+1])
			sum[2] += float64(px.V[i+2])
		}
		n := float64(px.W * px.H)
		var bias [3]float32
		for c := range bias {
			bias[c] = float32(sum[c]/n) * (1 - r)
		}
		for i := range px.V {
			px.V[i] = px.V[i]*r + bias[i%3]
		}
		if clip {
			px.clip()
		}
	}
}

// Saturation blends each pixel with its grey level using a factor drawn from
// [1-alpha, 1+alpha).
func Saturation(alpha float64, clip bool) ColorOp {
	return func(px *Pixels, rng *rand.Rand) {
		v := float32(1 + uniform(rng, -alpha, alpha))
		for i := 0; i < len(px.V); i += 3 {
			grey := 0.114*px.V[i] + 0.587*px.V[i+1] + 0.299*px.V[i+2]
			g := grey * (1 - v)
			px.V[i] = px.V[i]*v + g
			px.V[i+1] = px.V[i+1]*v + g
			px.V[i+2] = px.V[i+2]*v + g
		}
		if clip {
			px.clip()
		}
	}
}

// PCA lighting constants from fb.resnet.torch, in RGB order.
var (
	ImageNetEigval = [3]float64{0.2175, 0.0188, 0.0045}
	ImageNetEigvec = [3][3]float64{
		{-0.5675, 0.7192, 0.4009},
		{-0.5808, -0.0045, -0.8140},
		{-0.5836, -0.6948, 0.4203},
	}
)

// ToBGR reverses RGB-ordered PCA constants so they apply to BGR pixels.
func ToBGR(eigval [3]float64, eigvec [3][3]float64) ([3]float64, [3][3]float64) {
	var val [3]float64
	var vec [3][3]float64
	for i := 0; i < 3; i++ {
		val[i] = eigval[2-i]
		for j := 0; j < 3; j++ {
			vec[i][j] = eigvec[2-i][2-j]
		}
	}
	return val, vec
}

// Lighting adds AlexNet-style PCA noise: alpha ~ N(0, std) per component,
// shifted by eigvec * (alpha * eigval). eigval is in pixel units.
func Lighting(std float64, eigval [3]float64, eigvec [3][3]float64, clip bool) ColorOp {
	return func(px *Pixels, rng *rand.Rand) {
		var v [3]float64
		for i := range v {
			v[i] = rng.NormFloat64() * std * eigval[i]
		}
		var inc [3]float32
		for r := 0; r < 3; r++ {
			inc[r] = float32(eigvec[r][0]*v[0] + eigvec[r][1]*v[1] + eigvec[r][2]*v[2])
		}
		for i := range px.V {
			px.V[i] += inc[i%3]
		}
		if clip {
			px.clip()
		}
	}
}

// ImageNetLighting is Lighting with the ImageNet PCA constants scaled to
// [0, 255] and reordered for BGR pixels.
func ImageNetLighting(std float64) ColorOp {
	val, vec := ToBGR(ImageNetEigval, ImageNetEigvec)
	for i := range val {
		val[i] *= 255
	}
	return Lighting(std, val, vec, true)
}

// InOrder applies ops in the given order as one transform.
func InOrder(ops ...ColorOp) Func {
	return func(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
		px := NewPixels(img)
		for _, op := range ops {
			op(px, rng)
		}
		return px.NRGBA()
	}
}

// RandomOrder applies ops in a freshly shuffled order on every call.
func RandomOrder(ops ...ColorOp) Func {
	return func(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
		px := NewPixels(img)
		for _, i := range rng.Perm(len(ops)) {
			ops[i](px, rng)
		}
		return px.NRGBA()
	}
}
