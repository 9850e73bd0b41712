package augment

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestGoogleNetResizeAlwaysTargetSize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	resize := GoogleNetResize(DefaultParams())
	sizes := [][2]int{{300, 200}, {200, 300}, {224, 224}, {50, 50}, {1, 1}, {4, 60}, {60, 4}, {64, 3}}
	for _, sz := range sizes {
		for i := 0; i < 5; i++ {
			out := resize(gradient(sz[0], sz[1]), rng)
			if out.Bounds().Dx() != 224 || out.Bounds().Dy() != 224 {
				t.Fatalf("input %dx%d: output %v", sz[0], sz[1], out.Bounds())
			}
		}
	}
}

func TestGoogleNetResizeDeterministic(t *testing.T) {
	src := gradient(320, 240)
	a := GoogleNetResize(DefaultParams())(src, rand.New(rand.NewSource(9)))
	b := GoogleNetResize(DefaultParams())(src, rand.New(rand.NewSource(9)))
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("same seed produced different crops")
	}
}

func TestResizeShortestEdge(t *testing.T) {
	out := ResizeShortestEdge(256)(gradient(400, 300), nil)
	if out.Bounds().Dx() != 341 || out.Bounds().Dy() != 256 {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	out = ResizeShortestEdge(256)(gradient(300, 400), nil)
	if out.Bounds().Dx() != 256 || out.Bounds().Dy() != 341 {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
}

func TestCenterCrop(t *testing.T) {
	src := gradient(10, 7)
	out := CenterCrop(4)(src, nil)
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 4 {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	// x0 = (10-4)/2 = 3, y0 = (7-4)/2 = 1
	if out.NRGBAAt(0, 0) != src.NRGBAAt(3, 1) {
		t.Fatalf("crop not centered: %v vs %v", out.NRGBAAt(0, 0), src.NRGBAAt(3, 1))
	}
}

func TestFlipTwiceIsIdentity(t *testing.T) {
	src := gradient(17, 9)
	out := FlipH(FlipH(src, nil), nil)
	if !bytes.Equal(src.Pix, out.Pix) {
		t.Fatal("double flip changed pixels")
	}
	once := FlipH(src, nil)
	if once.NRGBAAt(0, 0) != src.NRGBAAt(16, 0) {
		t.Fatal("flip did not mirror horizontally")
	}
}

func TestFlipProbability(t *testing.T) {
	src := gradient(8, 2)
	rng := rand.New(rand.NewSource(3))
	if out := Flip(0)(src, rng); !bytes.Equal(out.Pix, src.Pix) {
		t.Fatal("Flip(0) flipped")
	}
	if out := Flip(1)(src, rng); bytes.Equal(out.Pix, src.Pix) {
		t.Fatal("Flip(1) did not flip")
	}
}

func TestPixelsRoundTrip(t *testing.T) {
	src := gradient(6, 5)
	px := NewPixels(src)
	// BGR order
	if px.V[3] != float32(src.NRGBAAt(1, 0).B) || px.V[5] != float32(src.NRGBAAt(1, 0).R) {
		t.Fatalf("pixels not in BGR order: %v", px.V[3:6])
	}
	if out := px.NRGBA(); !bytes.Equal(out.Pix, src.Pix) {
		t.Fatal("round trip changed pixels")
	}
}

func TestBrightnessUnclippedThenSaturated(t *testing.T) {
	px := &Pixels{W: 1, H: 1, V: []float32{100, 200, 50}}
	BrightnessScale(2, 2, false)(px, rand.New(rand.NewSource(1)))
	if px.V[0] != 200 || px.V[1] != 400 || px.V[2] != 100 {
		t.Fatalf("unexpected values %v", px.V)
	}
	c := px.NRGBA().NRGBAAt(0, 0)
	if c.B != 200 || c.G != 255 || c.R != 100 {
		t.Fatalf("unexpected saturation %v", c)
	}
}

func TestContrastZeroGivesChannelMean(t *testing.T) {
	px := &Pixels{W: 2, H: 1, V: []float32{0, 10, 20, 100, 30, 40}}
	Contrast(0, 0, false)(px, rand.New(rand.NewSource(1)))
	want := []float32{50, 20, 30, 50, 20, 30}
	for i := range want {
		if px.V[i] != want[i] {
			t.Fatalf("values %v want %v", px.V, want)
		}
	}
}

func TestSaturationAndLightingIdentity(t *testing.T) {
	orig := []float32{12, 99, 250, 0, 7, 64}
	px := &Pixels{W: 2, H: 1, V: append([]float32(nil), orig...)}
	rng := rand.New(rand.NewSource(5))
	Saturation(0, true)(px, rng)
	ImageNetLighting(0)(px, rng)
	for i := range orig {
		if math.Abs(float64(px.V[i]-orig[i])) > 1e-3 {
			t.Fatalf("values %v want %v", px.V, orig)
		}
	}
}

func TestToBGR(t *testing.T) {
	val, vec := ToBGR(ImageNetEigval, ImageNetEigvec)
	if val != [3]float64{0.0045, 0.0188, 0.2175} {
		t.Fatalf("eigval %v", val)
	}
	if vec[0] != [3]float64{0.4203, -0.6948, -0.5836} || vec[2] != [3]float64{0.4009, 0.7192, -0.5675} {
		t.Fatalf("eigvec %v", vec)
	}
}

func TestPresets(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	src := gradient(300, 500)
	for _, name := range []string{"fbresnet", "small"} {
		for _, train := range []bool{true, false} {
			chain, err := ByName(name, train, 224)
			if err != nil {
				t.Fatalf("ByName(%s): %v", name, err)
			}
			out := chain.Apply(src, rng)
			if out.Bounds().Dx() != 224 || out.Bounds().Dy() != 224 {
				t.Fatalf("%s train=%v: bounds %v", name, train, out.Bounds())
			}
		}
	}
	if chain, err := ByName("none", true, 224); err != nil || len(chain) != 0 {
		t.Fatalf("none preset: %v %v", chain, err)
	}
	if _, err := ByName("bogus", true, 224); err == nil {
		t.Fatal("expected unknown preset error")
	}
}
