package dataset

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads the sample's image into an 8-bit NRGBA buffer. EXIF
// orientation is applied. Alpha is carried but ignored downstream.
func Decode(s Sample) (*image.NRGBA, error) {
	var (
		img image.Image
		err error
	)
	switch {
	case len(s.Data) > 0:
		img, err = imaging.Decode(bytes.NewReader(s.Data), imaging.AutoOrientation(true))
	case s.Path != "":
		img, err = imaging.Open(s.Path, imaging.AutoOrientation(true))
	default:
		return nil, errors.Errorf("sample %q has neither path nor data", s.Key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.name())
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.Errorf("decode %s: empty image", s.name())
	}
	return imaging.Clone(img), nil
}

func (s Sample) name() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Key
}
