package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
)

var (
	ErrEmpty = errors.New("empty image data")
)

type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads any registered image format and normalizes it to opaque RGB.
func (d *Decoder) Decode(data []byte) (image.Image, error) {
	img, _, err := Decode(data)

	if err != nil {
		return nil, err
	}

	return ToRGB(img), nil
}

func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}

	img, format, err := image.Decode(bytes.NewReader(data))

	if err != nil {
		return nil, "", fmt.Errorf("cannot identify image file: %w", err)
	}

	return img, format, nil
}

// ToRGB flattens transparency onto white and returns an opaque image with
// bounds starting at the origin.
func ToRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()

	if rgba, ok := img.(*image.RGBA); ok && rgba.Opaque() && bounds.Min == (image.Point{}) {
		return rgba
	}

	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	draw.Draw(result, result.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Over)

	return result
}

// Crop copies the part of img inside rect. The result is empty when rect does
// not overlap the image.
func Crop(img image.Image, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())

	result := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))

	if rect.Empty() {
		return result
	}

	draw.Draw(result, result.Bounds(), img, rect.Min, draw.Src)

	return result
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func DataURI(mimetype string, data []byte) string {
	return "data:" + mimetype + ";base64," + base64.StdEncoding.EncodeToString(data)
}
