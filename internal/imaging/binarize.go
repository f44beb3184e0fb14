// Package imaging materializes image references as local files and
// binarizes them for OCR.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultThreshold is the gray level at or above which a pixel becomes white.
const DefaultThreshold = 200

var (
	// ErrNotFound is returned when a source image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrDecode is returned when a file exists but is not a readable image.
	ErrDecode = errors.New("image could not be decoded")
)

// Threshold converts img to grayscale and maps each pixel to white when its
// luma is >= threshold, else black.
func Threshold(img image.Image, threshold uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			v := uint8(0)
			if g.Y >= threshold {
				v = 255
			}
			out.Pix[(y-b.Min.Y)*out.Stride+(x-b.Min.X)] = v
		}
	}
	return out
}

// BinaryPath is where the binarized copy of src is written inside dir.
func BinaryPath(src, dir string) string {
	base := filepath.Base(src)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return filepath.Join(dir, base+"_binary.png")
}

// UniquePath returns p, or p with _2, _3 and so on inserted before the
// extension when a file of that name already exists.
func UniquePath(p string) string {
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// Decode reads an image file in any registered format.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// Binarize thresholds the image at src and writes the result as PNG into
// dir. It returns the written path.
func Binarize(src, dir string, threshold uint8) (string, error) {
	img, err := Decode(src)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	dst := UniquePath(BinaryPath(src, dir))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create binary image: %w", err)
	}
	if err := png.Encode(f, Threshold(img, threshold)); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to encode binary image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write binary image: %w", err)
	}
	return dst, nil
}
