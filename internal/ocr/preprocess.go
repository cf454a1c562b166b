package ocr

import (
	"errors"
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

// medianAperture is the window width of the median noise filter
const medianAperture = 3

// Preprocess prepares a scanned page for OCR: grayscale conversion, a
// median blur to remove salt-and-pepper noise, then Otsu binarization.
// A non-nil error is a warning, not a failure; callers should log it and
// feed the unprocessed image to the engine instead.
func Preprocess(src image.Image) (image.Image, error) {
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return src, errors.New("image has no pixels")
	}

	gray := toGray(src)
	denoised := medianFilter(gray, medianAperture)
	threshold := otsuThreshold(denoised)
	return binarize(denoised, threshold), nil
}

// toGray converts the image to single-channel grayscale. Images that are
// already single-channel pass through unchanged.
func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}

	flat := imaging.Grayscale(src)
	bounds := flat.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			// Channels are equal after Grayscale, any one will do
			gray.Pix[y*gray.Stride+x] = flat.Pix[y*flat.Stride+x*4]
		}
	}
	return gray
}

// medianFilter replaces each pixel with the median of its aperture
// neighborhood, clamping the window at the image edges
func medianFilter(src *image.Gray, aperture int) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	radius := aperture / 2

	window := make([]uint8, 0, aperture*aperture)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= h || nx < 0 || nx >= w {
						continue
					}
					window = append(window, src.Pix[ny*src.Stride+nx])
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			dst.Pix[y*dst.Stride+x] = window[len(window)/2]
		}
	}
	return dst
}

// otsuThreshold selects the global threshold that maximizes between-class
// variance of the grayscale histogram
func otsuThreshold(src *image.Gray) uint8 {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var histogram [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			histogram[src.Pix[y*src.Stride+x]]++
		}
	}

	total := w * h
	var sum float64
	for i, count := range histogram {
		sum += float64(i) * float64(count)
	}

	var sumBackground float64
	var weightBackground int
	var maxVariance float64
	var threshold uint8

	for i, count := range histogram {
		weightBackground += count
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(i) * float64(count)
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sum - sumBackground) / float64(weightForeground)

		diff := meanBackground - meanForeground
		variance := float64(weightBackground) * float64(weightForeground) * diff * diff
		if variance > maxVariance {
			maxVariance = variance
			threshold = uint8(i)
		}
	}
	return threshold
}

// binarize maps pixels above the threshold to white and the rest to black
func binarize(src *image.Gray, threshold uint8) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src.Pix[y*src.Stride+x] > threshold {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}
