// Package liveness implements the pre-match anti-spoof filter. It scores
// image sharpness with the variance of a Laplacian filter response: photos
// of screens or printed paper re-captured by a camera are dominated by
// low-frequency content and score low, while in-focus live captures score
// higher.
package liveness

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// DefaultThreshold is the reference sharpness cutoff, tuned for laptop
// webcam captures.
const DefaultThreshold = 30.0

// Verdict is the outcome of a single liveness evaluation.
type Verdict struct {
	Score  float64 // Laplacian variance, >= 0
	Passed bool
}

// Gate rejects low-sharpness input before any matching work happens.
type Gate struct {
	// Threshold is the minimum sharpness score. Scores below it fail.
	Threshold float64
	// FailOpen controls what happens when the raster cannot be decoded:
	// true lets the request through so the downstream pipeline reports
	// its own decode error, false rejects it at the gate.
	FailOpen bool
}

// NewGate creates a gate with the given sharpness threshold and
// decode-failure policy.
func NewGate(threshold float64, failOpen bool) *Gate {
	return &Gate{Threshold: threshold, FailOpen: failOpen}
}

// Evaluate decodes the raw image bytes and scores their sharpness.
// Undecodable input yields a zero score and the configured decode-failure
// policy.
func (g *Gate) Evaluate(raw []byte) Verdict {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Verdict{Score: 0, Passed: g.FailOpen}
	}

	score := SharpnessScore(img)
	return Verdict{Score: score, Passed: score >= g.Threshold}
}

// SharpnessScore computes the variance of the 4-neighbour Laplacian over
// the grayscale intensity raster. Images smaller than 3x3 score zero.
func SharpnessScore(img image.Image) float64 {
	gray := toGray(img)
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	// Laplacian response at interior pixels, then variance over them.
	n := (width - 2) * (height - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			up := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y-1).Y)
			down := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y+1).Y)
			left := float64(gray.GrayAt(bounds.Min.X+x-1, bounds.Min.Y+y).Y)
			right := float64(gray.GrayAt(bounds.Min.X+x+1, bounds.Min.Y+y).Y)

			r := up + down + left + right - 4*center
			responses = append(responses, r)
			sum += r
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	return variance / float64(n)
}

// toGray converts any image to an 8-bit grayscale raster.
func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
