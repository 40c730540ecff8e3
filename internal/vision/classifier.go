package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"golang.org/x/image/draw"

	"produce-lens/internal/catalog"
)

// InputSize is the square side length the model was trained on.
const InputSize = 224

// ErrDecode is returned when the upload is not a supported raster image.
var ErrDecode = errors.New("image cannot be decoded")

var ErrClosed = errors.New("classifier is closed")

// Layout is the tensor memory order the model expects.
type Layout int

const (
	// NHWC is [1, 224, 224, 3], the Keras export default.
	NHWC Layout = iota
	// NCHW is [1, 3, 224, 224].
	NCHW
)

func (l Layout) String() string {
	if l == NCHW {
		return "NCHW"
	}
	return "NHWC"
}

// Prediction is the arg-max class of one image.
type Prediction struct {
	Index int          `json:"index"`
	Label string       `json:"label"`
	Kind  catalog.Kind `json:"-"`
	Group string       `json:"group"`
}

// runner executes one forward pass. Input length is 3*InputSize*InputSize.
type runner interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// Classifier maps images to catalog labels. It is safe for concurrent use; inference is
// serialized.
type Classifier struct {
	mu     sync.Mutex
	runner runner
	layout Layout
}

func newClassifier(r runner, layout Layout) *Classifier {
	return &Classifier{runner: r, layout: layout}
}

// Classify decodes data, scales it to the model input and returns the highest scoring label.
// Every decodable image yields exactly one label.
func (c *Classifier) Classify(data []byte) (Prediction, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return c.ClassifyImage(img)
}

// ClassifyImage runs inference on an already decoded image.
func (c *Classifier) ClassifyImage(img image.Image) (Prediction, error) {
	input := Preprocess(img, c.layout)

	c.mu.Lock()
	if c.runner == nil {
		c.mu.Unlock()
		return Prediction{}, ErrClosed
	}
	scores, err := c.runner.Run(input)
	c.mu.Unlock()
	if err != nil {
		return Prediction{}, fmt.Errorf("onnx run: %w", err)
	}
	if len(scores) != catalog.Size() {
		return Prediction{}, fmt.Errorf("model returned %d scores, catalog has %d", len(scores), catalog.Size())
	}

	entry, _ := catalog.Lookup(argmax(scores))
	return Prediction{
		Index: entry.Index,
		Label: entry.DisplayName(),
		Kind:  entry.Kind,
		Group: entry.Kind.Group(),
	}, nil
}

// Close releases the model session.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runner == nil {
		return nil
	}
	err := c.runner.Close()
	c.runner = nil
	return err
}

// Preprocess resizes img to InputSize x InputSize with nearest-neighbour sampling and
// returns RGB values scaled to [0,1] in the requested layout. Alpha is dropped.
func Preprocess(img image.Image, layout Layout) []float32 {
	dst := image.NewNRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	const plane = InputSize * InputSize
	out := make([]float32, 3*plane)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			px := dst.NRGBAAt(x, y)
			r, g, b := float32(px.R)/255.0, float32(px.G)/255.0, float32(px.B)/255.0
			idx := y*InputSize + x
			if layout == NCHW {
				out[idx] = r
				out[plane+idx] = g
				out[2*plane+idx] = b
				continue
			}
			out[idx*3] = r
			out[idx*3+1] = g
			out[idx*3+2] = b
		}
	}
	return out
}

func argmax(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
