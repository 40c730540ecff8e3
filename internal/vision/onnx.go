package vision

import (
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"

	"produce-lens/internal/catalog"
)

// Options locates the model artifact and the ONNX Runtime shared library.
type Options struct {
	ModelPath         string
	ONNXSharedLibPath string
}

// NewClassifier initializes ONNX Runtime, loads the model and checks that its shapes match
// the catalog. The returned handle owns the session; call Close when done.
func NewClassifier(opts Options) (*Classifier, error) {
	r, layout, err := newONNXRunner(opts)
	if err != nil {
		return nil, err
	}
	slog.Info("classifier loaded",
		slog.String("model", opts.ModelPath),
		slog.String("layout", layout.String()),
		slog.Int("classes", catalog.Size()))
	return newClassifier(r, layout), nil
}

type onnxRunner struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	ownsEnv bool
}

func newONNXRunner(opts Options) (*onnxRunner, Layout, error) {
	if opts.ONNXSharedLibPath != "" {
		ort.SetSharedLibraryPath(opts.ONNXSharedLibPath)
	}

	ownsEnv := false
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, 0, fmt.Errorf("onnx init environment: %w", err)
		}
		ownsEnv = true
	}
	fail := func(err error) (*onnxRunner, Layout, error) {
		if ownsEnv {
			_ = ort.DestroyEnvironment()
		}
		return nil, 0, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return fail(fmt.Errorf("onnx get input/output info: %w", err))
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fail(fmt.Errorf("onnx model has no inputs or outputs"))
	}

	inputShape := fixedShape(inputs[0].Dimensions)
	layout, err := detectLayout(inputShape)
	if err != nil {
		return fail(err)
	}
	outputShape := fixedShape(outputs[0].Dimensions)
	if len(outputShape) == 0 {
		return fail(fmt.Errorf("onnx model output has no dimensions"))
	}
	if n := outputShape[len(outputShape)-1]; int(n) != catalog.Size() {
		return fail(fmt.Errorf("model emits %d classes, catalog has %d", n, catalog.Size()))
	}

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return fail(fmt.Errorf("onnx new input tensor: %w", err))
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return fail(fmt.Errorf("onnx new output tensor: %w", err))
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		outputTensor.Destroy()
		inputTensor.Destroy()
		return fail(fmt.Errorf("onnx new session: %w", err))
	}

	return &onnxRunner{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
		ownsEnv: ownsEnv,
	}, layout, nil
}

func (r *onnxRunner) Run(input []float32) ([]float32, error) {
	data := r.input.GetData()
	if len(data) != len(input) {
		return nil, fmt.Errorf("input tensor size %d != preprocessed %d", len(data), len(input))
	}
	copy(data, input)
	if err := r.session.Run(); err != nil {
		return nil, err
	}
	raw := r.output.GetData()
	scores := make([]float32, len(raw))
	copy(scores, raw)
	return scores, nil
}

func (r *onnxRunner) Close() error {
	var err error
	if r.session != nil {
		err = r.session.Destroy()
	}
	if r.input != nil {
		r.input.Destroy()
	}
	if r.output != nil {
		r.output.Destroy()
	}
	if r.ownsEnv {
		if envErr := ort.DestroyEnvironment(); envErr != nil && err == nil {
			err = envErr
		}
	}
	return err
}

// fixedShape pins dynamic (batch) dimensions to 1.
func fixedShape(dims ort.Shape) ort.Shape {
	out := make(ort.Shape, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		out[i] = d
	}
	return out
}

func detectLayout(shape ort.Shape) (Layout, error) {
	if len(shape) != 4 {
		return 0, fmt.Errorf("expected 4-d model input, got %v", shape)
	}
	switch {
	case shape[1] == 3 && shape[2] == InputSize && shape[3] == InputSize:
		return NCHW, nil
	case shape[3] == 3 && shape[1] == InputSize && shape[2] == InputSize:
		return NHWC, nil
	}
	return 0, fmt.Errorf("model input %v is not %dx%dx3", shape, InputSize, InputSize)
}
