package ml

import (
	"math"
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"dbdwatch/pkg/errors"
)

var onnxInitMu sync.Mutex

// ONNXConfig names the runtime library and graph tensors of an exported regressor
type ONNXConfig struct {
	LibraryPath string
	InputName   string
	OutputName  string
}

// ONNXModel wraps an ONNX Runtime session for a single-output regressor
// exported with a float32 input of shape [1, n] and output of shape [1, 1].
type ONNXModel struct {
	mu          sync.Mutex
	session     *onnxruntime.DynamicAdvancedSession
	numFeatures int
}

// LoadONNXModel loads an ONNX model from file
func LoadONNXModel(modelPath string, numFeatures int, cfg ONNXConfig) (*ONNXModel, error) {
	if err := initializeONNX(cfg.LibraryPath); err != nil {
		return nil, err
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ONNX model %s", modelPath)
	}

	return &ONNXModel{session: session, numFeatures: numFeatures}, nil
}

func initializeONNX(libraryPath string) error {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()

	if onnxruntime.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		onnxruntime.SetSharedLibraryPath(libraryPath)
	}
	if err := onnxruntime.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "failed to initialize ONNX runtime")
	}
	return nil
}

// Predict runs one inference call
func (m *ONNXModel) Predict(features []float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return 0, errors.New("model session is closed")
	}
	if err := checkInput(features, m.numFeatures); err != nil {
		return 0, err
	}

	input := make([]float32, len(features))
	for i, v := range features {
		input[i] = float32(v)
	}

	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(input))), input)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	output := make([]float32, 1)
	outputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, 1), output)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create output tensor")
	}
	defer outputTensor.Destroy()

	if err := m.session.Run([]onnxruntime.Value{inputTensor}, []onnxruntime.Value{outputTensor}); err != nil {
		return 0, errors.Wrap(err, "inference failed")
	}

	y := float64(outputTensor.GetData()[0])
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, errors.ErrNonFinitePrediction
	}
	return y, nil
}

// Close cleans up the ONNX session. Safe to call more than once.
func (m *ONNXModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
