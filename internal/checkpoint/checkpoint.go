package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/qmeta/internal/lstm"
	"github.com/samcharles93/qmeta/internal/meta"
	"github.com/samcharles93/qmeta/internal/tensor"
)

// Format tags the metadata of every checkpoint this package writes.
const Format = "qmeta-lstm"

const (
	tensorKernel    = "kernel"
	tensorRecurrent = "recurrent_kernel"
	tensorBias      = "bias"

	// maxLayers bounds the QAOA depth a checkpoint may claim.
	maxLayers = 64
)

var knownKeys = map[string]struct{}{
	"format": {}, "run_id": {}, "layers": {}, "steps": {}, "loss_weights": {},
	"learning_rate": {}, "epochs": {}, "final_loss": {}, "created_at": {},
}

// Info is the metadata block stored alongside the weights.
type Info struct {
	RunID        string
	Layers       int
	Steps        int
	LossWeights  []float64
	LearningRate float64
	Epochs       int
	FinalLoss    float64
	CreatedAt    time.Time
	Extra        map[string]string
}

func (i Info) toMap() (map[string]string, error) {
	weights, err := json.Marshal(i.LossWeights)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(i.Extra)+8)
	for k, v := range i.Extra {
		m[k] = v
	}
	m["format"] = Format
	m["run_id"] = i.RunID
	m["layers"] = strconv.Itoa(i.Layers)
	m["steps"] = strconv.Itoa(i.Steps)
	m["loss_weights"] = string(weights)
	m["learning_rate"] = strconv.FormatFloat(i.LearningRate, 'g', -1, 64)
	m["epochs"] = strconv.Itoa(i.Epochs)
	m["final_loss"] = strconv.FormatFloat(i.FinalLoss, 'g', -1, 64)
	m["created_at"] = i.CreatedAt.UTC().Format(time.RFC3339)
	return m, nil
}

// ParseInfo decodes the metadata block of an opened checkpoint.
func ParseInfo(m map[string]string) (Info, error) {
	var (
		info Info
		err  error
	)
	if m["format"] != Format {
		return info, fmt.Errorf("%w: unknown format %q", ErrCorruptFile, m["format"])
	}
	info.RunID = m["run_id"]
	if info.Layers, err = strconv.Atoi(m["layers"]); err != nil {
		return info, fmt.Errorf("%w: layers: %v", ErrCorruptFile, err)
	}
	if info.Steps, err = strconv.Atoi(m["steps"]); err != nil {
		return info, fmt.Errorf("%w: steps: %v", ErrCorruptFile, err)
	}
	if err := json.Unmarshal([]byte(m["loss_weights"]), &info.LossWeights); err != nil {
		return info, fmt.Errorf("%w: loss_weights: %v", ErrCorruptFile, err)
	}
	if info.LearningRate, err = strconv.ParseFloat(m["learning_rate"], 64); err != nil {
		return info, fmt.Errorf("%w: learning_rate: %v", ErrCorruptFile, err)
	}
	if info.Layers < 1 || info.Layers > maxLayers {
		return info, fmt.Errorf("%w: layers %d outside [1, %d]", ErrCorruptFile, info.Layers, maxLayers)
	}
	if info.Steps < 1 || len(info.LossWeights) != info.Steps {
		return info, fmt.Errorf("%w: %d loss weights for %d steps", ErrCorruptFile, len(info.LossWeights), info.Steps)
	}
	if v, ok := m["epochs"]; ok {
		if info.Epochs, err = strconv.Atoi(v); err != nil {
			return info, fmt.Errorf("%w: epochs: %v", ErrCorruptFile, err)
		}
	}
	if v, ok := m["final_loss"]; ok {
		if info.FinalLoss, err = strconv.ParseFloat(v, 64); err != nil {
			return info, fmt.Errorf("%w: final_loss: %v", ErrCorruptFile, err)
		}
	}
	if v, ok := m["created_at"]; ok {
		if info.CreatedAt, err = time.Parse(time.RFC3339, v); err != nil {
			return info, fmt.Errorf("%w: created_at: %v", ErrCorruptFile, err)
		}
	}
	for k, v := range m {
		if _, ok := knownKeys[k]; ok {
			continue
		}
		if info.Extra == nil {
			info.Extra = make(map[string]string)
		}
		info.Extra[k] = v
	}
	return info, nil
}

// Config is the meta-learner configuration recorded in the checkpoint.
func (i Info) Config() meta.Config {
	return meta.Config{
		Layers:       i.Layers,
		Steps:        i.Steps,
		LossWeights:  i.LossWeights,
		LearningRate: i.LearningRate,
	}
}

// Encode serialises the model weights and info into checkpoint bytes.
func Encode(m *meta.Model, info Info) ([]byte, error) {
	cfg := m.Config()
	info.RunID = m.RunID
	info.Layers = cfg.Layers
	info.Steps = cfg.Steps
	info.LossWeights = cfg.LossWeights
	info.LearningRate = cfg.LearningRate
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	md, err := info.toMap()
	if err != nil {
		return nil, err
	}

	c := m.Cell
	tensors := []struct {
		name  string
		shape []int
		data  []float64
	}{
		{tensorKernel, []int{c.Kernel.R, c.Kernel.C}, c.Kernel.Data},
		{tensorRecurrent, []int{c.Recurrent.R, c.Recurrent.C}, c.Recurrent.Data},
		{tensorBias, []int{len(c.Bias)}, c.Bias},
	}

	header := make(map[string]any, len(tensors)+1)
	header[metadataKey] = md
	var off int64
	for _, t := range tensors {
		end := off + int64(len(t.data)*8)
		header[t.name] = tensorHeader{DType: dtypeF64, Shape: t.shape, DataOffsets: []int64{off, end}}
		off = end
	}
	hb, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	// Pad the header with spaces so tensor data starts 8-byte aligned.
	if pad := (8 - len(hb)%8) % 8; pad > 0 {
		hb = append(hb, bytes.Repeat([]byte{' '}, pad)...)
	}

	out := make([]byte, 8, 8+len(hb)+int(off))
	binary.LittleEndian.PutUint64(out, uint64(len(hb)))
	out = append(out, hb...)
	for _, t := range tensors {
		for _, v := range t.data {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
		}
	}
	return out, nil
}

// Save writes the checkpoint atomically via a temporary file.
func Save(path string, m *meta.Model, info Info) error {
	data, err := Encode(m, info)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Decode rebuilds a model from an opened checkpoint.
func Decode(f *File) (*meta.Model, Info, error) {
	info, err := ParseInfo(f.Meta)
	if err != nil {
		return nil, info, err
	}
	n := 2 * info.Layers
	for _, want := range []struct {
		name  string
		shape []int
	}{
		{tensorKernel, []int{1 + n, 4 * n}},
		{tensorRecurrent, []int{n, 4 * n}},
		{tensorBias, []int{4 * n}},
	} {
		t, ok := f.Tensors[want.name]
		if !ok {
			return nil, info, fmt.Errorf("%w: %s", ErrMissingTensor, want.name)
		}
		if !equalShape(t.Shape, want.shape) {
			return nil, info, fmt.Errorf("%w: %s has shape %v, want %v", ErrShapeMismatch, want.name, t.Shape, want.shape)
		}
	}
	cell := lstm.Empty(1+n, n)
	kernel, err := f.TensorF64(tensorKernel, 1+n, 4*n)
	if err != nil {
		return nil, info, err
	}
	recurrent, err := f.TensorF64(tensorRecurrent, n, 4*n)
	if err != nil {
		return nil, info, err
	}
	bias, err := f.TensorF64(tensorBias, 4*n)
	if err != nil {
		return nil, info, err
	}
	cell.Kernel = tensor.NewMatFromData(1+n, 4*n, kernel)
	cell.Recurrent = tensor.NewMatFromData(n, 4*n, recurrent)
	cell.Bias = bias

	m, err := meta.FromCell(info.Config(), cell, info.RunID)
	if err != nil {
		return nil, info, err
	}
	return m, info, nil
}

// Load opens, decodes and closes a checkpoint file.
func Load(path string) (*meta.Model, Info, error) {
	f, err := Open(path)
	if err != nil {
		return nil, Info{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}
