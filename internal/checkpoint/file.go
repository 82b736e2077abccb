// Package checkpoint stores controller weights in a safetensors-layout file:
// an 8-byte little-endian header length, a JSON header naming each tensor's
// dtype, shape and byte range, then the raw little-endian tensor data.
package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"golang.org/x/sys/unix"
)

var (
	ErrCorruptFile      = errors.New("corrupt checkpoint file")
	ErrShapeMismatch    = errors.New("checkpoint tensor shape mismatch")
	ErrUnsupportedDType = errors.New("unsupported checkpoint dtype")
	ErrMissingTensor    = errors.New("checkpoint tensor not found")
)

const (
	dtypeF64     = "F64"
	metadataKey  = "__metadata__"
	maxHeaderLen = 16 << 20
)

type TensorInfo struct {
	DType string
	Shape []int
	Start int64
	End   int64
}

type tensorHeader struct {
	DType       string  `json:"dtype"`
	Shape       []int   `json:"shape"`
	DataOffsets []int64 `json:"data_offsets"`
}

// File is an opened checkpoint. Data may be a read-only mapping; Close
// releases it.
type File struct {
	Path    string
	Data    []byte
	Meta    map[string]string
	Tensors map[string]TensorInfo
	dataOff int64
	mmapped bool
}

// Open maps path read-only and parses its header. If mmap is unavailable it
// falls back to reading the whole file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size < 8 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		cf, perr := parse(data, true)
		if perr != nil {
			_ = unix.Munmap(data)
			return nil, perr
		}
		cf.Path = path
		return cf, nil
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	cf, err := parse(data, false)
	if err != nil {
		return nil, err
	}
	cf.Path = path
	return cf, nil
}

// Parse reads a checkpoint already held in memory.
func Parse(data []byte) (*File, error) {
	return parse(data, false)
}

func parse(data []byte, mmapped bool) (*File, error) {
	if len(data) < 8 {
		return nil, ErrCorruptFile
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen == 0 || headerLen > maxHeaderLen || headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("%w: header length %d", ErrCorruptFile, headerLen)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	cf := &File{
		Data:    data,
		Meta:    map[string]string{},
		Tensors: make(map[string]TensorInfo, len(raw)),
		dataOff: int64(8 + headerLen),
		mmapped: mmapped,
	}
	if msg, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(msg, &cf.Meta); err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrCorruptFile, err)
		}
		delete(raw, metadataKey)
	}
	payload := int64(len(data)) - cf.dataOff
	for name, msg := range raw {
		var th tensorHeader
		if err := json.Unmarshal(msg, &th); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrCorruptFile, name, err)
		}
		if len(th.DataOffsets) != 2 {
			return nil, fmt.Errorf("%w: tensor %s: invalid data_offsets", ErrCorruptFile, name)
		}
		start, end := th.DataOffsets[0], th.DataOffsets[1]
		if start < 0 || end < start || end > payload {
			return nil, fmt.Errorf("%w: tensor %s: offsets [%d,%d) outside payload", ErrCorruptFile, name, start, end)
		}
		cf.Tensors[name] = TensorInfo{DType: th.DType, Shape: th.Shape, Start: start, End: end}
	}
	return cf, nil
}

// Close unmaps the file if it was mapped.
func (f *File) Close() error {
	if f == nil || !f.mmapped || f.Data == nil {
		return nil
	}
	err := unix.Munmap(f.Data)
	f.Data = nil
	f.mmapped = false
	return err
}

// Names lists tensor names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for n := range f.Tensors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TensorF64 decodes a float64 tensor and checks it against the wanted shape
// when one is given.
func (f *File) TensorF64(name string, want ...int) ([]float64, error) {
	info, ok := f.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTensor, name)
	}
	if info.DType != dtypeF64 {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedDType, name, info.DType)
	}
	n, err := numElements(info.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: tensor %s: %v", ErrCorruptFile, name, err)
	}
	if len(want) > 0 && !equalShape(info.Shape, want) {
		return nil, fmt.Errorf("%w: %s has shape %v, want %v", ErrShapeMismatch, name, info.Shape, want)
	}
	if info.End-info.Start != int64(n*8) {
		return nil, fmt.Errorf("%w: tensor %s: invalid f64 data size", ErrCorruptFile, name)
	}
	raw := f.Data[f.dataOff+info.Start : f.dataOff+info.End]
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}

func numElements(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("empty shape")
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0, fmt.Errorf("invalid dim %d", d)
		}
		if n > (int(^uint(0)>>1))/d {
			return 0, fmt.Errorf("tensor too large")
		}
		n *= d
	}
	return n, nil
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
