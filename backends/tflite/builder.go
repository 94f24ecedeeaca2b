// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// builder keeps track of the tables of the TFLite model being built.
//
// All tables are append-only: the index returned when an entry is appended is its permanent identity.
// A builder is used for exactly one graph, and discarded after finish.
type builder struct {
	graph *webnn.Graph
	caps  webnn.Capabilities

	// buffers[0] is always the empty buffer, referenced by all non-constant tensors.
	buffers       [][]byte
	tensors       []tensorEntry
	operatorCodes []operatorCode
	operators     []operatorEntry

	// operandToTensor maps graph operands to their tensor index.
	operandToTensor map[webnn.OperandID]int32

	finished bool
}

// tensorEntry is one tensor of the subgraph.
type tensorEntry struct {
	// dims are kept unsigned (as in the graph) for the shape arithmetic of the lowering.
	dims   []uint32
	shape  []int32
	dtype  dtypes.DType
	buffer uint32
	name   string
}

// operatorCode is one entry of the operator code table.
type operatorCode struct {
	code    schema.BuiltinOperator
	version int32
}

// operatorEntry is one operator of the subgraph, in execution order.
type operatorEntry struct {
	opcodeIndex     uint32
	inputs, outputs []int32
	options         schema.Options
}

func newBuilder(graph *webnn.Graph, caps webnn.Capabilities) *builder {
	return &builder{
		graph:           graph,
		caps:            caps,
		buffers:         [][]byte{nil},
		operandToTensor: make(map[webnn.OperandID]int32, len(graph.Operands)),
	}
}

// tensorType converts a graph data type to the TFLite tensor type.
func tensorType(dtype dtypes.DType) schema.TensorType {
	switch dtype {
	case dtypes.Float32:
		return schema.TensorTypeFloat32
	case dtypes.Float16:
		return schema.TensorTypeFloat16
	case dtypes.Int32:
		return schema.TensorTypeInt32
	case dtypes.Uint32:
		return schema.TensorTypeUint32
	case dtypes.Int64:
		return schema.TensorTypeInt64
	case dtypes.Uint64:
		return schema.TensorTypeUint64
	case dtypes.Int8:
		return schema.TensorTypeInt8
	case dtypes.Uint8:
		return schema.TensorTypeUint8
	case dtypes.Bool:
		return schema.TensorTypeBool
	}
	exceptions.Panicf("data type %s has no TFLite tensor type", dtype)
	return 0
}

// addBuffer appends data to the buffers table and returns its index.
func (b *builder) addBuffer(data []byte) uint32 {
	b.buffers = append(b.buffers, data)
	return uint32(len(b.buffers) - 1)
}

// addTensor appends a tensor to the tensors table and returns its index.
// It returns an error wrapping ErrShapeOverflow if a dimension doesn't fit an int32.
func (b *builder) addTensor(dtype dtypes.DType, dims []uint32, buffer uint32, name string) (int32, error) {
	shape, err := shapeinference.Int32Dims(dims)
	if err != nil {
		return 0, err
	}
	tensorType(dtype) // Checks the dtype is representable.
	b.tensors = append(b.tensors, tensorEntry{
		dims:   slices.Clone(dims),
		shape:  shape,
		dtype:  dtype,
		buffer: buffer,
		name:   name,
	})
	return int32(len(b.tensors) - 1), nil
}

// newTemp appends a tensor for an intermediate value created by the lowering.
func (b *builder) newTemp(dtype dtypes.DType, dims []uint32) (int32, error) {
	return b.addTensor(dtype, dims, 0, "")
}

// addOperatorCode appends an operator code. Codes are not deduplicated.
//
// All emitted operators use the kernels' version 1 semantics.
func (b *builder) addOperatorCode(op schema.BuiltinOperator) uint32 {
	b.operatorCodes = append(b.operatorCodes, operatorCode{code: op, version: 1})
	return uint32(len(b.operatorCodes) - 1)
}

// emit appends an operator. options may be nil.
func (b *builder) emit(op schema.BuiltinOperator, inputs, outputs []int32, options schema.Options) {
	b.operators = append(b.operators, operatorEntry{
		opcodeIndex: b.addOperatorCode(op),
		inputs:      inputs,
		outputs:     outputs,
		options:     options,
	})
}

// emitTemp creates a new intermediate tensor of the given dtype and dims, and emits op with it as its only output.
func (b *builder) emitTemp(op schema.BuiltinOperator, dtype dtypes.DType, dims []uint32, inputs []int32,
	options schema.Options) (int32, error) {
	output, err := b.newTemp(dtype, dims)
	if err != nil {
		return 0, err
	}
	b.emit(op, inputs, []int32{output}, options)
	return output, nil
}

// emitLike is emitTemp for an output with the same dtype and dims of the tensor like.
func (b *builder) emitLike(op schema.BuiltinOperator, like int32, inputs []int32, options schema.Options) (int32, error) {
	return b.emitTemp(op, b.tensors[like].dtype, b.tensors[like].dims, inputs, options)
}

// constant appends a buffer with data and a tensor referencing it.
func (b *builder) constant(dtype dtypes.DType, dims []uint32, data []byte) (int32, error) {
	return b.addTensor(dtype, dims, b.addBuffer(data), "")
}

// int32Vector creates a 1D int32 constant, used for shapes, axes, permutations, paddings, etc.
func (b *builder) int32Vector(values ...int32) (int32, error) {
	data := make([]byte, 4*len(values))
	for ii, v := range values {
		binary.LittleEndian.PutUint32(data[4*ii:], uint32(v))
	}
	return b.constant(dtypes.Int32, []uint32{uint32(len(values))}, data)
}

// int32VectorFrom is int32Vector for unsigned values, checked for overflow.
func (b *builder) int32VectorFrom(values []uint32) (int32, error) {
	converted, err := shapeinference.Int32Values(values)
	if err != nil {
		return 0, err
	}
	return b.int32Vector(converted...)
}

// shapeVector creates the int32 constant holding dims, used as the "new shape" of RESHAPE and similar.
func (b *builder) shapeVector(dims []uint32) (int32, error) {
	return b.int32VectorFrom(dims)
}

// paddingTable creates the [rank, 2] int32 constant with the begin/end padding of each axis.
func (b *builder) paddingTable(beginning, ending []uint32) (int32, error) {
	values := make([]uint32, 0, 2*len(beginning))
	for axis := range beginning {
		values = append(values, beginning[axis], ending[axis])
	}
	converted, err := shapeinference.Int32Values(values)
	if err != nil {
		return 0, err
	}
	data := make([]byte, 4*len(converted))
	for ii, v := range converted {
		binary.LittleEndian.PutUint32(data[4*ii:], uint32(v))
	}
	return b.constant(dtypes.Int32, []uint32{uint32(len(beginning)), 2}, data)
}

// scalar creates a rank-0 constant of the given dtype holding value.
// Integer values are saturated to the range of the dtype.
func (b *builder) scalar(dtype dtypes.DType, value float64) (int32, error) {
	return b.constant(dtype, nil, encodeScalar(dtype, value))
}

// encodeScalar returns the little-endian encoding of value in the given dtype.
func encodeScalar(dtype dtypes.DType, value float64) []byte {
	saturate := func(lowest, highest float64) float64 {
		if math.IsNaN(value) {
			return 0
		}
		return math.Max(lowest, math.Min(highest, math.Trunc(value)))
	}
	var data []byte
	switch dtype {
	case dtypes.Float32:
		data = binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(value)))
	case dtypes.Float16:
		data = binary.LittleEndian.AppendUint16(nil, float16.Fromfloat32(float32(value)).Bits())
	case dtypes.Int32:
		data = binary.LittleEndian.AppendUint32(nil, uint32(int32(saturate(math.MinInt32, math.MaxInt32))))
	case dtypes.Uint32:
		data = binary.LittleEndian.AppendUint32(nil, uint32(saturate(0, math.MaxUint32)))
	case dtypes.Int64:
		v := saturate(math.MinInt64, math.MaxInt64)
		if v >= math.MaxInt64 {
			data = binary.LittleEndian.AppendUint64(nil, math.MaxInt64)
		} else {
			data = binary.LittleEndian.AppendUint64(nil, uint64(int64(v)))
		}
	case dtypes.Uint64:
		v := saturate(0, math.MaxUint64)
		if v >= math.MaxUint64 {
			data = binary.LittleEndian.AppendUint64(nil, math.MaxUint64)
		} else {
			data = binary.LittleEndian.AppendUint64(nil, uint64(v))
		}
	case dtypes.Int8:
		data = []byte{byte(int8(saturate(math.MinInt8, math.MaxInt8)))}
	case dtypes.Uint8:
		data = []byte{uint8(saturate(0, math.MaxUint8))}
	case dtypes.Bool:
		if value != 0 {
			data = []byte{1}
		} else {
			data = []byte{0}
		}
	default:
		exceptions.Panicf("can't encode a scalar of data type %s", dtype)
	}
	return data
}

// lowestValue returns the lowest value of dtype (-Inf for floats), used to pad max pooling.
func lowestValue(dtype dtypes.DType) float64 {
	switch dtype {
	case dtypes.Float32, dtypes.Float16:
		return math.Inf(-1)
	case dtypes.Int32:
		return math.MinInt32
	case dtypes.Int64:
		return math.MinInt64
	case dtypes.Int8:
		return math.MinInt8
	default:
		return 0
	}
}

func isFloat(dtype dtypes.DType) bool {
	return dtype == dtypes.Float32 || dtype == dtypes.Float16
}

func isUnsigned(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Uint8, dtypes.Uint32, dtypes.Uint64:
		return true
	}
	return false
}

// operand returns the graph operand for id, or panics with an "unknown operand" error.
func (b *builder) operand(id webnn.OperandID) *webnn.Operand {
	operand, found := b.graph.Operands[id]
	if !found {
		exceptions.Panicf("unknown operand %d", id)
	}
	return operand
}

// tensorOf returns the tensor index of a graph operand, or panics if it hasn't been serialized.
func (b *builder) tensorOf(id webnn.OperandID) int32 {
	index, found := b.operandToTensor[id]
	if !found {
		exceptions.Panicf("unknown operand %d: it has no tensor", id)
	}
	return index
}

// dims returns the dimensions of tensor t.
func (b *builder) dims(t int32) []uint32 {
	return b.tensors[t].dims
}

// dtype returns the data type of tensor t.
func (b *builder) dtype(t int32) dtypes.DType {
	return b.tensors[t].dtype
}

// checkDType panics if the capabilities don't accept dtype for the given slot of kind.
// The graph is expected to be validated against the same capabilities, so this is a contract failure.
func (b *builder) checkDType(kind webnn.OpKind, slot webnn.Slot, ids ...webnn.OperandID) {
	for _, id := range ids {
		dtype := b.operand(id).DType
		if !b.caps.Supports(kind, slot, dtype) {
			exceptions.Panicf("data type %s not supported for %s.%s (capabilities %q allow %s)",
				dtype, kind, slot, b.caps.Name, b.caps.Allowed(kind, slot))
		}
	}
}

// checkInOut checks the SlotInput and SlotOutput data types of an operation.
func (b *builder) checkInOut(kind webnn.OpKind, input, output webnn.OperandID) {
	b.checkDType(kind, webnn.SlotInput, input)
	b.checkDType(kind, webnn.SlotOutput, output)
}

// rejectFloat16 returns an ErrUnsupportedConfiguration error for emulations only defined for float32.
func rejectFloat16(kind webnn.OpKind, dtype dtypes.DType) error {
	if dtype == dtypes.Float16 {
		return unsupportedf("%s emulation is only supported for Float32, got %s", kind, dtype)
	}
	return nil
}

// serializeOperand creates the tensor of a graph operand, and for constants its buffer.
func (b *builder) serializeOperand(id webnn.OperandID, operand *webnn.Operand) error {
	var buffer uint32
	if operand.Kind == webnn.OperandConstant {
		data, found := b.graph.Constants[id]
		if !found {
			exceptions.Panicf("constant operand %d (%s) has no data", id, operand)
		}
		if data == nil {
			data = []byte{}
		}
		buffer = b.addBuffer(data)
	}
	index, err := b.addTensor(operand.DType, operand.Shape, buffer, operand.Name)
	if err != nil {
		return errors.WithMessagef(err, "serializing operand %d (%s)", id, operand)
	}
	b.operandToTensor[id] = index
	return nil
}
