// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package schema

import (
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestModel(t *testing.T) []byte {
	b := flatbuffers.NewBuilder(1024)
	buffers := []flatbuffers.UOffsetT{
		CreateBuffer(b, nil),
		CreateBuffer(b, []byte{1, 2, 3}),
	}
	tensors := []flatbuffers.UOffsetT{
		CreateTensor(b, []int32{1, 3}, TensorTypeFloat32, 0, "x"),
		CreateTensor(b, []int32{3}, TensorTypeFloat32, 1, ""),
		CreateTensor(b, []int32{1, 3}, TensorTypeFloat32, 0, "y"),
	}
	operators := []flatbuffers.UOffsetT{
		CreateOperator(b, 0, []int32{0, 1}, []int32{2}, nil),
		CreateOperator(b, 1, []int32{2}, []int32{2}, &Conv2DOptions{
			Padding: PaddingValid, StrideW: 2, StrideH: 3, DilationWFactor: 1, DilationHFactor: 4}),
	}
	subgraph := CreateSubGraph(b, SubGraphFields{
		Tensors:   tensors,
		Operators: operators,
		Inputs:    []int32{0},
		Outputs:   []int32{2},
	})
	opCodes := []flatbuffers.UOffsetT{
		CreateOperatorCode(b, OpAdd, 1),
		CreateOperatorCode(b, OpGelu, 2),
	}
	model := CreateModel(b, ModelFields{
		OperatorCodes: opCodes,
		Subgraphs:     []flatbuffers.UOffsetT{subgraph},
		Buffers:       buffers,
		Description:   "test",
	})
	buf := FinishModel(b, model)
	require.NotEmpty(t, buf)
	return buf
}

func TestModelRoundTrip(t *testing.T) {
	buf := buildTestModel(t)
	require.True(t, HasIdentifier(buf))
	m := GetRootAsModel(buf)
	assert.Equal(t, uint32(Version), m.Version())
	assert.Equal(t, "test", m.Description())

	require.Equal(t, 2, m.OperatorCodesLength())
	code, ok := m.OperatorCodes(1)
	require.True(t, ok)
	assert.Equal(t, OpGelu, code.BuiltinCode())
	assert.Equal(t, int8(OpPlaceholderForGreaterOpCodes), code.DeprecatedBuiltinCode())
	assert.Equal(t, int32(2), code.Version())
	code, _ = m.OperatorCodes(0)
	assert.Equal(t, OpAdd, code.BuiltinCode())
	assert.Equal(t, int32(1), code.Version())
	_, ok = m.OperatorCodes(2)
	assert.False(t, ok)

	require.Equal(t, 2, m.BuffersLength())
	buffer, _ := m.Buffers(0)
	assert.Nil(t, buffer.Data())
	buffer, _ = m.Buffers(1)
	assert.Equal(t, []byte{1, 2, 3}, buffer.Data())
	assert.Zero(t, buffer.DataPos()%BufferAlignment)

	require.Equal(t, 1, m.SubgraphsLength())
	sg, _ := m.Subgraphs(0)
	assert.Equal(t, []int32{0}, sg.Inputs())
	assert.Equal(t, []int32{2}, sg.Outputs())
	require.Equal(t, 3, sg.TensorsLength())
	tensor, _ := sg.Tensors(1)
	assert.Equal(t, []int32{3}, tensor.Shape())
	assert.Equal(t, uint32(1), tensor.Buffer())
	assert.Equal(t, "", tensor.Name())
	tensor, _ = sg.Tensors(2)
	assert.Equal(t, "y", tensor.Name())
	assert.Equal(t, TensorTypeFloat32, tensor.Type())

	require.Equal(t, 2, sg.OperatorsLength())
	op, _ := sg.Operators(0)
	assert.Equal(t, []int32{0, 1}, op.Inputs())
	assert.Equal(t, BuiltinOptionsNone, op.BuiltinOptionsType())
	assert.Nil(t, op.BuiltinOptions())
	op, _ = sg.Operators(1)
	assert.Equal(t, uint32(1), op.OpcodeIndex())
	assert.Equal(t, BuiltinOptionsConv2DOptions, op.BuiltinOptionsType())
	assert.Equal(t, &Conv2DOptions{Padding: PaddingValid, StrideW: 2, StrideH: 3, DilationWFactor: 1, DilationHFactor: 4},
		op.BuiltinOptions())
}

func TestOptionsRoundTrip(t *testing.T) {
	for _, options := range []Options{
		&DepthwiseConv2DOptions{Padding: PaddingSame, StrideW: 1, StrideH: 1, DepthMultiplier: 2, DilationWFactor: 1, DilationHFactor: 1},
		&Pool2DOptions{Padding: PaddingValid, StrideW: 2, StrideH: 2, FilterWidth: 3, FilterHeight: 3},
		&FullyConnectedOptions{KeepNumDims: true},
		&SoftmaxOptions{Beta: 1},
		&ConcatenationOptions{Axis: 2},
		&ResizeBilinearOptions{HalfPixelCenters: true},
		&ResizeNearestNeighborOptions{HalfPixelCenters: true},
		&ReshapeOptions{},
		&GatherOptions{Axis: 1},
		&ReducerOptions{KeepDims: true},
		&StridedSliceOptions{BeginMask: 1, EndMask: 2},
		&CastOptions{InDataType: TensorTypeBool, OutDataType: TensorTypeUint8},
		&ArgMaxOptions{OutputType: TensorTypeInt64},
		&ArgMinOptions{OutputType: TensorTypeInt32},
		&TransposeConvOptions{Padding: PaddingValid, StrideW: 2, StrideH: 2},
		&LeakyReluOptions{Alpha: 0.25},
		&MirrorPadOptions{Mode: MirrorPadSymmetric},
		&SplitVOptions{NumSplits: 3},
		&BatchMatMulOptions{AdjY: true},
		&GeluOptions{Approximate: true},
	} {
		b := flatbuffers.NewBuilder(64)
		offset := options.Pack(b)
		b.Finish(offset)
		buf := b.FinishedBytes()
		table := flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}
		assert.Equal(t, options, UnpackOptions(options.Type(), table), "options type %d", options.Type())
	}
	assert.Nil(t, UnpackOptions(BuiltinOptions(200), flatbuffers.Table{}))
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "TRANSPOSE_CONV", OpTransposeConv.String())
	assert.Equal(t, "BuiltinOperator(999)", BuiltinOperator(999).String())
	assert.Equal(t, "UINT8", TensorTypeUint8.String())
	assert.Equal(t, "VALID", PaddingValid.String())
	assert.Equal(t, int8(OpAbs), OpAbs.DeprecatedCode())
	assert.Equal(t, int8(127), OpSign.DeprecatedCode())
}
