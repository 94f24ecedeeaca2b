// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caps = webnn.TFLiteCapabilities()

// compile compiles and decodes g, failing the test on errors.
func compile(t *testing.T, g *webnn.Graph) *Model {
	t.Helper()
	buf, err := Compile(g, caps)
	require.NoError(t, err)
	require.True(t, schema.HasIdentifier(buf))
	return must.M1(Decode(buf))
}

// opcodes returns the opcodes of the operators of m, in order.
func opcodes(m *Model) []schema.BuiltinOperator {
	codes := make([]schema.BuiltinOperator, len(m.Operators))
	for ii, op := range m.Operators {
		codes[ii] = op.Opcode
	}
	return codes
}

// int32Constant returns the contents of an int32 constant tensor.
func int32Constant(t *testing.T, m *Model, tensor int32) []int32 {
	t.Helper()
	require.Equal(t, schema.TensorTypeInt32, m.Tensors[tensor].Type)
	data := m.Buffers[m.Tensors[tensor].Buffer]
	values := make([]int32, len(data)/4)
	for ii := range values {
		values[ii] = int32(binary.LittleEndian.Uint32(data[4*ii:]))
	}
	return values
}

func TestCompileAdd(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 2, 3)
	y := g.AddInput("y", dtypes.Float32, 2, 3)
	out := g.AddOutput("out", dtypes.Float32, 2, 3)
	g.AddOperation(&webnn.ElementwiseBinary{Op: webnn.OpKindAdd, Lhs: x, Rhs: y, Output: out})
	m := compile(t, g)

	assert.Equal(t, uint32(schema.Version), m.Version)
	assert.Equal(t, Description, m.Description)
	require.Len(t, m.Operators, 1)
	assert.Equal(t, schema.OpAdd, m.Operators[0].Opcode)
	assert.Nil(t, m.Operators[0].Options)
	// No intermediate tensors.
	require.Len(t, m.Tensors, 3)
	assert.Equal(t, []int32{0, 1}, m.Operators[0].Inputs)
	assert.Equal(t, []int32{2}, m.Operators[0].Outputs)

	// Buffer 0 is the empty buffer, and it is the only buffer since there are no constants.
	require.Len(t, m.Buffers, 1)
	assert.Empty(t, m.Buffers[0])

	// Inputs and outputs keep the shape, type and name of the graph operands.
	for ii, id := range append(g.Inputs, g.Outputs...) {
		var tensor Tensor
		if ii < len(g.Inputs) {
			tensor = m.Tensors[m.Inputs[ii]]
		} else {
			tensor = m.Tensors[m.Outputs[ii-len(g.Inputs)]]
		}
		operand := g.Operands[id]
		assert.Equal(t, []int32{2, 3}, tensor.Shape)
		assert.Equal(t, schema.TensorTypeFloat32, tensor.Type)
		assert.Equal(t, operand.Name, tensor.Name)
		assert.Equal(t, uint32(0), tensor.Buffer)
	}
}

func TestCompileConstants(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Int32, 3)
	c := g.AddConstant("c", dtypes.Int32, webnn.Int32Bytes(7, 8, 9), 3)
	out := g.AddOutput("out", dtypes.Int32, 3)
	g.AddOperation(&webnn.ElementwiseBinary{Op: webnn.OpKindMul, Lhs: x, Rhs: c, Output: out})
	m := compile(t, g)

	require.Len(t, m.Buffers, 2)
	assert.Empty(t, m.Buffers[0])
	constant := m.Tensors[m.Operators[0].Inputs[1]]
	assert.Equal(t, "c", constant.Name)
	assert.Equal(t, uint32(1), constant.Buffer)
	assert.Equal(t, []int32{7, 8, 9}, int32Constant(t, m, m.Operators[0].Inputs[1]))
}

// Graphs with only directly mapped operations have one TFLite operator per operation.
func TestCompileDirectOperations(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 2, 3)
	a := g.AddIntermediate(dtypes.Float32, 2, 3)
	b := g.AddIntermediate(dtypes.Float32, 2, 3)
	c := g.AddIntermediate(dtypes.Float32, 2, 3)
	d := g.AddIntermediate(dtypes.Float32, 3, 2)
	e := g.AddIntermediate(dtypes.Float32, 6)
	f := g.AddIntermediate(dtypes.Float32, 6)
	out := g.AddOutput("out", dtypes.Float32, 6)
	g.AddOperation(&webnn.Relu{Input: x, Output: a})
	g.AddOperation(&webnn.Sigmoid{Input: a, Output: b})
	g.AddOperation(&webnn.ElementwiseBinary{Op: webnn.OpKindSub, Lhs: b, Rhs: x, Output: c})
	g.AddOperation(&webnn.Transpose{Input: c, Output: d, Permutation: []uint32{1, 0}})
	g.AddOperation(&webnn.Reshape{Input: d, Output: e})
	g.AddOperation(&webnn.ElementwiseUnary{Op: webnn.OpKindExp, Input: e, Output: f})
	g.AddOperation(&webnn.Softmax{Input: f, Output: out, Axis: 0})
	m := compile(t, g)

	require.Len(t, m.Operators, len(g.Operations))
	assert.Equal(t, []schema.BuiltinOperator{schema.OpRelu, schema.OpLogistic, schema.OpSub, schema.OpTranspose,
		schema.OpReshape, schema.OpExp, schema.OpSoftmax}, opcodes(m))
	assert.Equal(t, []int32{1, 0}, int32Constant(t, m, m.Operators[3].Inputs[1]))
	assert.Equal(t, []int32{6}, int32Constant(t, m, m.Operators[4].Inputs[1]))
	assert.Equal(t, &schema.SoftmaxOptions{Beta: 1}, m.Operators[6].Options)

	// Operator codes are not deduplicated: one per operator.
	require.Len(t, m.OperatorCodes, len(m.Operators))
	for ii, op := range m.Operators {
		assert.Equal(t, OperatorCode{Code: op.Opcode, Version: 1}, m.OperatorCodes[ii])
	}
}

func TestCompileGemm(t *testing.T) {
	newGemm := func(alpha float32) *webnn.Graph {
		g := webnn.NewGraph()
		a := g.AddInput("a", dtypes.Float32, 2, 4)
		b := g.AddInput("b", dtypes.Float32, 4, 3)
		c := g.AddInput("c", dtypes.Float32, 3)
		out := g.AddOutput("out", dtypes.Float32, 2, 3)
		g.AddOperation(&webnn.Gemm{A: a, B: b, C: webnn.Opt(c), Output: out, Alpha: alpha, Beta: 1})
		return g
	}

	t.Run("transpose", func(t *testing.T) {
		g := newGemm(1)
		m := compile(t, g)
		require.Equal(t, []schema.BuiltinOperator{schema.OpTranspose, schema.OpFullyConnected}, opcodes(m))
		transpose, fc := m.Operators[0], m.Operators[1]
		assert.Equal(t, m.Inputs[1], transpose.Inputs[0])
		assert.Equal(t, []int32{1, 0}, int32Constant(t, m, transpose.Inputs[1]))
		assert.Equal(t, []int32{3, 4}, m.Tensors[transpose.Outputs[0]].Shape)
		assert.Equal(t, []int32{m.Inputs[0], transpose.Outputs[0], m.Inputs[2]}, fc.Inputs)
		assert.Equal(t, m.Outputs, fc.Outputs)
		assert.IsType(t, &schema.FullyConnectedOptions{}, fc.Options)
	})

	t.Run("alpha", func(t *testing.T) {
		model, err := Compile(newGemm(2), caps)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
		assert.Nil(t, model)
	})

	t.Run("bias shape", func(t *testing.T) {
		g := webnn.NewGraph()
		a := g.AddInput("a", dtypes.Float32, 2, 4)
		b := g.AddInput("b", dtypes.Float32, 3, 4)
		c := g.AddInput("c", dtypes.Float32, 2, 3)
		out := g.AddOutput("out", dtypes.Float32, 2, 3)
		g.AddOperation(&webnn.Gemm{A: a, B: b, C: webnn.Opt(c), Output: out, Alpha: 1, Beta: 1, BTranspose: true})
		_, err := Compile(g, caps)
		assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
	})
}

// newConvGraph creates a [1,5,5,2] -> [1,outH,outW,3] convolution with a 3x3 filter.
func newConvGraph(padding webnn.Padding2d, outH, outW uint32) *webnn.Graph {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 1, 5, 5, 2)
	filter := g.AddInput("filter", dtypes.Float32, 3, 3, 3, 2)
	out := g.AddOutput("out", dtypes.Float32, 1, outH, outW, 3)
	g.AddOperation(&webnn.Conv2d{
		Input:     x,
		Filter:    filter,
		Output:    out,
		Strides:   webnn.Size2d{Height: 1, Width: 1},
		Dilations: webnn.Size2d{Height: 1, Width: 1},
		Padding:   padding,
		Groups:    1,
	})
	return g
}

func TestCompileConvPadding(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		padding := webnn.Padding2d{
			Beginning: webnn.Size2d{Height: 2, Width: 0},
			Ending:    webnn.Size2d{Height: 1, Width: 1},
		}
		m := compile(t, newConvGraph(padding, 6, 4))
		require.Equal(t, 1, m.CountOperators(schema.OpPad))
		require.Equal(t, 1, m.CountOperators(schema.OpConv2D))
		last := len(m.Operators) - 1
		pad, conv := m.Operators[last-1], m.Operators[last]
		require.Equal(t, schema.OpPad, pad.Opcode)
		require.Equal(t, schema.OpConv2D, conv.Opcode)
		assert.Equal(t, pad.Outputs[0], conv.Inputs[0])
		assert.Equal(t, []int32{1, 5 + 2 + 1, 5 + 0 + 1, 2}, m.Tensors[pad.Outputs[0]].Shape)
		assert.Equal(t, []int32{0, 0, 2, 1, 0, 1, 0, 0}, int32Constant(t, m, pad.Inputs[1]))
		options := conv.Options.(*schema.Conv2DOptions)
		assert.Equal(t, schema.PaddingValid, options.Padding)
	})

	t.Run("same", func(t *testing.T) {
		padding := webnn.Padding2d{
			Beginning: webnn.Size2d{Height: 1, Width: 1},
			Ending:    webnn.Size2d{Height: 1, Width: 1},
		}
		m := compile(t, newConvGraph(padding, 5, 5))
		assert.Equal(t, 0, m.CountOperators(schema.OpPad))
		conv := m.Operators[len(m.Operators)-1]
		require.Equal(t, schema.OpConv2D, conv.Opcode)
		options := conv.Options.(*schema.Conv2DOptions)
		assert.Equal(t, schema.PaddingSame, options.Padding)
		assert.Equal(t, int32(1), options.StrideH)
		assert.Equal(t, int32(1), options.DilationWFactor)

		// A zero bias is created.
		bias := m.Tensors[conv.Inputs[2]]
		assert.Equal(t, []int32{3}, bias.Shape)
		assert.Equal(t, make([]byte, 12), m.Buffers[bias.Buffer])
	})

	t.Run("valid", func(t *testing.T) {
		m := compile(t, newConvGraph(webnn.Padding2d{}, 3, 3))
		require.Equal(t, schema.OpConv2D, m.Operators[len(m.Operators)-1].Opcode)
		assert.Equal(t, 0, m.CountOperators(schema.OpPad))
		options := m.Operators[len(m.Operators)-1].Options.(*schema.Conv2DOptions)
		assert.Equal(t, schema.PaddingValid, options.Padding)
	})
}

func TestCompileDepthwiseConv(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 1, 4, 4, 2)
	filter := g.AddInput("filter", dtypes.Float32, 4, 3, 3, 1)
	out := g.AddOutput("out", dtypes.Float32, 1, 2, 2, 4)
	g.AddOperation(&webnn.Conv2d{
		Input: x, Filter: filter, Output: out,
		Strides:   webnn.Size2d{Height: 1, Width: 1},
		Dilations: webnn.Size2d{Height: 1, Width: 1},
		Groups:    2,
	})
	m := compile(t, g)
	require.Equal(t, []schema.BuiltinOperator{schema.OpTranspose, schema.OpDepthwiseConv2D}, opcodes(m))
	assert.Equal(t, []int32{3, 1, 2, 0}, int32Constant(t, m, m.Operators[0].Inputs[1]))
	assert.Equal(t, []int32{1, 3, 3, 4}, m.Tensors[m.Operators[0].Outputs[0]].Shape)
	options := m.Operators[1].Options.(*schema.DepthwiseConv2DOptions)
	assert.Equal(t, int32(2), options.DepthMultiplier)

	// Other group counts are not supported.
	g.Operations[0].(*webnn.Conv2d).Groups = 3
	_, err := Compile(g, caps)
	assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
}

func TestCompileMaxPoolPadding(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 1, 4, 4, 1)
	out := g.AddOutput("out", dtypes.Float32, 1, 3, 3, 1)
	pool := &webnn.Pool2d{
		Op: webnn.OpKindMaxPool2d, Input: x, Output: out,
		WindowDimensions: webnn.Size2d{Height: 2, Width: 2},
		Strides:          webnn.Size2d{Height: 2, Width: 2},
		Dilations:        webnn.Size2d{Height: 1, Width: 1},
		Padding:          webnn.Padding2d{Beginning: webnn.Size2d{Height: 2, Width: 2}},
	}
	g.AddOperation(pool)
	m := compile(t, g)
	require.Equal(t, []schema.BuiltinOperator{schema.OpPadV2, schema.OpMaxPool2D}, opcodes(m))
	padValue := m.Tensors[m.Operators[0].Inputs[2]]
	data := m.Buffers[padValue.Buffer]
	assert.True(t, math.IsInf(float64(math.Float32frombits(binary.LittleEndian.Uint32(data))), -1))

	// Average pooling can't be padded with zeros.
	pool.Op = webnn.OpKindAveragePool2d
	_, err := Compile(g, caps)
	assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))

	pool.Op = webnn.OpKindL2Pool2d
	_, err = Compile(g, caps)
	assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
}

func TestCompileComparison(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 4)
	y := g.AddInput("y", dtypes.Float32, 4)
	out := g.AddOutput("out", dtypes.Uint8, 4)
	g.AddOperation(&webnn.ElementwiseBinary{Op: webnn.OpKindGreater, Lhs: x, Rhs: y, Output: out})
	m := compile(t, g)
	require.Equal(t, []schema.BuiltinOperator{schema.OpGreater, schema.OpCast}, opcodes(m))
	assert.Equal(t, schema.TensorTypeBool, m.Tensors[m.Operators[0].Outputs[0]].Type)
	assert.Equal(t, &schema.CastOptions{InDataType: schema.TensorTypeBool, OutDataType: schema.TensorTypeUint8},
		m.Operators[1].Options)
}

func TestCompileEmulations(t *testing.T) {
	testCases := []struct {
		name  string
		build func(g *webnn.Graph, x webnn.OperandID) webnn.Operation
		want  []schema.BuiltinOperator
	}{
		{
			name: "reduceL2",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32, 2)
				return &webnn.Reduce{Op: webnn.OpKindReduceL2, Input: x, Output: out, Axes: []uint32{1}}
			},
			want: []schema.BuiltinOperator{schema.OpPow, schema.OpSum, schema.OpPow},
		},
		{
			name: "reduceLogSumExp",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32, 1, 3)
				return &webnn.Reduce{Op: webnn.OpKindReduceLogSumExp, Input: x, Output: out, Axes: []uint32{0},
					KeepDimensions: true}
			},
			want: []schema.BuiltinOperator{schema.OpExp, schema.OpSum, schema.OpLog},
		},
		{
			name: "reduceMean",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32)
				return &webnn.Reduce{Op: webnn.OpKindReduceMean, Input: x, Output: out, Axes: []uint32{0, 1}}
			},
			want: []schema.BuiltinOperator{schema.OpMean},
		},
		{
			name: "argMax",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Int64, 2, 1)
				return &webnn.ArgMinMax{Op: webnn.OpKindArgMax, Input: x, Output: out, Axis: 1, KeepDimensions: true}
			},
			want: []schema.BuiltinOperator{schema.OpArgMax, schema.OpReshape},
		},
		{
			name: "softmax",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32, 2, 3)
				return &webnn.Softmax{Input: x, Output: out, Axis: 0}
			},
			want: []schema.BuiltinOperator{schema.OpTranspose, schema.OpSoftmax, schema.OpTranspose},
		},
		{
			name: "stridedSlice",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32, 1, 2)
				return &webnn.Slice{Input: x, Output: out, Starts: []uint32{1, 0}, Sizes: []uint32{1, 3},
					Strides: []uint32{1, 2}}
			},
			want: []schema.BuiltinOperator{schema.OpStridedSlice},
		},
		{
			name: "layerNormalization",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32, 2, 3)
				scale := g.AddConstant("scale", dtypes.Float32, webnn.Float32Bytes(1, 2, 3), 3)
				return &webnn.LayerNormalization{Input: x, Output: out, Scale: webnn.Opt(scale), Axes: []uint32{1},
					Epsilon: 1e-5}
			},
			// mean, centered, squared, variance, +epsilon, sqrt, div, scale.
			want: []schema.BuiltinOperator{schema.OpMean, schema.OpSub, schema.OpPow, schema.OpMean, schema.OpAdd,
				schema.OpSqrt, schema.OpDiv, schema.OpMul},
		},
		{
			name: "clampRelu6",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32, 2, 3)
				return &webnn.Clamp{Input: x, Output: out, MinValue: 0, MaxValue: 6}
			},
			want: []schema.BuiltinOperator{schema.OpRelu6},
		},
		{
			name: "triangular",
			build: func(g *webnn.Graph, x webnn.OperandID) webnn.Operation {
				out := g.AddOutput("out", dtypes.Float32, 2, 3)
				return &webnn.Triangular{Input: x, Output: out, Upper: true}
			},
			want: []schema.BuiltinOperator{schema.OpSelectV2},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := webnn.NewGraph()
			x := g.AddInput("x", dtypes.Float32, 2, 3)
			g.AddOperation(tc.build(g, x))
			m := compile(t, g)
			require.Equal(t, tc.want, opcodes(m))
			last := m.Operators[len(m.Operators)-1]
			assert.Equal(t, m.Outputs, last.Outputs)
		})
	}
}

func TestCompileTriangularMask(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Int32, 3, 3)
	out := g.AddOutput("out", dtypes.Int32, 3, 3)
	g.AddOperation(&webnn.Triangular{Input: x, Output: out, Upper: false, Diagonal: -1})
	m := compile(t, g)
	mask := m.Tensors[m.Operators[0].Inputs[0]]
	assert.Equal(t, schema.TensorTypeBool, mask.Type)
	assert.Equal(t, []byte{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0}, m.Buffers[mask.Buffer])
}

func TestCompileGatherIndices(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 5, 2)
	indices := g.AddInput("indices", dtypes.Uint32, 3)
	out := g.AddOutput("out", dtypes.Float32, 3, 2)
	g.AddOperation(&webnn.Gather{Input: x, Indices: indices, Output: out})
	m := compile(t, g)
	require.Equal(t, []schema.BuiltinOperator{schema.OpCast, schema.OpGather}, opcodes(m))
	assert.Equal(t, schema.TensorTypeInt64, m.Tensors[m.Operators[0].Outputs[0]].Type)
	assert.Equal(t, m.Operators[0].Outputs[0], m.Operators[1].Inputs[1])
}

func TestCompileUnsupported(t *testing.T) {
	t.Run("float16 emulation", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float16, 4)
		out := g.AddOutput("out", dtypes.Float16, 4)
		g.AddOperation(&webnn.Softplus{Input: x, Output: out})
		model, err := Compile(g, caps)
		assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
		assert.Nil(t, model)
	})

	t.Run("prelu slope", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 2, 3)
		slope := g.AddInput("slope", dtypes.Float32, 3)
		out := g.AddOutput("out", dtypes.Float32, 2, 3)
		g.AddOperation(&webnn.Prelu{Input: x, Slope: slope, Output: out})
		_, err := Compile(g, caps)
		assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
	})

	t.Run("edge padding", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 2)
		out := g.AddOutput("out", dtypes.Float32, 4)
		g.AddOperation(&webnn.Pad{Input: x, Output: out, Beginning: []uint32{1}, Ending: []uint32{1},
			Mode: webnn.PaddingEdge})
		_, err := Compile(g, caps)
		assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
	})

	t.Run("reduceL1 unsigned", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Uint32, 4)
		out := g.AddOutput("out", dtypes.Uint32)
		g.AddOperation(&webnn.Reduce{Op: webnn.OpKindReduceL1, Input: x, Output: out, Axes: []uint32{0}})
		_, err := Compile(g, caps)
		assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
	})

	t.Run("shape overflow", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 1<<31)
		out := g.AddOutput("out", dtypes.Float32, 1<<31)
		g.AddOperation(&webnn.Relu{Input: x, Output: out})
		model, err := Compile(g, caps)
		assert.True(t, errors.Is(err, ErrShapeOverflow))
		assert.Nil(t, model)
	})
}

func TestCompileContractViolations(t *testing.T) {
	t.Run("unknown operand", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 2)
		out := g.AddOutput("out", dtypes.Float32, 2)
		g.AddOperation(&webnn.ElementwiseBinary{Op: webnn.OpKindAdd, Lhs: x, Rhs: 99, Output: out})
		require.Panics(t, func() { _, _ = Compile(g, caps) })
	})

	t.Run("unknown graph output", func(t *testing.T) {
		g := webnn.NewGraph()
		g.AddInput("x", dtypes.Float32, 2)
		g.Outputs = append(g.Outputs, 42)
		require.Panics(t, func() { _, _ = Compile(g, caps) })
	})

	t.Run("data type", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Int64, 2)
		out := g.AddOutput("out", dtypes.Int64, 2)
		g.AddOperation(&webnn.ElementwiseBinary{Op: webnn.OpKindDiv, Lhs: x, Rhs: x, Output: out})
		require.Panics(t, func() { _, _ = Compile(g, caps) })
	})

	t.Run("expand to incompatible shape", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 2, 3)
		out := g.AddOutput("out", dtypes.Float32, 4, 3)
		g.AddOperation(&webnn.Expand{Input: x, Output: out})
		require.Panics(t, func() { _, _ = Compile(g, caps) })
	})

	t.Run("explicit padding output shape", func(t *testing.T) {
		padding := webnn.Padding2d{Ending: webnn.Size2d{Height: 1, Width: 1}}
		require.Panics(t, func() { _, _ = Compile(newConvGraph(padding, 5, 5), caps) })
	})

	t.Run("second finish", func(t *testing.T) {
		b := newBuilder(webnn.NewGraph(), caps)
		model := b.finish()
		require.True(t, schema.HasIdentifier(model))
		require.Panics(t, func() { _ = b.finish() })
	})
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("not a model"))
	require.Error(t, err)
	_, err = Decode(nil)
	require.Error(t, err)
}

func TestCompileTensorOperations(t *testing.T) {
	t.Run("resample", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 1, 2, 3, 4)
		y := g.AddOutput("y", dtypes.Float32, 1, 4, 6, 4)
		g.AddOperation(&webnn.Resample2d{Input: x, Output: y, Mode: webnn.InterpolationNearestNeighbor,
			Axes: []uint32{1, 2}})
		m := compile(t, g)
		require.Equal(t, []schema.BuiltinOperator{schema.OpResizeNearestNeighbor}, opcodes(m))
		assert.Equal(t, []int32{4, 6}, int32Constant(t, m, m.Operators[0].Inputs[1]))

		g = webnn.NewGraph()
		x = g.AddInput("x", dtypes.Float32, 1, 4, 2, 3)
		y = g.AddOutput("y", dtypes.Float32, 1, 4, 4, 6)
		g.AddOperation(&webnn.Resample2d{Input: x, Output: y, Mode: webnn.InterpolationLinear,
			Axes: []uint32{2, 3}})
		_, err := Compile(g, caps)
		assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
	})

	t.Run("split", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 4, 6)
		a := g.AddOutput("a", dtypes.Float32, 4, 2)
		b := g.AddOutput("b", dtypes.Float32, 4, 4)
		g.AddOperation(&webnn.Split{Input: x, Outputs: []webnn.OperandID{a, b}, Axis: 1})
		m := compile(t, g)
		require.Equal(t, []schema.BuiltinOperator{schema.OpSplitV}, opcodes(m))
		op := m.Operators[0]
		assert.Equal(t, m.Outputs, op.Outputs)
		assert.Equal(t, []int32{2, 4}, int32Constant(t, m, op.Inputs[1]))
		assert.Equal(t, []int32{1}, int32Constant(t, m, op.Inputs[2]))
	})

	t.Run("expand and activations", func(t *testing.T) {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 1, 3)
		expanded := g.AddIntermediate(dtypes.Float32, 2, 3)
		gelu := g.AddIntermediate(dtypes.Float32, 2, 3)
		y := g.AddOutput("y", dtypes.Float32, 2, 3)
		g.AddOperation(&webnn.Expand{Input: x, Output: expanded})
		g.AddOperation(&webnn.Gelu{Input: expanded, Output: gelu})
		g.AddOperation(&webnn.HardSwish{Input: gelu, Output: y})
		m := compile(t, g)
		require.Equal(t, []schema.BuiltinOperator{schema.OpBroadcastTo, schema.OpGelu, schema.OpHardSwish}, opcodes(m))
		assert.Equal(t, []int32{2, 3}, int32Constant(t, m, m.Operators[0].Inputs[1]))
	})
}

func TestCompilePaddingOverflow(t *testing.T) {
	// The explicitly padded input (2+1) is smaller than the window (5).
	padding := webnn.Padding2d{Beginning: webnn.Size2d{Height: 1, Width: 1}}

	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 1, 2, 2, 2)
	filter := g.AddInput("filter", dtypes.Float32, 1, 5, 5, 2)
	out := g.AddOutput("out", dtypes.Float32, 1, 1, 1, 1)
	g.AddOperation(&webnn.Conv2d{
		Input: x, Filter: filter, Output: out,
		Strides:   webnn.Size2d{Height: 1, Width: 1},
		Dilations: webnn.Size2d{Height: 1, Width: 1},
		Padding:   padding,
		Groups:    1,
	})
	_, err := Compile(g, caps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaddingOverflow), "got %+v", err)

	g = webnn.NewGraph()
	x = g.AddInput("x", dtypes.Float32, 1, 2, 2, 1)
	out = g.AddOutput("out", dtypes.Float32, 1, 1, 1, 1)
	g.AddOperation(&webnn.Pool2d{
		Op: webnn.OpKindMaxPool2d, Input: x, Output: out,
		WindowDimensions: webnn.Size2d{Height: 5, Width: 5},
		Strides:          webnn.Size2d{Height: 1, Width: 1},
		Dilations:        webnn.Size2d{Height: 1, Width: 1},
		Padding:          padding,
	})
	_, err = Compile(g, caps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaddingOverflow), "got %+v", err)
}

func TestCompileConvTranspose(t *testing.T) {
	newGraph := func(padding webnn.Padding2d) *webnn.Graph {
		g := webnn.NewGraph()
		x := g.AddInput("x", dtypes.Float32, 1, 3, 3, 2)
		filter := g.AddInput("filter", dtypes.Float32, 4, 3, 3, 2)
		out := g.AddOutput("out", dtypes.Float32, 1, 6, 6, 4)
		g.AddOperation(&webnn.Conv2d{
			Input: x, Filter: filter, Output: out,
			Transposed: true,
			Strides:    webnn.Size2d{Height: 2, Width: 2},
			Dilations:  webnn.Size2d{Height: 1, Width: 1},
			Padding:    padding,
			Groups:     1,
		})
		return g
	}

	// Same padding of a stride 2 transposed convolution with a 3x3 filter puts the odd pixel at the end.
	m := compile(t, newGraph(webnn.Padding2d{Ending: webnn.Size2d{Height: 1, Width: 1}}))
	require.Equal(t, []schema.BuiltinOperator{schema.OpTransposeConv}, opcodes(m))
	op := m.Operators[0]
	assert.Equal(t, []int32{1, 6, 6, 4}, int32Constant(t, m, op.Inputs[0]))
	assert.Equal(t, []int32{m.Inputs[1], m.Inputs[0]}, op.Inputs[1:])
	assert.Equal(t, m.Outputs, op.Outputs)
	options := op.Options.(*schema.TransposeConvOptions)
	assert.Equal(t, schema.PaddingSame, options.Padding)
	assert.Equal(t, int32(2), options.StrideH)
	assert.Equal(t, int32(2), options.StrideW)

	_, err := Compile(newGraph(webnn.Padding2d{Beginning: webnn.Size2d{Height: 1, Width: 1},
		Ending: webnn.Size2d{Height: 1, Width: 1}}), caps)
	assert.True(t, errors.Is(err, ErrUnsupportedConfiguration))
}

func TestCompileWhere(t *testing.T) {
	g := webnn.NewGraph()
	condition := g.AddInput("condition", dtypes.Uint8, 2, 3)
	onTrue := g.AddInput("onTrue", dtypes.Float32, 2, 3)
	onFalse := g.AddInput("onFalse", dtypes.Float32, 1, 3)
	out := g.AddOutput("out", dtypes.Float32, 2, 3)
	g.AddOperation(&webnn.Where{Condition: condition, TrueValue: onTrue, FalseValue: onFalse, Output: out})
	m := compile(t, g)
	require.Equal(t, []schema.BuiltinOperator{schema.OpCast, schema.OpSelectV2}, opcodes(m))
	cast, selectOp := m.Operators[0], m.Operators[1]
	assert.Equal(t, []int32{m.Inputs[0]}, cast.Inputs)
	assert.Equal(t, &schema.CastOptions{InDataType: schema.TensorTypeUint8, OutDataType: schema.TensorTypeBool},
		cast.Options)
	assert.Equal(t, schema.TensorTypeBool, m.Tensors[cast.Outputs[0]].Type)
	assert.Equal(t, []int32{cast.Outputs[0], m.Inputs[1], m.Inputs[2]}, selectOp.Inputs)
	assert.Equal(t, m.Outputs, selectOp.Outputs)
}

func TestCompileLogical(t *testing.T) {
	for kind, want := range map[webnn.OpKind]schema.BuiltinOperator{
		webnn.OpKindLogicalAnd: schema.OpLogicalAnd,
		webnn.OpKindLogicalOr:  schema.OpLogicalOr,
		webnn.OpKindLogicalXor: schema.OpNotEqual,
	} {
		t.Run(kind.String(), func(t *testing.T) {
			g := webnn.NewGraph()
			x := g.AddInput("x", dtypes.Uint8, 4)
			y := g.AddInput("y", dtypes.Uint8, 4)
			out := g.AddOutput("out", dtypes.Uint8, 4)
			g.AddOperation(&webnn.ElementwiseBinary{Op: kind, Lhs: x, Rhs: y, Output: out})
			m := compile(t, g)
			require.Equal(t, []schema.BuiltinOperator{schema.OpCast, schema.OpCast, want, schema.OpCast}, opcodes(m))
			op := m.Operators[2]
			assert.Equal(t, []int32{m.Operators[0].Outputs[0], m.Operators[1].Outputs[0]}, op.Inputs)
			assert.Equal(t, schema.TensorTypeBool, m.Tensors[op.Outputs[0]].Type)
			assert.Equal(t, &schema.CastOptions{InDataType: schema.TensorTypeBool, OutDataType: schema.TensorTypeUint8},
				m.Operators[3].Options)
			assert.Equal(t, m.Outputs, m.Operators[3].Outputs)
		})
	}

	t.Run("LogicalNot", func(t *testing.T) {
		m := compileUnary(t, webnn.OpKindLogicalNot, dtypes.Uint8)
		require.Equal(t, []schema.BuiltinOperator{schema.OpCast, schema.OpLogicalNot, schema.OpCast}, opcodes(m))
		assert.Equal(t, &schema.CastOptions{InDataType: schema.TensorTypeUint8, OutDataType: schema.TensorTypeBool},
			m.Operators[0].Options)
		assert.Equal(t, m.Outputs, m.Operators[2].Outputs)
	})
}

// compileUnary compiles an element-wise unary operation over a [4] operand of the given dtype.
func compileUnary(t *testing.T, kind webnn.OpKind, dtype dtypes.DType) *Model {
	t.Helper()
	g := webnn.NewGraph()
	x := g.AddInput("x", dtype, 4)
	out := g.AddOutput("out", dtype, 4)
	g.AddOperation(&webnn.ElementwiseUnary{Op: kind, Input: x, Output: out})
	return compile(t, g)
}

func TestCompileConcat(t *testing.T) {
	g := webnn.NewGraph()
	x := g.AddInput("x", dtypes.Float32, 2, 3)
	y := g.AddInput("y", dtypes.Float32, 2, 1)
	out := g.AddOutput("out", dtypes.Float32, 2, 4)
	g.AddOperation(&webnn.Concat{Inputs: []webnn.OperandID{x, y}, Output: out, Axis: 1})
	m := compile(t, g)
	require.Equal(t, []schema.BuiltinOperator{schema.OpConcatenation}, opcodes(m))
	assert.Equal(t, &schema.ConcatenationOptions{Axis: 1}, m.Operators[0].Options)
	assert.Equal(t, m.Inputs, m.Operators[0].Inputs)

	got := evaluate(t, m, []float32{1, 2, 3, 4, 5, 6}, []float32{-1, -2})[0]
	assert.Equal(t, []float32{1, 2, 3, -1, 4, 5, 6, -2}, got)
}

func TestCompileReduceL1(t *testing.T) {
	for _, dtype := range []dtypes.DType{dtypes.Float32, dtypes.Int32} {
		t.Run(dtype.String(), func(t *testing.T) {
			g := webnn.NewGraph()
			x := g.AddInput("x", dtype, 2, 3)
			out := g.AddOutput("out", dtype, 2)
			g.AddOperation(&webnn.Reduce{Op: webnn.OpKindReduceL1, Input: x, Output: out, Axes: []uint32{1}})
			m := compile(t, g)
			require.Equal(t, []schema.BuiltinOperator{schema.OpAbs, schema.OpSum}, opcodes(m))
			assert.Equal(t, []int32{1}, int32Constant(t, m, m.Operators[1].Inputs[1]))
			assert.Equal(t, m.Outputs, m.Operators[1].Outputs)
		})
	}
}
