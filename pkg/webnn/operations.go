// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package webnn

// Operation is one node of the graph. It is a closed set: only the types of this package implement it.
//
// 2D operations (convolutions, pooling, resampling and instance normalization by default) use the
// channels-last layout: inputs are [batch, height, width, channels] and convolution filters are
// [outputChannels, height, width, inputChannels/groups].
type Operation interface {
	// Kind returns the fine-grained role of the operation, used for the capability checks.
	Kind() OpKind

	isOperation()
}

// Size2d holds a height and a width.
type Size2d struct {
	Height, Width uint32
}

// Padding2d holds the explicit padding of the two spatial axes.
type Padding2d struct {
	Beginning, Ending Size2d
}

// RecurrentActivation is an activation usable in the gates of GRU and LSTM operations.
type RecurrentActivation int

const (
	ActivationSigmoid RecurrentActivation = iota
	ActivationTanh
	ActivationRelu
)

// RecurrentDirection of the multi-step GRU and LSTM operations.
type RecurrentDirection int

const (
	DirectionForward RecurrentDirection = iota
	DirectionBackward
	DirectionBoth
)

// NumDirections returns 2 for DirectionBoth, 1 otherwise.
func (d RecurrentDirection) NumDirections() int {
	if d == DirectionBoth {
		return 2
	}
	return 1
}

// GruWeightLayout is the ordering of the gates in the rows of the GRU weights and biases.
type GruWeightLayout int

const (
	// GruLayoutZrn orders rows as update (z), reset (r), new (n).
	GruLayoutZrn GruWeightLayout = iota
	// GruLayoutRzn orders rows as reset (r), update (z), new (n).
	GruLayoutRzn
)

// LstmWeightLayout is the ordering of the gates in the rows of the LSTM weights and biases.
type LstmWeightLayout int

const (
	// LstmLayoutIofg orders rows as input, output, forget, cell.
	LstmLayoutIofg LstmWeightLayout = iota
	// LstmLayoutIfgo orders rows as input, forget, cell, output.
	LstmLayoutIfgo
)

// InputLayout of 2D normalization operations.
type InputLayout int

const (
	LayoutChannelsLast InputLayout = iota
	LayoutChannelsFirst
)

// PaddingMode of the Pad operation.
type PaddingMode int

const (
	PaddingConstant PaddingMode = iota
	PaddingEdge
	PaddingReflection
	PaddingSymmetric
)

// InterpolationMode of Resample2d.
type InterpolationMode int

const (
	InterpolationNearestNeighbor InterpolationMode = iota
	InterpolationLinear
)

// ArgMinMax returns the indices of the min (Op=OpKindArgMin) or max (Op=OpKindArgMax) along Axis.
type ArgMinMax struct {
	Op             OpKind
	Input, Output  OperandID
	Axis           uint32
	KeepDimensions bool
}

// BatchNormalization normalizes Input along Axis with the given Mean and Variance (both 1D).
type BatchNormalization struct {
	Input, Mean, Variance OperandID
	Scale, Bias           *OperandID
	Output                OperandID
	Axis                  uint32
	Epsilon               float32
}

// Clamp limits Input to [MinValue, MaxValue].
type Clamp struct {
	Input, Output      OperandID
	MinValue, MaxValue float32
}

// Concat joins Inputs along Axis.
type Concat struct {
	Inputs []OperandID
	Output OperandID
	Axis   uint32
}

// Conv2d is a direct (Transposed=false) or transposed 2D convolution.
//
// Strides and Dilations must be at least 1 on both axes.
type Conv2d struct {
	Transposed    bool
	Input, Filter OperandID
	Bias          *OperandID
	Output        OperandID
	Strides       Size2d
	Dilations     Size2d
	Padding       Padding2d
	Groups        uint32
}

// ElementwiseBinary applies Op (one of the element-wise binary kinds) with broadcasting.
type ElementwiseBinary struct {
	Op               OpKind
	Lhs, Rhs, Output OperandID
}

// ElementwiseUnary applies Op (one of the element-wise unary kinds). OpKindCast converts to the
// data type of Output.
type ElementwiseUnary struct {
	Op            OpKind
	Input, Output OperandID
}

// Elu is the exponential linear unit: x if x > 0, Alpha*(exp(x)-1) otherwise.
type Elu struct {
	Input, Output OperandID
	Alpha         float32
}

// Expand broadcasts Input to the shape of Output.
type Expand struct {
	Input, Output OperandID
}

// Gather takes the slices of Input along Axis selected by Indices.
type Gather struct {
	Input, Indices, Output OperandID
	Axis                   uint32
}

// Gelu is the gaussian error linear unit.
type Gelu struct {
	Input, Output OperandID
}

// Gemm computes Alpha * A' * B' + Beta * C, where ' is an optional transposition.
type Gemm struct {
	A, B                   OperandID
	C                      *OperandID
	Output                 OperandID
	Alpha, Beta            float32
	ATranspose, BTranspose bool
}

// GruCell computes one step of a gated recurrent unit.
//
// Shapes: Input [batch, inputSize], Weight [3*hiddenSize, inputSize],
// RecurrentWeight [3*hiddenSize, hiddenSize], HiddenState [batch, hiddenSize],
// Bias and RecurrentBias [3*hiddenSize], Output [batch, hiddenSize].
type GruCell struct {
	Input, Weight, RecurrentWeight, HiddenState OperandID
	Bias, RecurrentBias                         *OperandID
	Output                                      OperandID
	HiddenSize                                  uint32
	ResetAfter                                  bool
	Layout                                      GruWeightLayout
	Activations                                 [2]RecurrentActivation
}

// Gru runs a gated recurrent unit over Steps time steps.
//
// Shapes: Input [steps, batch, inputSize], Weight [numDirections, 3*hiddenSize, inputSize],
// RecurrentWeight [numDirections, 3*hiddenSize, hiddenSize], Bias and RecurrentBias
// [numDirections, 3*hiddenSize], InitialHiddenState [numDirections, batch, hiddenSize].
//
// Outputs holds the last hidden state [numDirections, batch, hiddenSize] and, if ReturnSequence,
// the sequence of hidden states [steps, numDirections, batch, hiddenSize].
type Gru struct {
	Input, Weight, RecurrentWeight          OperandID
	Bias, RecurrentBias, InitialHiddenState *OperandID
	Outputs                                 []OperandID
	Steps, HiddenSize                       uint32
	ResetAfter, ReturnSequence              bool
	Direction                               RecurrentDirection
	Layout                                  GruWeightLayout
	Activations                             [2]RecurrentActivation
}

// HardSigmoid computes max(0, min(1, Alpha*x+Beta)).
type HardSigmoid struct {
	Input, Output OperandID
	Alpha, Beta   float32
}

// HardSwish computes x * max(0, min(6, x+3)) / 6.
type HardSwish struct {
	Input, Output OperandID
}

// InstanceNormalization normalizes each channel of each batch example over the spatial axes.
type InstanceNormalization struct {
	Input       OperandID
	Scale, Bias *OperandID
	Output      OperandID
	Epsilon     float32
	Layout      InputLayout
}

// LayerNormalization normalizes Input over Axes. Scale and Bias have the dimensions of Input at Axes,
// in the order given by Axes.
type LayerNormalization struct {
	Input       OperandID
	Scale, Bias *OperandID
	Output      OperandID
	Axes        []uint32
	Epsilon     float32
}

// LeakyRelu computes x if x >= 0, Alpha*x otherwise.
type LeakyRelu struct {
	Input, Output OperandID
	Alpha         float32
}

// Linear computes Alpha*x + Beta.
type Linear struct {
	Input, Output OperandID
	Alpha, Beta   float32
}

// LstmCell computes one step of a long short-term memory cell.
//
// Shapes: Input [batch, inputSize], Weight [4*hiddenSize, inputSize],
// RecurrentWeight [4*hiddenSize, hiddenSize], HiddenState and CellState [batch, hiddenSize],
// Bias and RecurrentBias [4*hiddenSize], Peephole [3*hiddenSize] (input, output, forget).
//
// Outputs holds the new hidden state and the new cell state, both [batch, hiddenSize].
type LstmCell struct {
	Input, Weight, RecurrentWeight, HiddenState, CellState OperandID
	Bias, RecurrentBias, Peephole                          *OperandID
	Outputs                                                []OperandID
	HiddenSize                                             uint32
	Layout                                                 LstmWeightLayout
	Activations                                            [3]RecurrentActivation
}

// Lstm runs a long short-term memory network over Steps time steps.
//
// Shapes follow Gru with 4 gates instead of 3, plus Peephole [numDirections, 3*hiddenSize] and
// InitialCellState [numDirections, batch, hiddenSize].
//
// Outputs holds the last hidden state, the last cell state (both [numDirections, batch, hiddenSize])
// and, if ReturnSequence, the sequence of hidden states [steps, numDirections, batch, hiddenSize].
type Lstm struct {
	Input, Weight, RecurrentWeight                                      OperandID
	Bias, RecurrentBias, Peephole, InitialHiddenState, InitialCellState *OperandID
	Outputs                                                             []OperandID
	Steps, HiddenSize                                                   uint32
	ReturnSequence                                                      bool
	Direction                                                           RecurrentDirection
	Layout                                                              LstmWeightLayout
	Activations                                                         [3]RecurrentActivation
}

// Matmul is a batched matrix multiplication with broadcasting of the batch axes.
type Matmul struct {
	A, B, Output OperandID
}

// Pad adds Beginning[i] and Ending[i] elements to each axis i of Input.
type Pad struct {
	Input, Output     OperandID
	Beginning, Ending []uint32
	Mode              PaddingMode
	Value             float32
}

// Pool2d is an average, L2 or max pooling, selected by Op. Strides and Dilations must be at least 1.
type Pool2d struct {
	Op               OpKind
	Input, Output    OperandID
	WindowDimensions Size2d
	Strides          Size2d
	Dilations        Size2d
	Padding          Padding2d
}

// Prelu computes x if x >= 0, Slope*x otherwise.
type Prelu struct {
	Input, Slope, Output OperandID
}

// Reduce applies Op (one of the reduction kinds) over Axes.
type Reduce struct {
	Op             OpKind
	Input, Output  OperandID
	Axes           []uint32
	KeepDimensions bool
}

// Relu computes max(0, x).
type Relu struct {
	Input, Output OperandID
}

// Resample2d resizes the Axes of Input to the dimensions of Output.
type Resample2d struct {
	Input, Output OperandID
	Mode          InterpolationMode
	Axes          []uint32
}

// Reshape changes the shape of Input to the shape of Output.
type Reshape struct {
	Input, Output OperandID
}

// Sigmoid computes 1/(1+exp(-x)).
type Sigmoid struct {
	Input, Output OperandID
}

// Slice extracts from Input the window of Sizes elements starting at Starts, taking one element every
// Strides: the output has ceil(Sizes/Strides) elements on each axis. Strides may be nil, meaning all ones.
type Slice struct {
	Input, Output          OperandID
	Starts, Sizes, Strides []uint32
}

// Softmax normalizes exp(x) along Axis.
type Softmax struct {
	Input, Output OperandID
	Axis          uint32
}

// Softplus computes ln(1+exp(x)).
type Softplus struct {
	Input, Output OperandID
}

// Softsign computes x/(1+|x|).
type Softsign struct {
	Input, Output OperandID
}

// Split cuts Input along Axis into Outputs, each taking its Axis dimension from its own shape.
type Split struct {
	Input   OperandID
	Outputs []OperandID
	Axis    uint32
}

// Tanh computes the hyperbolic tangent.
type Tanh struct {
	Input, Output OperandID
}

// Transpose permutes the axes of Input.
type Transpose struct {
	Input, Output OperandID
	Permutation   []uint32
}

// Triangular keeps the upper (or lower) triangular part of the last two axes of Input, shifted
// by Diagonal, and zeroes the rest.
type Triangular struct {
	Input, Output OperandID
	Upper         bool
	Diagonal      int32
}

// Where selects TrueValue where Condition (uint8) is non-zero, FalseValue otherwise.
type Where struct {
	Condition, TrueValue, FalseValue, Output OperandID
}

func (op *ArgMinMax) Kind() OpKind          { return op.Op }
func (*BatchNormalization) Kind() OpKind    { return OpKindBatchNormalization }
func (*Clamp) Kind() OpKind                 { return OpKindClamp }
func (*Concat) Kind() OpKind                { return OpKindConcat }
func (*Elu) Kind() OpKind                   { return OpKindElu }
func (op *ElementwiseBinary) Kind() OpKind  { return op.Op }
func (op *ElementwiseUnary) Kind() OpKind   { return op.Op }
func (*Expand) Kind() OpKind                { return OpKindExpand }
func (*Gather) Kind() OpKind                { return OpKindGather }
func (*Gelu) Kind() OpKind                  { return OpKindGelu }
func (*Gemm) Kind() OpKind                  { return OpKindGemm }
func (*Gru) Kind() OpKind                   { return OpKindGru }
func (*GruCell) Kind() OpKind               { return OpKindGruCell }
func (*HardSigmoid) Kind() OpKind           { return OpKindHardSigmoid }
func (*HardSwish) Kind() OpKind             { return OpKindHardSwish }
func (*InstanceNormalization) Kind() OpKind { return OpKindInstanceNormalization }
func (*LayerNormalization) Kind() OpKind    { return OpKindLayerNormalization }
func (*LeakyRelu) Kind() OpKind             { return OpKindLeakyRelu }
func (*Linear) Kind() OpKind                { return OpKindLinear }
func (*Lstm) Kind() OpKind                  { return OpKindLstm }
func (*LstmCell) Kind() OpKind              { return OpKindLstmCell }
func (*Matmul) Kind() OpKind                { return OpKindMatmul }
func (*Pad) Kind() OpKind                   { return OpKindPad }
func (op *Pool2d) Kind() OpKind             { return op.Op }
func (*Prelu) Kind() OpKind                 { return OpKindPrelu }
func (op *Reduce) Kind() OpKind             { return op.Op }
func (*Relu) Kind() OpKind                  { return OpKindRelu }
func (*Resample2d) Kind() OpKind            { return OpKindResample2d }
func (*Reshape) Kind() OpKind               { return OpKindReshape }
func (*Sigmoid) Kind() OpKind               { return OpKindSigmoid }
func (*Slice) Kind() OpKind                 { return OpKindSlice }
func (*Softmax) Kind() OpKind               { return OpKindSoftmax }
func (*Softplus) Kind() OpKind              { return OpKindSoftplus }
func (*Softsign) Kind() OpKind              { return OpKindSoftsign }
func (*Split) Kind() OpKind                 { return OpKindSplit }
func (*Tanh) Kind() OpKind                  { return OpKindTanh }
func (*Transpose) Kind() OpKind             { return OpKindTranspose }
func (*Triangular) Kind() OpKind            { return OpKindTriangular }
func (*Where) Kind() OpKind                 { return OpKindWhere }

// Kind returns OpKindConvTranspose2d for transposed convolutions, OpKindConv2d otherwise.
func (op *Conv2d) Kind() OpKind {
	if op.Transposed {
		return OpKindConvTranspose2d
	}
	return OpKindConv2d
}

func (*ArgMinMax) isOperation()             {}
func (*BatchNormalization) isOperation()    {}
func (*Clamp) isOperation()                 {}
func (*Concat) isOperation()                {}
func (*Conv2d) isOperation()                {}
func (*ElementwiseBinary) isOperation()     {}
func (*ElementwiseUnary) isOperation()      {}
func (*Elu) isOperation()                   {}
func (*Expand) isOperation()                {}
func (*Gather) isOperation()                {}
func (*Gelu) isOperation()                  {}
func (*Gemm) isOperation()                  {}
func (*Gru) isOperation()                   {}
func (*GruCell) isOperation()               {}
func (*HardSigmoid) isOperation()           {}
func (*HardSwish) isOperation()             {}
func (*InstanceNormalization) isOperation() {}
func (*LayerNormalization) isOperation()    {}
func (*LeakyRelu) isOperation()             {}
func (*Linear) isOperation()                {}
func (*Lstm) isOperation()                  {}
func (*LstmCell) isOperation()              {}
func (*Matmul) isOperation()                {}
func (*Pad) isOperation()                   {}
func (*Pool2d) isOperation()                {}
func (*Prelu) isOperation()                 {}
func (*Reduce) isOperation()                {}
func (*Relu) isOperation()                  {}
func (*Resample2d) isOperation()            {}
func (*Reshape) isOperation()               {}
func (*Sigmoid) isOperation()               {}
func (*Slice) isOperation()                 {}
func (*Softmax) isOperation()               {}
func (*Softplus) isOperation()              {}
func (*Softsign) isOperation()              {}
func (*Split) isOperation()                 {}
func (*Tanh) isOperation()                  {}
func (*Transpose) isOperation()             {}
func (*Triangular) isOperation()            {}
func (*Where) isOperation()                 {}
