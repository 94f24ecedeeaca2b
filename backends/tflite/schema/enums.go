// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// TensorType is the element type of a tensor.
type TensorType int8

const (
	TensorTypeFloat32 TensorType = 0
	TensorTypeFloat16 TensorType = 1
	TensorTypeInt32   TensorType = 2
	TensorTypeUint8   TensorType = 3
	TensorTypeInt64   TensorType = 4
	TensorTypeBool    TensorType = 6
	TensorTypeInt16   TensorType = 7
	TensorTypeInt8    TensorType = 9
	TensorTypeFloat64 TensorType = 10
	TensorTypeUint64  TensorType = 12
	TensorTypeUint32  TensorType = 15
)

var tensorTypeNames = map[TensorType]string{
	TensorTypeFloat32: "FLOAT32",
	TensorTypeFloat16: "FLOAT16",
	TensorTypeInt32:   "INT32",
	TensorTypeUint8:   "UINT8",
	TensorTypeInt64:   "INT64",
	TensorTypeBool:    "BOOL",
	TensorTypeInt16:   "INT16",
	TensorTypeInt8:    "INT8",
	TensorTypeFloat64: "FLOAT64",
	TensorTypeUint64:  "UINT64",
	TensorTypeUint32:  "UINT32",
}

func (t TensorType) String() string {
	if name, found := tensorTypeNames[t]; found {
		return name
	}
	return fmt.Sprintf("TensorType(%d)", int(t))
}

// BuiltinOperator enumerates the operators of the target runtime.
//
// Only the operators the compiler emits are listed.
type BuiltinOperator int32

const (
	OpAdd                          BuiltinOperator = 0
	OpAveragePool2D                BuiltinOperator = 1
	OpConcatenation                BuiltinOperator = 2
	OpConv2D                       BuiltinOperator = 3
	OpDepthwiseConv2D              BuiltinOperator = 4
	OpFloor                        BuiltinOperator = 8
	OpFullyConnected               BuiltinOperator = 9
	OpL2Pool2D                     BuiltinOperator = 12
	OpLogistic                     BuiltinOperator = 14
	OpMaxPool2D                    BuiltinOperator = 17
	OpMul                          BuiltinOperator = 18
	OpRelu                         BuiltinOperator = 19
	OpReluN1To1                    BuiltinOperator = 20
	OpRelu6                        BuiltinOperator = 21
	OpReshape                      BuiltinOperator = 22
	OpResizeBilinear               BuiltinOperator = 23
	OpSoftmax                      BuiltinOperator = 25
	OpTanh                         BuiltinOperator = 28
	OpPad                          BuiltinOperator = 34
	OpGather                       BuiltinOperator = 36
	OpTranspose                    BuiltinOperator = 39
	OpMean                         BuiltinOperator = 40
	OpSub                          BuiltinOperator = 41
	OpDiv                          BuiltinOperator = 42
	OpStridedSlice                 BuiltinOperator = 45
	OpExp                          BuiltinOperator = 47
	OpSplit                        BuiltinOperator = 49
	OpCast                         BuiltinOperator = 53
	OpPrelu                        BuiltinOperator = 54
	OpMaximum                      BuiltinOperator = 55
	OpArgMax                       BuiltinOperator = 56
	OpMinimum                      BuiltinOperator = 57
	OpLess                         BuiltinOperator = 58
	OpNeg                          BuiltinOperator = 59
	OpPadV2                        BuiltinOperator = 60
	OpGreater                      BuiltinOperator = 61
	OpGreaterEqual                 BuiltinOperator = 62
	OpLessEqual                    BuiltinOperator = 63
	OpSelect                       BuiltinOperator = 64
	OpSlice                        BuiltinOperator = 65
	OpSin                          BuiltinOperator = 66
	OpTransposeConv                BuiltinOperator = 67
	OpEqual                        BuiltinOperator = 71
	OpNotEqual                     BuiltinOperator = 72
	OpLog                          BuiltinOperator = 73
	OpSum                          BuiltinOperator = 74
	OpSqrt                         BuiltinOperator = 75
	OpPow                          BuiltinOperator = 78
	OpArgMin                       BuiltinOperator = 79
	OpReduceProd                   BuiltinOperator = 81
	OpReduceMax                    BuiltinOperator = 82
	OpLogicalOr                    BuiltinOperator = 84
	OpLogicalAnd                   BuiltinOperator = 86
	OpLogicalNot                   BuiltinOperator = 87
	OpReduceMin                    BuiltinOperator = 89
	OpResizeNearestNeighbor        BuiltinOperator = 97
	OpLeakyRelu                    BuiltinOperator = 98
	OpMirrorPad                    BuiltinOperator = 100
	OpAbs                          BuiltinOperator = 101
	OpSplitV                       BuiltinOperator = 102
	OpCeil                         BuiltinOperator = 104
	OpCos                          BuiltinOperator = 108
	OpElu                          BuiltinOperator = 111
	OpHardSwish                    BuiltinOperator = 117
	OpSelectV2                     BuiltinOperator = 123
	OpBatchMatMul                  BuiltinOperator = 126
	OpPlaceholderForGreaterOpCodes BuiltinOperator = 127
	OpBroadcastTo                  BuiltinOperator = 130
	OpGelu                         BuiltinOperator = 150
	OpRelu0To1                     BuiltinOperator = 152
	OpSign                         BuiltinOperator = 158
)

var builtinOperatorNames = map[BuiltinOperator]string{
	OpAdd:                          "ADD",
	OpAveragePool2D:                "AVERAGE_POOL_2D",
	OpConcatenation:                "CONCATENATION",
	OpConv2D:                       "CONV_2D",
	OpDepthwiseConv2D:              "DEPTHWISE_CONV_2D",
	OpFloor:                        "FLOOR",
	OpFullyConnected:               "FULLY_CONNECTED",
	OpL2Pool2D:                     "L2_POOL_2D",
	OpLogistic:                     "LOGISTIC",
	OpMaxPool2D:                    "MAX_POOL_2D",
	OpMul:                          "MUL",
	OpRelu:                         "RELU",
	OpReluN1To1:                    "RELU_N1_TO_1",
	OpRelu6:                        "RELU6",
	OpReshape:                      "RESHAPE",
	OpResizeBilinear:               "RESIZE_BILINEAR",
	OpSoftmax:                      "SOFTMAX",
	OpTanh:                         "TANH",
	OpPad:                          "PAD",
	OpGather:                       "GATHER",
	OpTranspose:                    "TRANSPOSE",
	OpMean:                         "MEAN",
	OpSub:                          "SUB",
	OpDiv:                          "DIV",
	OpStridedSlice:                 "STRIDED_SLICE",
	OpExp:                          "EXP",
	OpSplit:                        "SPLIT",
	OpCast:                         "CAST",
	OpPrelu:                        "PRELU",
	OpMaximum:                      "MAXIMUM",
	OpArgMax:                       "ARG_MAX",
	OpMinimum:                      "MINIMUM",
	OpLess:                         "LESS",
	OpNeg:                          "NEG",
	OpPadV2:                        "PADV2",
	OpGreater:                      "GREATER",
	OpGreaterEqual:                 "GREATER_EQUAL",
	OpLessEqual:                    "LESS_EQUAL",
	OpSelect:                       "SELECT",
	OpSlice:                        "SLICE",
	OpSin:                          "SIN",
	OpTransposeConv:                "TRANSPOSE_CONV",
	OpEqual:                        "EQUAL",
	OpNotEqual:                     "NOT_EQUAL",
	OpLog:                          "LOG",
	OpSum:                          "SUM",
	OpSqrt:                         "SQRT",
	OpPow:                          "POW",
	OpArgMin:                       "ARG_MIN",
	OpReduceProd:                   "REDUCE_PROD",
	OpReduceMax:                    "REDUCE_MAX",
	OpLogicalOr:                    "LOGICAL_OR",
	OpLogicalAnd:                   "LOGICAL_AND",
	OpLogicalNot:                   "LOGICAL_NOT",
	OpReduceMin:                    "REDUCE_MIN",
	OpResizeNearestNeighbor:        "RESIZE_NEAREST_NEIGHBOR",
	OpLeakyRelu:                    "LEAKY_RELU",
	OpMirrorPad:                    "MIRROR_PAD",
	OpAbs:                          "ABS",
	OpSplitV:                       "SPLIT_V",
	OpCeil:                         "CEIL",
	OpCos:                          "COS",
	OpElu:                          "ELU",
	OpHardSwish:                    "HARD_SWISH",
	OpSelectV2:                     "SELECT_V2",
	OpBatchMatMul:                  "BATCH_MATMUL",
	OpPlaceholderForGreaterOpCodes: "PLACEHOLDER_FOR_GREATER_OP_CODES",
	OpBroadcastTo:                  "BROADCAST_TO",
	OpGelu:                         "GELU",
	OpRelu0To1:                     "RELU_0_TO_1",
	OpSign:                         "SIGN",
}

func (op BuiltinOperator) String() string {
	if name, found := builtinOperatorNames[op]; found {
		return name
	}
	return fmt.Sprintf("BuiltinOperator(%d)", int(op))
}

// DeprecatedCode returns the value stored in the legacy 8-bit opcode field: codes that don't fit
// are stored as OpPlaceholderForGreaterOpCodes.
func (op BuiltinOperator) DeprecatedCode() int8 {
	return int8(min(op, OpPlaceholderForGreaterOpCodes))
}

// BuiltinOptions is the discriminator of the operator options union.
type BuiltinOptions uint8

const (
	BuiltinOptionsNone                         BuiltinOptions = 0
	BuiltinOptionsConv2DOptions                BuiltinOptions = 1
	BuiltinOptionsDepthwiseConv2DOptions       BuiltinOptions = 2
	BuiltinOptionsPool2DOptions                BuiltinOptions = 5
	BuiltinOptionsFullyConnectedOptions        BuiltinOptions = 8
	BuiltinOptionsSoftmaxOptions               BuiltinOptions = 9
	BuiltinOptionsConcatenationOptions         BuiltinOptions = 10
	BuiltinOptionsResizeBilinearOptions        BuiltinOptions = 15
	BuiltinOptionsReshapeOptions               BuiltinOptions = 17
	BuiltinOptionsGatherOptions                BuiltinOptions = 23
	BuiltinOptionsReducerOptions               BuiltinOptions = 27
	BuiltinOptionsStridedSliceOptions          BuiltinOptions = 32
	BuiltinOptionsCastOptions                  BuiltinOptions = 37
	BuiltinOptionsArgMaxOptions                BuiltinOptions = 40
	BuiltinOptionsTransposeConvOptions         BuiltinOptions = 49
	BuiltinOptionsArgMinOptions                BuiltinOptions = 57
	BuiltinOptionsResizeNearestNeighborOptions BuiltinOptions = 74
	BuiltinOptionsLeakyReluOptions             BuiltinOptions = 75
	BuiltinOptionsMirrorPadOptions             BuiltinOptions = 77
	BuiltinOptionsSplitVOptions                BuiltinOptions = 79
	BuiltinOptionsBatchMatMulOptions           BuiltinOptions = 101
	BuiltinOptionsGeluOptions                  BuiltinOptions = 116
)

// Padding is the padding scheme of convolutions and pooling.
type Padding int8

const (
	PaddingSame  Padding = 0
	PaddingValid Padding = 1
)

func (p Padding) String() string {
	switch p {
	case PaddingSame:
		return "SAME"
	case PaddingValid:
		return "VALID"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// ActivationFunctionType is the activation fused into some operators. The compiler never fuses activations.
type ActivationFunctionType int8

const (
	ActivationNone ActivationFunctionType = 0
	ActivationRelu ActivationFunctionType = 1
)

// MirrorPadMode selects the MIRROR_PAD flavor.
type MirrorPadMode int8

const (
	MirrorPadReflect   MirrorPadMode = 0
	MirrorPadSymmetric MirrorPadMode = 1
)

// FullyConnectedOptionsWeightsFormat is the layout of FULLY_CONNECTED weights.
type FullyConnectedOptionsWeightsFormat int8

const (
	WeightsFormatDefault FullyConnectedOptionsWeightsFormat = 0
)
