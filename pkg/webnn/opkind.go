// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package webnn

import "fmt"

// OpKind enumerates the operation roles of a graph. It is finer grained than the
// Operation variants: an ElementwiseBinary operation carries one of the binary kinds
// (OpKindAdd, OpKindDiv, ...), a Reduce carries one of the reduce kinds, etc.
//
// OpKind is also the key of the capability table: each role lists the data types it
// accepts per operand slot.
type OpKind int

const (
	OpKindInvalid OpKind = iota

	OpKindArgMax
	OpKindArgMin
	OpKindBatchNormalization
	OpKindClamp
	OpKindConcat
	OpKindConv2d
	OpKindConvTranspose2d
	OpKindElu
	OpKindExpand
	OpKindGather
	OpKindGelu
	OpKindGemm
	OpKindGru
	OpKindGruCell
	OpKindHardSigmoid
	OpKindHardSwish
	OpKindInstanceNormalization
	OpKindLayerNormalization
	OpKindLeakyRelu
	OpKindLinear
	OpKindLstm
	OpKindLstmCell
	OpKindMatmul
	OpKindPad
	OpKindAveragePool2d
	OpKindL2Pool2d
	OpKindMaxPool2d
	OpKindPrelu
	OpKindRelu
	OpKindResample2d
	OpKindReshape
	OpKindSigmoid
	OpKindSlice
	OpKindSoftmax
	OpKindSoftplus
	OpKindSoftsign
	OpKindSplit
	OpKindTanh
	OpKindTranspose
	OpKindTriangular
	OpKindWhere

	// Element-wise binary operations.

	OpKindAdd
	OpKindSub
	OpKindMul
	OpKindDiv
	OpKindMax
	OpKindMin
	OpKindPow
	OpKindEqual
	OpKindGreater
	OpKindGreaterOrEqual
	OpKindLesser
	OpKindLesserOrEqual
	OpKindLogicalAnd
	OpKindLogicalOr
	OpKindLogicalXor

	// Element-wise unary operations.

	OpKindAbs
	OpKindCast
	OpKindCeil
	OpKindCos
	OpKindErf
	OpKindExp
	OpKindFloor
	OpKindIdentity
	OpKindLog
	OpKindLogicalNot
	OpKindNeg
	OpKindReciprocal
	OpKindSign
	OpKindSin
	OpKindSqrt
	OpKindTan

	// Reductions.

	OpKindReduceL1
	OpKindReduceL2
	OpKindReduceLogSum
	OpKindReduceLogSumExp
	OpKindReduceMax
	OpKindReduceMean
	OpKindReduceMin
	OpKindReduceProduct
	OpKindReduceSum
	OpKindReduceSumSquare

	// OpKindLast should always be kept the last, it is used as a counter/marker for OpKind.
	OpKindLast
)

var opKindNames = [...]string{
	OpKindInvalid:               "invalid",
	OpKindArgMax:                "argMax",
	OpKindArgMin:                "argMin",
	OpKindBatchNormalization:    "batchNormalization",
	OpKindClamp:                 "clamp",
	OpKindConcat:                "concat",
	OpKindConv2d:                "conv2d",
	OpKindConvTranspose2d:       "convTranspose2d",
	OpKindElu:                   "elu",
	OpKindExpand:                "expand",
	OpKindGather:                "gather",
	OpKindGelu:                  "gelu",
	OpKindGemm:                  "gemm",
	OpKindGru:                   "gru",
	OpKindGruCell:               "gruCell",
	OpKindHardSigmoid:           "hardSigmoid",
	OpKindHardSwish:             "hardSwish",
	OpKindInstanceNormalization: "instanceNormalization",
	OpKindLayerNormalization:    "layerNormalization",
	OpKindLeakyRelu:             "leakyRelu",
	OpKindLinear:                "linear",
	OpKindLstm:                  "lstm",
	OpKindLstmCell:              "lstmCell",
	OpKindMatmul:                "matmul",
	OpKindPad:                   "pad",
	OpKindAveragePool2d:         "averagePool2d",
	OpKindL2Pool2d:              "l2Pool2d",
	OpKindMaxPool2d:             "maxPool2d",
	OpKindPrelu:                 "prelu",
	OpKindRelu:                  "relu",
	OpKindResample2d:            "resample2d",
	OpKindReshape:               "reshape",
	OpKindSigmoid:               "sigmoid",
	OpKindSlice:                 "slice",
	OpKindSoftmax:               "softmax",
	OpKindSoftplus:              "softplus",
	OpKindSoftsign:              "softsign",
	OpKindSplit:                 "split",
	OpKindTanh:                  "tanh",
	OpKindTranspose:             "transpose",
	OpKindTriangular:            "triangular",
	OpKindWhere:                 "where",
	OpKindAdd:                   "add",
	OpKindSub:                   "sub",
	OpKindMul:                   "mul",
	OpKindDiv:                   "div",
	OpKindMax:                   "max",
	OpKindMin:                   "min",
	OpKindPow:                   "pow",
	OpKindEqual:                 "equal",
	OpKindGreater:               "greater",
	OpKindGreaterOrEqual:        "greaterOrEqual",
	OpKindLesser:                "lesser",
	OpKindLesserOrEqual:         "lesserOrEqual",
	OpKindLogicalAnd:            "logicalAnd",
	OpKindLogicalOr:             "logicalOr",
	OpKindLogicalXor:            "logicalXor",
	OpKindAbs:                   "abs",
	OpKindCast:                  "cast",
	OpKindCeil:                  "ceil",
	OpKindCos:                   "cos",
	OpKindErf:                   "erf",
	OpKindExp:                   "exp",
	OpKindFloor:                 "floor",
	OpKindIdentity:              "identity",
	OpKindLog:                   "log",
	OpKindLogicalNot:            "logicalNot",
	OpKindNeg:                   "neg",
	OpKindReciprocal:            "reciprocal",
	OpKindSign:                  "sign",
	OpKindSin:                   "sin",
	OpKindSqrt:                  "sqrt",
	OpKindTan:                   "tan",
	OpKindReduceL1:              "reduceL1",
	OpKindReduceL2:              "reduceL2",
	OpKindReduceLogSum:          "reduceLogSum",
	OpKindReduceLogSumExp:       "reduceLogSumExp",
	OpKindReduceMax:             "reduceMax",
	OpKindReduceMean:            "reduceMean",
	OpKindReduceMin:             "reduceMin",
	OpKindReduceProduct:         "reduceProduct",
	OpKindReduceSum:             "reduceSum",
	OpKindReduceSumSquare:       "reduceSumSquare",
	OpKindLast:                  "last",
}

// String implements fmt.Stringer.
func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opKindNames) {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
	return opKindNames[k]
}

// IsElementwiseBinary returns whether k is one of the element-wise binary kinds.
func (k OpKind) IsElementwiseBinary() bool {
	return k >= OpKindAdd && k <= OpKindLogicalXor
}

// IsComparison returns whether k is an element-wise comparison, whose output is uint8.
func (k OpKind) IsComparison() bool {
	return k >= OpKindEqual && k <= OpKindLesserOrEqual
}

// IsLogical returns whether k operates on uint8 operands interpreted as booleans.
func (k OpKind) IsLogical() bool {
	return (k >= OpKindLogicalAnd && k <= OpKindLogicalXor) || k == OpKindLogicalNot
}

// IsElementwiseUnary returns whether k is one of the element-wise unary kinds.
func (k OpKind) IsElementwiseUnary() bool {
	return k >= OpKindAbs && k <= OpKindTan
}

// IsReduce returns whether k is one of the reduction kinds.
func (k OpKind) IsReduce() bool {
	return k >= OpKindReduceL1 && k <= OpKindReduceSumSquare
}
