// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
)

// lower emits the TFLite operators implementing op.
func (b *builder) lower(op webnn.Operation) error {
	switch op := op.(type) {
	case *webnn.ArgMinMax:
		return b.lowerArgMinMax(op)
	case *webnn.BatchNormalization:
		return b.lowerBatchNormalization(op)
	case *webnn.Clamp:
		return b.lowerClamp(op)
	case *webnn.Concat:
		return b.lowerConcat(op)
	case *webnn.Conv2d:
		if op.Transposed {
			return b.lowerConvTranspose2d(op)
		}
		return b.lowerConv2d(op)
	case *webnn.ElementwiseBinary:
		return b.lowerElementwiseBinary(op)
	case *webnn.ElementwiseUnary:
		return b.lowerElementwiseUnary(op)
	case *webnn.Elu:
		return b.lowerElu(op)
	case *webnn.Expand:
		return b.lowerExpand(op)
	case *webnn.Gather:
		return b.lowerGather(op)
	case *webnn.Gelu:
		return b.lowerSimpleActivation(webnn.OpKindGelu, op.Input, op.Output)
	case *webnn.Gemm:
		return b.lowerGemm(op)
	case *webnn.Gru:
		return b.lowerGru(op)
	case *webnn.GruCell:
		return b.lowerGruCellOp(op)
	case *webnn.HardSigmoid:
		return b.lowerHardSigmoid(op)
	case *webnn.HardSwish:
		return b.lowerSimpleActivation(webnn.OpKindHardSwish, op.Input, op.Output)
	case *webnn.InstanceNormalization:
		return b.lowerInstanceNormalization(op)
	case *webnn.LayerNormalization:
		return b.lowerLayerNormalization(op)
	case *webnn.LeakyRelu:
		return b.lowerLeakyRelu(op)
	case *webnn.Linear:
		return b.lowerLinear(op)
	case *webnn.Lstm:
		return b.lowerLstm(op)
	case *webnn.LstmCell:
		return b.lowerLstmCellOp(op)
	case *webnn.Matmul:
		return b.lowerMatmul(op)
	case *webnn.Pad:
		return b.lowerPad(op)
	case *webnn.Pool2d:
		return b.lowerPool2d(op)
	case *webnn.Prelu:
		return b.lowerPrelu(op)
	case *webnn.Reduce:
		return b.lowerReduce(op)
	case *webnn.Relu:
		return b.lowerSimpleActivation(webnn.OpKindRelu, op.Input, op.Output)
	case *webnn.Resample2d:
		return b.lowerResample2d(op)
	case *webnn.Reshape:
		return b.lowerReshape(webnn.OpKindReshape, op.Input, op.Output)
	case *webnn.Sigmoid:
		return b.lowerSimpleActivation(webnn.OpKindSigmoid, op.Input, op.Output)
	case *webnn.Slice:
		return b.lowerSlice(op)
	case *webnn.Softmax:
		return b.lowerSoftmax(op)
	case *webnn.Softplus:
		return b.lowerSoftplus(op)
	case *webnn.Softsign:
		return b.lowerSoftsign(op)
	case *webnn.Split:
		return b.lowerSplit(op)
	case *webnn.Tanh:
		return b.lowerSimpleActivation(webnn.OpKindTanh, op.Input, op.Output)
	case *webnn.Transpose:
		return b.lowerTranspose(op)
	case *webnn.Triangular:
		return b.lowerTriangular(op)
	case *webnn.Where:
		return b.lowerWhere(op)
	}
	exceptions.Panicf("unknown operation type %T", op)
	return nil
}
