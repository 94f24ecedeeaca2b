// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"slices"

	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
)

// lowerGemm lowers Gemm to FULLY_CONNECTED, which computes A * Bᵗ + C with B laid out as [N, K].
func (b *builder) lowerGemm(op *webnn.Gemm) error {
	kind := op.Kind()
	b.checkDType(kind, webnn.SlotInput, op.A, op.B)
	if op.C != nil {
		b.checkDType(kind, webnn.SlotInput, *op.C)
	}
	b.checkDType(kind, webnn.SlotOutput, op.Output)
	if op.Alpha != 1 || op.Beta != 1 {
		return unsupportedf("gemm with alpha=%g and beta=%g, only 1 is supported", op.Alpha, op.Beta)
	}
	if op.ATranspose {
		return unsupportedf("gemm with a transposed A operand")
	}
	a, weights, output := b.tensorOf(op.A), b.tensorOf(op.B), b.tensorOf(op.Output)
	outputChannels := b.dims(output)[1]
	inputs := []int32{a, weights}
	if op.C != nil {
		c := b.tensorOf(*op.C)
		if !slices.Equal(b.dims(c), []uint32{outputChannels}) {
			return unsupportedf("gemm C operand of shape %v, only [%d] is supported", b.dims(c), outputChannels)
		}
		inputs = append(inputs, c)
	}
	if !op.BTranspose {
		var err error
		inputs[1], err = b.transposeTo(weights, []uint32{1, 0}, newTensor)
		if err != nil {
			return err
		}
	}
	b.emit(schema.OpFullyConnected, inputs, []int32{output}, &schema.FullyConnectedOptions{})
	return nil
}

func (b *builder) lowerMatmul(op *webnn.Matmul) error {
	kind := op.Kind()
	b.checkDType(kind, webnn.SlotInput, op.A, op.B)
	b.checkDType(kind, webnn.SlotOutput, op.Output)
	b.emit(schema.OpBatchMatMul, []int32{b.tensorOf(op.A), b.tensorOf(op.B)}, []int32{b.tensorOf(op.Output)},
		&schema.BatchMatMulOptions{})
	return nil
}
