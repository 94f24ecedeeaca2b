// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"math"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
)

// lowerSimpleActivation lowers the activations that map to exactly one TFLite operator without attributes.
func (b *builder) lowerSimpleActivation(kind webnn.OpKind, input, output webnn.OperandID) error {
	b.checkInOut(kind, input, output)
	var op schema.BuiltinOperator
	var options schema.Options
	switch kind {
	case webnn.OpKindRelu:
		op = schema.OpRelu
	case webnn.OpKindSigmoid:
		op = schema.OpLogistic
	case webnn.OpKindTanh:
		op = schema.OpTanh
	case webnn.OpKindGelu:
		op = schema.OpGelu
		options = &schema.GeluOptions{Approximate: false}
	case webnn.OpKindHardSwish:
		op = schema.OpHardSwish
	default:
		exceptions.Panicf("%s is not a simple activation", kind)
	}
	b.emit(op, []int32{b.tensorOf(input)}, []int32{b.tensorOf(output)}, options)
	return nil
}

// clampVariants are the TFLite activations that implement a clamp to fixed bounds.
var clampVariants = []struct {
	min, max float64
	op       schema.BuiltinOperator
}{
	{0, math.Inf(1), schema.OpRelu},
	{0, 6, schema.OpRelu6},
	{-1, 1, schema.OpReluN1To1},
	{0, 1, schema.OpRelu0To1},
}

func (b *builder) lowerClamp(op *webnn.Clamp) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	minValue, maxValue := float64(op.MinValue), float64(op.MaxValue)
	if isFloat(b.dtype(x)) {
		for _, variant := range clampVariants {
			if variant.min == minValue && variant.max == maxValue {
				_, err := b.unaryOp(variant.op, x, output)
				return err
			}
		}
	}

	hasMin, hasMax := !math.IsInf(minValue, -1), !math.IsInf(maxValue, 1)
	if !hasMin && !hasMax {
		_, err := b.reshapeTo(x, b.dims(output), output)
		return err
	}
	current := x
	if hasMin {
		target := newTensor
		if !hasMax {
			target = output
		}
		var err error
		current, err = b.scalarOp(schema.OpMaximum, current, minValue, target)
		if err != nil {
			return err
		}
	}
	if hasMax {
		if _, err := b.scalarOp(schema.OpMinimum, current, maxValue, output); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) lowerElu(op *webnn.Elu) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	if op.Alpha == 1 {
		_, err := b.unaryOp(schema.OpElu, x, output)
		return err
	}

	// elu(x) = relu(x) + alpha*(exp(min(x, 0))-1)
	if err := rejectFloat16(op.Kind(), b.dtype(x)); err != nil {
		return err
	}
	positive, err := b.unaryOp(schema.OpRelu, x, newTensor)
	if err != nil {
		return err
	}
	nonPositive, err := b.scalarOp(schema.OpMinimum, x, 0, newTensor)
	if err != nil {
		return err
	}
	exp, err := b.unaryOp(schema.OpExp, nonPositive, newTensor)
	if err != nil {
		return err
	}
	expm1, err := b.scalarOp(schema.OpSub, exp, 1, newTensor)
	if err != nil {
		return err
	}
	negative, err := b.scalarOp(schema.OpMul, expm1, float64(op.Alpha), newTensor)
	if err != nil {
		return err
	}
	_, err = b.binaryOp(schema.OpAdd, positive, negative, output)
	return err
}

func (b *builder) lowerHardSigmoid(op *webnn.HardSigmoid) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	if err := rejectFloat16(op.Kind(), b.dtype(x)); err != nil {
		return err
	}
	linear, err := b.linear(x, float64(op.Alpha), float64(op.Beta), newTensor)
	if err != nil {
		return err
	}
	_, err = b.unaryOp(schema.OpRelu0To1, linear, output)
	return err
}

func (b *builder) lowerLeakyRelu(op *webnn.LeakyRelu) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	b.emit(schema.OpLeakyRelu, []int32{b.tensorOf(op.Input)}, []int32{b.tensorOf(op.Output)},
		&schema.LeakyReluOptions{Alpha: op.Alpha})
	return nil
}

func (b *builder) lowerLinear(op *webnn.Linear) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x := b.tensorOf(op.Input)
	if err := rejectFloat16(op.Kind(), b.dtype(x)); err != nil {
		return err
	}
	_, err := b.linear(x, float64(op.Alpha), float64(op.Beta), b.tensorOf(op.Output))
	return err
}

func (b *builder) lowerPrelu(op *webnn.Prelu) error {
	kind := op.Kind()
	b.checkDType(kind, webnn.SlotInput, op.Input, op.Slope)
	b.checkDType(kind, webnn.SlotOutput, op.Output)
	x, slope := b.tensorOf(op.Input), b.tensorOf(op.Slope)
	slopeDims := b.dims(slope)
	allOnes := !slices.ContainsFunc(slopeDims, func(dim uint32) bool { return dim != 1 })
	if !allOnes && !slices.Equal(slopeDims, b.dims(x)) {
		return unsupportedf("prelu slope shape %v must either match the input shape %v or be all ones",
			slopeDims, b.dims(x))
	}
	b.emit(schema.OpPrelu, []int32{x, slope}, []int32{b.tensorOf(op.Output)}, nil)
	return nil
}

func (b *builder) lowerSoftmax(op *webnn.Softmax) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	options := &schema.SoftmaxOptions{Beta: 1}
	rank := len(b.dims(x))
	if int(op.Axis) == rank-1 {
		b.emit(schema.OpSoftmax, []int32{x}, []int32{output}, options)
		return nil
	}

	// TFLite only normalizes over the last axis: swap the axis with the last one, and back.
	permutation := shapeinference.SwapLastPermutation(rank, op.Axis)
	transposed, err := b.transposeTo(x, permutation, newTensor)
	if err != nil {
		return err
	}
	normalized, err := b.emitLike(schema.OpSoftmax, transposed, []int32{transposed}, options)
	if err != nil {
		return err
	}
	_, err = b.transposeTo(normalized, permutation, output)
	return err
}

func (b *builder) lowerSoftplus(op *webnn.Softplus) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x := b.tensorOf(op.Input)
	if err := rejectFloat16(op.Kind(), b.dtype(x)); err != nil {
		return err
	}
	// softplus(x) = ln(1 + exp(x))
	exp, err := b.unaryOp(schema.OpExp, x, newTensor)
	if err != nil {
		return err
	}
	onePlus, err := b.scalarOp(schema.OpAdd, exp, 1, newTensor)
	if err != nil {
		return err
	}
	_, err = b.unaryOp(schema.OpLog, onePlus, b.tensorOf(op.Output))
	return err
}

func (b *builder) lowerSoftsign(op *webnn.Softsign) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x := b.tensorOf(op.Input)
	if err := rejectFloat16(op.Kind(), b.dtype(x)); err != nil {
		return err
	}
	// softsign(x) = x / (1 + |x|)
	abs, err := b.unaryOp(schema.OpAbs, x, newTensor)
	if err != nil {
		return err
	}
	onePlus, err := b.scalarOp(schema.OpAdd, abs, 1, newTensor)
	if err != nil {
		return err
	}
	_, err = b.binaryOp(schema.OpDiv, x, onePlus, b.tensorOf(op.Output))
	return err
}
