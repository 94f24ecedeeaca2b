// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
)

// noTensor marks an absent optional tensor.
const noTensor int32 = -1

var directReduceOps = map[webnn.OpKind]schema.BuiltinOperator{
	webnn.OpKindReduceMax:     schema.OpReduceMax,
	webnn.OpKindReduceMin:     schema.OpReduceMin,
	webnn.OpKindReduceSum:     schema.OpSum,
	webnn.OpKindReduceProduct: schema.OpReduceProd,
	webnn.OpKindReduceMean:    schema.OpMean,
}

// reduceTo emits the reduction op of x over axes, into out or into a new tensor if out is newTensor.
func (b *builder) reduceTo(op schema.BuiltinOperator, x int32, axes []uint32, keepDims bool, out int32) (int32, error) {
	axesVector, err := b.int32VectorFrom(axes)
	if err != nil {
		return 0, err
	}
	options := &schema.ReducerOptions{KeepDims: keepDims}
	if out == newTensor {
		dims, err := shapeinference.ReduceShape(b.dims(x), axes, keepDims)
		if err != nil {
			return 0, err
		}
		return b.emitTemp(op, b.dtype(x), dims, []int32{x, axesVector}, options)
	}
	b.emit(op, []int32{x, axesVector}, []int32{out}, options)
	return out, nil
}

func (b *builder) lowerReduce(op *webnn.Reduce) error {
	kind := op.Op
	b.checkInOut(kind, op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	if tfOp, found := directReduceOps[kind]; found {
		_, err := b.reduceTo(tfOp, x, op.Axes, op.KeepDimensions, output)
		return err
	}

	if kind == webnn.OpKindReduceL1 && isUnsigned(b.dtype(x)) {
		return unsupportedf("%s of unsigned data type %s", kind, b.dtype(x))
	}
	if err := rejectFloat16(kind, b.dtype(x)); err != nil {
		return err
	}
	var err error
	switch kind {
	case webnn.OpKindReduceL1:
		// sum(|x|)
		var abs int32
		abs, err = b.unaryOp(schema.OpAbs, x, newTensor)
		if err == nil {
			_, err = b.reduceTo(schema.OpSum, abs, op.Axes, op.KeepDimensions, output)
		}
	case webnn.OpKindReduceL2:
		// sqrt(sum(x^2)), with the square root as a power of 0.5.
		var sumSquare int32
		sumSquare, err = b.reduceSumSquare(x, op.Axes, op.KeepDimensions, newTensor)
		if err == nil {
			_, err = b.scalarOp(schema.OpPow, sumSquare, 0.5, output)
		}
	case webnn.OpKindReduceLogSum:
		// log(sum(x))
		var sum int32
		sum, err = b.reduceTo(schema.OpSum, x, op.Axes, op.KeepDimensions, newTensor)
		if err == nil {
			_, err = b.unaryOp(schema.OpLog, sum, output)
		}
	case webnn.OpKindReduceLogSumExp:
		// log(sum(exp(x)))
		var exp, sum int32
		exp, err = b.unaryOp(schema.OpExp, x, newTensor)
		if err == nil {
			sum, err = b.reduceTo(schema.OpSum, exp, op.Axes, op.KeepDimensions, newTensor)
		}
		if err == nil {
			_, err = b.unaryOp(schema.OpLog, sum, output)
		}
	case webnn.OpKindReduceSumSquare:
		_, err = b.reduceSumSquare(x, op.Axes, op.KeepDimensions, output)
	default:
		exceptions.Panicf("%s is not a reduction", kind)
	}
	return err
}

// reduceSumSquare emits sum(x^2).
func (b *builder) reduceSumSquare(x int32, axes []uint32, keepDims bool, out int32) (int32, error) {
	squared, err := b.scalarOp(schema.OpPow, x, 2, newTensor)
	if err != nil {
		return 0, err
	}
	return b.reduceTo(schema.OpSum, squared, axes, keepDims, out)
}

func (b *builder) lowerArgMinMax(op *webnn.ArgMinMax) error {
	kind := op.Op
	b.checkInOut(kind, op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	axis, err := b.int32VectorFrom([]uint32{op.Axis})
	if err != nil {
		return err
	}
	tfOp := schema.OpArgMax
	var options schema.Options = &schema.ArgMaxOptions{OutputType: tensorType(b.dtype(output))}
	if kind == webnn.OpKindArgMin {
		tfOp = schema.OpArgMin
		options = &schema.ArgMinOptions{OutputType: tensorType(b.dtype(output))}
	}
	if !op.KeepDimensions {
		b.emit(tfOp, []int32{x, axis}, []int32{output}, options)
		return nil
	}

	// TFLite always removes the reduced axis: reshape it back to 1.
	reducedDims, err := shapeinference.ReduceShape(b.dims(x), []uint32{op.Axis}, false)
	if err != nil {
		return err
	}
	indices, err := b.emitTemp(tfOp, b.dtype(output), reducedDims, []int32{x, axis}, options)
	if err != nil {
		return err
	}
	_, err = b.reshapeTo(indices, b.dims(output), output)
	return err
}

// alignParameter reshapes (and if needed transposes) a normalization parameter whose dimensions are those
// of the normalized input at axes (in the given order), so that it broadcasts against an input of the given rank.
func (b *builder) alignParameter(param int32, rank int, axes []uint32) (int32, error) {
	order := make([]uint32, len(axes))
	for ii := range order {
		order[ii] = uint32(ii)
	}
	slices.SortFunc(order, func(i, j uint32) int { return int(axes[i]) - int(axes[j]) })
	var err error
	if !slices.IsSorted(axes) {
		param, err = b.transposeTo(param, order, newTensor)
		if err != nil {
			return 0, err
		}
	}
	sortedAxes := slices.Sorted(slices.Values(axes))
	trailing := true
	for ii, axis := range sortedAxes {
		if int(axis) != rank-len(sortedAxes)+ii {
			trailing = false
		}
	}
	if trailing {
		// Already broadcastable, since broadcasting aligns the trailing axes.
		return param, nil
	}
	dims := make([]uint32, rank)
	for ii := range dims {
		dims[ii] = 1
	}
	paramDims := b.dims(param)
	for ii, axis := range sortedAxes {
		dims[axis] = paramDims[ii]
	}
	return b.reshapeTo(param, dims, newTensor)
}

// normalize emits scale*(centered/sqrt(variance+epsilon))+bias into output. scale and bias can be noTensor.
func (b *builder) normalize(centered, variance int32, epsilon float32, scale, bias int32, output int32) error {
	varianceEps, err := b.scalarOp(schema.OpAdd, variance, float64(epsilon), newTensor)
	if err != nil {
		return err
	}
	stddev, err := b.unaryOp(schema.OpSqrt, varianceEps, newTensor)
	if err != nil {
		return err
	}
	target := func(isLast bool) int32 {
		if isLast {
			return output
		}
		return newTensor
	}
	result, err := b.binaryOp(schema.OpDiv, centered, stddev, target(scale == noTensor && bias == noTensor))
	if err != nil {
		return err
	}
	if scale != noTensor {
		result, err = b.binaryOp(schema.OpMul, result, scale, target(bias == noTensor))
		if err != nil {
			return err
		}
	}
	if bias != noTensor {
		_, err = b.binaryOp(schema.OpAdd, result, bias, output)
	}
	return err
}

// optionalParameter returns the aligned tensor of an optional normalization parameter, or noTensor.
func (b *builder) optionalParameter(kind webnn.OpKind, id *webnn.OperandID, rank int, axes []uint32) (int32, error) {
	if id == nil {
		return noTensor, nil
	}
	b.checkDType(kind, webnn.SlotInput, *id)
	return b.alignParameter(b.tensorOf(*id), rank, axes)
}

func (b *builder) lowerBatchNormalization(op *webnn.BatchNormalization) error {
	kind := op.Kind()
	b.checkDType(kind, webnn.SlotInput, op.Input, op.Mean, op.Variance)
	b.checkDType(kind, webnn.SlotOutput, op.Output)
	x := b.tensorOf(op.Input)
	if err := rejectFloat16(kind, b.dtype(x)); err != nil {
		return err
	}
	rank := len(b.dims(x))
	axes := []uint32{op.Axis}
	mean, err := b.alignParameter(b.tensorOf(op.Mean), rank, axes)
	if err != nil {
		return err
	}
	variance, err := b.alignParameter(b.tensorOf(op.Variance), rank, axes)
	if err != nil {
		return err
	}
	scale, err := b.optionalParameter(kind, op.Scale, rank, axes)
	if err != nil {
		return err
	}
	bias, err := b.optionalParameter(kind, op.Bias, rank, axes)
	if err != nil {
		return err
	}
	centered, err := b.binaryOp(schema.OpSub, x, mean, newTensor)
	if err != nil {
		return err
	}
	return b.normalize(centered, variance, op.Epsilon, scale, bias, b.tensorOf(op.Output))
}

// normalizeOverAxes computes mean and variance of x over axes, and normalizes it into output.
// scaleAxes are the axes of x matching the dimensions of scale and bias.
func (b *builder) normalizeOverAxes(kind webnn.OpKind, x int32, axes []uint32, epsilon float32,
	scaleID, biasID *webnn.OperandID, scaleAxes []uint32, output int32) error {
	rank := len(b.dims(x))
	scale, err := b.optionalParameter(kind, scaleID, rank, scaleAxes)
	if err != nil {
		return err
	}
	bias, err := b.optionalParameter(kind, biasID, rank, scaleAxes)
	if err != nil {
		return err
	}
	mean, err := b.reduceTo(schema.OpMean, x, axes, true, newTensor)
	if err != nil {
		return err
	}
	centered, err := b.binaryOp(schema.OpSub, x, mean, newTensor)
	if err != nil {
		return err
	}
	squared, err := b.scalarOp(schema.OpPow, centered, 2, newTensor)
	if err != nil {
		return err
	}
	variance, err := b.reduceTo(schema.OpMean, squared, axes, true, newTensor)
	if err != nil {
		return err
	}
	return b.normalize(centered, variance, epsilon, scale, bias, output)
}

func (b *builder) lowerInstanceNormalization(op *webnn.InstanceNormalization) error {
	kind := op.Kind()
	b.checkInOut(kind, op.Input, op.Output)
	x := b.tensorOf(op.Input)
	if err := rejectFloat16(kind, b.dtype(x)); err != nil {
		return err
	}
	spatialAxes, channelAxis := []uint32{1, 2}, uint32(3)
	if op.Layout == webnn.LayoutChannelsFirst {
		spatialAxes, channelAxis = []uint32{2, 3}, 1
	}
	return b.normalizeOverAxes(kind, x, spatialAxes, op.Epsilon, op.Scale, op.Bias, []uint32{channelAxis},
		b.tensorOf(op.Output))
}

func (b *builder) lowerLayerNormalization(op *webnn.LayerNormalization) error {
	kind := op.Kind()
	b.checkInOut(kind, op.Input, op.Output)
	x := b.tensorOf(op.Input)
	if err := rejectFloat16(kind, b.dtype(x)); err != nil {
		return err
	}
	return b.normalizeOverAxes(kind, x, op.Axes, op.Epsilon, op.Scale, op.Bias, op.Axes, b.tensorOf(op.Output))
}
