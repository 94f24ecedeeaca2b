// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
	"github.com/pkg/errors"
)

// reshapeTo emits a RESHAPE of x to dims, into out or into a new tensor if out is newTensor.
func (b *builder) reshapeTo(x int32, dims []uint32, out int32) (int32, error) {
	shape, err := b.shapeVector(dims)
	if err != nil {
		return 0, err
	}
	if out == newTensor {
		return b.emitTemp(schema.OpReshape, b.dtype(x), dims, []int32{x, shape}, nil)
	}
	b.emit(schema.OpReshape, []int32{x, shape}, []int32{out}, nil)
	return out, nil
}

// transposeTo emits a TRANSPOSE of x, into out or into a new tensor if out is newTensor.
func (b *builder) transposeTo(x int32, permutation []uint32, out int32) (int32, error) {
	perm, err := b.int32VectorFrom(permutation)
	if err != nil {
		return 0, err
	}
	if out == newTensor {
		dims, err := shapeinference.TransposeShape(b.dims(x), permutation)
		if err != nil {
			return 0, err
		}
		return b.emitTemp(schema.OpTranspose, b.dtype(x), dims, []int32{x, perm}, nil)
	}
	b.emit(schema.OpTranspose, []int32{x, perm}, []int32{out}, nil)
	return out, nil
}

// sliceTo emits a SLICE of x into a new tensor.
func (b *builder) sliceTo(x int32, starts, sizes []uint32) (int32, error) {
	begin, err := b.int32VectorFrom(starts)
	if err != nil {
		return 0, err
	}
	size, err := b.int32VectorFrom(sizes)
	if err != nil {
		return 0, err
	}
	return b.emitTemp(schema.OpSlice, b.dtype(x), sizes, []int32{x, begin, size}, nil)
}

// concatTo emits a CONCATENATION of inputs along axis, into out or into a new tensor if out is newTensor.
func (b *builder) concatTo(inputs []int32, axis uint32, out int32) (int32, error) {
	options := &schema.ConcatenationOptions{Axis: int32(axis)}
	if out == newTensor {
		dims := slices.Clone(b.dims(inputs[0]))
		for _, input := range inputs[1:] {
			var ok bool
			dims[axis], ok = shapeinference.CheckedAdd(dims[axis], b.dims(input)[axis])
			if !ok {
				return 0, errors.Wrapf(ErrShapeOverflow, "concatenation along axis %d", axis)
			}
		}
		return b.emitTemp(schema.OpConcatenation, b.dtype(inputs[0]), dims, inputs, options)
	}
	b.emit(schema.OpConcatenation, inputs, []int32{out}, options)
	return out, nil
}

func (b *builder) lowerReshape(kind webnn.OpKind, input, output webnn.OperandID) error {
	b.checkInOut(kind, input, output)
	out := b.tensorOf(output)
	_, err := b.reshapeTo(b.tensorOf(input), b.dims(out), out)
	return err
}

func (b *builder) lowerTranspose(op *webnn.Transpose) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	_, err := b.transposeTo(b.tensorOf(op.Input), op.Permutation, b.tensorOf(op.Output))
	return err
}

func (b *builder) lowerConcat(op *webnn.Concat) error {
	b.checkDType(op.Kind(), webnn.SlotInput, op.Inputs...)
	b.checkDType(op.Kind(), webnn.SlotOutput, op.Output)
	if _, ok := shapeinference.CheckedCast[int32](op.Axis); !ok {
		return errors.Wrapf(ErrShapeOverflow, "concat axis %d", op.Axis)
	}
	inputs := make([]int32, len(op.Inputs))
	for ii, id := range op.Inputs {
		inputs[ii] = b.tensorOf(id)
	}
	_, err := b.concatTo(inputs, op.Axis, b.tensorOf(op.Output))
	return err
}

func (b *builder) lowerExpand(op *webnn.Expand) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	if !shapeinference.CanBroadcastTo(b.dims(x), b.dims(output)) {
		exceptions.Panicf("expand input shape %v can't be broadcast to output shape %v", b.dims(x), b.dims(output))
	}
	shape, err := b.shapeVector(b.dims(output))
	if err != nil {
		return err
	}
	b.emit(schema.OpBroadcastTo, []int32{x, shape}, []int32{output}, nil)
	return nil
}

func (b *builder) lowerGather(op *webnn.Gather) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	b.checkDType(op.Kind(), webnn.SlotIndices, op.Indices)
	indices := b.tensorOf(op.Indices)
	if b.dtype(indices) == dtypes.Uint32 {
		// TFLite only accepts signed indices.
		var err error
		indices, err = b.castTo(indices, dtypes.Int64)
		if err != nil {
			return err
		}
	}
	b.emit(schema.OpGather, []int32{b.tensorOf(op.Input), indices}, []int32{b.tensorOf(op.Output)},
		&schema.GatherOptions{Axis: int32(op.Axis)})
	return nil
}

func (b *builder) lowerPad(op *webnn.Pad) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	paddings, err := b.paddingTable(op.Beginning, op.Ending)
	if err != nil {
		return err
	}
	switch op.Mode {
	case webnn.PaddingConstant:
		value, err := b.scalar(b.dtype(x), float64(op.Value))
		if err != nil {
			return err
		}
		b.emit(schema.OpPadV2, []int32{x, paddings, value}, []int32{output}, nil)
	case webnn.PaddingReflection:
		b.emit(schema.OpMirrorPad, []int32{x, paddings}, []int32{output},
			&schema.MirrorPadOptions{Mode: schema.MirrorPadReflect})
	case webnn.PaddingSymmetric:
		b.emit(schema.OpMirrorPad, []int32{x, paddings}, []int32{output},
			&schema.MirrorPadOptions{Mode: schema.MirrorPadSymmetric})
	default:
		return unsupportedf("padding mode %d is not supported, only constant, reflection and symmetric", op.Mode)
	}
	return nil
}

func (b *builder) lowerResample2d(op *webnn.Resample2d) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	if len(b.dims(x)) != 4 || !slices.Equal(op.Axes, []uint32{1, 2}) {
		return unsupportedf("resample2d only supports resizing axes [1 2] of a rank-4 input, got axes %v of shape %v",
			op.Axes, b.dims(x))
	}
	outDims := b.dims(output)
	size, err := b.int32VectorFrom(outDims[1:3])
	if err != nil {
		return err
	}
	switch op.Mode {
	case webnn.InterpolationLinear:
		b.emit(schema.OpResizeBilinear, []int32{x, size}, []int32{output},
			&schema.ResizeBilinearOptions{HalfPixelCenters: true})
	case webnn.InterpolationNearestNeighbor:
		b.emit(schema.OpResizeNearestNeighbor, []int32{x, size}, []int32{output},
			&schema.ResizeNearestNeighborOptions{HalfPixelCenters: true})
	default:
		return unsupportedf("resample2d interpolation mode %d", op.Mode)
	}
	return nil
}

func (b *builder) lowerSlice(op *webnn.Slice) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	begin, err := b.int32VectorFrom(op.Starts)
	if err != nil {
		return err
	}
	unitStrides := !slices.ContainsFunc(op.Strides, func(stride uint32) bool { return stride != 1 })
	if unitStrides {
		size, err := b.int32VectorFrom(op.Sizes)
		if err != nil {
			return err
		}
		b.emit(schema.OpSlice, []int32{x, begin, size}, []int32{output}, nil)
		return nil
	}

	ends := make([]uint32, len(op.Starts))
	for axis, start := range op.Starts {
		var ok bool
		ends[axis], ok = shapeinference.CheckedAdd(start, op.Sizes[axis])
		if !ok {
			return errors.Wrapf(ErrShapeOverflow, "slice end of axis #%d (start=%d, size=%d)", axis, start, op.Sizes[axis])
		}
	}
	end, err := b.int32VectorFrom(ends)
	if err != nil {
		return err
	}
	strides, err := b.int32VectorFrom(op.Strides)
	if err != nil {
		return err
	}
	b.emit(schema.OpStridedSlice, []int32{x, begin, end, strides}, []int32{output}, &schema.StridedSliceOptions{})
	return nil
}

func (b *builder) lowerSplit(op *webnn.Split) error {
	b.checkDType(op.Kind(), webnn.SlotInput, op.Input)
	b.checkDType(op.Kind(), webnn.SlotOutput, op.Outputs...)
	outputs := make([]int32, len(op.Outputs))
	splits := make([]uint32, len(op.Outputs))
	for ii, id := range op.Outputs {
		outputs[ii] = b.tensorOf(id)
		splits[ii] = b.dims(outputs[ii])[op.Axis]
	}
	sizeSplits, err := b.int32VectorFrom(splits)
	if err != nil {
		return err
	}
	axis, err := b.int32VectorFrom([]uint32{op.Axis})
	if err != nil {
		return err
	}
	b.emit(schema.OpSplitV, []int32{b.tensorOf(op.Input), sizeSplits, axis}, outputs,
		&schema.SplitVOptions{NumSplits: int32(len(outputs))})
	return nil
}

func (b *builder) lowerTriangular(op *webnn.Triangular) error {
	b.checkInOut(op.Kind(), op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	dtype := b.dtype(x)
	if dtype == dtypes.Uint8 || dtype == dtypes.Uint64 {
		return unsupportedf("triangular is not supported for %s", dtype)
	}
	dims := b.dims(x)
	if len(dims) < 2 {
		return unsupportedf("triangular requires rank >= 2, got shape %v", dims)
	}
	height, width := dims[len(dims)-2], dims[len(dims)-1]
	numElements, ok := shapeinference.NumElements([]uint32{height, width})
	if !ok {
		return errors.Wrapf(ErrShapeOverflow, "triangular mask of %dx%d", height, width)
	}
	mask := make([]byte, numElements)
	diagonal := int64(op.Diagonal)
	for row := range int64(height) {
		for col := range int64(width) {
			keep := col-row >= diagonal
			if !op.Upper {
				keep = col-row <= diagonal
			}
			if keep {
				mask[row*int64(width)+col] = 1
			}
		}
	}
	maskTensor, err := b.constant(dtypes.Bool, []uint32{height, width}, mask)
	if err != nil {
		return err
	}
	zero, err := b.scalar(dtype, 0)
	if err != nil {
		return err
	}
	b.emit(schema.OpSelectV2, []int32{maskTensor, x, zero}, []int32{output}, nil)
	return nil
}
