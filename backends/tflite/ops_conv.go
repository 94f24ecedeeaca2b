// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
	"github.com/pkg/errors"
)

// spatialPadding converts the padding of the height and width axes.
func spatialPadding(padding webnn.Padding2d) [2]shapeinference.AxisPadding {
	return [2]shapeinference.AxisPadding{
		{Begin: padding.Beginning.Height, End: padding.Ending.Height},
		{Begin: padding.Beginning.Width, End: padding.Ending.Width},
	}
}

// window2d holds the sizes of a convolution or pooling window, converted to int32 for the options tables.
type window2d struct {
	height, width        int32
	strideH, strideW     int32
	dilationH, dilationW int32
}

func newWindow2d(window, strides, dilations webnn.Size2d) (w window2d, err error) {
	values, err := shapeinference.Int32Values([]uint32{
		window.Height, window.Width, strides.Height, strides.Width, dilations.Height, dilations.Width})
	if err != nil {
		return
	}
	w = window2d{values[0], values[1], values[2], values[3], values[4], values[5]}
	return
}

// paddingMode returns the TFLite padding mode matching the explicit padding, and false if none matches
// and an explicit pad is required.
//
// spatialDims are the height and width of the input.
func paddingMode(transposed bool, spatialDims [2]uint32, window, strides, dilations webnn.Size2d,
	padding webnn.Padding2d) (schema.Padding, bool) {
	axes := spatialPadding(padding)
	if axes[0].IsZero() && axes[1].IsZero() {
		return schema.PaddingValid, true
	}
	filters := [2]uint32{window.Height, window.Width}
	strideValues := [2]uint32{strides.Height, strides.Width}
	dilationValues := [2]uint32{dilations.Height, dilations.Width}
	for ii := range 2 {
		if !shapeinference.IsSamePadding(transposed, spatialDims[ii], filters[ii], strideValues[ii], dilationValues[ii], axes[ii]) {
			return schema.PaddingValid, false
		}
	}
	return schema.PaddingSame, true
}

// checkPaddedWindow verifies that sliding the window over the explicitly padded input produces the
// spatial dimensions of output. A padded input smaller than the (dilated) window is reported as
// ErrPaddingOverflow, other mismatches are contract violations.
func (b *builder) checkPaddedWindow(x, output int32, window, strides, dilations webnn.Size2d,
	padding webnn.Padding2d) error {
	inputDims, outputDims := b.dims(x), b.dims(output)
	axes := spatialPadding(padding)
	filters := [2]uint32{window.Height, window.Width}
	strideValues := [2]uint32{strides.Height, strides.Width}
	dilationValues := [2]uint32{dilations.Height, dilations.Width}
	for ii := range 2 {
		size, err := shapeinference.ConvOutputSize(inputDims[1+ii], filters[ii], strideValues[ii],
			dilationValues[ii], axes[ii])
		if err != nil {
			return errors.WithMessagef(err, "spatial axis #%d", 1+ii)
		}
		if size != outputDims[1+ii] {
			exceptions.Panicf("window over padded input of shape %v yields %d on axis #%d, but output shape is %v",
				inputDims, size, 1+ii, outputDims)
		}
	}
	return nil
}

// explicitPad emits a pad of the spatial axes of the NHWC tensor x. If value is nil it pads with zeros
// using PAD, otherwise it uses PADV2 with the value.
func (b *builder) explicitPad(x int32, padding webnn.Padding2d, value *float64) (int32, error) {
	axes := spatialPadding(padding)
	dims := b.dims(x)
	beginning := []uint32{0, axes[0].Begin, axes[1].Begin, 0}
	ending := []uint32{0, axes[0].End, axes[1].End, 0}
	paddedDims := make([]uint32, len(dims))
	for axis, dim := range dims {
		padded, ok := shapeinference.CheckedAdd(dim, beginning[axis])
		if ok {
			padded, ok = shapeinference.CheckedAdd(padded, ending[axis])
		}
		if !ok {
			return 0, errors.Wrapf(ErrPaddingOverflow, "padding axis #%d of shape %v with (%d, %d)",
				axis, dims, beginning[axis], ending[axis])
		}
		paddedDims[axis] = padded
	}
	paddings, err := b.paddingTable(beginning, ending)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return b.emitTemp(schema.OpPad, b.dtype(x), paddedDims, []int32{x, paddings}, nil)
	}
	padValue, err := b.scalar(b.dtype(x), *value)
	if err != nil {
		return 0, err
	}
	return b.emitTemp(schema.OpPadV2, b.dtype(x), paddedDims, []int32{x, paddings, padValue}, nil)
}

func (b *builder) checkConvDTypes(op *webnn.Conv2d) {
	kind := op.Kind()
	b.checkDType(kind, webnn.SlotInput, op.Input, op.Filter)
	if op.Bias != nil {
		b.checkDType(kind, webnn.SlotInput, *op.Bias)
	}
	b.checkDType(kind, webnn.SlotOutput, op.Output)
}

// lowerConv2d lowers a direct convolution to CONV_2D, or DEPTHWISE_CONV_2D when each input channel is
// convolved separately. Input is NHWC and the filter OHWI.
func (b *builder) lowerConv2d(op *webnn.Conv2d) error {
	b.checkConvDTypes(op)
	x, filter, output := b.tensorOf(op.Input), b.tensorOf(op.Filter), b.tensorOf(op.Output)
	inputDims, filterDims := b.dims(x), b.dims(filter)
	inputChannels, outputChannels := inputDims[3], filterDims[0]
	depthwise := inputChannels > 0 && op.Groups == inputChannels && outputChannels%inputChannels == 0
	if !depthwise && op.Groups != 1 {
		return unsupportedf("convolution with %d groups (input channels=%d, output channels=%d): only 1 group or "+
			"depthwise convolutions are supported", op.Groups, inputChannels, outputChannels)
	}
	window := webnn.Size2d{Height: filterDims[1], Width: filterDims[2]}
	w, err := newWindow2d(window, op.Strides, op.Dilations)
	if err != nil {
		return err
	}

	if depthwise {
		// Depthwise filters are [1, H, W, outputChannels] in TFLite.
		filter, err = b.transposeTo(filter, []uint32{3, 1, 2, 0}, newTensor)
		if err != nil {
			return err
		}
	}

	var bias int32
	if op.Bias != nil {
		bias = b.tensorOf(*op.Bias)
	} else {
		bias, err = b.constant(b.dtype(x), []uint32{outputChannels}, make([]byte, int(outputChannels)*b.dtype(x).Size()))
		if err != nil {
			return err
		}
	}

	mode, ok := paddingMode(false, [2]uint32{inputDims[1], inputDims[2]}, window, op.Strides, op.Dilations, op.Padding)
	if !ok {
		if err = b.checkPaddedWindow(x, output, window, op.Strides, op.Dilations, op.Padding); err != nil {
			return err
		}
		x, err = b.explicitPad(x, op.Padding, nil)
		if err != nil {
			return err
		}
		mode = schema.PaddingValid
	}

	inputs := []int32{x, filter, bias}
	if depthwise {
		multiplier, ok := shapeinference.CheckedCast[int32](outputChannels / inputChannels)
		if !ok {
			return errors.Wrapf(ErrShapeOverflow, "depth multiplier %d", outputChannels/inputChannels)
		}
		b.emit(schema.OpDepthwiseConv2D, inputs, []int32{output}, &schema.DepthwiseConv2DOptions{
			Padding:         mode,
			StrideW:         w.strideW,
			StrideH:         w.strideH,
			DepthMultiplier: multiplier,
			DilationWFactor: w.dilationW,
			DilationHFactor: w.dilationH,
		})
		return nil
	}
	b.emit(schema.OpConv2D, inputs, []int32{output}, &schema.Conv2DOptions{
		Padding:         mode,
		StrideW:         w.strideW,
		StrideH:         w.strideH,
		DilationWFactor: w.dilationW,
		DilationHFactor: w.dilationH,
	})
	return nil
}

// lowerConvTranspose2d lowers a transposed convolution to TRANSPOSE_CONV. Input is NHWC and the filter OHWI.
func (b *builder) lowerConvTranspose2d(op *webnn.Conv2d) error {
	b.checkConvDTypes(op)
	if op.Groups != 1 {
		return unsupportedf("transposed convolution with %d groups", op.Groups)
	}
	if op.Dilations.Height != 1 || op.Dilations.Width != 1 {
		return unsupportedf("transposed convolution with dilations %v", op.Dilations)
	}
	x, filter, output := b.tensorOf(op.Input), b.tensorOf(op.Filter), b.tensorOf(op.Output)
	inputDims, filterDims := b.dims(x), b.dims(filter)
	window := webnn.Size2d{Height: filterDims[1], Width: filterDims[2]}
	w, err := newWindow2d(window, op.Strides, op.Dilations)
	if err != nil {
		return err
	}
	mode, ok := paddingMode(true, [2]uint32{inputDims[1], inputDims[2]}, window, op.Strides, op.Dilations, op.Padding)
	if !ok {
		return unsupportedf("transposed convolution explicit padding %v is neither zero nor \"same\"", op.Padding)
	}
	outputShape, err := b.shapeVector(b.dims(output))
	if err != nil {
		return err
	}
	inputs := []int32{outputShape, filter, x}
	if op.Bias != nil {
		inputs = append(inputs, b.tensorOf(*op.Bias))
	}
	b.emit(schema.OpTransposeConv, inputs, []int32{output}, &schema.TransposeConvOptions{
		Padding: mode,
		StrideW: w.strideW,
		StrideH: w.strideH,
	})
	return nil
}

func (b *builder) lowerPool2d(op *webnn.Pool2d) error {
	kind := op.Kind()
	b.checkInOut(kind, op.Input, op.Output)
	if kind == webnn.OpKindL2Pool2d {
		return unsupportedf("L2 pooling")
	}
	if op.Dilations.Height != 1 || op.Dilations.Width != 1 {
		return unsupportedf("pooling with dilations %v", op.Dilations)
	}
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	inputDims := b.dims(x)
	w, err := newWindow2d(op.WindowDimensions, op.Strides, op.Dilations)
	if err != nil {
		return err
	}
	mode, ok := paddingMode(false, [2]uint32{inputDims[1], inputDims[2]}, op.WindowDimensions, op.Strides,
		op.Dilations, op.Padding)
	if !ok {
		if kind == webnn.OpKindAveragePool2d {
			return unsupportedf("average pooling with explicit padding %v that is neither zero nor \"same\"", op.Padding)
		}
		if err = b.checkPaddedWindow(x, output, op.WindowDimensions, op.Strides, op.Dilations, op.Padding); err != nil {
			return err
		}
		lowest := lowestValue(b.dtype(x))
		x, err = b.explicitPad(x, op.Padding, &lowest)
		if err != nil {
			return err
		}
		mode = schema.PaddingValid
	}
	tfOp := schema.OpMaxPool2D
	if kind == webnn.OpKindAveragePool2d {
		tfOp = schema.OpAveragePool2D
	}
	b.emit(tfOp, []int32{x}, []int32{output}, &schema.Pool2DOptions{
		Padding:      mode,
		StrideW:      w.strideW,
		StrideH:      w.strideH,
		FilterWidth:  w.width,
		FilterHeight: w.height,
	})
	return nil
}
