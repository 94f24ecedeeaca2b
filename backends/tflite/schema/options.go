// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package schema

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Options is implemented by each of the builtin options tables.
type Options interface {
	// Type returns the union discriminator of the options.
	Type() BuiltinOptions

	// Pack writes the options table and returns its offset.
	Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT
}

// UnpackOptions decodes the options table of the given type. It returns nil for unknown types.
func UnpackOptions(optionsType BuiltinOptions, table flatbuffers.Table) Options {
	r := optionsReader{table}
	switch optionsType {
	case BuiltinOptionsConv2DOptions:
		return &Conv2DOptions{
			Padding:                 Padding(r.int8(0, 0)),
			StrideW:                 r.int32(1, 0),
			StrideH:                 r.int32(2, 0),
			FusedActivationFunction: ActivationFunctionType(r.int8(3, 0)),
			DilationWFactor:         r.int32(4, 1),
			DilationHFactor:         r.int32(5, 1),
		}
	case BuiltinOptionsDepthwiseConv2DOptions:
		return &DepthwiseConv2DOptions{
			Padding:                 Padding(r.int8(0, 0)),
			StrideW:                 r.int32(1, 0),
			StrideH:                 r.int32(2, 0),
			DepthMultiplier:         r.int32(3, 0),
			FusedActivationFunction: ActivationFunctionType(r.int8(4, 0)),
			DilationWFactor:         r.int32(5, 1),
			DilationHFactor:         r.int32(6, 1),
		}
	case BuiltinOptionsPool2DOptions:
		return &Pool2DOptions{
			Padding:                 Padding(r.int8(0, 0)),
			StrideW:                 r.int32(1, 0),
			StrideH:                 r.int32(2, 0),
			FilterWidth:             r.int32(3, 0),
			FilterHeight:            r.int32(4, 0),
			FusedActivationFunction: ActivationFunctionType(r.int8(5, 0)),
		}
	case BuiltinOptionsFullyConnectedOptions:
		return &FullyConnectedOptions{
			FusedActivationFunction: ActivationFunctionType(r.int8(0, 0)),
			WeightsFormat:           FullyConnectedOptionsWeightsFormat(r.int8(1, 0)),
			KeepNumDims:             r.bool(2),
		}
	case BuiltinOptionsSoftmaxOptions:
		return &SoftmaxOptions{Beta: r.float32(0, 0)}
	case BuiltinOptionsConcatenationOptions:
		return &ConcatenationOptions{Axis: r.int32(0, 0), FusedActivationFunction: ActivationFunctionType(r.int8(1, 0))}
	case BuiltinOptionsResizeBilinearOptions:
		return &ResizeBilinearOptions{AlignCorners: r.bool(2), HalfPixelCenters: r.bool(3)}
	case BuiltinOptionsReshapeOptions:
		return &ReshapeOptions{}
	case BuiltinOptionsGatherOptions:
		return &GatherOptions{Axis: r.int32(0, 0), BatchDims: r.int32(1, 0)}
	case BuiltinOptionsReducerOptions:
		return &ReducerOptions{KeepDims: r.bool(0)}
	case BuiltinOptionsStridedSliceOptions:
		return &StridedSliceOptions{
			BeginMask:      r.int32(0, 0),
			EndMask:        r.int32(1, 0),
			EllipsisMask:   r.int32(2, 0),
			NewAxisMask:    r.int32(3, 0),
			ShrinkAxisMask: r.int32(4, 0),
		}
	case BuiltinOptionsCastOptions:
		return &CastOptions{InDataType: TensorType(r.int8(0, 0)), OutDataType: TensorType(r.int8(1, 0))}
	case BuiltinOptionsArgMaxOptions:
		return &ArgMaxOptions{OutputType: TensorType(r.int8(0, 0))}
	case BuiltinOptionsArgMinOptions:
		return &ArgMinOptions{OutputType: TensorType(r.int8(0, 0))}
	case BuiltinOptionsTransposeConvOptions:
		return &TransposeConvOptions{
			Padding:                 Padding(r.int8(0, 0)),
			StrideW:                 r.int32(1, 0),
			StrideH:                 r.int32(2, 0),
			FusedActivationFunction: ActivationFunctionType(r.int8(3, 0)),
		}
	case BuiltinOptionsResizeNearestNeighborOptions:
		return &ResizeNearestNeighborOptions{AlignCorners: r.bool(0), HalfPixelCenters: r.bool(1)}
	case BuiltinOptionsLeakyReluOptions:
		return &LeakyReluOptions{Alpha: r.float32(0, 0)}
	case BuiltinOptionsMirrorPadOptions:
		return &MirrorPadOptions{Mode: MirrorPadMode(r.int8(0, 0))}
	case BuiltinOptionsSplitVOptions:
		return &SplitVOptions{NumSplits: r.int32(0, 0)}
	case BuiltinOptionsBatchMatMulOptions:
		return &BatchMatMulOptions{AdjX: r.bool(0), AdjY: r.bool(1)}
	case BuiltinOptionsGeluOptions:
		return &GeluOptions{Approximate: r.bool(0)}
	}
	return nil
}

type optionsReader struct {
	tab flatbuffers.Table
}

func (r optionsReader) offset(field int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(r.tab.Offset(fieldOffset(field)))
}

func (r optionsReader) int32(field int, defaultValue int32) int32 {
	if o := r.offset(field); o != 0 {
		return r.tab.GetInt32(o + r.tab.Pos)
	}
	return defaultValue
}

func (r optionsReader) int8(field int, defaultValue int8) int8 {
	if o := r.offset(field); o != 0 {
		return r.tab.GetInt8(o + r.tab.Pos)
	}
	return defaultValue
}

func (r optionsReader) float32(field int, defaultValue float32) float32 {
	if o := r.offset(field); o != 0 {
		return r.tab.GetFloat32(o + r.tab.Pos)
	}
	return defaultValue
}

func (r optionsReader) bool(field int) bool {
	if o := r.offset(field); o != 0 {
		return r.tab.GetBool(o + r.tab.Pos)
	}
	return false
}

type Conv2DOptions struct {
	Padding                          Padding
	StrideW, StrideH                 int32
	FusedActivationFunction          ActivationFunctionType
	DilationWFactor, DilationHFactor int32
}

func (o *Conv2DOptions) Type() BuiltinOptions { return BuiltinOptionsConv2DOptions }

func (o *Conv2DOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(6)
	b.PrependInt32Slot(5, o.DilationHFactor, 1)
	b.PrependInt32Slot(4, o.DilationWFactor, 1)
	b.PrependInt32Slot(2, o.StrideH, 0)
	b.PrependInt32Slot(1, o.StrideW, 0)
	b.PrependInt8Slot(3, int8(o.FusedActivationFunction), 0)
	b.PrependInt8Slot(0, int8(o.Padding), 0)
	return b.EndObject()
}

type DepthwiseConv2DOptions struct {
	Padding                          Padding
	StrideW, StrideH                 int32
	DepthMultiplier                  int32
	FusedActivationFunction          ActivationFunctionType
	DilationWFactor, DilationHFactor int32
}

func (o *DepthwiseConv2DOptions) Type() BuiltinOptions { return BuiltinOptionsDepthwiseConv2DOptions }

func (o *DepthwiseConv2DOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(7)
	b.PrependInt32Slot(6, o.DilationHFactor, 1)
	b.PrependInt32Slot(5, o.DilationWFactor, 1)
	b.PrependInt32Slot(3, o.DepthMultiplier, 0)
	b.PrependInt32Slot(2, o.StrideH, 0)
	b.PrependInt32Slot(1, o.StrideW, 0)
	b.PrependInt8Slot(4, int8(o.FusedActivationFunction), 0)
	b.PrependInt8Slot(0, int8(o.Padding), 0)
	return b.EndObject()
}

type Pool2DOptions struct {
	Padding                   Padding
	StrideW, StrideH          int32
	FilterWidth, FilterHeight int32
	FusedActivationFunction   ActivationFunctionType
}

func (o *Pool2DOptions) Type() BuiltinOptions { return BuiltinOptionsPool2DOptions }

func (o *Pool2DOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(6)
	b.PrependInt32Slot(4, o.FilterHeight, 0)
	b.PrependInt32Slot(3, o.FilterWidth, 0)
	b.PrependInt32Slot(2, o.StrideH, 0)
	b.PrependInt32Slot(1, o.StrideW, 0)
	b.PrependInt8Slot(5, int8(o.FusedActivationFunction), 0)
	b.PrependInt8Slot(0, int8(o.Padding), 0)
	return b.EndObject()
}

type FullyConnectedOptions struct {
	FusedActivationFunction ActivationFunctionType
	WeightsFormat           FullyConnectedOptionsWeightsFormat
	KeepNumDims             bool
}

func (o *FullyConnectedOptions) Type() BuiltinOptions { return BuiltinOptionsFullyConnectedOptions }

func (o *FullyConnectedOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(3)
	b.PrependBoolSlot(2, o.KeepNumDims, false)
	b.PrependInt8Slot(1, int8(o.WeightsFormat), 0)
	b.PrependInt8Slot(0, int8(o.FusedActivationFunction), 0)
	return b.EndObject()
}

type SoftmaxOptions struct {
	Beta float32
}

func (o *SoftmaxOptions) Type() BuiltinOptions { return BuiltinOptionsSoftmaxOptions }

func (o *SoftmaxOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependFloat32Slot(0, o.Beta, 0)
	return b.EndObject()
}

type ConcatenationOptions struct {
	Axis                    int32
	FusedActivationFunction ActivationFunctionType
}

func (o *ConcatenationOptions) Type() BuiltinOptions { return BuiltinOptionsConcatenationOptions }

func (o *ConcatenationOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(2)
	b.PrependInt32Slot(0, o.Axis, 0)
	b.PrependInt8Slot(1, int8(o.FusedActivationFunction), 0)
	return b.EndObject()
}

// ResizeBilinearOptions: the deprecated new_height/new_width fields (0 and 1) are never written.
type ResizeBilinearOptions struct {
	AlignCorners, HalfPixelCenters bool
}

func (o *ResizeBilinearOptions) Type() BuiltinOptions { return BuiltinOptionsResizeBilinearOptions }

func (o *ResizeBilinearOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(4)
	b.PrependBoolSlot(3, o.HalfPixelCenters, false)
	b.PrependBoolSlot(2, o.AlignCorners, false)
	return b.EndObject()
}

type ResizeNearestNeighborOptions struct {
	AlignCorners, HalfPixelCenters bool
}

func (o *ResizeNearestNeighborOptions) Type() BuiltinOptions {
	return BuiltinOptionsResizeNearestNeighborOptions
}

func (o *ResizeNearestNeighborOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(2)
	b.PrependBoolSlot(1, o.HalfPixelCenters, false)
	b.PrependBoolSlot(0, o.AlignCorners, false)
	return b.EndObject()
}

// ReshapeOptions is written empty: the new shape is always given as the second input.
type ReshapeOptions struct{}

func (o *ReshapeOptions) Type() BuiltinOptions { return BuiltinOptionsReshapeOptions }

func (o *ReshapeOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	return b.EndObject()
}

type GatherOptions struct {
	Axis, BatchDims int32
}

func (o *GatherOptions) Type() BuiltinOptions { return BuiltinOptionsGatherOptions }

func (o *GatherOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(2)
	b.PrependInt32Slot(1, o.BatchDims, 0)
	b.PrependInt32Slot(0, o.Axis, 0)
	return b.EndObject()
}

// ReducerOptions is used by MEAN, SUM, REDUCE_MAX, REDUCE_MIN and REDUCE_PROD.
type ReducerOptions struct {
	KeepDims bool
}

func (o *ReducerOptions) Type() BuiltinOptions { return BuiltinOptionsReducerOptions }

func (o *ReducerOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependBoolSlot(0, o.KeepDims, false)
	return b.EndObject()
}

type StridedSliceOptions struct {
	BeginMask, EndMask, EllipsisMask, NewAxisMask, ShrinkAxisMask int32
}

func (o *StridedSliceOptions) Type() BuiltinOptions { return BuiltinOptionsStridedSliceOptions }

func (o *StridedSliceOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(5)
	b.PrependInt32Slot(4, o.ShrinkAxisMask, 0)
	b.PrependInt32Slot(3, o.NewAxisMask, 0)
	b.PrependInt32Slot(2, o.EllipsisMask, 0)
	b.PrependInt32Slot(1, o.EndMask, 0)
	b.PrependInt32Slot(0, o.BeginMask, 0)
	return b.EndObject()
}

type CastOptions struct {
	InDataType, OutDataType TensorType
}

func (o *CastOptions) Type() BuiltinOptions { return BuiltinOptionsCastOptions }

func (o *CastOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(2)
	b.PrependInt8Slot(1, int8(o.OutDataType), 0)
	b.PrependInt8Slot(0, int8(o.InDataType), 0)
	return b.EndObject()
}

type ArgMaxOptions struct {
	OutputType TensorType
}

func (o *ArgMaxOptions) Type() BuiltinOptions { return BuiltinOptionsArgMaxOptions }

func (o *ArgMaxOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependInt8Slot(0, int8(o.OutputType), 0)
	return b.EndObject()
}

type ArgMinOptions struct {
	OutputType TensorType
}

func (o *ArgMinOptions) Type() BuiltinOptions { return BuiltinOptionsArgMinOptions }

func (o *ArgMinOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependInt8Slot(0, int8(o.OutputType), 0)
	return b.EndObject()
}

type TransposeConvOptions struct {
	Padding                 Padding
	StrideW, StrideH        int32
	FusedActivationFunction ActivationFunctionType
}

func (o *TransposeConvOptions) Type() BuiltinOptions { return BuiltinOptionsTransposeConvOptions }

func (o *TransposeConvOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(4)
	b.PrependInt32Slot(2, o.StrideH, 0)
	b.PrependInt32Slot(1, o.StrideW, 0)
	b.PrependInt8Slot(3, int8(o.FusedActivationFunction), 0)
	b.PrependInt8Slot(0, int8(o.Padding), 0)
	return b.EndObject()
}

type LeakyReluOptions struct {
	Alpha float32
}

func (o *LeakyReluOptions) Type() BuiltinOptions { return BuiltinOptionsLeakyReluOptions }

func (o *LeakyReluOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependFloat32Slot(0, o.Alpha, 0)
	return b.EndObject()
}

type MirrorPadOptions struct {
	Mode MirrorPadMode
}

func (o *MirrorPadOptions) Type() BuiltinOptions { return BuiltinOptionsMirrorPadOptions }

func (o *MirrorPadOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependInt8Slot(0, int8(o.Mode), 0)
	return b.EndObject()
}

type SplitVOptions struct {
	NumSplits int32
}

func (o *SplitVOptions) Type() BuiltinOptions { return BuiltinOptionsSplitVOptions }

func (o *SplitVOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependInt32Slot(0, o.NumSplits, 0)
	return b.EndObject()
}

type BatchMatMulOptions struct {
	AdjX, AdjY bool
}

func (o *BatchMatMulOptions) Type() BuiltinOptions { return BuiltinOptionsBatchMatMulOptions }

func (o *BatchMatMulOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(3)
	b.PrependBoolSlot(1, o.AdjY, false)
	b.PrependBoolSlot(0, o.AdjX, false)
	return b.EndObject()
}

type GeluOptions struct {
	Approximate bool
}

func (o *GeluOptions) Type() BuiltinOptions { return BuiltinOptionsGeluOptions }

func (o *GeluOptions) Pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(1)
	b.PrependBoolSlot(0, o.Approximate, false)
	return b.EndObject()
}
