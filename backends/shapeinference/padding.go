// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapeinference

import (
	"github.com/pkg/errors"
)

// AxisPadding is the padding at the start and end of one spatial axis.
type AxisPadding struct {
	Begin, End uint32
}

// IsZero returns whether there is no padding at all.
func (p AxisPadding) IsZero() bool {
	return p.Begin == 0 && p.End == 0
}

// EffectiveFilterSize returns the size of the filter (or pooling window) once dilated: (filter-1)*dilation+1.
func EffectiveFilterSize(filter, dilation uint32) (uint32, error) {
	if filter == 0 {
		return 0, errors.Wrapf(ErrPaddingOverflow, "filter size must be > 0")
	}
	eff, ok := CheckedMul(filter-1, dilation)
	if ok {
		eff, ok = CheckedAdd(eff, 1)
	}
	if !ok {
		return 0, errors.Wrapf(ErrPaddingOverflow, "effective filter size (%d-1)*%d+1 overflows", filter, dilation)
	}
	return eff, nil
}

// SamePadding returns the padding of a (non-transposed) convolution or pooling axis such that the output size is
// ceil(input/stride).
//
// The total padding is max(0, ceil(input/stride)-1)*stride + effectiveFilter - input, clamped at 0, with
// the extra element (for odd totals) placed at the end.
func SamePadding(input, filter, stride, dilation uint32) (AxisPadding, error) {
	if stride == 0 {
		return AxisPadding{}, errors.Wrapf(ErrPaddingOverflow, "stride must be > 0")
	}
	eff, err := EffectiveFilterSize(filter, dilation)
	if err != nil {
		return AxisPadding{}, err
	}
	outSize := input / stride
	if input%stride != 0 {
		outSize++
	}
	var steps uint32
	if outSize > 0 {
		steps = outSize - 1
	}
	needed, ok := CheckedMul(steps, stride)
	if ok {
		needed, ok = CheckedAdd(needed, eff)
	}
	if !ok {
		return AxisPadding{}, errors.Wrapf(ErrPaddingOverflow,
			"same padding for input=%d, filter=%d, stride=%d, dilation=%d", input, filter, stride, dilation)
	}
	total, ok := CheckedSub(needed, input)
	if !ok {
		// Input already covers the window: no padding required.
		total = 0
	}
	return splitPadding(total), nil
}

// SamePaddingTransposed returns the padding of a transposed convolution axis, such that the output
// size is input*stride.
//
// The total padding is (input-1)*stride + effectiveFilter - input*stride. Since it can't be negative,
// a filter smaller than the stride returns an error wrapping ErrPaddingOverflow.
func SamePaddingTransposed(input, filter, stride, dilation uint32) (AxisPadding, error) {
	if input == 0 || stride == 0 {
		return AxisPadding{}, errors.Wrapf(ErrPaddingOverflow, "input (%d) and stride (%d) must be > 0", input, stride)
	}
	eff, err := EffectiveFilterSize(filter, dilation)
	if err != nil {
		return AxisPadding{}, err
	}
	full, ok := CheckedMul(input-1, stride)
	if ok {
		full, ok = CheckedAdd(full, eff)
	}
	var outSize uint32
	if ok {
		outSize, ok = CheckedMul(input, stride)
	}
	var total uint32
	if ok {
		total, ok = CheckedSub(full, outSize)
	}
	if !ok {
		return AxisPadding{}, errors.Wrapf(ErrPaddingOverflow,
			"transposed same padding for input=%d, filter=%d, stride=%d, dilation=%d", input, filter, stride, dilation)
	}
	return splitPadding(total), nil
}

// splitPadding places the smaller half at the beginning.
func splitPadding(total uint32) AxisPadding {
	begin := total / 2
	return AxisPadding{Begin: begin, End: total - begin}
}

// ConvOutputSize returns the output size of a convolution or pooling axis with explicit padding:
// (input + padBegin + padEnd - effectiveFilter) / stride + 1.
func ConvOutputSize(input, filter, stride, dilation uint32, padding AxisPadding) (uint32, error) {
	if stride == 0 {
		return 0, errors.Wrapf(ErrPaddingOverflow, "stride must be > 0")
	}
	eff, err := EffectiveFilterSize(filter, dilation)
	if err != nil {
		return 0, err
	}
	padded, ok := CheckedAdd(input, padding.Begin)
	if ok {
		padded, ok = CheckedAdd(padded, padding.End)
	}
	if !ok {
		return 0, errors.Wrapf(ErrPaddingOverflow, "padded size %d+%d+%d overflows", input, padding.Begin, padding.End)
	}
	span, ok := CheckedSub(padded, eff)
	if !ok {
		return 0, errors.Wrapf(ErrPaddingOverflow, "padded size %d smaller than effective filter size %d", padded, eff)
	}
	return span/stride + 1, nil
}

// IsSamePadding returns whether the explicit paddings of a convolution match the "same" padding for the
// given sizes, in which case the target's SAME padding mode can be used without an explicit pad.
func IsSamePadding(transposed bool, input, filter, stride, dilation uint32, padding AxisPadding) bool {
	var same AxisPadding
	var err error
	if transposed {
		same, err = SamePaddingTransposed(input, filter, stride, dilation)
	} else {
		same, err = SamePadding(input, filter, stride, dilation)
	}
	return err == nil && same == padding
}
