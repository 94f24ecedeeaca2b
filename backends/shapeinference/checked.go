// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapeinference

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var (
	// ErrShapeOverflow is returned when a dimension can't be represented in the target's signed 32-bit dimensions.
	ErrShapeOverflow = errors.New("shape overflow")

	// ErrPaddingOverflow is returned when padding or output size arithmetic overflows (or underflows).
	ErrPaddingOverflow = errors.New("padding overflow")
)

// CheckedCast converts v to the integer type To, and returns false if the value is not representable.
func CheckedCast[To, From constraints.Integer](v From) (To, bool) {
	to := To(v)
	if From(to) != v || (v < 0) != (to < 0) {
		return to, false
	}
	return to, true
}

// CheckedAdd returns a+b, and false if it overflows uint32.
func CheckedAdd(a, b uint32) (uint32, bool) {
	sum := a + b
	return sum, sum >= a
}

// CheckedSub returns a-b, and false if it underflows uint32.
func CheckedSub(a, b uint32) (uint32, bool) {
	return a - b, a >= b
}

// CheckedMul returns a*b, and false if it overflows uint32.
func CheckedMul(a, b uint32) (uint32, bool) {
	product := uint64(a) * uint64(b)
	return uint32(product), product <= math.MaxUint32
}

// Int32Dims converts dimensions to the signed 32 bits used by the target.
// It returns an error wrapping ErrShapeOverflow if any dimension is too large.
func Int32Dims(dims []uint32) ([]int32, error) {
	converted := make([]int32, len(dims))
	for axis, dim := range dims {
		var ok bool
		converted[axis], ok = CheckedCast[int32](dim)
		if !ok {
			return nil, errors.Wrapf(ErrShapeOverflow, "dimension %d of axis #%d in shape %v doesn't fit an int32", dim, axis, dims)
		}
	}
	return converted, nil
}

// Int32Values converts integer values (indices, axes, permutations, sizes) to int32.
// It returns an error wrapping ErrShapeOverflow if any value is out of range.
func Int32Values[T constraints.Integer](values []T) ([]int32, error) {
	converted := make([]int32, len(values))
	for ii, v := range values {
		var ok bool
		converted[ii], ok = CheckedCast[int32](v)
		if !ok {
			return nil, errors.Wrapf(ErrShapeOverflow, "value %d (#%d) doesn't fit an int32", v, ii)
		}
	}
	return converted, nil
}

// NumElements returns the product of the dimensions, and false if it overflows an int.
func NumElements(dims []uint32) (int, bool) {
	size := 1
	for _, dim := range dims {
		if dim == 0 {
			return 0, true
		}
		if size > math.MaxInt/int(dim) {
			return 0, false
		}
		size *= int(dim)
	}
	return size, true
}
