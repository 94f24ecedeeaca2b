// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapeinference implements the shape arithmetic needed to lower WebNN operations: broadcasting,
// permutations, reductions and convolution/pooling padding, all with overflow checks.
//
// Dimensions are unsigned 32-bit integers (as in WebNN), and the functions that may overflow return errors
// wrapping ErrShapeOverflow or ErrPaddingOverflow, so callers can use errors.Is to classify them.
package shapeinference

import (
	"slices"

	"github.com/pkg/errors"
)

// BroadcastShapes returns the shape resulting from bidirectionally broadcasting lhs and rhs, using the
// standard rules: shapes are right-aligned, and each pair of dimensions must either match or one of them be 1.
func BroadcastShapes(lhs, rhs []uint32) ([]uint32, error) {
	rank := max(len(lhs), len(rhs))
	output := make([]uint32, rank)
	for ii := range rank {
		lhsDim, rhsDim := uint32(1), uint32(1)
		if jj := len(lhs) - rank + ii; jj >= 0 {
			lhsDim = lhs[jj]
		}
		if jj := len(rhs) - rank + ii; jj >= 0 {
			rhsDim = rhs[jj]
		}
		if lhsDim != 1 && rhsDim != 1 && lhsDim != rhsDim {
			return nil, errors.Errorf("dimension of axis #%d doesn't match and cannot be broadcast, got shapes %v and %v",
				ii, lhs, rhs)
		}
		if lhsDim == 1 {
			output[ii] = rhsDim
		} else {
			output[ii] = lhsDim
		}
	}
	return output, nil
}

// CanBroadcastTo returns whether operand can be unidirectionally broadcast to target: operand's rank must not be
// larger, and each of its (right-aligned) dimensions must either be 1 or match target.
func CanBroadcastTo(operand, target []uint32) bool {
	if len(operand) > len(target) {
		return false
	}
	offset := len(target) - len(operand)
	for ii, dim := range operand {
		if dim != 1 && dim != target[offset+ii] {
			return false
		}
	}
	return true
}

// TransposeShape returns the dimensions of the operand permuted: output[ii] = dims[permutation[ii]].
func TransposeShape(dims []uint32, permutation []uint32) ([]uint32, error) {
	if err := checkPermutation(len(dims), permutation); err != nil {
		return nil, err
	}
	output := make([]uint32, len(dims))
	for axis, srcAxis := range permutation {
		output[axis] = dims[srcAxis]
	}
	return output, nil
}

func checkPermutation(rank int, permutation []uint32) error {
	if len(permutation) != rank {
		return errors.Errorf("permutation %v must have one entry per axis, operand has rank %d", permutation, rank)
	}
	sorted := slices.Clone(permutation)
	slices.Sort(sorted)
	for ii, axis := range sorted {
		if int(axis) != ii {
			return errors.Errorf("invalid permutation %v for rank %d, each axis must appear exactly once", permutation, rank)
		}
	}
	return nil
}

// SwapLastPermutation returns the permutation of the given rank that swaps axis with the last axis.
// Applying it twice restores the original order.
func SwapLastPermutation(rank int, axis uint32) []uint32 {
	permutation := make([]uint32, rank)
	for ii := range permutation {
		permutation[ii] = uint32(ii)
	}
	if rank > 0 {
		permutation[axis], permutation[rank-1] = permutation[rank-1], permutation[axis]
	}
	return permutation
}

// ReduceShape returns the shape of the reduction of dims over the given axes.
// If keepDims is true, reduced axes are kept with dimension 1.
func ReduceShape(dims []uint32, axes []uint32, keepDims bool) ([]uint32, error) {
	reduced := make([]bool, len(dims))
	for _, axis := range axes {
		if int(axis) >= len(dims) {
			return nil, errors.Errorf("reduce axis %d out of range for shape %v", axis, dims)
		}
		if reduced[axis] {
			return nil, errors.Errorf("reduce axis %d given more than once (axes=%v)", axis, axes)
		}
		reduced[axis] = true
	}
	output := make([]uint32, 0, len(dims))
	for axis, dim := range dims {
		switch {
		case !reduced[axis]:
			output = append(output, dim)
		case keepDims:
			output = append(output, 1)
		}
	}
	return output, nil
}
