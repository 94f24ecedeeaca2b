// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package webnn

import (
	"fmt"
	"maps"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/webnn2tflite/pkg/support/sets"
)

// Slot identifies which operand of an operation a capability entry refers to.
type Slot int

const (
	// SlotInput is the main data input(s) of an operation.
	SlotInput Slot = iota
	// SlotOutput is the output(s) of an operation.
	SlotOutput
	// SlotIndices is the indices operand of Gather.
	SlotIndices
	// SlotCondition is the condition operand of Where.
	SlotCondition
)

// String implements fmt.Stringer.
func (s Slot) String() string {
	switch s {
	case SlotInput:
		return "input"
	case SlotOutput:
		return "output"
	case SlotIndices:
		return "indices"
	case SlotCondition:
		return "condition"
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

// Role is one operand slot of one operation kind, e.g. {OpKindGather, SlotIndices}.
type Role struct {
	Kind OpKind
	Slot Slot
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return r.Kind.String() + "." + r.Slot.String()
}

// Capabilities holds, for each Role, the data types accepted by a compilation target.
//
// It is produced by a capability negotiation that happens before a graph is validated: graphs
// handed to the compiler are expected to only use the listed data types.
type Capabilities struct {
	// Name of the target these capabilities describe.
	Name string

	// DTypes lists the data types supported per role.
	// If a role is not listed, it's assumed nothing is supported.
	DTypes map[Role]sets.Set[dtypes.DType]
}

// Supports returns whether dtype is accepted by the given slot of operations of the given kind.
func (c Capabilities) Supports(kind OpKind, slot Slot, dtype dtypes.DType) bool {
	set, found := c.DTypes[Role{kind, slot}]
	return found && set.Has(dtype)
}

// Allow adds dtypes to the ones accepted by the role.
func (c *Capabilities) Allow(kind OpKind, slot Slot, dtypeList ...dtypes.DType) {
	if c.DTypes == nil {
		c.DTypes = make(map[Role]sets.Set[dtypes.DType])
	}
	role := Role{kind, slot}
	set, found := c.DTypes[role]
	if !found {
		set = sets.Make[dtypes.DType]()
		c.DTypes[role] = set
	}
	set.Insert(dtypeList...)
}

// Allowed returns a human-readable list of the dtypes accepted by the role, sorted by name, for error messages.
func (c Capabilities) Allowed(kind OpKind, slot Slot) string {
	set := c.DTypes[Role{kind, slot}]
	names := make([]string, 0, len(set))
	byName := func(a, b dtypes.DType) int { return strings.Compare(a.String(), b.String()) }
	for _, dtype := range sets.SortedFunc(set, byName) {
		names = append(names, dtype.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Clone makes a deep copy of the Capabilities.
func (c Capabilities) Clone() Capabilities {
	c2 := Capabilities{Name: c.Name}
	c2.DTypes = make(map[Role]sets.Set[dtypes.DType], len(c.DTypes))
	for role, set := range c.DTypes {
		c2.DTypes[role] = maps.Clone(set)
	}
	return c2
}

// TFLiteCapabilities returns the data types accepted by the TFLite compiler (backends/tflite).
//
// Some roles accept Float16 even though the lowering rejects it for emulated operations: those
// are reported as unsupported configurations at compile time, not as contract violations.
func TFLiteCapabilities() Capabilities {
	var (
		F32 = dtypes.Float32
		F16 = dtypes.Float16
		I32 = dtypes.Int32
		U32 = dtypes.Uint32
		I64 = dtypes.Int64
		U64 = dtypes.Uint64
		I8  = dtypes.Int8
		U8  = dtypes.Uint8
	)
	floats := []dtypes.DType{F32, F16}
	all := []dtypes.DType{F32, F16, I32, U32, I64, U64, I8, U8}

	c := Capabilities{Name: "tflite"}
	sameInOut := func(kind OpKind, dtypeList ...dtypes.DType) {
		c.Allow(kind, SlotInput, dtypeList...)
		c.Allow(kind, SlotOutput, dtypeList...)
	}

	for _, kind := range []OpKind{OpKindArgMin, OpKindArgMax} {
		c.Allow(kind, SlotInput, F32, I32, I64, I8, U8)
		c.Allow(kind, SlotOutput, I32, I64)
	}
	for _, kind := range []OpKind{OpKindConcat, OpKindExpand, OpKindReshape, OpKindTranspose, OpKindSlice,
		OpKindSplit, OpKindPad, OpKindIdentity, OpKindTriangular} {
		sameInOut(kind, all...)
	}
	c.Allow(OpKindCast, SlotInput, all...)
	c.Allow(OpKindCast, SlotOutput, all...)
	c.Allow(OpKindGather, SlotInput, all...)
	c.Allow(OpKindGather, SlotOutput, all...)
	c.Allow(OpKindGather, SlotIndices, I32, U32, I64)
	c.Allow(OpKindWhere, SlotCondition, U8)
	c.Allow(OpKindWhere, SlotInput, all...)
	c.Allow(OpKindWhere, SlotOutput, all...)

	for _, kind := range []OpKind{OpKindBatchNormalization, OpKindInstanceNormalization, OpKindLayerNormalization,
		OpKindConv2d, OpKindConvTranspose2d, OpKindAveragePool2d, OpKindL2Pool2d, OpKindMaxPool2d,
		OpKindElu, OpKindGelu, OpKindHardSigmoid, OpKindHardSwish, OpKindLeakyRelu, OpKindLinear,
		OpKindSigmoid, OpKindTanh, OpKindSoftmax, OpKindSoftplus, OpKindSoftsign, OpKindPrelu,
		OpKindGemm, OpKindMatmul, OpKindGru, OpKindGruCell, OpKindLstm, OpKindLstmCell, OpKindResample2d,
		OpKindCeil, OpKindFloor, OpKindCos, OpKindSin, OpKindExp, OpKindLog, OpKindSqrt,
		OpKindErf, OpKindTan, OpKindReciprocal,
		OpKindReduceL2, OpKindReduceLogSum, OpKindReduceLogSumExp} {
		sameInOut(kind, floats...)
	}
	sameInOut(OpKindClamp, F32, F16, I32, I64, I8, U8)
	sameInOut(OpKindRelu, F32, F16, I8, I32, I64)

	for _, kind := range []OpKind{OpKindAdd, OpKindSub, OpKindMul, OpKindMax, OpKindMin, OpKindNeg} {
		sameInOut(kind, F32, I32, I64)
	}
	for _, kind := range []OpKind{OpKindDiv, OpKindPow, OpKindSign} {
		sameInOut(kind, F32, I32)
	}
	sameInOut(OpKindAbs, F32, F16, I32)
	for _, kind := range []OpKind{OpKindEqual, OpKindGreater, OpKindGreaterOrEqual, OpKindLesser, OpKindLesserOrEqual} {
		c.Allow(kind, SlotInput, F32, I32, I64)
		c.Allow(kind, SlotOutput, U8)
	}
	for _, kind := range []OpKind{OpKindLogicalAnd, OpKindLogicalOr, OpKindLogicalXor, OpKindLogicalNot} {
		sameInOut(kind, U8)
	}

	for _, kind := range []OpKind{OpKindReduceMax, OpKindReduceMin, OpKindReduceSum, OpKindReduceProduct,
		OpKindReduceMean} {
		sameInOut(kind, F32, F16, I32, I64)
	}
	// Emulated with POW and ABS, whose kernels don't take Int64.
	sameInOut(OpKindReduceSumSquare, F32, F16, I32)
	sameInOut(OpKindReduceL1, F32, F16, I32, U32, U64)
	return c
}
