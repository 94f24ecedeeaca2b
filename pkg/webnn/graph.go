// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package webnn

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// OperandID is the graph-scoped key of an Operand. Operations refer to operands only through their ids.
type OperandID uint64

// OperandKind describes where the value of an operand comes from.
type OperandKind int

const (
	// OperandInput is fed by the caller at execution time.
	OperandInput OperandKind = iota

	// OperandConstant has its bytes in Graph.Constants.
	OperandConstant

	// OperandOutput is produced by an operation. It is a graph output only if listed in Graph.Outputs,
	// otherwise it is an intermediate value.
	OperandOutput
)

// String implements fmt.Stringer.
func (k OperandKind) String() string {
	switch k {
	case OperandInput:
		return "input"
	case OperandConstant:
		return "constant"
	case OperandOutput:
		return "output"
	default:
		return fmt.Sprintf("OperandKind(%d)", int(k))
	}
}

// Operand is a named, typed and shaped tensor value of the graph.
type Operand struct {
	Kind  OperandKind
	DType dtypes.DType
	Shape []uint32

	// Name is optional, and becomes the tensor name in the compiled model.
	Name string
}

// Rank of the operand.
func (o *Operand) Rank() int { return len(o.Shape) }

// String implements fmt.Stringer.
func (o *Operand) String() string {
	if o.Name != "" {
		return fmt.Sprintf("%s %q (%s)%v", o.Kind, o.Name, o.DType, o.Shape)
	}
	return fmt.Sprintf("%s (%s)%v", o.Kind, o.DType, o.Shape)
}

// Graph is a validated computation graph.
//
// It is owned by the caller and must be kept unchanged while it is being compiled.
// The operations are expected to already be in a valid topological order, and
// the data types and shapes are expected to already follow the type rules of each operation.
type Graph struct {
	Operands   map[OperandID]*Operand
	Operations []Operation

	// Inputs and Outputs list the graph's inputs and outputs, in order.
	Inputs, Outputs []OperandID

	// Constants holds the raw little-endian bytes of each constant operand.
	Constants map[OperandID][]byte

	nextID OperandID
}

// NewGraph creates an empty Graph, to be filled with the Add* methods.
func NewGraph() *Graph {
	return &Graph{
		Operands:  make(map[OperandID]*Operand),
		Constants: make(map[OperandID][]byte),
	}
}

// AddOperand creates a new operand and returns its id. It doesn't register it as a graph input or output.
func (g *Graph) AddOperand(kind OperandKind, name string, dtype dtypes.DType, shape ...uint32) OperandID {
	if g.Operands == nil {
		g.Operands = make(map[OperandID]*Operand)
	}
	id := g.nextID
	for _, taken := g.Operands[id]; taken; _, taken = g.Operands[id] {
		id++
	}
	g.nextID = id + 1
	g.Operands[id] = &Operand{Kind: kind, DType: dtype, Shape: slices.Clone(shape), Name: name}
	return id
}

// AddInput creates a graph input.
func (g *Graph) AddInput(name string, dtype dtypes.DType, shape ...uint32) OperandID {
	id := g.AddOperand(OperandInput, name, dtype, shape...)
	g.Inputs = append(g.Inputs, id)
	return id
}

// AddOutput creates a graph output, that must then be produced by one of the operations.
func (g *Graph) AddOutput(name string, dtype dtypes.DType, shape ...uint32) OperandID {
	id := g.AddOperand(OperandOutput, name, dtype, shape...)
	g.Outputs = append(g.Outputs, id)
	return id
}

// AddIntermediate creates an operand produced by one operation and consumed by others.
func (g *Graph) AddIntermediate(dtype dtypes.DType, shape ...uint32) OperandID {
	return g.AddOperand(OperandOutput, "", dtype, shape...)
}

// AddConstant creates a constant operand holding data. The size of data must match dtype and shape.
func (g *Graph) AddConstant(name string, dtype dtypes.DType, data []byte, shape ...uint32) OperandID {
	numElements := 1
	for _, dim := range shape {
		numElements *= int(dim)
	}
	if len(data) != numElements*dtype.Size() {
		exceptions.Panicf("AddConstant(%q): %d bytes given for %s%v, expected %d bytes",
			name, len(data), dtype, shape, numElements*dtype.Size())
	}
	id := g.AddOperand(OperandConstant, name, dtype, shape...)
	if g.Constants == nil {
		g.Constants = make(map[OperandID][]byte)
	}
	g.Constants[id] = slices.Clone(data)
	return id
}

// AddOperation appends op to the list of operations. Operations must be added in topological order.
func (g *Graph) AddOperation(op Operation) {
	g.Operations = append(g.Operations, op)
}

// Float32Bytes encodes values as little-endian bytes, the format expected by AddConstant.
func Float32Bytes(values ...float32) []byte {
	data := make([]byte, 4*len(values))
	for ii, v := range values {
		binary.LittleEndian.PutUint32(data[4*ii:], math.Float32bits(v))
	}
	return data
}

// Int32Bytes encodes values as little-endian bytes, the format expected by AddConstant.
func Int32Bytes(values ...int32) []byte {
	data := make([]byte, 4*len(values))
	for ii, v := range values {
		binary.LittleEndian.PutUint32(data[4*ii:], uint32(v))
	}
	return data
}

// Opt returns a reference to id, for the optional operands of operations.
func Opt(id OperandID) *OperandID {
	return &id
}
